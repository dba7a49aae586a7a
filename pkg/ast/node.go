package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag identifies the kind of a Node.
type Tag int

const (
	TInt Tag = iota
	TBool
	TChar
	TNull
	TString
	TSym
	TForm
	TIf
	TLet
)

// Binding is one (name initializer) pair in a let form.
type Binding struct {
	Name string
	Init *Node
}

// Node is the tagged union for all expression shapes. Each node owns its
// children exclusively; the tree is built once by the reader and consumed
// once by the code generator.
type Node struct {
	Tag Tag

	// TInt
	Int uint64

	// TBool
	Bool bool

	// TChar
	Char byte

	// TString (raw bytes), TSym (name)
	Str string

	// TForm (head + arguments), TIf (condition, consequent, optional alternative)
	Kids []*Node

	// TLet
	Bindings []Binding
	Body     []*Node
}

// NewInt creates an integer literal node.
func NewInt(v uint64) *Node {
	return &Node{Tag: TInt, Int: v}
}

// NewBool creates a boolean literal node.
func NewBool(v bool) *Node {
	return &Node{Tag: TBool, Bool: v}
}

// NewChar creates a character literal node.
func NewChar(c byte) *Node {
	return &Node{Tag: TChar, Char: c}
}

// NewNull creates a '() literal node.
func NewNull() *Node {
	return &Node{Tag: TNull}
}

// NewString creates a string literal node.
func NewString(s string) *Node {
	return &Node{Tag: TString, Str: s}
}

// NewSym creates a symbol node.
func NewSym(name string) *Node {
	return &Node{Tag: TSym, Str: name}
}

// NewForm creates an operator application node; kids[0] is the head symbol.
func NewForm(kids []*Node) *Node {
	return &Node{Tag: TForm, Kids: kids}
}

// NewIf creates a conditional node from 2 or 3 children.
func NewIf(kids []*Node) *Node {
	return &Node{Tag: TIf, Kids: kids}
}

// NewLet creates a binding node.
func NewLet(bindings []Binding, body []*Node) *Node {
	return &Node{Tag: TLet, Bindings: bindings, Body: body}
}

// IsSym checks if a node is a symbol.
func IsSym(n *Node) bool {
	return n != nil && n.Tag == TSym
}

// String renders a node back to S-expression syntax.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	switch n.Tag {
	case TInt:
		return strconv.FormatUint(n.Int, 10)
	case TBool:
		if n.Bool {
			return "#t"
		}
		return "#f"
	case TChar:
		return fmt.Sprintf("#\\%c", n.Char)
	case TNull:
		return "'()"
	case TString:
		return strconv.Quote(n.Str)
	case TSym:
		return n.Str
	case TForm:
		return kidsToString(n.Kids)
	case TIf:
		return kidsToString(append([]*Node{NewSym("if")}, n.Kids...))
	case TLet:
		var sb strings.Builder
		sb.WriteString("(let (")
		for i, b := range n.Bindings {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "(%s %s)", b.Name, b.Init.String())
		}
		sb.WriteByte(')')
		for _, e := range n.Body {
			sb.WriteByte(' ')
			sb.WriteString(e.String())
		}
		sb.WriteByte(')')
		return sb.String()
	default:
		return "?"
	}
}

func kidsToString(kids []*Node) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, k := range kids {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// TagName returns the name of a tag.
func TagName(t Tag) string {
	switch t {
	case TInt:
		return "INT"
	case TBool:
		return "BOOL"
	case TChar:
		return "CHAR"
	case TNull:
		return "NULL"
	case TString:
		return "STRING"
	case TSym:
		return "SYM"
	case TForm:
		return "FORM"
	case TIf:
		return "IF"
	case TLet:
		return "LET"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t)
	}
}
