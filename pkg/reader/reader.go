package reader

import (
	"fmt"

	"slip_go/pkg/ast"
)

// SyntaxError is a compile-fatal reader diagnostic. Offset is the byte
// position of the offending fragment in the original input.
type SyntaxError struct {
	Offset   int
	Msg      string
	Fragment string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at byte %d: %s: %q", e.Offset, e.Msg, e.Fragment)
}

// Reader is a backtracking recursive-descent parser over a byte slice.
// There is no separate tokenizer: productions are tried in a fixed priority
// order at each position and restore the position when they do not match.
type Reader struct {
	src []byte
	pos int
}

// New creates a reader for the given input.
func New(src []byte) *Reader {
	return &Reader{src: src}
}

// Read greedily parses top-level expressions from src. It stops at the first
// position where no production matches and returns the remaining bytes; the
// caller decides whether a non-empty remainder is an error. A non-nil error
// is compile-fatal (unrecognized string escape, malformed let or if shape,
// a form head that is not a symbol).
//
// Recursion depth tracks the nesting depth of the input; pathologically deep
// nesting can exhaust the goroutine stack.
func Read(src []byte) ([]*ast.Node, []byte, error) {
	r := New(src)
	var nodes []*ast.Node
	for {
		if err := r.skipAtmosphere(); err != nil {
			return nil, r.rest(), err
		}
		if r.pos >= len(r.src) {
			break
		}
		n, ok, err := r.readExpr()
		if err != nil {
			return nil, r.rest(), err
		}
		if !ok {
			break
		}
		nodes = append(nodes, n)
	}
	return nodes, r.rest(), nil
}

func (r *Reader) rest() []byte {
	return r.src[r.pos:]
}

func (r *Reader) peek() byte {
	if r.pos >= len(r.src) {
		return 0
	}
	return r.src[r.pos]
}

// atDelimiter reports whether the current position legally terminates a
// token: end of input, ASCII whitespace, or a parenthesis.
func (r *Reader) atDelimiter() bool {
	if r.pos >= len(r.src) {
		return true
	}
	c := r.src[r.pos]
	return isSpace(c) || c == '(' || c == ')'
}

func (r *Reader) fatalf(at int, format string, args ...interface{}) error {
	return &SyntaxError{
		Offset:   at,
		Msg:      fmt.Sprintf(format, args...),
		Fragment: snippet(r.src[at:]),
	}
}

func snippet(b []byte) string {
	const max = 24
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// skipAtmosphere consumes whitespace and all three comment forms: line
// comments, nested block comments, and datum comments. An unterminated block
// comment is left in place so it surfaces as leftover input, never silently
// swallowed.
func (r *Reader) skipAtmosphere() error {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case isSpace(c):
			r.pos++
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == '#' && r.pos+1 < len(r.src) && r.src[r.pos+1] == '|':
			if !r.skipBlockComment() {
				return nil
			}
		case c == '#' && r.pos+1 < len(r.src) && r.src[r.pos+1] == ';':
			save := r.pos
			r.pos += 2
			n, ok, err := r.readExpr()
			if err != nil {
				return err
			}
			if !ok {
				r.pos = save
				return nil
			}
			_ = n // parsed and discarded
		default:
			return nil
		}
	}
	return nil
}

// skipBlockComment consumes a balanced #| ... |# comment, tracking nesting.
// Returns false without consuming anything when the comment is unterminated.
func (r *Reader) skipBlockComment() bool {
	depth := 1
	i := r.pos + 2
	for i < len(r.src) {
		if r.src[i] == '#' && i+1 < len(r.src) && r.src[i+1] == '|' {
			depth++
			i += 2
		} else if r.src[i] == '|' && i+1 < len(r.src) && r.src[i+1] == '#' {
			depth--
			i += 2
			if depth == 0 {
				r.pos = i
				return true
			}
		} else {
			i++
		}
	}
	return false
}

// readExpr tries each production in priority order. The order matters: a
// bare digit run must be claimed by the integer production, and '() by the
// null production, before anything else gets a look at the position.
func (r *Reader) readExpr() (*ast.Node, bool, error) {
	if err := r.skipAtmosphere(); err != nil {
		return nil, false, err
	}
	if r.pos >= len(r.src) {
		return nil, false, nil
	}
	if n, ok := r.readInt(); ok {
		return n, true, nil
	}
	if n, ok := r.readBool(); ok {
		return n, true, nil
	}
	if n, ok := r.readChar(); ok {
		return n, true, nil
	}
	if n, ok := r.readNull(); ok {
		return n, true, nil
	}
	if n, ok := r.readSymbol(); ok {
		return n, true, nil
	}
	n, ok, err := r.readString()
	if err != nil || ok {
		return n, ok, err
	}
	return r.readForm()
}

// readInt consumes a base-10 digit run. Accumulation wraps per uint64
// arithmetic; overflow is not a parse failure.
func (r *Reader) readInt() (*ast.Node, bool) {
	save := r.pos
	var v uint64
	for r.pos < len(r.src) && isDigit(r.src[r.pos]) {
		v = v*10 + uint64(r.src[r.pos]-'0')
		r.pos++
	}
	if r.pos == save || !r.atDelimiter() {
		r.pos = save
		return nil, false
	}
	return ast.NewInt(v), true
}

func (r *Reader) readBool() (*ast.Node, bool) {
	if r.pos+2 > len(r.src) || r.src[r.pos] != '#' {
		return nil, false
	}
	var v bool
	switch r.src[r.pos+1] {
	case 't', 'T':
		v = true
	case 'f', 'F':
		v = false
	default:
		return nil, false
	}
	save := r.pos
	r.pos += 2
	if !r.atDelimiter() {
		r.pos = save
		return nil, false
	}
	return ast.NewBool(v), true
}

func (r *Reader) readChar() (*ast.Node, bool) {
	if r.pos+3 > len(r.src) || r.src[r.pos] != '#' || r.src[r.pos+1] != '\\' {
		return nil, false
	}
	c := r.src[r.pos+2]
	if !isPrintable(c) {
		return nil, false
	}
	save := r.pos
	r.pos += 3
	if !r.atDelimiter() {
		r.pos = save
		return nil, false
	}
	return ast.NewChar(c), true
}

func (r *Reader) readNull() (*ast.Node, bool) {
	if r.pos+3 > len(r.src) ||
		r.src[r.pos] != '\'' || r.src[r.pos+1] != '(' || r.src[r.pos+2] != ')' {
		return nil, false
	}
	r.pos += 3
	return ast.NewNull(), true
}

func (r *Reader) readSymbol() (*ast.Node, bool) {
	name, ok := r.readSymbolToken()
	if !ok {
		return nil, false
	}
	return ast.NewSym(name), true
}

// readSymbolToken consumes a symbol and enforces the trailing delimiter.
func (r *Reader) readSymbolToken() (string, bool) {
	if r.pos >= len(r.src) || !isSymbolStart(r.src[r.pos]) {
		return "", false
	}
	save := r.pos
	r.pos++
	for r.pos < len(r.src) && isSymbolChar(r.src[r.pos]) {
		r.pos++
	}
	if !r.atDelimiter() {
		r.pos = save
		return "", false
	}
	return string(r.src[save:r.pos]), true
}

// readString consumes a double-quoted literal. An unterminated string is a
// backtrack; an unrecognized escape is compile-fatal.
func (r *Reader) readString() (*ast.Node, bool, error) {
	if r.peek() != '"' {
		return nil, false, nil
	}
	save := r.pos
	r.pos++
	var buf []byte
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		r.pos++
		switch c {
		case '"':
			return ast.NewString(string(buf)), true, nil
		case '\\':
			if r.pos >= len(r.src) {
				r.pos = save
				return nil, false, nil
			}
			esc := r.src[r.pos]
			r.pos++
			switch esc {
			case '\\':
				buf = append(buf, '\\')
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			case '"':
				buf = append(buf, '"')
			case '\n':
				// line continuation
				buf = append(buf, '\n')
			default:
				return nil, false, r.fatalf(r.pos-2, "unrecognized string escape \\%c", esc)
			}
		default:
			buf = append(buf, c)
		}
	}
	r.pos = save
	return nil, false, nil
}

// readForm consumes a parenthesized form. The head must be a symbol; the
// heads "let" and "if" are classified here so their shape violations fail
// the whole compilation instead of backtracking. A missing close paren is a
// backtrack: the remainder surfaces as leftover input.
func (r *Reader) readForm() (*ast.Node, bool, error) {
	if r.peek() != '(' {
		return nil, false, nil
	}
	save := r.pos
	r.pos++
	if err := r.skipAtmosphere(); err != nil {
		return nil, false, err
	}
	if r.peek() == ')' {
		return nil, false, r.fatalf(save, "empty form")
	}
	head, ok := r.readSymbolToken()
	if !ok {
		return nil, false, r.fatalf(save, "form head is not a symbol")
	}
	switch head {
	case "let":
		return r.readLetRest(save)
	case "if":
		return r.readIfRest(save)
	}
	args, ok, err := r.readUntilClose()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		r.pos = save
		return nil, false, nil
	}
	return ast.NewForm(append([]*ast.Node{ast.NewSym(head)}, args...)), true, nil
}

// readUntilClose consumes expressions up to a closing paren. Returns false
// when the close paren is missing or an unparseable byte appears first.
func (r *Reader) readUntilClose() ([]*ast.Node, bool, error) {
	var exprs []*ast.Node
	for {
		if err := r.skipAtmosphere(); err != nil {
			return nil, false, err
		}
		if r.pos >= len(r.src) {
			return nil, false, nil
		}
		if r.peek() == ')' {
			r.pos++
			return exprs, true, nil
		}
		n, ok, err := r.readExpr()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		exprs = append(exprs, n)
	}
}

func (r *Reader) readIfRest(save int) (*ast.Node, bool, error) {
	args, ok, err := r.readUntilClose()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		r.pos = save
		return nil, false, nil
	}
	if len(args) != 2 && len(args) != 3 {
		return nil, false, r.fatalf(save, "if expects 2 or 3 arguments, got %d", len(args))
	}
	return ast.NewIf(args), true, nil
}

func (r *Reader) readLetRest(save int) (*ast.Node, bool, error) {
	if err := r.skipAtmosphere(); err != nil {
		return nil, false, err
	}
	if r.peek() != '(' {
		return nil, false, r.fatalf(save, "let: malformed binding list")
	}
	r.pos++
	var bindings []ast.Binding
	for {
		if err := r.skipAtmosphere(); err != nil {
			return nil, false, err
		}
		if r.peek() == ')' {
			r.pos++
			break
		}
		b, err := r.readBinding(save)
		if err != nil {
			return nil, false, err
		}
		bindings = append(bindings, b)
	}
	body, ok, err := r.readUntilClose()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		r.pos = save
		return nil, false, nil
	}
	if len(body) == 0 {
		return nil, false, r.fatalf(save, "let: empty body")
	}
	return ast.NewLet(bindings, body), true, nil
}

// readBinding consumes one (name initializer) pair. Every shape violation
// here is compile-fatal: once the let head has been seen there is no other
// production the input could belong to.
func (r *Reader) readBinding(formStart int) (ast.Binding, error) {
	at := r.pos
	if r.peek() != '(' {
		return ast.Binding{}, r.fatalf(formStart, "let: binding must be a (name expression) pair")
	}
	r.pos++
	if err := r.skipAtmosphere(); err != nil {
		return ast.Binding{}, err
	}
	name, ok := r.readSymbolToken()
	if !ok {
		return ast.Binding{}, r.fatalf(at, "let: binding name must be a symbol")
	}
	init, ok, err := r.readExpr()
	if err != nil {
		return ast.Binding{}, err
	}
	if !ok {
		return ast.Binding{}, r.fatalf(at, "let: binding %s is missing its initializer", name)
	}
	if err := r.skipAtmosphere(); err != nil {
		return ast.Binding{}, err
	}
	if r.peek() != ')' {
		return ast.Binding{}, r.fatalf(at, "let: binding must be a (name expression) pair")
	}
	r.pos++
	return ast.Binding{Name: name, Init: init}, nil
}
