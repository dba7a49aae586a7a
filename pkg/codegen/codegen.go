package codegen

import (
	"fmt"

	"slip_go/pkg/ast"
)

// LowerProgram lowers a sequence of top-level expressions into instruction
// lines, one instruction per line, starting from an empty environment and
// stack depth 0. Every expression except the last has its value discarded;
// the last value is the program's result.
//
// Lowering recurses per AST level, so nesting depth is bounded by the
// goroutine stack like the reader's.
func LowerProgram(exprs []*ast.Node) ([]string, error) {
	return lowerSequence(exprs, EmptyEnv, 0)
}

// lowerSequence lowers body expressions left to right under a shared
// environment and stack depth, emitting FORGET after every value but the
// last.
func lowerSequence(exprs []*ast.Node, env *Env, depth int) ([]string, error) {
	var out []string
	for i, e := range exprs {
		code, err := lowerExpr(e, env, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		if i < len(exprs)-1 {
			out = append(out, opForget)
		}
	}
	return out, nil
}

// lowerExpr lowers one expression. Each call owns its depth counter and
// returns information only through the emitted instructions; every
// expression nets exactly one new stack slot, which is how callers advance
// their own counters.
func lowerExpr(n *ast.Node, env *Env, depth int) ([]string, error) {
	switch n.Tag {
	case ast.TInt:
		return []string{load(fmt.Sprintf("%d", n.Int))}, nil
	case ast.TBool:
		return []string{load(boolOperand(n.Bool))}, nil
	case ast.TChar:
		return []string{load(charOperand(n.Char))}, nil
	case ast.TNull:
		return []string{load("NULL")}, nil
	case ast.TString:
		return lowerString(n.Str), nil
	case ast.TSym:
		slot, ok := env.Lookup(n.Str)
		if !ok {
			return nil, fmt.Errorf("unresolved symbol %q", n.Str)
		}
		return []string{fmt.Sprintf("%s %d", opGet, slot)}, nil
	case ast.TIf:
		return lowerIf(n, env, depth)
	case ast.TLet:
		return lowerLet(n, env, depth)
	case ast.TForm:
		return lowerForm(n, env, depth)
	default:
		return nil, fmt.Errorf("cannot lower %s node", ast.TagName(n.Tag))
	}
}

func load(operand string) string {
	return opLoad64 + " " + operand
}

func boolOperand(v bool) string {
	if v {
		return "#t"
	}
	return "#f"
}

// charOperand encodes a character as #\xNN with exactly two hex digits; the
// assembler accepts no other hex width.
func charOperand(c byte) string {
	return fmt.Sprintf("#\\x%02x", c)
}

// lowerString builds the string from its characters: one load per byte, then
// a single count-suffixed STRING.
func lowerString(s string) []string {
	out := make([]string, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		out = append(out, load(charOperand(s[i])))
	}
	return append(out, fmt.Sprintf("%s %d", opString, len(s)))
}

// lowerIf lowers a conditional. Only literal #f is falsy, so the test is an
// identity comparison against a loaded #f. Both branches are lowered into
// side buffers first because the jump distances are the buffers' instruction
// counts, which are only known once their own lowering (including any nested
// jumps) has finished.
func lowerIf(n *ast.Node, env *Env, depth int) ([]string, error) {
	out, err := lowerExpr(n.Kids[0], env, depth)
	if err != nil {
		return nil, err
	}
	out = append(out, load(boolOperand(false)), opEqp)

	// Both branches start at the original depth: the comparison result is
	// consumed by the conditional jump, and the branches are mutually
	// exclusive at runtime.
	consequent, err := lowerExpr(n.Kids[1], env, depth)
	if err != nil {
		return nil, err
	}
	var alternative []string
	if len(n.Kids) == 3 {
		alternative, err = lowerExpr(n.Kids[2], env, depth)
		if err != nil {
			return nil, err
		}
	} else {
		alternative = []string{load("UNSPECIFIED")}
	}
	consequent = append(consequent, fmt.Sprintf("%s %d", opJump, len(alternative)))
	out = append(out, fmt.Sprintf("%s %d", opCjump, len(consequent)))
	out = append(out, consequent...)
	return append(out, alternative...), nil
}

// lowerLet lowers bindings in declaration order. Each initializer is lowered
// under the environment as of before its own binding, so later bindings can
// shadow or reference earlier ones but an initializer never sees itself.
// After the body, a single counted FALL drops the binding slots while the
// body's value stays on top.
func lowerLet(n *ast.Node, env *Env, depth int) ([]string, error) {
	var out []string
	letEnv := env
	seen := make(map[string]bool, len(n.Bindings))
	d := depth
	for _, b := range n.Bindings {
		code, err := lowerExpr(b.Init, letEnv, d)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		if seen[b.Name] {
			return nil, fmt.Errorf("duplicate binding %q in let", b.Name)
		}
		seen[b.Name] = true
		letEnv = letEnv.Bind(b.Name, d)
		d++
	}
	body, err := lowerSequence(n.Body, letEnv, d)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	if len(n.Bindings) > 0 {
		out = append(out, fmt.Sprintf("%s %d", opFall, len(n.Bindings)))
	}
	return out, nil
}

// lowerForm dispatches an operator application. Local bindings shadow
// primitive names; calling a bound variable needs user-defined functions,
// which do not exist yet.
func lowerForm(n *ast.Node, env *Env, depth int) ([]string, error) {
	head := n.Kids[0].Str
	args := n.Kids[1:]
	if env.Bound(head) {
		return nil, fmt.Errorf("calling a bound variable is not yet supported: %s", head)
	}
	p, ok := lookupPrimitive(head)
	if !ok {
		return nil, fmt.Errorf("unresolved symbol %q", head)
	}
	switch p.strat {
	case stratFixed:
		return lowerFixed(p, head, args, env, depth)
	case stratFold:
		return lowerFold(p, head, args, env, depth)
	case stratAllPairs:
		return lowerAllPairs(p, args, env, depth)
	case stratVariadic:
		return lowerVariadic(p, args, env, depth)
	default:
		return nil, fmt.Errorf("primitive %s has no lowering strategy", head)
	}
}

func lowerFixed(p primitive, name string, args []*ast.Node, env *Env, depth int) ([]string, error) {
	if len(args) != p.nargs {
		return nil, fmt.Errorf("%s expects exactly %d argument(s), got %d", name, p.nargs, len(args))
	}
	var out []string
	d := depth
	for _, a := range args {
		code, err := lowerExpr(a, env, d)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		d++
	}
	return append(out, p.opcode), nil
}

// lowerFold emits a left-associative reduction: the opcode fires once the
// first p.nargs operands are on the stack, then once more after every
// further operand. Missing leading operands (down to p.min supplied) are
// synthesized from the identity literal.
func lowerFold(p primitive, name string, args []*ast.Node, env *Env, depth int) ([]string, error) {
	if len(args) < p.min {
		return nil, fmt.Errorf("%s expects at least %d argument(s), got %d", name, p.min, len(args))
	}
	padded := args
	for len(padded) < p.nargs {
		padded = append([]*ast.Node{p.identity}, padded...)
	}
	var out []string
	d := depth
	for i, a := range padded {
		code, err := lowerExpr(a, env, d)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		d++
		if i >= p.nargs-1 {
			out = append(out, p.opcode)
			d -= p.nargs - 1
		}
	}
	return out, nil
}

// lowerAllPairs emits a chained comparison. With fewer arguments than the
// implementation arity the result is literal true, but the arguments are
// still evaluated and dropped so their side effects happen. Otherwise every
// argument is pushed once, each adjacent pair is fetched and compared, the
// pair results are conjoined, and the argument slots are dropped out from
// under the final result.
func lowerAllPairs(p primitive, args []*ast.Node, env *Env, depth int) ([]string, error) {
	if len(args) < p.nargs {
		var out []string
		for _, a := range args {
			code, err := lowerExpr(a, env, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, code...)
			out = append(out, opForget)
		}
		return append(out, load(boolOperand(true))), nil
	}
	var out []string
	d := depth
	for _, a := range args {
		code, err := lowerExpr(a, env, d)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		d++
	}
	for i := 0; i+1 < len(args); i++ {
		out = append(out,
			fmt.Sprintf("%s %d", opGet, depth+i),
			fmt.Sprintf("%s %d", opGet, depth+i+1),
			p.opcode)
		if i > 0 {
			out = append(out, opAnd)
		}
	}
	out = append(out, fmt.Sprintf("%s %d", opFall, len(args)))
	return out, nil
}

func lowerVariadic(p primitive, args []*ast.Node, env *Env, depth int) ([]string, error) {
	var out []string
	d := depth
	for _, a := range args {
		code, err := lowerExpr(a, env, d)
		if err != nil {
			return nil, err
		}
		out = append(out, code...)
		d++
	}
	return append(out, fmt.Sprintf("%s %d", p.opcode, len(args))), nil
}
