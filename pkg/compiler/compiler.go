package compiler

import (
	"fmt"
	"strings"

	"slip_go/pkg/codegen"
	"slip_go/pkg/reader"
)

// Compiler ties the reader and the code generator into one single-pass
// pipeline: source bytes in, newline-joined instruction listing out.
type Compiler struct{}

// New creates a new Compiler.
func New() *Compiler {
	return &Compiler{}
}

// CompileProgram compiles a whole program. Any unconsumed input after the
// last top-level expression is an error; there is no partial output.
func (c *Compiler) CompileProgram(src []byte) (string, error) {
	exprs, rest, err := reader.Read(src)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	if len(rest) > 0 {
		return "", fmt.Errorf("leftover input: %q", string(rest))
	}
	lines, err := codegen.LowerProgram(exprs)
	if err != nil {
		return "", fmt.Errorf("lower: %w", err)
	}
	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}
