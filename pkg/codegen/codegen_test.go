package codegen

import (
	"reflect"
	"strings"
	"testing"

	"slip_go/pkg/reader"
)

// lower parses src and lowers it from an empty environment at depth 0.
func lower(t *testing.T, src string) ([]string, error) {
	t.Helper()
	exprs, rest, err := reader.Read([]byte(src))
	if err != nil {
		t.Fatalf("Read(%q) error: %v", src, err)
	}
	if len(rest) != 0 {
		t.Fatalf("Read(%q) leftover %q", src, rest)
	}
	return LowerProgram(exprs)
}

func mustLower(t *testing.T, src string) []string {
	t.Helper()
	code, err := lower(t, src)
	if err != nil {
		t.Fatalf("lower(%q) error: %v", src, err)
	}
	return code
}

func wantCode(t *testing.T, src string, want []string) {
	t.Helper()
	got := mustLower(t, src)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lower(%q) =\n  %v\nwant\n  %v", src, got, want)
	}
}

func wantErr(t *testing.T, src, msg string) {
	t.Helper()
	code, err := lower(t, src)
	if err == nil {
		t.Fatalf("lower(%q) = %v, expected error", src, code)
	}
	if !strings.Contains(err.Error(), msg) {
		t.Errorf("lower(%q) error %q, want mention of %q", src, err, msg)
	}
}

func TestLiteralRoundTrip(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "LOAD64 42"},
		{"0", "LOAD64 0"},
		{"#t", "LOAD64 #t"},
		{"#f", "LOAD64 #f"},
		{`#\a`, `LOAD64 #\x61`},
		{`#\A`, `LOAD64 #\x41`},
		{"'()", "LOAD64 NULL"},
	}
	for _, tt := range tests {
		wantCode(t, tt.src, []string{tt.want})
	}
}

func TestStringLiteral(t *testing.T) {
	wantCode(t, `"ab"`, []string{
		`LOAD64 #\x61`,
		`LOAD64 #\x62`,
		"STRING 2",
	})
	// control characters stay two hex digits wide
	wantCode(t, `"a\n"`, []string{
		`LOAD64 #\x61`,
		`LOAD64 #\x0a`,
		"STRING 2",
	})
	wantCode(t, `""`, []string{"STRING 0"})
}

func TestUnaryPrimitives(t *testing.T) {
	wantCode(t, "(add1 41)", []string{"LOAD64 41", "ADD1"})
	wantCode(t, "(sub1 (add1 5))", []string{"LOAD64 5", "ADD1", "SUB1"})
	wantCode(t, "(zero? 0)", []string{"LOAD64 0", "ZEROP"})
	wantCode(t, `(char->integer #\a)`, []string{`LOAD64 #\x61`, "CHARTOINT"})
	wantCode(t, "(not #f)", []string{"LOAD64 #f", "NOT"})
	wantCode(t, "(null? '())", []string{"LOAD64 NULL", "NULLP"})
}

func TestUnaryArityFaults(t *testing.T) {
	wantErr(t, "(not)", "not expects exactly 1")
	wantErr(t, "(not 1 2)", "not expects exactly 1")
	wantErr(t, "(add1)", "add1 expects exactly 1")
	wantErr(t, "(car 1 2)", "car expects exactly 1")
}

func TestFixedPrimitives(t *testing.T) {
	wantCode(t, "(cons 1 '())", []string{"LOAD64 1", "LOAD64 NULL", "CONS"})
	wantCode(t, "(eq? 1 2)", []string{"LOAD64 1", "LOAD64 2", "EQP"})
	wantCode(t, `(string-ref "a" 0)`, []string{`LOAD64 #\x61`, "STRING 1", "LOAD64 0", "STRINGREF"})
	wantCode(t, `(vector-set! (vector 1) 0 2)`, []string{
		"LOAD64 1", "VECTOR 1", "LOAD64 0", "LOAD64 2", "VECTORSET",
	})
	wantErr(t, "(cons 1)", "cons expects exactly 2")
	wantErr(t, "(string-set! 1 2)", "string-set! expects exactly 3")
}

func TestFoldPrimitives(t *testing.T) {
	wantCode(t, "(+ 1 2)", []string{"LOAD64 1", "LOAD64 2", "ADD"})
	wantCode(t, "(+ 1 2 3)", []string{"LOAD64 1", "LOAD64 2", "ADD", "LOAD64 3", "ADD"})
	// missing leading operands synthesize the identity
	wantCode(t, "(+)", []string{"LOAD64 0", "LOAD64 0", "ADD"})
	wantCode(t, "(+ 5)", []string{"LOAD64 0", "LOAD64 5", "ADD"})
	wantCode(t, "(- 5)", []string{"LOAD64 0", "LOAD64 5", "SUB"})
	wantCode(t, "(- 10 3 2)", []string{"LOAD64 10", "LOAD64 3", "SUB", "LOAD64 2", "SUB"})
	wantCode(t, "(*)", []string{"LOAD64 1", "LOAD64 1", "MUL"})
	wantCode(t, "(* 3)", []string{"LOAD64 1", "LOAD64 3", "MUL"})
}

func TestFoldMinArgs(t *testing.T) {
	wantErr(t, "(-)", "- expects at least 1")
}

func TestAllPairsPrimitives(t *testing.T) {
	// fewer than two arguments: evaluate, discard, produce literal true
	wantCode(t, "(<)", []string{"LOAD64 #t"})
	wantCode(t, "(< 1)", []string{"LOAD64 1", "FORGET", "LOAD64 #t"})
	wantCode(t, "(< 1 2)", []string{
		"LOAD64 1", "LOAD64 2",
		"GET 0", "GET 1", "LT",
		"FALL 2",
	})
	wantCode(t, "(< 1 2 3)", []string{
		"LOAD64 1", "LOAD64 2", "LOAD64 3",
		"GET 0", "GET 1", "LT",
		"GET 1", "GET 2", "LT",
		"AND",
		"FALL 3",
	})
	wantCode(t, "(= 1 1)", []string{
		"LOAD64 1", "LOAD64 1",
		"GET 0", "GET 1", "EQ",
		"FALL 2",
	})
}

func TestAllPairsSlotsFollowDepth(t *testing.T) {
	// inside a let the argument slots sit above the binding
	wantCode(t, "(let ((x 1)) (< x 2))", []string{
		"LOAD64 1",
		"GET 0", "LOAD64 2",
		"GET 1", "GET 2", "LT",
		"FALL 2",
		"FALL 1",
	})
}

func TestVariadicPrimitives(t *testing.T) {
	wantCode(t, "(vector 1 2 3)", []string{"LOAD64 1", "LOAD64 2", "LOAD64 3", "VECTOR 3"})
	wantCode(t, "(vector)", []string{"VECTOR 0"})
	wantCode(t, `(string-append "a" "b")`, []string{
		`LOAD64 #\x61`, "STRING 1",
		`LOAD64 #\x62`, "STRING 1",
		"STRINGAPPEND 2",
	})
	wantCode(t, `(string #\a #\b)`, []string{
		`LOAD64 #\x61`, `LOAD64 #\x62`, "STRING 2",
	})
}

func TestIfLowering(t *testing.T) {
	wantCode(t, "(if #t 1 2)", []string{
		"LOAD64 #t",
		"LOAD64 #f",
		"EQP",
		"CJUMP 2",
		"LOAD64 1",
		"JUMP 1",
		"LOAD64 2",
	})
	// a missing alternative becomes a single unspecified placeholder
	wantCode(t, "(if 1 2)", []string{
		"LOAD64 1",
		"LOAD64 #f",
		"EQP",
		"CJUMP 2",
		"LOAD64 2",
		"JUMP 1",
		"LOAD64 UNSPECIFIED",
	})
}

// jump distances count instruction lines of the branch buffers, nested jumps
// included
func TestIfJumpDistances(t *testing.T) {
	code := mustLower(t, "(if #t (if #f 1 2) 3)")
	want := []string{
		"LOAD64 #t",
		"LOAD64 #f",
		"EQP",
		"CJUMP 8",
		"LOAD64 #f",
		"LOAD64 #f",
		"EQP",
		"CJUMP 2",
		"LOAD64 1",
		"JUMP 1",
		"LOAD64 2",
		"JUMP 1",
		"LOAD64 3",
	}
	if !reflect.DeepEqual(code, want) {
		t.Errorf("got\n  %v\nwant\n  %v", code, want)
	}
}

func TestIfBranchesLowerAtSameDepth(t *testing.T) {
	wantCode(t, "(let ((x 1)) (if #t x x))", []string{
		"LOAD64 1",
		"LOAD64 #t",
		"LOAD64 #f",
		"EQP",
		"CJUMP 2",
		"GET 0",
		"JUMP 1",
		"GET 0",
		"FALL 1",
	})
}

func TestLetLowering(t *testing.T) {
	wantCode(t, "(let ((x 1)) x)", []string{"LOAD64 1", "GET 0", "FALL 1"})
	wantCode(t, "(let ((x 1) (y 2)) y)", []string{
		"LOAD64 1", "LOAD64 2", "GET 1", "FALL 2",
	})
	// later bindings see earlier ones
	wantCode(t, "(let ((x 1) (y x)) y)", []string{
		"LOAD64 1", "GET 0", "GET 1", "FALL 2",
	})
	wantCode(t, "(let () 5)", []string{"LOAD64 5"})
}

func TestLetShadowing(t *testing.T) {
	// the initializer's x resolves to the outer binding, the body's x to the
	// inner one
	wantCode(t, "(let ((x 1)) (let ((x (add1 x))) x))", []string{
		"LOAD64 1",
		"GET 0",
		"ADD1",
		"GET 1",
		"FALL 1",
		"FALL 1",
	})
}

// The downstream assembler only parses FALL with a slot count; a bare FALL
// is rejected.
func TestFallCarriesSlotCount(t *testing.T) {
	sources := []string{
		"(let ((x 1)) x)",
		"(let ((a 1) (b 2)) (+ a b))",
		"(< 1 2 3)",
		"(let ((x 1)) (< x 2))",
	}
	for _, src := range sources {
		for _, line := range mustLower(t, src) {
			if strings.HasPrefix(line, "FALL") && !strings.HasPrefix(line, "FALL ") {
				t.Errorf("lower(%q) emitted %q, want a counted FALL", src, line)
			}
		}
	}
}

func TestLetBodySequencing(t *testing.T) {
	wantCode(t, "(let ((x 1)) 2 x)", []string{
		"LOAD64 1",
		"LOAD64 2",
		"FORGET",
		"GET 0",
		"FALL 1",
	})
}

func TestDuplicateBinding(t *testing.T) {
	wantErr(t, "(let ((x 1) (x 1)) x)", "duplicate binding")
	// shadowing an outer let is not a duplicate
	wantCode(t, "(let ((x 1)) (let ((x 2)) x))", []string{
		"LOAD64 1", "LOAD64 2", "GET 1", "FALL 1", "FALL 1",
	})
}

func TestUnresolvedSymbol(t *testing.T) {
	wantErr(t, "a", `unresolved symbol "a"`)
	wantErr(t, "(add1 b)", `unresolved symbol "b"`)
	wantErr(t, "(frobnicate 1)", `unresolved symbol "frobnicate"`)
}

func TestShadowedPrimitive(t *testing.T) {
	// a local binding shadows the primitive name for reference...
	wantCode(t, "(let ((not 1)) not)", []string{"LOAD64 1", "GET 0", "FALL 1"})
	// ...but calling it is user-defined function territory
	wantErr(t, "(let ((not 1)) (not 2))", "not yet supported")
}

func TestTopLevelSequencing(t *testing.T) {
	wantCode(t, "1 2 3", []string{
		"LOAD64 1", "FORGET", "LOAD64 2", "FORGET", "LOAD64 3",
	})
	code := mustLower(t, "")
	if len(code) != 0 {
		t.Errorf("empty program lowered to %v", code)
	}
}

func TestEvaluationOrder(t *testing.T) {
	// arguments are emitted strictly left to right
	wantCode(t, "(+ (add1 1) (sub1 2))", []string{
		"LOAD64 1", "ADD1", "LOAD64 2", "SUB1", "ADD",
	})
}
