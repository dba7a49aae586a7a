package codegen

import "slip_go/pkg/ast"

// Instruction mnemonics. The surface must match the downstream assembler and
// VM exactly.
const (
	opLoad64       = "LOAD64"
	opAdd1         = "ADD1"
	opSub1         = "SUB1"
	opAdd          = "ADD"
	opSub          = "SUB"
	opMul          = "MUL"
	opLt           = "LT"
	opEq           = "EQ"
	opEqp          = "EQP"
	opZerop        = "ZEROP"
	opIntegerp     = "INTEGERP"
	opBooleanp     = "BOOLEANP"
	opCharp        = "CHARP"
	opNullp        = "NULLP"
	opNot          = "NOT"
	opCharToInt    = "CHARTOINT"
	opIntToChar    = "INTTOCHAR"
	opAnd          = "AND"
	opGet          = "GET"
	opForget       = "FORGET"
	opFall         = "FALL"
	opJump         = "JUMP"
	opCjump        = "CJUMP"
	opString       = "STRING"
	opStringAppend = "STRINGAPPEND"
	opStringRef    = "STRINGREF"
	opStringSet    = "STRINGSET"
	opVector       = "VECTOR"
	opVectorAppend = "VECTORAPPEND"
	opVectorRef    = "VECTORREF"
	opVectorSet    = "VECTORSET"
	opCons         = "CONS"
	opCar          = "CAR"
	opCdr          = "CDR"
)

// strategy selects how a primitive's arguments map onto opcodes.
type strategy int

const (
	// stratFixed takes exactly nargs arguments: emit them, emit the opcode.
	stratFixed strategy = iota
	// stratFold is a left-associative binary reduction; too few arguments
	// (but at least min) are padded on the left with the identity literal.
	stratFold
	// stratAllPairs chains a binary comparison over every adjacent argument
	// pair and conjoins the results; fewer than two arguments degenerate to
	// literal true.
	stratAllPairs
	// stratVariadic takes any number of arguments and emits a single
	// count-suffixed opcode consuming all of them.
	stratVariadic
)

// primitive describes one built-in operator. One table entry carries both the
// recognizer (the map key) and the generator data, so the two cannot drift
// apart.
type primitive struct {
	opcode   string
	strat    strategy
	nargs    int       // stratFixed: exact count; stratFold/stratAllPairs: implementation arity
	min      int       // stratFold: minimum supplied arguments
	identity *ast.Node // stratFold: synthesized for missing leading operands
}

var primitives = map[string]primitive{
	"add1":          {opcode: opAdd1, strat: stratFixed, nargs: 1},
	"sub1":          {opcode: opSub1, strat: stratFixed, nargs: 1},
	"zero?":         {opcode: opZerop, strat: stratFixed, nargs: 1},
	"integer?":      {opcode: opIntegerp, strat: stratFixed, nargs: 1},
	"boolean?":      {opcode: opBooleanp, strat: stratFixed, nargs: 1},
	"char?":         {opcode: opCharp, strat: stratFixed, nargs: 1},
	"null?":         {opcode: opNullp, strat: stratFixed, nargs: 1},
	"not":           {opcode: opNot, strat: stratFixed, nargs: 1},
	"char->integer": {opcode: opCharToInt, strat: stratFixed, nargs: 1},
	"integer->char": {opcode: opIntToChar, strat: stratFixed, nargs: 1},
	"car":           {opcode: opCar, strat: stratFixed, nargs: 1},
	"cdr":           {opcode: opCdr, strat: stratFixed, nargs: 1},

	"eq?":        {opcode: opEqp, strat: stratFixed, nargs: 2},
	"cons":       {opcode: opCons, strat: stratFixed, nargs: 2},
	"string-ref": {opcode: opStringRef, strat: stratFixed, nargs: 2},
	"vector-ref": {opcode: opVectorRef, strat: stratFixed, nargs: 2},

	"string-set!": {opcode: opStringSet, strat: stratFixed, nargs: 3},
	"vector-set!": {opcode: opVectorSet, strat: stratFixed, nargs: 3},

	"+": {opcode: opAdd, strat: stratFold, nargs: 2, min: 0, identity: ast.NewInt(0)},
	"-": {opcode: opSub, strat: stratFold, nargs: 2, min: 1, identity: ast.NewInt(0)},
	"*": {opcode: opMul, strat: stratFold, nargs: 2, min: 0, identity: ast.NewInt(1)},

	"<": {opcode: opLt, strat: stratAllPairs, nargs: 2},
	"=": {opcode: opEq, strat: stratAllPairs, nargs: 2},

	"string":        {opcode: opString, strat: stratVariadic},
	"string-append": {opcode: opStringAppend, strat: stratVariadic},
	"vector":        {opcode: opVector, strat: stratVariadic},
	"vector-append": {opcode: opVectorAppend, strat: stratVariadic},
}

// lookupPrimitive returns the descriptor for a built-in operator name.
func lookupPrimitive(name string) (primitive, bool) {
	p, ok := primitives[name]
	return p, ok
}
