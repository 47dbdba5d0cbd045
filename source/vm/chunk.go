package vm

// The instruction set of the stack machine. One value stack, one call stack;
// operands are inline in the instruction. PushScope and PopScope are not
// strictly necessary for a stack machine but without them block-local
// bindings would leak into the function scope, and the whole point of the
// bytecode path is that you can't tell it apart from the interpreter.

import (
	"fmt"
	"strconv"
	"strings"

	"src.elv.sh/pkg/persistent/vector"

	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

type Opcode int

const (
	LoadConst Opcode = iota // A: index into the constant pool
	LoadVar                 // Name: the binding
	StoreVar                // Name: the binding; A: one of the store* modes
	BinaryOp                // Name: the operator
	UnaryOp                 // Name: the operator
	Jump                    // A: target pc
	JumpIfFalse             // A: target pc
	JumpIfTrue              // A: target pc
	Call                    // A: argument count
	Return
	Pop
	Dup
	BuildArray // A: element count
	BuildTuple // A: element count
	Index
	PushScope
	PopScope
)

const (
	storeAssign  = 0 // the binding must already exist
	storeMutable = 1 // declare a new mutable binding in the current scope
	storeImmut   = 2 // declare a new immutable binding in the current scope
)

var opNames = map[Opcode]string{
	LoadConst: "LoadConst", LoadVar: "LoadVar", StoreVar: "StoreVar",
	BinaryOp: "BinaryOp", UnaryOp: "UnaryOp", Jump: "Jump",
	JumpIfFalse: "JumpIfFalse", JumpIfTrue: "JumpIfTrue", Call: "Call",
	Return: "Return", Pop: "Pop", Dup: "Dup", BuildArray: "BuildArray",
	BuildTuple: "BuildTuple", Index: "Index", PushScope: "PushScope",
	PopScope: "PopScope",
}

type Instruction struct {
	Op   Opcode
	A    int
	Name string
}

// A Chunk is a compiled unit: a flat instruction vector plus its constant
// pool. The pool is a persistent vector because chunks are compiled once and
// then shared by every run of the cell, including concurrent sandboxed runs;
// nothing must be able to mutate it after compilation.
type Chunk struct {
	Code      []Instruction
	Constants vector.Vector
	Tokens    []*token.Token // parallel to Code, for error positions
}

func NewChunk() *Chunk {
	return &Chunk{Constants: vector.Empty}
}

func (ch *Chunk) emit(op Opcode, a int, name string, tok *token.Token) int {
	ch.Code = append(ch.Code, Instruction{Op: op, A: a, Name: name})
	ch.Tokens = append(ch.Tokens, tok)
	return len(ch.Code) - 1
}

func (ch *Chunk) addConstant(v values.Value) int {
	ch.Constants = ch.Constants.Conj(v)
	return ch.Constants.Len() - 1
}

func (ch *Chunk) constant(i int) values.Value {
	v, _ := ch.Constants.Index(i)
	return v.(values.Value)
}

// Disassemble renders a chunk for the debugging flags.
func (ch *Chunk) Disassemble() string {
	var sb strings.Builder
	for i, ins := range ch.Code {
		sb.WriteString(strconv.Itoa(i) + "\t" + opNames[ins.Op])
		switch ins.Op {
		case LoadConst:
			fmt.Fprintf(&sb, " %v", ch.constant(ins.A).Describe(values.ViewDebug))
		case LoadVar, StoreVar, BinaryOp, UnaryOp:
			fmt.Fprintf(&sb, " %s", ins.Name)
		case Jump, JumpIfFalse, JumpIfTrue, Call, BuildArray, BuildTuple:
			fmt.Fprintf(&sb, " %d", ins.A)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// A Function is a compiled function body waiting to be closed over an
// environment; loading it from the constant pool produces a Closure.
type Function struct {
	Name   string
	Params []string
	Body   *Chunk
}

// A Closure pairs a compiled function with the environment it captured.
// It travels on the value stack as a values.CLOSURE whose payload is one of
// these rather than the interpreter's AST-bearing kind.
type Closure struct {
	Fn  *Function
	Env *values.Environment
}
