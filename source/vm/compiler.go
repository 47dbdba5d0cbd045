package vm

// Lowering from AST to bytecode: a postorder walk emitting operands before
// operators, with forward-patched jumps for control flow. The compiler covers
// the compute-heavy core of the language; anything outside it is reported as
// unsupported, and callers fall back to the interpreter.

import (
	"os"

	"github.com/paiml/ruchy-sub025/source/ast"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/settings"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

type loopContext struct {
	continueTarget int
	scopeDepth     int   // scopes open at loop entry; jumps out unwind to here
	breakJumps     []int // patched to the loop's exit when it closes
	continueJumps  []int // patched to continueTarget when it closes
}

type Compiler struct {
	chunk      *Chunk
	loops      []loopContext
	scopeDepth int
}

// Compile lowers a program to a chunk. The chunk leaves the value of its
// last statement on the stack.
func Compile(node ast.Node) (*Chunk, *err.Error) {
	compiler := &Compiler{chunk: NewChunk()}
	if e := compiler.compile(node); e != nil {
		return nil, e
	}
	if settings.SHOW_COMPILER {
		os.Stdout.WriteString(compiler.chunk.Disassemble())
	}
	return compiler.chunk, nil
}

func (cp *Compiler) compile(node ast.Node) *err.Error {
	switch node := node.(type) {

	case *ast.Program:
		return cp.compileStatements(node.Statements, node.GetToken())

	case *ast.BlockExpression:
		cp.emit(PushScope, 0, "", &node.Token)
		cp.scopeDepth++
		if e := cp.compileStatements(node.Statements, &node.Token); e != nil {
			return e
		}
		cp.scopeDepth--
		cp.emit(PopScope, 0, "", &node.Token)
		return nil

	case *ast.IntegerLiteral:
		cp.emitConstant(values.MakeInt(node.Value), node.GetToken())
		return nil

	case *ast.FloatLiteral:
		cp.emitConstant(values.MakeFloat(node.Value), node.GetToken())
		return nil

	case *ast.StringLiteral:
		cp.emitConstant(values.MakeString(node.Value), node.GetToken())
		return nil

	case *ast.BooleanLiteral:
		cp.emitConstant(values.MakeBool(node.Value), node.GetToken())
		return nil

	case *ast.NilLiteral:
		cp.emitConstant(values.NIL, node.GetToken())
		return nil

	case *ast.Identifier:
		cp.emit(LoadVar, 0, node.Value, &node.Token)
		return nil

	case *ast.ListLiteral:
		for _, element := range node.Elements {
			if e := cp.compile(element); e != nil {
				return e
			}
		}
		cp.emit(BuildArray, len(node.Elements), "", &node.Token)
		return nil

	case *ast.TupleLiteral:
		for _, element := range node.Elements {
			if e := cp.compile(element); e != nil {
				return e
			}
		}
		cp.emit(BuildTuple, len(node.Elements), "", &node.Token)
		return nil

	case *ast.PrefixExpression:
		if e := cp.compile(node.Right); e != nil {
			return e
		}
		cp.emit(UnaryOp, 0, node.Operator, &node.Token)
		return nil

	case *ast.InfixExpression:
		return cp.compileInfix(node)

	case *ast.IfExpression:
		return cp.compileIf(node)

	case *ast.LetExpression:
		if e := cp.compile(node.Right); e != nil {
			return e
		}
		mode := storeImmut
		if node.Mutable {
			mode = storeMutable
		}
		cp.emit(StoreVar, mode, node.Name, &node.Token)
		cp.emitConstant(values.NIL, &node.Token)
		return nil

	case *ast.AssignmentExpression:
		return cp.compileAssignment(node)

	case *ast.WhileExpression:
		return cp.compileWhile(node)

	case *ast.LoopExpression:
		return cp.compileLoop(node)

	case *ast.ForExpression:
		return cp.compileFor(node)

	case *ast.BreakExpression:
		if len(cp.loops) == 0 {
			return err.CreateErr("eval/loop/break", node.GetToken())
		}
		if node.Value != nil {
			if e := cp.compile(node.Value); e != nil {
				return e
			}
		} else {
			cp.emitConstant(values.NIL, &node.Token)
		}
		cp.unwindScopes(node.GetToken())
		jump := cp.emit(Jump, 0, "", &node.Token)
		last := len(cp.loops) - 1
		cp.loops[last].breakJumps = append(cp.loops[last].breakJumps, jump)
		return nil

	case *ast.ContinueExpression:
		if len(cp.loops) == 0 {
			return err.CreateErr("eval/loop/continue", node.GetToken())
		}
		cp.unwindScopes(node.GetToken())
		jump := cp.emit(Jump, 0, "", &node.Token)
		last := len(cp.loops) - 1
		cp.loops[last].continueJumps = append(cp.loops[last].continueJumps, jump)
		return nil

	case *ast.FunctionLiteral:
		return cp.compileFunction(node)

	case *ast.CallExpression:
		if e := cp.compile(node.Function); e != nil {
			return e
		}
		for _, arg := range node.Args {
			if e := cp.compile(arg); e != nil {
				return e
			}
		}
		cp.emit(Call, len(node.Args), "", &node.Token)
		return nil

	case *ast.ReturnExpression:
		if node.Value != nil {
			if e := cp.compile(node.Value); e != nil {
				return e
			}
		} else {
			cp.emitConstant(values.NIL, &node.Token)
		}
		cp.emit(Return, 0, "", &node.Token)
		return nil

	case *ast.IndexExpression:
		if e := cp.compile(node.Left); e != nil {
			return e
		}
		if e := cp.compile(node.Index); e != nil {
			return e
		}
		cp.emit(Index, 0, "", &node.Token)
		return nil

	case *ast.PipelineExpression:
		return cp.compilePipeline(node)

	case *ast.AwaitExpression:
		return cp.compile(node.Value)
	}

	return err.CreateErr("comp/unsupported", node.GetToken(), node.String())
}

func (cp *Compiler) emit(op Opcode, a int, name string, tok *token.Token) int {
	return cp.chunk.emit(op, a, name, tok)
}

func (cp *Compiler) emitConstant(v values.Value, tok *token.Token) {
	cp.emit(LoadConst, cp.chunk.addConstant(v), "", tok)
}

// patch retargets a previously emitted jump to the next instruction slot.
func (cp *Compiler) patch(at int) {
	cp.chunk.Code[at].A = len(cp.chunk.Code)
}

func (cp *Compiler) here() int {
	return len(cp.chunk.Code)
}

func (cp *Compiler) compileStatements(statements []ast.Node, tok *token.Token) *err.Error {
	if len(statements) == 0 {
		cp.emitConstant(values.NIL, tok)
		return nil
	}
	for i, statement := range statements {
		if e := cp.compile(statement); e != nil {
			return e
		}
		if i < len(statements)-1 {
			cp.emit(Pop, 0, "", statement.GetToken())
		}
	}
	return nil
}

func (cp *Compiler) compileInfix(node *ast.InfixExpression) *err.Error {
	// The short-circuit operators compile to jumps and always leave an
	// actual boolean, as the interpreter's do.
	switch node.Operator {
	case "&&":
		if e := cp.compile(node.Left); e != nil {
			return e
		}
		failA := cp.emit(JumpIfFalse, 0, "", &node.Token)
		if e := cp.compile(node.Right); e != nil {
			return e
		}
		failB := cp.emit(JumpIfFalse, 0, "", &node.Token)
		cp.emitConstant(values.TRUE, &node.Token)
		end := cp.emit(Jump, 0, "", &node.Token)
		cp.patch(failA)
		cp.patch(failB)
		cp.emitConstant(values.FALSE, &node.Token)
		cp.patch(end)
		return nil
	case "||":
		if e := cp.compile(node.Left); e != nil {
			return e
		}
		succeedA := cp.emit(JumpIfTrue, 0, "", &node.Token)
		if e := cp.compile(node.Right); e != nil {
			return e
		}
		succeedB := cp.emit(JumpIfTrue, 0, "", &node.Token)
		cp.emitConstant(values.FALSE, &node.Token)
		end := cp.emit(Jump, 0, "", &node.Token)
		cp.patch(succeedA)
		cp.patch(succeedB)
		cp.emitConstant(values.TRUE, &node.Token)
		cp.patch(end)
		return nil
	}

	if e := cp.compile(node.Left); e != nil {
		return e
	}
	if e := cp.compile(node.Right); e != nil {
		return e
	}
	cp.emit(BinaryOp, 0, node.Operator, &node.Token)
	return nil
}

func (cp *Compiler) compileIf(node *ast.IfExpression) *err.Error {
	if e := cp.compile(node.Condition); e != nil {
		return e
	}
	toElse := cp.emit(JumpIfFalse, 0, "", &node.Token)
	if e := cp.compile(node.Consequence); e != nil {
		return e
	}
	toEnd := cp.emit(Jump, 0, "", &node.Token)
	cp.patch(toElse)
	if node.Alternative != nil {
		if e := cp.compile(node.Alternative); e != nil {
			return e
		}
	} else {
		cp.emitConstant(values.NIL, &node.Token)
	}
	cp.patch(toEnd)
	return nil
}

func (cp *Compiler) compileAssignment(node *ast.AssignmentExpression) *err.Error {
	target, ok := node.Left.(*ast.Identifier)
	if !ok {
		return err.CreateErr("comp/unsupported", node.GetToken(), node.String())
	}
	if node.Operator != "=" {
		cp.emit(LoadVar, 0, target.Value, &target.Token)
		if e := cp.compile(node.Right); e != nil {
			return e
		}
		cp.emit(BinaryOp, 0, node.Operator[:len(node.Operator)-1], &node.Token)
	} else {
		if e := cp.compile(node.Right); e != nil {
			return e
		}
	}
	cp.emit(StoreVar, storeAssign, target.Value, &node.Token)
	cp.emitConstant(values.NIL, &node.Token)
	return nil
}

// Loops leave exactly one value on the stack at their single exit point:
// either nil from normal termination or whatever a break pushed.
func (cp *Compiler) compileWhile(node *ast.WhileExpression) *err.Error {
	start := cp.here()
	cp.loops = append(cp.loops, loopContext{continueTarget: start, scopeDepth: cp.scopeDepth})

	if e := cp.compile(node.Condition); e != nil {
		return e
	}
	exit := cp.emit(JumpIfFalse, 0, "", &node.Token)
	if e := cp.compile(node.Body); e != nil {
		return e
	}
	cp.emit(Pop, 0, "", &node.Token)
	cp.emit(Jump, start, "", &node.Token)
	cp.patch(exit)
	cp.emitConstant(values.NIL, &node.Token)
	cp.closeLoop()
	return nil
}

func (cp *Compiler) compileLoop(node *ast.LoopExpression) *err.Error {
	start := cp.here()
	cp.loops = append(cp.loops, loopContext{continueTarget: start, scopeDepth: cp.scopeDepth})

	if e := cp.compile(node.Body); e != nil {
		return e
	}
	cp.emit(Pop, 0, "", &node.Token)
	cp.emit(Jump, start, "", &node.Token)
	cp.closeLoop()
	return nil
}

// Only iteration over a range compiles; it lowers to a counting loop with a
// hidden limit binding. Iteration over containers stays on the interpreter.
func (cp *Compiler) compileFor(node *ast.ForExpression) *err.Error {
	r, ok := node.Iterable.(*ast.RangeExpression)
	if !ok {
		return err.CreateErr("comp/unsupported", node.GetToken(), node.String())
	}

	cp.emit(PushScope, 0, "", &node.Token)
	cp.scopeDepth++
	if e := cp.compile(r.Low); e != nil {
		return e
	}
	cp.emit(StoreVar, storeMutable, node.VarName, &node.Token)
	if e := cp.compile(r.High); e != nil {
		return e
	}
	cp.emit(StoreVar, storeMutable, "#limit", &node.Token)

	comparison := "<"
	if r.Inclusive {
		comparison = "<="
	}
	start := cp.here()
	cp.emit(LoadVar, 0, node.VarName, &node.Token)
	cp.emit(LoadVar, 0, "#limit", &node.Token)
	cp.emit(BinaryOp, 0, comparison, &node.Token)
	exit := cp.emit(JumpIfFalse, 0, "", &node.Token)

	// Continue re-enters at the increment, not at the test.
	cp.loops = append(cp.loops, loopContext{scopeDepth: cp.scopeDepth})
	if e := cp.compile(node.Body); e != nil {
		return e
	}
	cp.emit(Pop, 0, "", &node.Token)

	cp.loops[len(cp.loops)-1].continueTarget = cp.here()
	cp.emit(LoadVar, 0, node.VarName, &node.Token)
	cp.emitConstant(values.MakeInt(1), &node.Token)
	cp.emit(BinaryOp, 0, "+", &node.Token)
	cp.emit(StoreVar, storeAssign, node.VarName, &node.Token)
	cp.emit(Jump, start, "", &node.Token)

	cp.patch(exit)
	cp.emitConstant(values.NIL, &node.Token)
	cp.closeLoop()
	cp.scopeDepth--
	cp.emit(PopScope, 0, "", &node.Token)
	return nil
}

// Break and continue jump out of any blocks opened since the loop began, so
// the scopes those blocks pushed have to be popped before the jump.
func (cp *Compiler) unwindScopes(tok *token.Token) {
	loop := cp.loops[len(cp.loops)-1]
	for i := cp.scopeDepth; i > loop.scopeDepth; i-- {
		cp.emit(PopScope, 0, "", tok)
	}
}

func (cp *Compiler) closeLoop() {
	loop := cp.loops[len(cp.loops)-1]
	cp.loops = cp.loops[:len(cp.loops)-1]
	for _, jump := range loop.breakJumps {
		cp.patch(jump)
	}
	for _, jump := range loop.continueJumps {
		cp.chunk.Code[jump].A = loop.continueTarget
	}
}

func (cp *Compiler) compileFunction(node *ast.FunctionLiteral) *err.Error {
	inner := &Compiler{chunk: NewChunk()}
	if e := inner.compile(node.Body); e != nil {
		return e
	}
	inner.emit(Return, 0, "", &node.Token)

	params := []string{}
	for _, p := range node.Params {
		params = append(params, p.Name)
	}
	fn := &Function{Name: node.Name, Params: params, Body: inner.chunk}
	cp.emitConstant(values.Value{T: values.CLOSURE, V: fn}, &node.Token)

	if node.Name != "" {
		cp.emit(Dup, 0, "", &node.Token)
		cp.emit(StoreVar, storeImmut, node.Name, &node.Token)
	}
	return nil
}

func (cp *Compiler) compilePipeline(node *ast.PipelineExpression) *err.Error {
	if call, ok := node.Right.(*ast.CallExpression); ok {
		if e := cp.compile(call.Function); e != nil {
			return e
		}
		if e := cp.compile(node.Left); e != nil {
			return e
		}
		for _, arg := range call.Args {
			if e := cp.compile(arg); e != nil {
				return e
			}
		}
		cp.emit(Call, len(call.Args)+1, "", &node.Token)
		return nil
	}
	if e := cp.compile(node.Right); e != nil {
		return e
	}
	if e := cp.compile(node.Left); e != nil {
		return e
	}
	cp.emit(Call, 1, "", &node.Token)
	return nil
}
