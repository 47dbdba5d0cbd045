package interpreter

// This is basically your standard tree-walking evaluator. Control flow that
// has to unwind the Go stack — errors, return, break, continue, thrown
// values — travels as a signal alongside the value; each construct catches
// the signals it is responsible for and lets the rest bubble.

import (
	"io"
	"os"
	"time"

	"github.com/paiml/ruchy-sub025/source/ast"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/parser"
	"github.com/paiml/ruchy-sub025/source/settings"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

type signalKind int

const (
	sigError signalKind = iota
	sigReturn
	sigBreak
	sigContinue
	sigThrow
)

type signal struct {
	kind signalKind
	val  values.Value // for return, break, and throw
	err  *err.Error
}

func errSignal(e *err.Error) *signal {
	return &signal{kind: sigError, err: e}
}

// The evaluator is stateless, so the state it needs gets wrapped in a Context
// and passed from function to function.
type Context struct {
	Env      *values.Environment
	Out      io.Writer
	Deadline time.Time // zero means no deadline
	BudgetMS int64     // reported when the deadline fires
	MaxDepth int

	depth     int
	loopDepth int
	steps     int
}

func NewContext(env *values.Environment) *Context {
	return &Context{Env: env, Out: os.Stdout, MaxDepth: settings.MAX_CALL_DEPTH}
}

func (c *Context) withEnv(env *values.Environment) *Context {
	child := *c
	child.Env = env
	return &child
}

// The deadline is enforced cooperatively at expression boundaries; we only
// look at the clock every few hundred steps to keep the check cheap.
func (c *Context) checkDeadline(tok *token.Token) *signal {
	if c.Deadline.IsZero() {
		return nil
	}
	c.steps++
	if c.steps%256 != 0 {
		return nil
	}
	if time.Now().After(c.Deadline) {
		return errSignal(err.CreateErr("sandbox/timeout", tok, c.BudgetMS))
	}
	return nil
}

// EvalExpr is the public contract: evaluate a node against an environment.
func EvalExpr(node ast.Node, env *values.Environment) (values.Value, *err.Error) {
	return Run(node, NewContext(env))
}

// EvalString composes the parser with the evaluator.
func EvalString(source, input string, env *values.Environment) (values.Value, *err.Error) {
	p := parser.NewParser(source, input)
	program := p.ParseProgram()
	if len(p.Ers) > 0 {
		return values.UNDEF, p.Ers[0]
	}
	return Run(program, NewContext(env))
}

// Run evaluates a node in a context, converting any leftover unwinding
// signal into the error a host can use.
func Run(node ast.Node, c *Context) (values.Value, *err.Error) {
	result, sig := Eval(node, c)
	if sig == nil {
		return result, nil
	}
	switch sig.kind {
	case sigError:
		return values.UNDEF, sig.err
	case sigThrow:
		return values.UNDEF, err.CreateErr("eval/throw", node.GetToken(), sig.val.Describe(values.ViewDebug))
	case sigReturn:
		return values.UNDEF, err.CreateErr("eval/return/outside", node.GetToken())
	case sigBreak:
		return values.UNDEF, err.CreateErr("eval/loop/break", node.GetToken())
	}
	return values.UNDEF, err.CreateErr("eval/loop/continue", node.GetToken())
}

// And then the main evaluator.
func Eval(node ast.Node, c *Context) (values.Value, *signal) {
	if sig := c.checkDeadline(node.GetToken()); sig != nil {
		return values.UNDEF, sig
	}

	switch node := node.(type) {

	case *ast.Program:
		result := values.NIL
		for _, stmt := range node.Statements {
			var sig *signal
			result, sig = Eval(stmt, c)
			if sig != nil {
				return values.UNDEF, sig
			}
		}
		return result, nil

	case *ast.IntegerLiteral:
		return values.MakeInt(node.Value), nil

	case *ast.FloatLiteral:
		return values.MakeFloat(node.Value), nil

	case *ast.StringLiteral:
		return values.MakeString(node.Value), nil

	case *ast.BooleanLiteral:
		return values.MakeBool(node.Value), nil

	case *ast.NilLiteral:
		return values.NIL, nil

	case *ast.Identifier:
		return evalIdentifier(node, c)

	case *ast.PrefixExpression:
		return evalPrefixExpression(node, c)

	case *ast.InfixExpression:
		return evalInfixExpression(node, c)

	case *ast.IfExpression:
		return evalIfExpression(node, c)

	case *ast.MatchExpression:
		return evalMatchExpression(node, c)

	case *ast.LetExpression:
		right, sig := Eval(node.Right, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		c.Env.Define(node.Name, right, node.Mutable)
		return values.NIL, nil

	case *ast.AssignmentExpression:
		return evalAssignment(node, c)

	case *ast.BlockExpression:
		return evalBlockExpression(node, c)

	case *ast.ForExpression:
		return evalForExpression(node, c)

	case *ast.WhileExpression:
		return evalWhileExpression(node, c)

	case *ast.LoopExpression:
		return evalLoopExpression(node, c)

	case *ast.BreakExpression:
		if c.loopDepth == 0 {
			return values.UNDEF, errSignal(err.CreateErr("eval/loop/break", &node.Token))
		}
		result := values.NIL
		if node.Value != nil {
			var sig *signal
			result, sig = Eval(node.Value, c)
			if sig != nil {
				return values.UNDEF, sig
			}
		}
		return values.UNDEF, &signal{kind: sigBreak, val: result}

	case *ast.ContinueExpression:
		if c.loopDepth == 0 {
			return values.UNDEF, errSignal(err.CreateErr("eval/loop/continue", &node.Token))
		}
		return values.UNDEF, &signal{kind: sigContinue}

	case *ast.FunctionLiteral:
		closure := values.Value{T: values.CLOSURE, V: &values.Closure{
			Name: node.Name, Params: node.Params, Body: node.Body,
			Env: c.Env, IsAsync: node.IsAsync}}
		if node.Name != "" {
			c.Env.Define(node.Name, closure, false)
		}
		return closure, nil

	case *ast.CallExpression:
		return evalCallExpression(node, c)

	case *ast.MethodCallExpression:
		return evalMethodCall(node, c)

	case *ast.IndexExpression:
		return evalIndexExpression(node, c)

	case *ast.ReturnExpression:
		result := values.NIL
		if node.Value != nil {
			var sig *signal
			result, sig = Eval(node.Value, c)
			if sig != nil {
				return values.UNDEF, sig
			}
		}
		return values.UNDEF, &signal{kind: sigReturn, val: result}

	case *ast.TryExpression:
		return evalTryExpression(node, c)

	case *ast.ThrowExpression:
		result, sig := Eval(node.Value, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		return values.UNDEF, &signal{kind: sigThrow, val: result}

	case *ast.PipelineExpression:
		return evalPipelineExpression(node, c)

	case *ast.RangeExpression:
		return evalRangeExpression(node, c)

	case *ast.ListLiteral:
		elements, sig := evalExpressions(node.Elements, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		return values.MakeList(elements), nil

	case *ast.TupleLiteral:
		elements, sig := evalExpressions(node.Elements, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		return values.MakeTuple(elements), nil

	case *ast.ObjectLiteral:
		m := values.NewMap()
		for i, key := range node.Keys {
			v, sig := Eval(node.Values[i], c)
			if sig != nil {
				return values.UNDEF, sig
			}
			m.Set(key, v)
		}
		return values.MakeMap(m), nil

	case *ast.AwaitExpression:
		// The execution model is synchronous, so await is a no-op wrapper.
		return Eval(node.Value, c)

	case *ast.ActorExpression:
		return evalActorExpression(node, c)

	case *ast.SpawnExpression:
		return evalSpawnExpression(node, c)

	case *ast.SendExpression:
		return evalSendExpression(node, c)

	case *ast.StructDefinition, *ast.EnumDefinition, *ast.TypeAlias, *ast.ImportExpression:
		// Declarations carry no runtime behavior in the interpreter; the
		// session records them in the registry for the transpiler's benefit.
		return values.NIL, nil
	}

	return values.UNDEF, errSignal(err.CreateErr("parse/prefix", node.GetToken(), node.String()))
}

func evalIdentifier(node *ast.Identifier, c *Context) (values.Value, *signal) {
	if v, ok := c.Env.Get(node.Value); ok {
		return v, nil
	}
	switch node.Value {
	case "None":
		return values.NONE, nil
	}
	if _, ok := builtins[node.Value]; ok {
		return values.Value{T: values.BUILTIN, V: node.Value}, nil
	}
	return values.UNDEF, errSignal(err.CreateErr("undef/var", &node.Token, node.Value))
}

func evalPrefixExpression(node *ast.PrefixExpression, c *Context) (values.Value, *signal) {
	right, sig := Eval(node.Right, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	switch node.Operator {
	case "-":
		result, e := values.Negate(right, &node.Token)
		if e != nil {
			return values.UNDEF, errSignal(e)
		}
		return result, nil
	case "!":
		return values.MakeBool(!right.IsTruthy()), nil
	}
	return values.UNDEF, errSignal(err.CreateErr("parse/prefix", &node.Token, node.Operator))
}

func evalInfixExpression(node *ast.InfixExpression, c *Context) (values.Value, *signal) {
	// Short-circuit operators evaluate the right operand only if needed.
	if node.Operator == "&&" || node.Operator == "||" {
		left, sig := Eval(node.Left, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		if node.Operator == "&&" && !left.IsTruthy() {
			return values.FALSE, nil
		}
		if node.Operator == "||" && left.IsTruthy() {
			return values.TRUE, nil
		}
		right, sig := Eval(node.Right, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		return values.MakeBool(right.IsTruthy()), nil
	}

	left, sig := Eval(node.Left, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	right, sig := Eval(node.Right, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	result, e := applyBinary(node.Operator, left, right, &node.Token)
	if e != nil {
		return values.UNDEF, errSignal(e)
	}
	return result, nil
}

// The operator contracts live in the values package so that the VM raises
// exactly the same errors.
func applyBinary(operator string, left, right values.Value, tok *token.Token) (values.Value, *err.Error) {
	return values.BinaryOp(operator, left, right, tok)
}

func evalIfExpression(node *ast.IfExpression, c *Context) (values.Value, *signal) {
	condition, sig := Eval(node.Condition, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	if condition.IsTruthy() {
		return Eval(node.Consequence, c)
	}
	if node.Alternative != nil {
		return Eval(node.Alternative, c)
	}
	return values.NIL, nil
}

func evalBlockExpression(node *ast.BlockExpression, c *Context) (values.Value, *signal) {
	inner := c.withEnv(c.Env.NewChild())
	result := values.NIL
	for _, stmt := range node.Statements {
		var sig *signal
		result, sig = Eval(stmt, inner)
		if sig != nil {
			return values.UNDEF, sig
		}
	}
	return result, nil
}

func evalAssignment(node *ast.AssignmentExpression, c *Context) (values.Value, *signal) {
	right, sig := Eval(node.Right, c)
	if sig != nil {
		return values.UNDEF, sig
	}

	switch target := node.Left.(type) {
	case *ast.Identifier:
		if node.Operator != "=" {
			current, ok := c.Env.Get(target.Value)
			if !ok {
				return values.UNDEF, errSignal(err.CreateErr("undef/set", &target.Token, target.Value))
			}
			var e *err.Error
			right, e = applyBinary(compoundOp(node.Operator), current, right, &node.Token)
			if e != nil {
				return values.UNDEF, errSignal(e)
			}
		}
		switch c.Env.Set(target.Value, right) {
		case values.SetOk:
			return values.NIL, nil
		case values.SetImmutable:
			return values.UNDEF, errSignal(err.CreateErr("eval/assign/immutable", &target.Token, target.Value))
		}
		return values.UNDEF, errSignal(err.CreateErr("undef/set", &target.Token, target.Value))

	case *ast.IndexExpression:
		collection, sig := Eval(target.Left, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		index, sig := Eval(target.Index, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		if node.Operator != "=" {
			current, e := values.Index(collection, index, &node.Token)
			if e != nil {
				return values.UNDEF, errSignal(e)
			}
			right, e = applyBinary(compoundOp(node.Operator), current, right, &node.Token)
			if e != nil {
				return values.UNDEF, errSignal(e)
			}
		}
		if e := values.SetIndex(collection, index, right, &node.Token); e != nil {
			return values.UNDEF, errSignal(e)
		}
		return values.NIL, nil
	}
	return values.UNDEF, errSignal(err.CreateErr("parse/prefix", node.GetToken(), node.Left.String()))
}

func compoundOp(operator string) string {
	return operator[:len(operator)-1] // "+=" applies "+", and so on
}

func evalForExpression(node *ast.ForExpression, c *Context) (values.Value, *signal) {
	iterable, sig := Eval(node.Iterable, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	items, e := values.Iterate(iterable, node.GetToken())
	if e != nil {
		return values.UNDEF, errSignal(e)
	}
	inner := c.withEnv(c.Env.NewChild())
	inner.loopDepth++
	inner.Env.Define(node.VarName, values.NIL, true)
	for _, item := range items {
		inner.Env.Store[node.VarName] = values.Storage{Val: item, Mutable: true}
		_, sig := Eval(node.Body, inner)
		if sig != nil {
			switch sig.kind {
			case sigBreak:
				return sig.val, nil
			case sigContinue:
				continue
			}
			return values.UNDEF, sig
		}
	}
	return values.NIL, nil
}

func evalWhileExpression(node *ast.WhileExpression, c *Context) (values.Value, *signal) {
	inner := c.withEnv(c.Env.NewChild())
	inner.loopDepth++
	for {
		condition, sig := Eval(node.Condition, inner)
		if sig != nil {
			return values.UNDEF, sig
		}
		if !condition.IsTruthy() {
			return values.NIL, nil
		}
		_, sig = Eval(node.Body, inner)
		if sig != nil {
			switch sig.kind {
			case sigBreak:
				return sig.val, nil
			case sigContinue:
				continue
			}
			return values.UNDEF, sig
		}
	}
}

func evalLoopExpression(node *ast.LoopExpression, c *Context) (values.Value, *signal) {
	inner := c.withEnv(c.Env.NewChild())
	inner.loopDepth++
	for {
		if sig := inner.checkDeadline(&node.Token); sig != nil {
			return values.UNDEF, sig
		}
		_, sig := Eval(node.Body, inner)
		if sig != nil {
			switch sig.kind {
			case sigBreak:
				return sig.val, nil
			case sigContinue:
				continue
			}
			return values.UNDEF, sig
		}
	}
}

func evalCallExpression(node *ast.CallExpression, c *Context) (values.Value, *signal) {
	callee, sig := Eval(node.Function, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	args, sig := evalExpressions(node.Args, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	return applyCallable(callee, args, &node.Token, c)
}

func evalExpressions(nodes []ast.Node, c *Context) ([]values.Value, *signal) {
	result := []values.Value{}
	for _, node := range nodes {
		v, sig := Eval(node, c)
		if sig != nil {
			return nil, sig
		}
		result = append(result, v)
	}
	return result, nil
}

func applyCallable(callee values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	switch callee.T {
	case values.CLOSURE:
		// A closure compiled for the bytecode VM can leak in here through a
		// global; it has the right type tag but the wrong kind of payload.
		if closure, ok := callee.V.(*values.Closure); ok {
			return applyClosure(closure, args, tok, c)
		}
	case values.BUILTIN:
		return applyBuiltin(callee.V.(string), args, tok, c)
	}
	return values.UNDEF, errSignal(err.CreateErr("eval/call/callable", tok, callee.TypeName()))
}

func applyClosure(closure *values.Closure, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != len(closure.Params) {
		name := closure.Name
		if name == "" {
			name = "<lambda>"
		}
		return values.UNDEF, errSignal(err.CreateErr("eval/call/args", tok,
			name, len(closure.Params), len(args)))
	}
	if c.depth >= c.MaxDepth {
		return values.UNDEF, errSignal(err.CreateErr("eval/stack", tok, c.MaxDepth))
	}

	// A scope pushed on the captured chain, not on the caller's.
	frame := closure.Env.NewChild()
	for i, param := range closure.Params {
		frame.Define(param.Name, args[i], true)
	}
	inner := c.withEnv(frame)
	inner.depth++
	inner.loopDepth = 0 // break can't cross a function boundary

	result, sig := Eval(closure.Body, inner)
	if sig != nil {
		if sig.kind == sigReturn {
			return sig.val, nil
		}
		return values.UNDEF, sig
	}
	return result, nil
}

func evalIndexExpression(node *ast.IndexExpression, c *Context) (values.Value, *signal) {
	left, sig := Eval(node.Left, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	index, sig := Eval(node.Index, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	result, e := values.Index(left, index, &node.Token)
	if e != nil {
		return values.UNDEF, errSignal(e)
	}
	return result, nil
}

func evalTryExpression(node *ast.TryExpression, c *Context) (values.Value, *signal) {
	result, sig := Eval(node.Body, c)

	if sig != nil && (sig.kind == sigError || sig.kind == sigThrow) && node.CatchBody != nil {
		caught := sig.val
		if sig.kind == sigError {
			caught = values.Value{T: values.ERROR, V: sig.err}
		}
		frame := c.Env.NewChild()
		frame.Define(node.CatchVar, caught, false)
		result, sig = Eval(node.CatchBody, c.withEnv(frame))
	}

	// Finally always runs, even on propagation; if both the body and the
	// finally block fail, the finally block's failure wins.
	if node.FinallyBody != nil {
		_, finallySig := Eval(node.FinallyBody, c)
		if finallySig != nil {
			return values.UNDEF, finallySig
		}
	}
	if sig != nil {
		return values.UNDEF, sig
	}
	return result, nil
}

func evalPipelineExpression(node *ast.PipelineExpression, c *Context) (values.Value, *signal) {
	left, sig := Eval(node.Left, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	// 'x |> f(a)' means f(x, a); 'x |> f' means f(x).
	if call, ok := node.Right.(*ast.CallExpression); ok {
		callee, sig := Eval(call.Function, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		args, sig := evalExpressions(call.Args, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		return applyCallable(callee, append([]values.Value{left}, args...), &node.Token, c)
	}
	callee, sig := Eval(node.Right, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	if callee.T != values.CLOSURE && callee.T != values.BUILTIN {
		return values.UNDEF, errSignal(err.CreateErr("eval/pipeline", &node.Token, callee.TypeName()))
	}
	return applyCallable(callee, []values.Value{left}, &node.Token, c)
}

func evalRangeExpression(node *ast.RangeExpression, c *Context) (values.Value, *signal) {
	low, sig := Eval(node.Low, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	high, sig := Eval(node.High, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	if low.T != values.INT || high.T != values.INT {
		return values.UNDEF, errSignal(err.CreateErr("eval/range/type", &node.Token,
			low.TypeName()+".."+high.TypeName()))
	}
	return values.Value{T: values.RANGE, V: &values.Range{
		Low: low.V.(int64), High: high.V.(int64), Inclusive: node.Inclusive}}, nil
}
