package interpreter

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

// The builtin functions. Each one checks its own arguments; a builtin that
// wants to call back into user code (the collection combinators do) gets the
// evaluation context to do it with.
type builtinFn func(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal)

var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"Err":     builtinErr,
		"Ok":      builtinOk,
		"Some":    builtinSome,
		"abs":     builtinAbs,
		"assert":  builtinAssert,
		"ceil":    floatBuiltin("ceil", math.Ceil),
		"filter":  builtinFilter,
		"float":   builtinFloat,
		"floor":   floatBuiltin("floor", math.Floor),
		"int":     builtinInt,
		"len":     builtinLen,
		"map":     builtinMap,
		"max":     builtinMax,
		"min":     builtinMin,
		"print":   builtinPrint,
		"println": builtinPrintln,
		"range":   builtinRange,
		"reduce":  builtinReduce,
		"round":   floatBuiltin("round", math.Round),
		"sqrt":    builtinSqrt,
		"str":     builtinStr,
		"typeof":  builtinTypeof,
	}
}

func applyBuiltin(name string, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	fn, ok := builtins[name]
	if !ok {
		return values.UNDEF, errSignal(err.CreateErr("undef/var", tok, name))
	}
	return fn(c, tok, args)
}

func badArgs(name string, tok *token.Token, args []values.Value) *signal {
	types := []string{}
	for _, a := range args {
		types = append(types, a.TypeName())
	}
	return errSignal(err.CreateErr("eval/builtin/args", tok, name, "("+strings.Join(types, ", ")+")"))
}

func builtinPrintln(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	parts := []string{}
	for _, a := range args {
		parts = append(parts, a.Describe(values.ViewStdOut))
	}
	fmt.Fprintln(c.Out, strings.Join(parts, " "))
	return values.NIL, nil
}

func builtinPrint(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	parts := []string{}
	for _, a := range args {
		parts = append(parts, a.Describe(values.ViewStdOut))
	}
	fmt.Fprint(c.Out, strings.Join(parts, " "))
	return values.NIL, nil
}

func builtinLen(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("len", tok, args)
	}
	switch args[0].T {
	case values.STRING:
		return values.MakeInt(int64(len([]rune(args[0].V.(string))))), nil
	case values.LIST:
		return values.MakeInt(int64(len(args[0].V.(*values.List).Elements))), nil
	case values.TUPLE:
		return values.MakeInt(int64(len(args[0].V.(*values.Tuple).Elements))), nil
	case values.MAP:
		return values.MakeInt(int64(len(args[0].V.(*values.Map).Keys))), nil
	case values.RANGE:
		return values.MakeInt(args[0].V.(*values.Range).Len()), nil
	}
	return values.UNDEF, badArgs("len", tok, args)
}

func builtinAbs(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("abs", tok, args)
	}
	switch args[0].T {
	case values.INT:
		i := args[0].V.(int64)
		if i < 0 {
			i = -i
		}
		return values.MakeInt(i), nil
	case values.FLOAT:
		return values.MakeFloat(math.Abs(args[0].V.(float64))), nil
	}
	return values.UNDEF, badArgs("abs", tok, args)
}

func builtinMin(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	return extremum("min", -1, c, tok, args)
}

func builtinMax(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	return extremum("max", 1, c, tok, args)
}

func extremum(name string, keep int, c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) == 1 && args[0].T == values.LIST {
		args = args[0].V.(*values.List).Elements
	}
	if len(args) == 0 {
		return values.UNDEF, badArgs(name, tok, args)
	}
	best := args[0]
	for _, a := range args[1:] {
		order, ok := values.Compare(a, best)
		if !ok {
			return values.UNDEF, errSignal(err.CreateErr("eval/compare", tok, a.TypeName(), best.TypeName()))
		}
		if (keep < 0 && order < 0) || (keep > 0 && order > 0) {
			best = a
		}
	}
	return best, nil
}

func builtinSqrt(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("sqrt", tok, args)
	}
	switch args[0].T {
	case values.INT:
		return values.MakeFloat(math.Sqrt(float64(args[0].V.(int64)))), nil
	case values.FLOAT:
		return values.MakeFloat(math.Sqrt(args[0].V.(float64))), nil
	}
	return values.UNDEF, badArgs("sqrt", tok, args)
}

func floatBuiltin(name string, fn func(float64) float64) builtinFn {
	return func(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
		if len(args) != 1 {
			return values.UNDEF, badArgs(name, tok, args)
		}
		switch args[0].T {
		case values.INT:
			return args[0], nil
		case values.FLOAT:
			return values.MakeFloat(fn(args[0].V.(float64))), nil
		}
		return values.UNDEF, badArgs(name, tok, args)
	}
}

func builtinTypeof(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("typeof", tok, args)
	}
	return values.MakeString(args[0].TypeName()), nil
}

func builtinStr(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("str", tok, args)
	}
	return values.MakeString(args[0].Describe(values.ViewStdOut)), nil
}

func builtinInt(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("int", tok, args)
	}
	switch args[0].T {
	case values.INT:
		return args[0], nil
	case values.FLOAT:
		return values.MakeInt(int64(args[0].V.(float64))), nil
	case values.BOOL:
		if args[0].V.(bool) {
			return values.MakeInt(1), nil
		}
		return values.MakeInt(0), nil
	case values.STRING:
		i, e := strconv.ParseInt(strings.TrimSpace(args[0].V.(string)), 10, 64)
		if e != nil {
			return values.UNDEF, badArgs("int", tok, args)
		}
		return values.MakeInt(i), nil
	}
	return values.UNDEF, badArgs("int", tok, args)
}

func builtinFloat(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("float", tok, args)
	}
	switch args[0].T {
	case values.FLOAT:
		return args[0], nil
	case values.INT:
		return values.MakeFloat(float64(args[0].V.(int64))), nil
	case values.STRING:
		f, e := strconv.ParseFloat(strings.TrimSpace(args[0].V.(string)), 64)
		if e != nil {
			return values.UNDEF, badArgs("float", tok, args)
		}
		return values.MakeFloat(f), nil
	}
	return values.UNDEF, badArgs("float", tok, args)
}

func builtinRange(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	low := int64(0)
	var high int64
	switch len(args) {
	case 1:
		if args[0].T != values.INT {
			return values.UNDEF, badArgs("range", tok, args)
		}
		high = args[0].V.(int64)
	case 2:
		if args[0].T != values.INT || args[1].T != values.INT {
			return values.UNDEF, badArgs("range", tok, args)
		}
		low, high = args[0].V.(int64), args[1].V.(int64)
	default:
		return values.UNDEF, badArgs("range", tok, args)
	}
	return values.Value{T: values.RANGE, V: &values.Range{Low: low, High: high}}, nil
}

func builtinSome(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("Some", tok, args)
	}
	return values.MakeSome(args[0]), nil
}

func builtinOk(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("Ok", tok, args)
	}
	return values.MakeOk(args[0]), nil
}

func builtinErr(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("Err", tok, args)
	}
	return values.MakeErrResult(args[0]), nil
}

func builtinAssert(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) < 1 || len(args) > 2 {
		return values.UNDEF, badArgs("assert", tok, args)
	}
	if args[0].IsTruthy() {
		return values.NIL, nil
	}
	message := "assertion failed"
	if len(args) == 2 {
		message = args[1].Describe(values.ViewStdOut)
	}
	return values.UNDEF, &signal{kind: sigThrow, val: values.MakeString(message)}
}

// The collection combinators exist both as free functions and as methods;
// both routes converge here.

func builtinMap(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	elements, fn, sig := combinatorArgs("map", tok, args)
	if sig != nil {
		return values.UNDEF, sig
	}
	result := []values.Value{}
	for _, e := range elements {
		v, sig := applyCallable(fn, []values.Value{e}, tok, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		result = append(result, v)
	}
	return values.MakeList(result), nil
}

func builtinFilter(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	elements, fn, sig := combinatorArgs("filter", tok, args)
	if sig != nil {
		return values.UNDEF, sig
	}
	result := []values.Value{}
	for _, e := range elements {
		keep, sig := applyCallable(fn, []values.Value{e}, tok, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		if keep.IsTruthy() {
			result = append(result, e)
		}
	}
	return values.MakeList(result), nil
}

func builtinReduce(c *Context, tok *token.Token, args []values.Value) (values.Value, *signal) {
	if len(args) != 3 {
		return values.UNDEF, badArgs("reduce", tok, args)
	}
	elements, e := values.Iterate(args[0], tok)
	if e != nil {
		return values.UNDEF, errSignal(e)
	}
	acc := args[1]
	fn := args[2]
	for _, el := range elements {
		var sig *signal
		acc, sig = applyCallable(fn, []values.Value{acc, el}, tok, c)
		if sig != nil {
			return values.UNDEF, sig
		}
	}
	return acc, nil
}

func combinatorArgs(name string, tok *token.Token, args []values.Value) ([]values.Value, values.Value, *signal) {
	if len(args) != 2 {
		return nil, values.UNDEF, badArgs(name, tok, args)
	}
	elements, e := values.Iterate(args[0], tok)
	if e != nil {
		return nil, values.UNDEF, errSignal(e)
	}
	return elements, args[1], nil
}

// IsBuiltin reports whether a name belongs to a builtin function.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// ApplyClosure runs a tree-walking closure outside any evaluation, so that
// the bytecode VM can call functions that were defined under the interpreter.
// The caller's deadline comes along: a sandboxed cell can't buy itself an
// unlimited budget by crossing engines.
func ApplyClosure(closure *values.Closure, args []values.Value, tok *token.Token, out io.Writer, deadline time.Time, budgetMS int64) (values.Value, *err.Error) {
	c := NewContext(values.NewEnvironment())
	if out != nil {
		c.Out = out
	}
	c.Deadline = deadline
	c.BudgetMS = budgetMS
	result, sig := applyClosure(closure, args, tok, c)
	if sig == nil {
		return result, nil
	}
	if sig.kind == sigThrow {
		return values.UNDEF, err.CreateErr("eval/throw", tok, sig.val.Describe(values.ViewDebug))
	}
	return values.UNDEF, sig.err
}

// CallBuiltin runs a builtin outside any evaluation, for callers like the
// bytecode VM that keep their own environments. A value thrown inside the
// builtin comes back as an ordinary error.
func CallBuiltin(name string, args []values.Value, tok *token.Token, out io.Writer, deadline time.Time, budgetMS int64) (values.Value, *err.Error) {
	c := NewContext(values.NewEnvironment())
	if out != nil {
		c.Out = out
	}
	c.Deadline = deadline
	c.BudgetMS = budgetMS
	result, sig := applyBuiltin(name, args, tok, c)
	if sig == nil {
		return result, nil
	}
	if sig.kind == sigThrow {
		return values.UNDEF, err.CreateErr("eval/throw", tok, sig.val.Describe(values.ViewDebug))
	}
	return values.UNDEF, sig.err
}
