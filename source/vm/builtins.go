package vm

// The VM shares the interpreter's builtin functions through a bridge; only
// the combinators need special handling here, because they call back into
// user code and the user code they get handed is bytecode.

import (
	"strings"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/interpreter"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

func (m *Machine) callBuiltin(name string, args []values.Value, tok *token.Token) (values.Value, *err.Error) {
	switch name {
	case "map":
		return m.combinatorMap(args, tok)
	case "filter":
		return m.combinatorFilter(args, tok)
	case "reduce":
		return m.combinatorReduce(args, tok)
	}
	return interpreter.CallBuiltin(name, args, tok, m.Out, m.Deadline, m.BudgetMS)
}

// applyValue calls a callable from inside an instruction. Compiled closures
// run on a fresh machine sharing this one's deadline, so a combinator can't
// be used to escape the sandbox budget.
func (m *Machine) applyValue(fn values.Value, args []values.Value, tok *token.Token) (values.Value, *err.Error) {
	switch payload := fn.V.(type) {
	case *Closure:
		if fn.T != values.CLOSURE {
			break
		}
		if len(args) != len(payload.Fn.Params) {
			name := payload.Fn.Name
			if name == "" {
				name = "<lambda>"
			}
			return values.UNDEF, err.CreateErr("eval/call/args", tok, name, len(payload.Fn.Params), len(args))
		}
		env := payload.Env.NewChild()
		for i, param := range payload.Fn.Params {
			env.Define(param, args[i], true)
		}
		sub := &Machine{Out: m.Out, Deadline: m.Deadline, BudgetMS: m.BudgetMS,
			MaxStack: m.MaxStack, MaxDepth: m.MaxDepth}
		return sub.Run(payload.Fn.Body, env)
	case *values.Closure:
		if fn.T == values.CLOSURE {
			return interpreter.ApplyClosure(payload, args, tok, m.Out, m.Deadline, m.BudgetMS)
		}
	case string:
		if fn.T == values.BUILTIN {
			return m.callBuiltin(payload, args, tok)
		}
	}
	return values.UNDEF, err.CreateErr("eval/call/callable", tok, fn.TypeName())
}

func (m *Machine) combinatorMap(args []values.Value, tok *token.Token) (values.Value, *err.Error) {
	elements, fn, e := combinatorArgs("map", args, tok)
	if e != nil {
		return values.UNDEF, e
	}
	result := []values.Value{}
	for _, element := range elements {
		v, e := m.applyValue(fn, []values.Value{element}, tok)
		if e != nil {
			return values.UNDEF, e
		}
		result = append(result, v)
	}
	return values.MakeList(result), nil
}

func (m *Machine) combinatorFilter(args []values.Value, tok *token.Token) (values.Value, *err.Error) {
	elements, fn, e := combinatorArgs("filter", args, tok)
	if e != nil {
		return values.UNDEF, e
	}
	result := []values.Value{}
	for _, element := range elements {
		keep, e := m.applyValue(fn, []values.Value{element}, tok)
		if e != nil {
			return values.UNDEF, e
		}
		if keep.IsTruthy() {
			result = append(result, element)
		}
	}
	return values.MakeList(result), nil
}

func (m *Machine) combinatorReduce(args []values.Value, tok *token.Token) (values.Value, *err.Error) {
	if len(args) != 3 {
		return values.UNDEF, err.CreateErr("eval/builtin/args", tok, "reduce", describeArgs(args))
	}
	elements, e := values.Iterate(args[0], tok)
	if e != nil {
		return values.UNDEF, e
	}
	acc := args[1]
	fn := args[2]
	for _, element := range elements {
		acc, e = m.applyValue(fn, []values.Value{acc, element}, tok)
		if e != nil {
			return values.UNDEF, e
		}
	}
	return acc, nil
}

func combinatorArgs(name string, args []values.Value, tok *token.Token) ([]values.Value, values.Value, *err.Error) {
	if len(args) != 2 {
		return nil, values.UNDEF, err.CreateErr("eval/builtin/args", tok, name, describeArgs(args))
	}
	elements, e := values.Iterate(args[0], tok)
	if e != nil {
		return nil, values.UNDEF, e
	}
	return elements, args[1], nil
}

func describeArgs(args []values.Value) string {
	types := []string{}
	for _, a := range args {
		types = append(types, a.TypeName())
	}
	return "(" + strings.Join(types, ", ") + ")"
}
