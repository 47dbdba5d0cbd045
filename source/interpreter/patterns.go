package interpreter

// Match patterns are ordinary expressions given a structural reading: a bare
// identifier binds, '_' matches anything, literals and containers match by
// shape and equality, and Some/None/Ok/Err destructure options and results.

import (
	"github.com/paiml/ruchy-sub025/source/ast"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/values"
)

func evalMatchExpression(node *ast.MatchExpression, c *Context) (values.Value, *signal) {
	subject, sig := Eval(node.Scrutinee, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	for _, arm := range node.Arms {
		frame := c.Env.NewChild()
		matched, sig := matchPattern(arm.Pattern, subject, frame, c)
		if sig != nil {
			return values.UNDEF, sig
		}
		if !matched {
			continue
		}
		inner := c.withEnv(frame)
		if arm.Guard != nil {
			guard, sig := Eval(arm.Guard, inner)
			if sig != nil {
				return values.UNDEF, sig
			}
			if !guard.IsTruthy() {
				continue
			}
		}
		return Eval(arm.Body, inner)
	}
	return values.UNDEF, errSignal(err.CreateErr("eval/match/exhaust", &node.Token,
		subject.Describe(values.ViewDebug)))
}

func matchPattern(pattern ast.Node, subject values.Value, frame *values.Environment, c *Context) (bool, *signal) {
	switch pattern := pattern.(type) {

	case *ast.Identifier:
		switch pattern.Value {
		case "_":
			return true, nil
		case "None":
			return subject.T == values.OPTION && !subject.V.(*values.Option).Present, nil
		}
		frame.Define(pattern.Value, subject, false)
		return true, nil

	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral,
		*ast.BooleanLiteral, *ast.NilLiteral:
		literal, sig := Eval(pattern, c)
		if sig != nil {
			return false, sig
		}
		return values.Equals(subject, literal), nil

	case *ast.PrefixExpression:
		// Negative number literals arrive as a prefix expression.
		literal, sig := Eval(pattern, c.withEnv(frame))
		if sig != nil {
			return false, sig
		}
		return values.Equals(subject, literal), nil

	case *ast.RangeExpression:
		r, sig := evalRangeExpression(pattern, c)
		if sig != nil {
			return false, sig
		}
		if subject.T != values.INT {
			return false, nil
		}
		rr := r.V.(*values.Range)
		i := subject.V.(int64)
		if rr.Inclusive {
			return i >= rr.Low && i <= rr.High, nil
		}
		return i >= rr.Low && i < rr.High, nil

	case *ast.TupleLiteral:
		if subject.T != values.TUPLE {
			return false, nil
		}
		return matchElements(pattern.Elements, subject.V.(*values.Tuple).Elements, frame, c)

	case *ast.ListLiteral:
		if subject.T != values.LIST {
			return false, nil
		}
		return matchElements(pattern.Elements, subject.V.(*values.List).Elements, frame, c)

	case *ast.CallExpression:
		name, ok := pattern.Function.(*ast.Identifier)
		if !ok || len(pattern.Args) != 1 {
			break
		}
		switch name.Value {
		case "Some":
			if subject.T != values.OPTION || !subject.V.(*values.Option).Present {
				return false, nil
			}
			return matchPattern(pattern.Args[0], subject.V.(*values.Option).Inner, frame, c)
		case "Ok":
			if subject.T != values.RESULT || !subject.V.(*values.Result).Ok {
				return false, nil
			}
			return matchPattern(pattern.Args[0], subject.V.(*values.Result).Inner, frame, c)
		case "Err":
			if subject.T != values.RESULT || subject.V.(*values.Result).Ok {
				return false, nil
			}
			return matchPattern(pattern.Args[0], subject.V.(*values.Result).Inner, frame, c)
		}
	}

	return false, errSignal(err.CreateErr("parse/match/arm", pattern.GetToken(), pattern.String()))
}

func matchElements(patterns []ast.Node, elements []values.Value, frame *values.Environment, c *Context) (bool, *signal) {
	if len(patterns) != len(elements) {
		return false, nil
	}
	for i, p := range patterns {
		matched, sig := matchPattern(p, elements[i], frame, c)
		if sig != nil || !matched {
			return false, sig
		}
	}
	return true, nil
}
