package interpreter

// Method dispatch. Each receiver type has its own little table; a method call
// on an object falls back to looking the name up as a field, so objects can
// carry closures and call them with dot syntax.

import (
	"sort"
	"strings"

	"github.com/paiml/ruchy-sub025/source/ast"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

type methodFn func(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal)

// Populated in init, like the builtins table: the combinator methods close
// over functions that call back into Eval, so a package-level literal would
// be an initialization cycle.
var methodTables map[values.ValueType]map[string]methodFn

func init() {
	methodTables = map[values.ValueType]map[string]methodFn{
		values.STRING: {
			"chars":       stringChars,
			"contains":    stringContains,
			"ends_with":   stringEndsWith,
			"len":         methodLen,
			"replace":     stringReplace,
			"split":       stringSplit,
			"starts_with": stringStartsWith,
			"to_lower":    stringToLower,
			"to_string":   methodToString,
			"to_upper":    stringToUpper,
			"trim":        stringTrim,
		},
		values.LIST: {
			"contains":  listContains,
			"filter":    combinatorMethod("filter", builtinFilter),
			"first":     listFirst,
			"join":      listJoin,
			"last":      listLast,
			"len":       methodLen,
			"map":       combinatorMethod("map", builtinMap),
			"pop":       listPop,
			"push":      listPush,
			"reduce":    combinatorMethod("reduce", builtinReduce),
			"reverse":   listReverse,
			"sorted":    listSorted,
			"sum":       listSum,
			"to_string": methodToString,
		},
		values.TUPLE: {
			"len":       methodLen,
			"to_string": methodToString,
		},
		values.MAP: {
			"contains_key": mapContainsKey,
			"get":          mapGet,
			"insert":       mapInsert,
			"keys":         mapKeys,
			"len":          methodLen,
			"remove":       mapRemove,
			"to_string":    methodToString,
			"values":       mapValues,
		},
		values.RANGE: {
			"filter":    combinatorMethod("filter", builtinFilter),
			"len":       methodLen,
			"map":       combinatorMethod("map", builtinMap),
			"reduce":    combinatorMethod("reduce", builtinReduce),
			"sum":       listSum,
			"to_list":   rangeToList,
			"to_string": methodToString,
		},
		values.OPTION: {
			"is_none":   optionIsNone,
			"is_some":   optionIsSome,
			"map":       optionMap,
			"unwrap":    methodUnwrap,
			"unwrap_or": methodUnwrapOr,
		},
		values.RESULT: {
			"is_err":    resultIsErr,
			"is_ok":     resultIsOk,
			"unwrap":    methodUnwrap,
			"unwrap_or": methodUnwrapOr,
		},
		values.INT: {
			"abs":       methodAbs,
			"to_string": methodToString,
		},
		values.FLOAT: {
			"abs":       methodAbs,
			"to_string": methodToString,
		},
		values.ERROR: {
			"message": errorMessage,
		},
	}
}

func evalMethodCall(node *ast.MethodCallExpression, c *Context) (values.Value, *signal) {
	receiver, sig := Eval(node.Receiver, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	args, sig := evalExpressions(node.Args, c)
	if sig != nil {
		return values.UNDEF, sig
	}

	if table, ok := methodTables[receiver.T]; ok {
		if method, ok := table[node.Method]; ok {
			return method(receiver, args, &node.Token, c)
		}
	}
	// Objects can hold closures in their fields.
	if receiver.T == values.MAP {
		if field, ok := receiver.V.(*values.Map).Get(node.Method); ok {
			return applyCallable(field, args, &node.Token, c)
		}
	}
	return values.UNDEF, errSignal(err.CreateErr("eval/method", &node.Token, node.Method, receiver.TypeName()))
}

func methodLen(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("len", tok, args)
	}
	return builtinLen(c, tok, []values.Value{receiver})
}

func methodAbs(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("abs", tok, args)
	}
	return builtinAbs(c, tok, []values.Value{receiver})
}

func methodToString(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("to_string", tok, args)
	}
	return values.MakeString(receiver.Describe(values.ViewStdOut)), nil
}

func combinatorMethod(name string, fn builtinFn) methodFn {
	return func(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
		return fn(c, tok, append([]values.Value{receiver}, args...))
	}
}

func oneString(name string, args []values.Value, tok *token.Token) (string, *signal) {
	if len(args) != 1 || args[0].T != values.STRING {
		return "", badArgs(name, tok, args)
	}
	return args[0].V.(string), nil
}

func stringToUpper(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("to_upper", tok, args)
	}
	return values.MakeString(strings.ToUpper(receiver.V.(string))), nil
}

func stringToLower(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("to_lower", tok, args)
	}
	return values.MakeString(strings.ToLower(receiver.V.(string))), nil
}

func stringTrim(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("trim", tok, args)
	}
	return values.MakeString(strings.TrimSpace(receiver.V.(string))), nil
}

func stringContains(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	needle, sig := oneString("contains", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	return values.MakeBool(strings.Contains(receiver.V.(string), needle)), nil
}

func stringStartsWith(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	prefix, sig := oneString("starts_with", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	return values.MakeBool(strings.HasPrefix(receiver.V.(string), prefix)), nil
}

func stringEndsWith(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	suffix, sig := oneString("ends_with", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	return values.MakeBool(strings.HasSuffix(receiver.V.(string), suffix)), nil
}

func stringSplit(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	separator, sig := oneString("split", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	parts := []values.Value{}
	for _, p := range strings.Split(receiver.V.(string), separator) {
		parts = append(parts, values.MakeString(p))
	}
	return values.MakeList(parts), nil
}

func stringReplace(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 2 || args[0].T != values.STRING || args[1].T != values.STRING {
		return values.UNDEF, badArgs("replace", tok, args)
	}
	return values.MakeString(strings.ReplaceAll(receiver.V.(string),
		args[0].V.(string), args[1].V.(string))), nil
}

func stringChars(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("chars", tok, args)
	}
	chars := []values.Value{}
	for _, r := range receiver.V.(string) {
		chars = append(chars, values.MakeString(string(r)))
	}
	return values.MakeList(chars), nil
}

// Lists are shared containers, so push and pop mutate in place; an aliased
// binding sees the change.
func listPush(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("push", tok, args)
	}
	list := receiver.V.(*values.List)
	list.Elements = append(list.Elements, args[0])
	return receiver, nil
}

func listPop(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("pop", tok, args)
	}
	list := receiver.V.(*values.List)
	if len(list.Elements) == 0 {
		return values.NONE, nil
	}
	last := list.Elements[len(list.Elements)-1]
	list.Elements = list.Elements[:len(list.Elements)-1]
	return values.MakeSome(last), nil
}

func listFirst(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("first", tok, args)
	}
	elements := receiver.V.(*values.List).Elements
	if len(elements) == 0 {
		return values.NONE, nil
	}
	return values.MakeSome(elements[0]), nil
}

func listLast(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("last", tok, args)
	}
	elements := receiver.V.(*values.List).Elements
	if len(elements) == 0 {
		return values.NONE, nil
	}
	return values.MakeSome(elements[len(elements)-1]), nil
}

func listContains(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("contains", tok, args)
	}
	for _, e := range receiver.V.(*values.List).Elements {
		if values.Equals(e, args[0]) {
			return values.TRUE, nil
		}
	}
	return values.FALSE, nil
}

func listSum(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("sum", tok, args)
	}
	elements, e := values.Iterate(receiver, tok)
	if e != nil {
		return values.UNDEF, errSignal(e)
	}
	total := values.MakeInt(0)
	for _, el := range elements {
		var addErr *err.Error
		total, addErr = values.Add(total, el, tok)
		if addErr != nil {
			return values.UNDEF, errSignal(addErr)
		}
	}
	return total, nil
}

func listReverse(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("reverse", tok, args)
	}
	elements := receiver.V.(*values.List).Elements
	result := make([]values.Value, len(elements))
	for i, e := range elements {
		result[len(elements)-1-i] = e
	}
	return values.MakeList(result), nil
}

func listSorted(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("sorted", tok, args)
	}
	elements := append([]values.Value{}, receiver.V.(*values.List).Elements...)
	var cmpErr *signal
	sort.SliceStable(elements, func(i, j int) bool {
		order, ok := values.Compare(elements[i], elements[j])
		if !ok && cmpErr == nil {
			cmpErr = errSignal(err.CreateErr("eval/compare", tok,
				elements[i].TypeName(), elements[j].TypeName()))
		}
		return order < 0
	})
	if cmpErr != nil {
		return values.UNDEF, cmpErr
	}
	return values.MakeList(elements), nil
}

func listJoin(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	separator, sig := oneString("join", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	parts := []string{}
	for _, e := range receiver.V.(*values.List).Elements {
		parts = append(parts, e.Describe(values.ViewStdOut))
	}
	return values.MakeString(strings.Join(parts, separator)), nil
}

func rangeToList(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("to_list", tok, args)
	}
	elements, e := values.Iterate(receiver, tok)
	if e != nil {
		return values.UNDEF, errSignal(e)
	}
	return values.MakeList(elements), nil
}

func mapKeys(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("keys", tok, args)
	}
	m := receiver.V.(*values.Map)
	keys := []values.Value{}
	for _, k := range m.Keys {
		keys = append(keys, values.MakeString(k))
	}
	return values.MakeList(keys), nil
}

func mapValues(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("values", tok, args)
	}
	m := receiver.V.(*values.Map)
	vals := []values.Value{}
	for _, k := range m.Keys {
		vals = append(vals, m.Entries[k])
	}
	return values.MakeList(vals), nil
}

func mapContainsKey(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	key, sig := oneString("contains_key", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	_, ok := receiver.V.(*values.Map).Get(key)
	return values.MakeBool(ok), nil
}

func mapGet(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	key, sig := oneString("get", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	v, ok := receiver.V.(*values.Map).Get(key)
	if !ok {
		return values.NONE, nil
	}
	return values.MakeSome(v), nil
}

func mapInsert(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 2 || args[0].T != values.STRING {
		return values.UNDEF, badArgs("insert", tok, args)
	}
	receiver.V.(*values.Map).Set(args[0].V.(string), args[1])
	return values.NIL, nil
}

func mapRemove(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	key, sig := oneString("remove", args, tok)
	if sig != nil {
		return values.UNDEF, sig
	}
	m := receiver.V.(*values.Map)
	v, ok := m.Get(key)
	if !ok {
		return values.NONE, nil
	}
	m.Delete(key)
	return values.MakeSome(v), nil
}

func optionIsSome(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("is_some", tok, args)
	}
	return values.MakeBool(receiver.V.(*values.Option).Present), nil
}

func optionIsNone(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("is_none", tok, args)
	}
	return values.MakeBool(!receiver.V.(*values.Option).Present), nil
}

func optionMap(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("map", tok, args)
	}
	option := receiver.V.(*values.Option)
	if !option.Present {
		return values.NONE, nil
	}
	result, sig := applyCallable(args[0], []values.Value{option.Inner}, tok, c)
	if sig != nil {
		return values.UNDEF, sig
	}
	return values.MakeSome(result), nil
}

func methodUnwrap(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("unwrap", tok, args)
	}
	switch receiver.T {
	case values.OPTION:
		option := receiver.V.(*values.Option)
		if option.Present {
			return option.Inner, nil
		}
	case values.RESULT:
		result := receiver.V.(*values.Result)
		if result.Ok {
			return result.Inner, nil
		}
	}
	return values.UNDEF, errSignal(err.CreateErr("eval/unwrap", tok, receiver.Describe(values.ViewDebug)))
}

func methodUnwrapOr(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 1 {
		return values.UNDEF, badArgs("unwrap_or", tok, args)
	}
	switch receiver.T {
	case values.OPTION:
		option := receiver.V.(*values.Option)
		if option.Present {
			return option.Inner, nil
		}
	case values.RESULT:
		result := receiver.V.(*values.Result)
		if result.Ok {
			return result.Inner, nil
		}
	}
	return args[0], nil
}

func resultIsOk(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("is_ok", tok, args)
	}
	return values.MakeBool(receiver.V.(*values.Result).Ok), nil
}

func resultIsErr(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("is_err", tok, args)
	}
	return values.MakeBool(!receiver.V.(*values.Result).Ok), nil
}

func errorMessage(receiver values.Value, args []values.Value, tok *token.Token, c *Context) (values.Value, *signal) {
	if len(args) != 0 {
		return values.UNDEF, badArgs("message", tok, args)
	}
	return values.MakeString(receiver.V.(*err.Error).Message), nil
}
