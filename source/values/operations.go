package values

// The operator contracts shared by the tree-walking interpreter and the VM.
// Both execution paths raise the same errors for the same inputs because they
// both come through here.

import (
	"math"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/token"
)

// Epsilon for float equality.
const epsilon = 2.220446049250313e-16

func Add(a, b Value, tok *token.Token) (Value, *err.Error) {
	switch {
	case a.T == INT && b.T == INT:
		return MakeInt(a.V.(int64) + b.V.(int64)), nil // Wrapping arithmetic on overflow.
	case a.T == FLOAT && b.T == FLOAT:
		return MakeFloat(a.V.(float64) + b.V.(float64)), nil
	case a.T == INT && b.T == FLOAT:
		return MakeFloat(float64(a.V.(int64)) + b.V.(float64)), nil
	case a.T == FLOAT && b.T == INT:
		return MakeFloat(a.V.(float64) + float64(b.V.(int64))), nil
	case a.T == STRING && b.T == STRING:
		return MakeString(a.V.(string) + b.V.(string)), nil
	}
	return UNDEF, err.CreateErr("eval/add", tok, a.TypeName(), b.TypeName())
}

func Sub(a, b Value, tok *token.Token) (Value, *err.Error) {
	switch {
	case a.T == INT && b.T == INT:
		return MakeInt(a.V.(int64) - b.V.(int64)), nil
	case a.T == FLOAT && b.T == FLOAT:
		return MakeFloat(a.V.(float64) - b.V.(float64)), nil
	case a.T == INT && b.T == FLOAT:
		return MakeFloat(float64(a.V.(int64)) - b.V.(float64)), nil
	case a.T == FLOAT && b.T == INT:
		return MakeFloat(a.V.(float64) - float64(b.V.(int64))), nil
	}
	return UNDEF, err.CreateErr("eval/sub", tok, a.TypeName(), b.TypeName())
}

func Mul(a, b Value, tok *token.Token) (Value, *err.Error) {
	switch {
	case a.T == INT && b.T == INT:
		return MakeInt(a.V.(int64) * b.V.(int64)), nil
	case a.T == FLOAT && b.T == FLOAT:
		return MakeFloat(a.V.(float64) * b.V.(float64)), nil
	case a.T == INT && b.T == FLOAT:
		return MakeFloat(float64(a.V.(int64)) * b.V.(float64)), nil
	case a.T == FLOAT && b.T == INT:
		return MakeFloat(a.V.(float64) * float64(b.V.(int64))), nil
	}
	return UNDEF, err.CreateErr("eval/mul", tok, a.TypeName(), b.TypeName())
}

// Integer division truncates; integer division by zero is an error. Float
// division by zero follows IEEE-754 and is never an error.
func Div(a, b Value, tok *token.Token) (Value, *err.Error) {
	switch {
	case a.T == INT && b.T == INT:
		if b.V.(int64) == 0 {
			return UNDEF, err.CreateErr("eval/div/zero", tok)
		}
		return MakeInt(a.V.(int64) / b.V.(int64)), nil
	case a.T == FLOAT && b.T == FLOAT:
		return MakeFloat(a.V.(float64) / b.V.(float64)), nil
	case a.T == INT && b.T == FLOAT:
		return MakeFloat(float64(a.V.(int64)) / b.V.(float64)), nil
	case a.T == FLOAT && b.T == INT:
		return MakeFloat(a.V.(float64) / float64(b.V.(int64))), nil
	}
	return UNDEF, err.CreateErr("eval/div", tok, a.TypeName(), b.TypeName())
}

func Mod(a, b Value, tok *token.Token) (Value, *err.Error) {
	if a.T != INT || b.T != INT {
		return UNDEF, err.CreateErr("eval/mod/type", tok, a.TypeName(), b.TypeName())
	}
	if b.V.(int64) == 0 {
		return UNDEF, err.CreateErr("eval/mod/zero", tok)
	}
	return MakeInt(a.V.(int64) % b.V.(int64)), nil
}

func Pow(a, b Value, tok *token.Token) (Value, *err.Error) {
	switch {
	case a.T == INT && b.T == INT:
		exp := b.V.(int64)
		if exp < 0 {
			return MakeFloat(math.Pow(float64(a.V.(int64)), float64(exp))), nil
		}
		return MakeInt(intPow(a.V.(int64), exp)), nil
	case a.T == FLOAT && b.T == FLOAT:
		return MakeFloat(math.Pow(a.V.(float64), b.V.(float64))), nil
	case a.T == FLOAT && b.T == INT:
		return MakeFloat(math.Pow(a.V.(float64), float64(b.V.(int64)))), nil
	case a.T == INT && b.T == FLOAT:
		return MakeFloat(math.Pow(float64(a.V.(int64)), b.V.(float64))), nil
	}
	return UNDEF, err.CreateErr("eval/pow", tok, a.TypeName(), b.TypeName())
}

// Exponentiation by squaring, wrapping like the other integer operators.
func intPow(base, exp int64) int64 {
	var result int64 = 1
	for exp > 0 {
		if exp&1 == 1 {
			result = result * base
		}
		base = base * base
		exp >>= 1
	}
	return result
}

func Negate(a Value, tok *token.Token) (Value, *err.Error) {
	switch a.T {
	case INT:
		return MakeInt(-a.V.(int64)), nil
	case FLOAT:
		return MakeFloat(-a.V.(float64)), nil
	}
	return UNDEF, err.CreateErr("eval/negate", tok, a.TypeName())
}

// Compare returns -1, 0, or 1, with ok false when the two values have no
// defined order: there is a total order on integers, floats, strings, and
// mixed integer/float comparisons, and nothing else.
func Compare(a, b Value) (int, bool) {
	switch {
	case a.T == INT && b.T == INT:
		return cmpOrdered(a.V.(int64), b.V.(int64)), true
	case a.T == STRING && b.T == STRING:
		return cmpOrdered(a.V.(string), b.V.(string)), true
	case (a.T == INT || a.T == FLOAT) && (b.T == INT || b.T == FLOAT):
		return cmpFloats(toFloat(a), toFloat(b)), true
	}
	return 0, false
}

func cmpOrdered[E int64 | string](a, b E) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func cmpFloats(a, b float64) int {
	if math.Abs(a-b) < epsilon {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func toFloat(v Value) float64 {
	if v.T == INT {
		return float64(v.V.(int64))
	}
	return v.V.(float64)
}

// Structural recursive equality. Container handles are not compared by
// identity: two arrays are equal if they have the same length and pairwise
// equal elements. Floats are compared with an epsilon.
func Equals(a, b Value) bool {
	if (a.T == INT || a.T == FLOAT) && (b.T == INT || b.T == FLOAT) {
		if a.T != b.T {
			return false // 1 == 1.0 is false; promotion happens in arithmetic, not equality.
		}
		if a.T == INT {
			return a.V.(int64) == b.V.(int64)
		}
		return math.Abs(a.V.(float64)-b.V.(float64)) < epsilon
	}
	if a.T != b.T {
		return false
	}
	switch a.T {
	case NULL:
		return true
	case BOOL:
		return a.V.(bool) == b.V.(bool)
	case STRING:
		return a.V.(string) == b.V.(string)
	case LIST:
		return equalSlices(a.V.(*List).Elements, b.V.(*List).Elements)
	case TUPLE:
		return equalSlices(a.V.(*Tuple).Elements, b.V.(*Tuple).Elements)
	case MAP:
		ma, mb := a.V.(*Map), b.V.(*Map)
		if len(ma.Entries) != len(mb.Entries) {
			return false
		}
		for k, v := range ma.Entries {
			w, ok := mb.Entries[k]
			if !ok || !Equals(v, w) {
				return false
			}
		}
		return true
	case OPTION:
		oa, ob := a.V.(*Option), b.V.(*Option)
		if oa.Present != ob.Present {
			return false
		}
		return !oa.Present || Equals(oa.Inner, ob.Inner)
	case RESULT:
		ra, rb := a.V.(*Result), b.V.(*Result)
		return ra.Ok == rb.Ok && Equals(ra.Inner, rb.Inner)
	case RANGE:
		ra, rb := a.V.(*Range), b.V.(*Range)
		return *ra == *rb
	}
	return a.V == b.V
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equals(a[i], b[i]) {
			return false
		}
	}
	return true
}

// False for nil, false, 0, 0.0, NaN, the empty string, and the empty array;
// true for everything else.
func (v Value) IsTruthy() bool {
	switch v.T {
	case NULL:
		return false
	case BOOL:
		return v.V.(bool)
	case INT:
		return v.V.(int64) != 0
	case FLOAT:
		f := v.V.(float64)
		return f != 0.0 && !math.IsNaN(f)
	case STRING:
		return v.V.(string) != ""
	case LIST:
		return len(v.V.(*List).Elements) > 0
	case OPTION:
		return v.V.(*Option).Present
	}
	return true
}

// Indexing: arrays take integers with negative-index wraparound and error on
// out-of-bounds; objects take strings and return nil on a miss; strings take
// integers and yield one-character strings.
func Index(collection, index Value, tok *token.Token) (Value, *err.Error) {
	switch collection.T {
	case LIST:
		if index.T != INT {
			return UNDEF, err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
		}
		return indexSlice(collection.V.(*List).Elements, index.V.(int64), tok)
	case TUPLE:
		if index.T != INT {
			return UNDEF, err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
		}
		return indexSlice(collection.V.(*Tuple).Elements, index.V.(int64), tok)
	case MAP:
		if index.T != STRING {
			return UNDEF, err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
		}
		if v, ok := collection.V.(*Map).Get(index.V.(string)); ok {
			return v, nil
		}
		return NIL, nil
	case STRING:
		if index.T != INT {
			return UNDEF, err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
		}
		runes := []rune(collection.V.(string))
		i := index.V.(int64)
		if i < 0 {
			i = i + int64(len(runes))
		}
		if i < 0 || i >= int64(len(runes)) {
			return UNDEF, err.CreateErr("eval/index/oob", tok, index.V.(int64), len(runes))
		}
		return MakeString(string(runes[i])), nil
	}
	return UNDEF, err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
}

func indexSlice(elements []Value, i int64, tok *token.Token) (Value, *err.Error) {
	given := i
	if i < 0 {
		i = i + int64(len(elements))
	}
	if i < 0 || i >= int64(len(elements)) {
		return UNDEF, err.CreateErr("eval/index/oob", tok, given, len(elements))
	}
	return elements[i], nil
}

// SetIndex mutates the container in place; the change is visible through
// every handle to it.
func SetIndex(collection, index, val Value, tok *token.Token) *err.Error {
	switch collection.T {
	case LIST:
		if index.T != INT {
			return err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
		}
		elements := collection.V.(*List).Elements
		i := index.V.(int64)
		given := i
		if i < 0 {
			i = i + int64(len(elements))
		}
		if i < 0 || i >= int64(len(elements)) {
			return err.CreateErr("eval/index/oob", tok, given, len(elements))
		}
		elements[i] = val
		return nil
	case MAP:
		if index.T != STRING {
			return err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
		}
		collection.V.(*Map).Set(index.V.(string), val)
		return nil
	}
	return err.CreateErr("eval/index/type", tok, collection.TypeName(), index.TypeName())
}

// Iterate flattens an iterable into a slice of its elements: the ints of a
// range, the elements of an array or tuple, the one-character strings of a
// string, the keys of an object.
func Iterate(iterable Value, tok *token.Token) ([]Value, *err.Error) {
	switch iterable.T {
	case RANGE:
		r := iterable.V.(*Range)
		result := []Value{}
		high := r.High
		if r.Inclusive {
			high++
		}
		for i := r.Low; i < high; i++ {
			result = append(result, MakeInt(i))
		}
		return result, nil
	case LIST:
		return append([]Value{}, iterable.V.(*List).Elements...), nil
	case TUPLE:
		return append([]Value{}, iterable.V.(*Tuple).Elements...), nil
	case STRING:
		result := []Value{}
		for _, r := range iterable.V.(string) {
			result = append(result, MakeString(string(r)))
		}
		return result, nil
	case MAP:
		m := iterable.V.(*Map)
		result := []Value{}
		for _, k := range m.Keys {
			result = append(result, MakeString(k))
		}
		return result, nil
	}
	return nil, err.CreateErr("eval/range/type", tok, iterable.TypeName())
}

// BinaryOp dispatches an operator by name. The interpreter and the bytecode
// VM both route through here, which is what makes their errors identical.
func BinaryOp(operator string, left, right Value, tok *token.Token) (Value, *err.Error) {
	switch operator {
	case "+":
		return Add(left, right, tok)
	case "-":
		return Sub(left, right, tok)
	case "*":
		return Mul(left, right, tok)
	case "/":
		return Div(left, right, tok)
	case "%":
		return Mod(left, right, tok)
	case "**":
		return Pow(left, right, tok)
	case "==":
		return MakeBool(Equals(left, right)), nil
	case "!=":
		return MakeBool(!Equals(left, right)), nil
	case "<", ">", "<=", ">=":
		order, ok := Compare(left, right)
		if !ok {
			return UNDEF, err.CreateErr("eval/compare", tok, left.TypeName(), right.TypeName())
		}
		switch operator {
		case "<":
			return MakeBool(order < 0), nil
		case ">":
			return MakeBool(order > 0), nil
		case "<=":
			return MakeBool(order <= 0), nil
		}
		return MakeBool(order >= 0), nil
	}
	return UNDEF, err.CreateErr("parse/prefix", tok, operator)
}
