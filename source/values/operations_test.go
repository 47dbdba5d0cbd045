package values

import (
	"math"
	"testing"
)

func TestArithmeticPromotion(t *testing.T) {
	v, e := Add(MakeInt(2), MakeFloat(0.5), nil)
	if e != nil || v.T != FLOAT || v.V.(float64) != 2.5 {
		t.Fatalf("2 + 0.5 should be the float 2.5, got %s", v.Describe(ViewDebug))
	}
	v, e = Mul(MakeFloat(2.0), MakeInt(3), nil)
	if e != nil || v.T != FLOAT || v.V.(float64) != 6.0 {
		t.Fatalf("2.0 * 3 should be the float 6.0, got %s", v.Describe(ViewDebug))
	}
	if _, e = Add(MakeList([]Value{}), MakeList([]Value{}), nil); e == nil || e.ErrorId != "eval/add" {
		t.Fatalf("there is no array concatenation through +")
	}
}

func TestDivisionByZero(t *testing.T) {
	if _, e := Div(MakeInt(1), MakeInt(0), nil); e == nil || e.ErrorId != "eval/div/zero" {
		t.Fatalf("integer division by zero should be an error")
	}
	if _, e := Mod(MakeInt(1), MakeInt(0), nil); e == nil || e.ErrorId != "eval/mod/zero" {
		t.Fatalf("modulo by zero should be an error")
	}
	v, e := Div(MakeFloat(1.0), MakeFloat(0.0), nil)
	if e != nil || !math.IsInf(v.V.(float64), 1) {
		t.Fatalf("float division by zero is IEEE infinity, not an error")
	}
}

func TestPow(t *testing.T) {
	v, _ := Pow(MakeInt(2), MakeInt(10), nil)
	if v.T != INT || v.V.(int64) != 1024 {
		t.Fatalf("2 ** 10 should be the integer 1024, got %s", v.Describe(ViewDebug))
	}
	v, _ = Pow(MakeInt(2), MakeInt(-1), nil)
	if v.T != FLOAT || v.V.(float64) != 0.5 {
		t.Fatalf("a negative exponent should produce a float, got %s", v.Describe(ViewDebug))
	}
}

func TestCompare(t *testing.T) {
	if order, ok := Compare(MakeInt(1), MakeFloat(1.5)); !ok || order != -1 {
		t.Fatalf("mixed numeric comparison should work")
	}
	if order, ok := Compare(MakeString("apple"), MakeString("banana")); !ok || order != -1 {
		t.Fatalf("strings compare lexicographically")
	}
	if _, ok := Compare(MakeString("a"), MakeInt(1)); ok {
		t.Fatalf("a string and an integer have no defined order")
	}
	if _, ok := Compare(TRUE, FALSE); ok {
		t.Fatalf("booleans have no defined order")
	}
}

func TestEquality(t *testing.T) {
	if Equals(MakeInt(1), MakeFloat(1.0)) {
		t.Fatalf("1 == 1.0 should be false; promotion happens in arithmetic, not equality")
	}
	a := MakeList([]Value{MakeInt(1), MakeInt(2)})
	b := MakeList([]Value{MakeInt(1), MakeInt(2)})
	if !Equals(a, b) {
		t.Fatalf("arrays are compared structurally, not by handle")
	}
	if !Equals(MakeFloat(0.1+0.2), MakeFloat(0.3)) {
		t.Fatalf("float equality uses an epsilon")
	}
	if !Equals(MakeSome(MakeInt(5)), MakeSome(MakeInt(5))) || Equals(NONE, MakeSome(MakeInt(5))) {
		t.Fatalf("options compare by presence and contents")
	}
	r1 := Value{T: RANGE, V: &Range{Low: 1, High: 5}}
	r2 := Value{T: RANGE, V: &Range{Low: 1, High: 5, Inclusive: true}}
	if Equals(r1, r2) {
		t.Fatalf("1..5 and 1..=5 are different ranges")
	}
}

func TestTruthiness(t *testing.T) {
	for _, falsy := range []Value{NIL, FALSE, MakeInt(0), MakeFloat(0.0),
		MakeFloat(math.NaN()), MakeString(""), MakeList([]Value{}), NONE} {
		if falsy.IsTruthy() {
			t.Fatalf("%s should be falsy", falsy.Describe(ViewDebug))
		}
	}
	for _, truthy := range []Value{TRUE, MakeInt(-1), MakeString("0"),
		MakeList([]Value{NIL}), MakeSome(FALSE)} {
		if !truthy.IsTruthy() {
			t.Fatalf("%s should be truthy", truthy.Describe(ViewDebug))
		}
	}
}

func TestIndexing(t *testing.T) {
	list := MakeList([]Value{MakeInt(1), MakeInt(2), MakeInt(3)})
	v, e := Index(list, MakeInt(-1), nil)
	if e != nil || v.V.(int64) != 3 {
		t.Fatalf("negative indices wrap around")
	}
	if _, e := Index(list, MakeInt(3), nil); e == nil || e.ErrorId != "eval/index/oob" {
		t.Fatalf("out-of-bounds indexing should be an error")
	}
	if _, e := Index(list, MakeString("x"), nil); e == nil || e.ErrorId != "eval/index/type" {
		t.Fatalf("arrays take integer indices only")
	}

	m := NewMap()
	m.Set("a", MakeInt(1))
	v, e = Index(MakeMap(m), MakeString("missing"), nil)
	if e != nil || v.T != NULL {
		t.Fatalf("a missing object key yields nil, not an error")
	}

	v, e = Index(MakeString("héllo"), MakeInt(1), nil)
	if e != nil || v.V.(string) != "é" {
		t.Fatalf("string indexing is by rune, got %s", v.Describe(ViewDebug))
	}
}

func TestSetIndexMutatesInPlace(t *testing.T) {
	list := MakeList([]Value{MakeInt(1), MakeInt(2)})
	alias := list // Handles share the payload.
	if e := SetIndex(list, MakeInt(0), MakeInt(99), nil); e != nil {
		t.Fatalf("set index: %s", e.Error())
	}
	if alias.V.(*List).Elements[0].V.(int64) != 99 {
		t.Fatalf("mutation should be visible through every handle")
	}
}

func TestIterate(t *testing.T) {
	exclusive := Value{T: RANGE, V: &Range{Low: 1, High: 4}}
	elements, e := Iterate(exclusive, nil)
	if e != nil || len(elements) != 3 {
		t.Fatalf("1..4 has three elements, got %d", len(elements))
	}
	inclusive := Value{T: RANGE, V: &Range{Low: 1, High: 4, Inclusive: true}}
	elements, _ = Iterate(inclusive, nil)
	if len(elements) != 4 {
		t.Fatalf("1..=4 has four elements, got %d", len(elements))
	}
	empty := Value{T: RANGE, V: &Range{Low: 2, High: 2}}
	elements, _ = Iterate(empty, nil)
	if len(elements) != 0 {
		t.Fatalf("a..a is empty, got %d elements", len(elements))
	}

	elements, _ = Iterate(MakeString("hi"), nil)
	if len(elements) != 2 || elements[0].V.(string) != "h" {
		t.Fatalf("iterating a string yields its characters")
	}

	m := NewMap()
	m.Set("b", MakeInt(1))
	m.Set("a", MakeInt(2))
	elements, _ = Iterate(MakeMap(m), nil)
	if len(elements) != 2 || elements[0].V.(string) != "b" {
		t.Fatalf("iterating an object yields its keys in insertion order")
	}

	if _, e := Iterate(MakeInt(5), nil); e == nil {
		t.Fatalf("integers are not iterable")
	}
}

func TestDescribe(t *testing.T) {
	for _, test := range []struct {
		value Value
		want  string
	}{
		{NIL, "nil"},
		{TRUE, "true"},
		{MakeInt(42), "42"},
		{MakeFloat(1.0), "1.0"},
		{MakeFloat(3.5), "3.5"},
		{MakeString("hi"), `"hi"`},
		{MakeList([]Value{MakeInt(1), MakeInt(2)}), "[1, 2]"},
		{MakeTuple([]Value{MakeInt(1)}), "(1,)"},
		{MakeSome(MakeInt(5)), "Some(5)"},
		{NONE, "None"},
		{MakeOk(MakeInt(3)), "Ok(3)"},
		{Value{T: RANGE, V: &Range{Low: 1, High: 5, Inclusive: true}}, "1..=5"},
	} {
		if got := test.value.Describe(ViewDebug); got != test.want {
			t.Fatalf("wanted %s, got %s", test.want, got)
		}
	}
	// The stdout view leaves strings unquoted, as println shows them.
	if got := MakeString("hi").Describe(ViewStdOut); got != "hi" {
		t.Fatalf(`the stdout view of "hi" should be hi, got %s`, got)
	}
}

func TestEnvironmentScoping(t *testing.T) {
	outer := NewEnvironment()
	outer.Define("x", MakeInt(1), true)
	outer.Define("k", MakeInt(9), false)

	inner := outer.NewChild()
	inner.Define("x", MakeInt(2), false) // shadows
	if v, _ := inner.Get("x"); v.V.(int64) != 2 {
		t.Fatalf("the inner binding should shadow the outer one")
	}
	if v, _ := outer.Get("x"); v.V.(int64) != 1 {
		t.Fatalf("shadowing should not touch the outer binding")
	}

	if result := inner.Set("k", MakeInt(10)); result != SetImmutable {
		t.Fatalf("assigning an immutable binding should report SetImmutable")
	}
	if result := inner.Set("nope", MakeInt(1)); result != SetAbsent {
		t.Fatalf("assigning an unbound name should report SetAbsent")
	}

	grandchild := inner.NewChild()
	if result := grandchild.Set("x", MakeInt(3)); result != SetImmutable {
		t.Fatalf("Set should find the innermost binding, which is immutable")
	}
}

func TestDeepCopy(t *testing.T) {
	original := MakeList([]Value{MakeInt(1), MakeList([]Value{MakeInt(2)})})
	copied := original.DeepCopy()
	original.V.(*List).Elements[0] = MakeInt(99)
	original.V.(*List).Elements[1].V.(*List).Elements[0] = MakeInt(99)
	if copied.V.(*List).Elements[0].V.(int64) != 1 {
		t.Fatalf("a deep copy should not see later mutations")
	}
	if copied.V.(*List).Elements[1].V.(*List).Elements[0].V.(int64) != 2 {
		t.Fatalf("the copy should be deep, not one level")
	}
}
