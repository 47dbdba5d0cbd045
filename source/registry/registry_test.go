package registry

import (
	"encoding/json"
	"testing"

	"github.com/paiml/ruchy-sub025/source/values"
)

func TestDeclarationOrder(t *testing.T) {
	gs := NewGlobalState()
	gs.Bind("c", values.MakeInt(3), false, "cell-1")
	gs.Bind("a", values.MakeInt(1), false, "cell-1")
	gs.Bind("b", values.MakeInt(2), false, "cell-2")

	names := gs.GlobalNames()
	want := []string{"c", "a", "b"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("wanted order %v, got %v", want, names)
		}
	}
	if gs.Globals["a"].Order <= gs.Globals["c"].Order {
		t.Fatalf("orders aren't monotonic")
	}
}

func TestDeclareAndUpdate(t *testing.T) {
	gs := NewGlobalState()
	if e := gs.DeclareGlobal("x", values.MakeInt(1), true, "cell-1"); e != nil {
		t.Fatalf("declaring x: %s", e.Error())
	}
	if e := gs.DeclareGlobal("x", values.MakeInt(2), true, "cell-1"); e == nil || e.ErrorId != "serve/global/exists" {
		t.Fatalf("redeclaring x should fail with serve/global/exists")
	}
	if e := gs.UpdateGlobal("x", values.MakeInt(2)); e != nil {
		t.Fatalf("updating x: %s", e.Error())
	}
	if e := gs.UpdateGlobal("y", values.MakeInt(1)); e == nil || e.ErrorId != "serve/global/absent" {
		t.Fatalf("updating an absent global should fail with serve/global/absent")
	}
	gs.Bind("k", values.MakeInt(1), false, "cell-1")
	if e := gs.UpdateGlobal("k", values.MakeInt(2)); e == nil || e.ErrorId != "serve/global/immutable" {
		t.Fatalf("updating an immutable global should fail with serve/global/immutable")
	}
}

func TestBindTakesOverAttribution(t *testing.T) {
	gs := NewGlobalState()
	gs.Bind("x", values.MakeInt(1), false, "cell-1")
	gs.Bind("x", values.MakeInt(2), false, "cell-2")
	owner, ok := gs.OwnerOf("x")
	if !ok || owner != "cell-2" {
		t.Fatalf("re-binding should transfer ownership; owner is %q", owner)
	}
	if !values.Equals(gs.Globals["x"].Value, values.MakeInt(2)) {
		t.Fatalf("re-binding should replace the value")
	}
}

func TestRebindingKeepsDeclarationOrder(t *testing.T) {
	gs := NewGlobalState()
	gs.Bind("x", values.MakeInt(1), false, "cell-1")
	gs.Bind("y", values.MakeInt(2), false, "cell-2")
	original := gs.Globals["x"].Order

	gs.Bind("x", values.MakeInt(3), false, "cell-3")

	if gs.Globals["x"].Order != original {
		t.Fatalf("an upsert should keep the original order, got %d wanted %d",
			gs.Globals["x"].Order, original)
	}
	names := gs.GlobalNames()
	if names[0] != "x" || names[1] != "y" {
		t.Fatalf("re-binding x should not move it behind y; got %v", names)
	}
}

func TestClearCellState(t *testing.T) {
	gs := NewGlobalState()
	gs.Bind("x", values.MakeInt(1), false, "cell-1")
	gs.Bind("y", values.MakeInt(2), false, "cell-2")
	gs.BindFunction("f", []string{"n"}, "", false, "cell-1")
	gs.BindType("T", StructType, []string{"a"}, "", "cell-1")
	gs.BindImport("std", []string{"sqrt"}, "", "cell-1")

	gs.ClearCellState("cell-1")

	if _, ok := gs.Globals["x"]; ok {
		t.Fatalf("clearing cell-1 should remove its global")
	}
	if _, ok := gs.Globals["y"]; !ok {
		t.Fatalf("clearing cell-1 should leave cell-2's global alone")
	}
	if len(gs.Functions) != 0 || len(gs.Types) != 0 || len(gs.Imports) != 0 {
		t.Fatalf("clearing cell-1 should empty its functions, types, and imports")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	gs := NewGlobalState()
	gs.Bind("xs", values.MakeList([]values.Value{values.MakeInt(1)}), true, "cell-1")

	snapshot := gs.Snapshot()

	// Mutate the original through the container handle.
	list := gs.Globals["xs"].Value.V.(*values.List)
	list.Elements[0] = values.MakeInt(99)
	gs.Bind("extra", values.MakeInt(5), false, "cell-2")

	gs.Restore(snapshot)

	if _, ok := gs.Globals["extra"]; ok {
		t.Fatalf("restore should drop globals added after the snapshot")
	}
	restored := gs.Globals["xs"].Value.V.(*values.List)
	if !values.Equals(restored.Elements[0], values.MakeInt(1)) {
		t.Fatalf("restore should undo container mutation; got %s",
			restored.Elements[0].Describe(values.ViewDebug))
	}

	// The snapshot can be restored from again.
	gs.Bind("later", values.MakeInt(7), false, "cell-3")
	gs.Restore(snapshot)
	if _, ok := gs.Globals["later"]; ok {
		t.Fatalf("a checkpoint should be restorable more than once")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	gs := NewGlobalState()
	gs.Bind("n", values.MakeInt(42), false, "cell-1")
	gs.Bind("name", values.MakeString("ruchy"), true, "cell-1")
	gs.Bind("pi", values.MakeFloat(3.5), false, "cell-2")
	gs.Bind("flag", values.TRUE, false, "cell-2")
	gs.Bind("nothing", values.NIL, false, "cell-2")
	gs.Bind("xs", values.MakeList([]values.Value{values.MakeInt(1), values.MakeString("two")}), false, "cell-3")
	m := values.NewMap()
	m.Set("a", values.MakeInt(1))
	m.Set("b", values.MakeInt(2))
	gs.Bind("obj", values.Value{T: values.MAP, V: m}, false, "cell-3")
	gs.BindFunction("f", []string{"a", "b"}, "Integer", false, "cell-1")
	gs.BindType("Color", EnumType, []string{"Red", "Green"}, "", "cell-2")
	gs.BindImport("std", []string{"sqrt"}, "", "cell-1")

	data, e := gs.ExportJSON()
	if e != nil {
		t.Fatalf("export: %s", e.Error())
	}

	if e := gs.ImportJSON(data, SlabLenient); e != nil {
		t.Fatalf("import: %s", e.Error())
	}

	if !values.Equals(gs.Globals["n"].Value, values.MakeInt(42)) {
		t.Fatalf("n didn't survive the round trip")
	}
	if !gs.Globals["name"].Mutable {
		t.Fatalf("mutability didn't survive the round trip")
	}
	if gs.Globals["xs"].Cell != "cell-3" {
		t.Fatalf("attribution didn't survive the round trip")
	}
	obj := gs.Globals["obj"].Value.V.(*values.Map)
	if len(obj.Keys) != 2 || obj.Keys[0] != "a" {
		t.Fatalf("object key order didn't survive the round trip")
	}
	if gs.Functions["f"].ReturnType != "Integer" {
		t.Fatalf("function metadata didn't survive the round trip")
	}
	if gs.Types["Color"].Kind != EnumType {
		t.Fatalf("type metadata didn't survive the round trip")
	}

	names := gs.GlobalNames()
	if names[0] != "n" || names[len(names)-1] != "obj" {
		t.Fatalf("declaration order didn't survive the round trip: %v", names)
	}
}

func TestExportShape(t *testing.T) {
	gs := NewGlobalState()
	gs.Bind("n", values.MakeInt(1), false, "cell-1")
	data, e := gs.ExportJSON()
	if e != nil {
		t.Fatalf("export: %s", e.Error())
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		t.Fatalf("export isn't valid JSON: %v", err)
	}
	for _, key := range []string{"globals", "imports", "functions", "types"} {
		if _, ok := top[key]; !ok {
			t.Fatalf("export is missing the %q section", key)
		}
	}
}

func TestSlabReferences(t *testing.T) {
	gs := NewGlobalState()
	closure := values.Value{T: values.CLOSURE, V: &values.Closure{Name: "f"}}
	gs.Bind("f", closure, false, "cell-1")

	data, e := gs.ExportJSON()
	if e != nil {
		t.Fatalf("export: %s", e.Error())
	}

	// In-process, the slab table survives and the closure comes back.
	if e := gs.ImportJSON(data, SlabStrict); e != nil {
		t.Fatalf("in-process import: %s", e.Error())
	}
	if gs.Globals["f"].Value.T != values.CLOSURE {
		t.Fatalf("slab reference didn't resolve in process")
	}

	// Cross-process, the table is gone: strict fails, lenient degrades to nil.
	fresh := NewGlobalState()
	if e := fresh.ImportJSON(data, SlabStrict); e == nil {
		t.Fatalf("a dangling slab reference should fail under SlabStrict")
	}
	fresh = NewGlobalState()
	if e := fresh.ImportJSON(data, SlabLenient); e != nil {
		t.Fatalf("lenient import: %s", e.Error())
	}
	if fresh.Globals["f"].Value.T != values.NULL {
		t.Fatalf("a dangling slab reference should degrade to nil under SlabLenient")
	}
}

func TestSafeState(t *testing.T) {
	ss := NewSafeState()
	ss.WithStateMut(func(gs *GlobalState) {
		gs.Bind("x", values.MakeInt(1), false, "cell-1")
	})
	var got values.Value
	ss.WithState(func(gs *GlobalState) {
		got = gs.Globals["x"].Value
	})
	if !values.Equals(got, values.MakeInt(1)) {
		t.Fatalf("SafeState lost a binding")
	}
}
