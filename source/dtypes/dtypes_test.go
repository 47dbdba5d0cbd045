package dtypes

import (
	"sort"
	"testing"
)

func TestSets(t *testing.T) {
	S := MakeFromSlice([]int{1, 2, 3})
	if !S.Contains(2) || S.Contains(4) {
		t.Fatalf("membership is broken")
	}
	S.Remove(2)
	if S.Contains(2) {
		t.Fatalf("removal is broken")
	}
	T := S.Copy()
	T.Add(99)
	if S.Contains(99) {
		t.Fatalf("a copy should not share storage with the original")
	}
	if !S.OverlapsWith(MakeFromSlice([]int{3, 4})) || S.OverlapsWith(MakeFromSlice([]int{4, 5})) {
		t.Fatalf("overlap is broken")
	}
}

func TestReachable(t *testing.T) {
	D := Digraph[string]{}
	D.AddArrow("a", "b")
	D.AddArrow("b", "c")
	D.AddArrow("x", "y")

	R := D.Reachable(MakeFromSlice([]string{"a"}))
	if !R.Contains("b") || !R.Contains("c") {
		t.Fatalf("everything downstream of a should be reachable, got %v", R.ToSlice())
	}
	if R.Contains("a") {
		t.Fatalf("the root itself is not reachable unless it lies on a cycle")
	}
	if R.Contains("x") || R.Contains("y") {
		t.Fatalf("the other component should not be reachable")
	}

	D.AddArrow("c", "a")
	R = D.Reachable(MakeFromSlice([]string{"a"}))
	if !R.Contains("a") {
		t.Fatalf("a root on a cycle is reachable from itself")
	}
}

func TestArrowsTo(t *testing.T) {
	D := Digraph[string]{}
	D.AddArrow("a", "c")
	D.AddArrow("b", "c")
	incoming := D.ArrowsTo("c")
	if len(incoming) != 2 || !incoming.Contains("a") || !incoming.Contains("b") {
		t.Fatalf("wanted {a, b}, got %v", incoming.ToSlice())
	}
}

func TestOrdering(t *testing.T) {
	D := Digraph[string]{}
	D.AddArrow("b", "a") // b depends on a
	D.AddArrow("c", "b")
	order, cycle := Ordering(D)
	if len(cycle) != 0 {
		t.Fatalf("an acyclic graph should yield no cycle, got %v", cycle)
	}
	position := map[string]int{}
	for i, node := range order {
		position[node] = i
	}
	if position["a"] > position["b"] || position["b"] > position["c"] {
		t.Fatalf("dependencies should come before their dependents, got %v", order)
	}
}

func TestOrderingFindsCycles(t *testing.T) {
	D := Digraph[string]{}
	D.AddArrow("a", "b")
	D.AddArrow("b", "c")
	D.AddArrow("c", "a")
	_, cycle := Ordering(D)
	if len(cycle) != 3 {
		t.Fatalf("wanted a three-node witness cycle, got %v", cycle)
	}
	seen := append([]string{}, cycle...)
	sort.Strings(seen)
	if seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Fatalf("the witness should consist of the cycle's nodes, got %v", cycle)
	}
}

func TestRemoveNode(t *testing.T) {
	D := Digraph[string]{}
	D.AddArrow("a", "b")
	D.AddArrow("c", "b")
	D.RemoveNode("b")
	if _, ok := D["b"]; ok {
		t.Fatalf("the node should be gone")
	}
	if D["a"].Contains("b") || D["c"].Contains("b") {
		t.Fatalf("arrows into the removed node should be gone too")
	}
}
