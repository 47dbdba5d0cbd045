package dtypes

// A digraph in the form of a map associating each node with the set of nodes
// it points to. The Ordering function lists the nodes so that no node X ever
// precedes a node Y when there is a route from X to Y; if the graph is cyclic
// it returns a witness cycle instead.
//
// We strip leaf nodes from the graph, appending them to the list, until none
// remain. If the graph is then non-empty it consists of cycles, and we can
// extract one of them as proof.

import "fmt"

type Digraph[E comparable] map[E]Set[E]

func (D Digraph[E]) String() string {
	result := "{\n"
	for k, v := range D {
		result += fmt.Sprintf("%v : %v\n", k, v.ToSlice())
	}
	return result + "}\n"
}

func (D Digraph[E]) Add(node E, neighbors []E) {
	D[node] = MakeFromSlice(neighbors)
}

// Adds the node with no neighbors unless it's already present.
func (D Digraph[E]) AddSafe(node E) {
	if _, ok := D[node]; !ok {
		D[node] = Set[E]{}
	}
}

func (D Digraph[E]) AddArrow(a, b E) {
	D.AddSafe(a)
	D.AddSafe(b)
	D[a].Add(b)
}

func (D Digraph[E]) RemoveNode(node E) {
	delete(D, node)
	for _, V := range D {
		V.Remove(node)
	}
}

func (D Digraph[E]) ArrowsTo(e E) Set[E] {
	result := Set[E]{}
	for k, V := range D {
		if V.Contains(e) {
			result.Add(k)
		}
	}
	return result
}

func (D Digraph[E]) Copy() Digraph[E] {
	result := Digraph[E]{}
	for k, V := range D {
		result[k] = V.Copy()
	}
	return result
}

// The set of nodes reachable from the given roots, not including the roots
// themselves unless they lie on a cycle.
func (D Digraph[E]) Reachable(roots Set[E]) Set[E] {
	result := Set[E]{}
	frontier := roots.ToSlice()
	for len(frontier) > 0 {
		node := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for next := range D[node] {
			if !result.Contains(next) {
				result.Add(next)
				frontier = append(frontier, next)
			}
		}
	}
	return result
}

func Ordering[E comparable](D Digraph[E]) ([]E, []E) {
	G := D.Copy()
	result := []E{}
	for leafnodes := G.stripLeafnodes(); len(leafnodes) > 0; leafnodes = G.stripLeafnodes() {
		result = append(result, leafnodes...)
	}
	return result, extractCycle(G)
}

func (D Digraph[E]) stripLeafnodes() []E {
	result := []E{}
	for k, v := range D {
		if v.IsEmpty() {
			result = append(result, k)
		}
	}
	for _, k := range result {
		delete(D, k)
	}
	for _, V := range D {
		for _, e := range result {
			V.Remove(e)
		}
	}
	return result
}

// If the digraph at the end of the Ordering function is non-empty, then it
// consists of a bunch of cycles, and we can choose one of them to return as
// proof of this fact.
func extractCycle[E comparable](D Digraph[E]) []E {
	start, ok := func() (E, bool) {
		for k := range D {
			return k, true
		}
		var zero E
		return zero, false
	}()
	if !ok {
		return []E{}
	}
	result := []E{start}
	next := start
	for {
		n, ok := D[next].GetArbitraryElement()
		if !ok {
			panic("extractCycle has found a leaf node, this is bad.")
		}
		next = n
		if i := Index(result, next); i != -1 {
			return result[i:]
		}
		result = append(result, next)
	}
}

func Index[E comparable](slice []E, element E) int {
	for k, v := range slice {
		if v == element {
			return k
		}
	}
	return -1
}
