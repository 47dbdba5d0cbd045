package dtypes

// Generic containers used throughout the interpreter: a set, a stack, and
// (in digraph.go) a directed graph with topological ordering.

type Set[E comparable] map[E]struct{}

func MakeFromSlice[E comparable](slice []E) Set[E] {
	S := Set[E]{}
	for _, v := range slice {
		S.Add(v)
	}
	return S
}

func (S Set[E]) Add(e E) Set[E] {
	S[e] = struct{}{}
	return S
}

func (S Set[E]) AddSet(T Set[E]) Set[E] {
	for e := range T {
		S.Add(e)
	}
	return S
}

func (S Set[E]) Contains(e E) bool {
	_, found := S[e]
	return found
}

func (S Set[E]) Remove(e E) {
	delete(S, e)
}

func (S Set[E]) IsEmpty() bool {
	return len(S) == 0
}

func (S Set[E]) Copy() Set[E] {
	result := Set[E]{}
	for e := range S {
		result.Add(e)
	}
	return result
}

func (S Set[E]) ToSlice() []E {
	result := []E{}
	for e := range S {
		result = append(result, e)
	}
	return result
}

func (S Set[E]) OverlapsWith(T Set[E]) bool {
	for e := range T {
		if S.Contains(e) {
			return true
		}
	}
	return false
}

func (S Set[E]) GetArbitraryElement() (E, bool) {
	for e := range S {
		return e, true
	}
	var zero E
	return zero, false
}

type Stack[E any] struct {
	elements []E
}

func NewStack[E any]() *Stack[E] {
	return &Stack[E]{elements: []E{}}
}

func (S *Stack[E]) Push(e E) {
	S.elements = append(S.elements, e)
}

func (S *Stack[E]) Pop() (E, bool) {
	if len(S.elements) == 0 {
		var zero E
		return zero, false
	}
	e := S.elements[len(S.elements)-1]
	S.elements = S.elements[:len(S.elements)-1]
	return e, true
}

func (S *Stack[E]) Peek() (E, bool) {
	if len(S.elements) == 0 {
		var zero E
		return zero, false
	}
	return S.elements[len(S.elements)-1], true
}

func (S *Stack[E]) Len() int {
	return len(S.elements)
}
