package values

import (
	"github.com/paiml/ruchy-sub025/source/ast"
)

type ValueType uint32

const ( // Cross-reference with typeNames below.
	UNDEFINED_VALUE ValueType = iota // For debugging purposes, it is useful to have the zero value something it should never actually be.
	NULL
	BOOL
	INT
	FLOAT
	STRING
	LIST
	TUPLE
	MAP
	CLOSURE
	BUILTIN
	OPTION
	RESULT
	RANGE
	ACTOR_DEF
	ACTOR
	ERROR
)

// The names the user sees in error messages.
var typeNames = []string{"UNDEFINED VALUE", "nil", "boolean", "integer", "float",
	"string", "array", "tuple", "object", "closure", "builtin", "option",
	"result", "range", "actor definition", "actor", "error"}

type Value struct {
	T ValueType
	V any
}

var (
	UNDEF = Value{T: UNDEFINED_VALUE}
	NIL   = Value{T: NULL}
	FALSE = Value{T: BOOL, V: false}
	TRUE  = Value{T: BOOL, V: true}
)

func (v Value) TypeName() string {
	if int(v.T) < len(typeNames) {
		return typeNames[v.T]
	}
	return "UNKNOWN TYPE"
}

func MakeBool(b bool) Value {
	if b {
		return TRUE
	}
	return FALSE
}

func MakeInt(i int64) Value {
	return Value{T: INT, V: i}
}

func MakeFloat(f float64) Value {
	return Value{T: FLOAT, V: f}
}

func MakeString(s string) Value {
	return Value{T: STRING, V: s}
}

// Containers are shared: cloning a Value clones the handle, not the contents,
// so mutation through one handle is visible through all of them. The payloads
// below are therefore always held by pointer.

type List struct {
	Elements []Value
}

func MakeList(elements []Value) Value {
	return Value{T: LIST, V: &List{Elements: elements}}
}

type Tuple struct {
	Elements []Value
}

func MakeTuple(elements []Value) Value {
	return Value{T: TUPLE, V: &Tuple{Elements: elements}}
}

// Insertion order is preserved for display and iteration.
type Map struct {
	Keys    []string
	Entries map[string]Value
}

func NewMap() *Map {
	return &Map{Keys: []string{}, Entries: map[string]Value{}}
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.Entries[key]
	return v, ok
}

func (m *Map) Set(key string, v Value) {
	if _, ok := m.Entries[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Entries[key] = v
}

func (m *Map) Delete(key string) {
	if _, ok := m.Entries[key]; !ok {
		return
	}
	delete(m.Entries, key)
	for i, k := range m.Keys {
		if k == key {
			m.Keys = append(m.Keys[:i], m.Keys[i+1:]...)
			break
		}
	}
}

func MakeMap(m *Map) Value {
	return Value{T: MAP, V: m}
}

type Closure struct {
	Name    string // empty for lambdas
	Params  []ast.Param
	Body    ast.Node
	Env     *Environment // the frame chain in effect at the point of creation
	IsAsync bool
}

type Option struct {
	Present bool
	Inner   Value
}

func MakeSome(v Value) Value {
	return Value{T: OPTION, V: &Option{Present: true, Inner: v}}
}

var NONE = Value{T: OPTION, V: &Option{}}

type Result struct {
	Ok    bool
	Inner Value
}

func MakeOk(v Value) Value {
	return Value{T: RESULT, V: &Result{Ok: true, Inner: v}}
}

func MakeErrResult(v Value) Value {
	return Value{T: RESULT, V: &Result{Ok: false, Inner: v}}
}

type Range struct {
	Low       int64
	High      int64
	Inclusive bool
}

func (r *Range) Len() int64 {
	n := r.High - r.Low
	if r.Inclusive {
		n++
	}
	if n < 0 {
		return 0
	}
	return n
}

// An actor declaration; 'spawn' instantiates it as an ActorRef.
type ActorDef struct {
	Name     string
	States   []ast.StateField
	Handlers map[string]*ast.ReceiveHandler
	Env      *Environment // the scope the declaration closed over
}

type Message struct {
	Name string
	Args []Value
}

// An opaque handle to a mailbox. The mailbox is FIFO; the interpreter drains
// all enqueued messages before returning control to the caller.
type ActorRef struct {
	Def      *ActorDef
	State    *Map
	Mailbox  []Message
	Draining bool
}

// DeepCopy is used for checkpoint snapshots: bindings restored from a
// checkpoint must not see mutations made to containers after it was taken.
// Immutable payloads are returned as they are.
func (v Value) DeepCopy() Value {
	switch v.T {
	case LIST:
		elements := v.V.(*List).Elements
		copied := make([]Value, len(elements))
		for i, e := range elements {
			copied[i] = e.DeepCopy()
		}
		return MakeList(copied)
	case TUPLE:
		elements := v.V.(*Tuple).Elements
		copied := make([]Value, len(elements))
		for i, e := range elements {
			copied[i] = e.DeepCopy()
		}
		return MakeTuple(copied)
	case MAP:
		m := v.V.(*Map)
		copied := NewMap()
		for _, k := range m.Keys {
			copied.Set(k, m.Entries[k].DeepCopy())
		}
		return MakeMap(copied)
	case OPTION:
		o := v.V.(*Option)
		if !o.Present {
			return NONE
		}
		return MakeSome(o.Inner.DeepCopy())
	case RESULT:
		r := v.V.(*Result)
		if r.Ok {
			return MakeOk(r.Inner.DeepCopy())
		}
		return MakeErrResult(r.Inner.DeepCopy())
	}
	return v
}
