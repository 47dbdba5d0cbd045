package registry

// The GlobalState of a session: everything its cells have defined, each entry
// attributed to the cell that defined it. The declaration_order counter is
// monotonic and canonical: recomputation ties are always broken by it.

import (
	"sort"
	"sync"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

type Global struct {
	Value   values.Value
	Mutable bool
	Cell    string // id of the defining cell; "" for host-injected globals
	Order   int
}

type Import struct {
	Names []string
	Alias string
	Cell  string
	Order int
}

type Function struct {
	Params     []string
	ReturnType string
	IsAsync    bool
	Cell       string
	Order      int
}

type TypeKind int

const (
	StructType TypeKind = iota
	EnumType
	AliasType
)

type TypeDef struct {
	Kind     TypeKind
	Fields   []string // struct fields or enum variants
	Target   string   // for aliases
	Cell     string
	Order    int
}

type GlobalState struct {
	Globals   map[string]*Global
	Imports   map[string]*Import
	Functions map[string]*Function
	Types     map[string]*TypeDef

	// Values that can't be flattened to JSON are parked here and exported
	// as slab references.
	Slabs    map[int]values.Value
	nextSlab int

	nextOrder int
}

func NewGlobalState() *GlobalState {
	return &GlobalState{
		Globals:   map[string]*Global{},
		Imports:   map[string]*Import{},
		Functions: map[string]*Function{},
		Types:     map[string]*TypeDef{},
		Slabs:     map[int]values.Value{},
	}
}

func (gs *GlobalState) nextDeclaration() int {
	gs.nextOrder++
	return gs.nextOrder
}

// DeclareGlobal introduces a new global and fails if the name is taken.
func (gs *GlobalState) DeclareGlobal(name string, v values.Value, mutable bool, cell string) *err.Error {
	if _, ok := gs.Globals[name]; ok {
		return err.CreateErr("serve/global/exists", &token.Token{Literal: name}, name)
	}
	gs.Globals[name] = &Global{Value: v, Mutable: mutable, Cell: cell, Order: gs.nextDeclaration()}
	return nil
}

// UpdateGlobal changes the value of an existing mutable global.
func (gs *GlobalState) UpdateGlobal(name string, v values.Value) *err.Error {
	g, ok := gs.Globals[name]
	if !ok {
		return err.CreateErr("serve/global/absent", &token.Token{Literal: name}, name)
	}
	if !g.Mutable {
		return err.CreateErr("serve/global/immutable", &token.Token{Literal: name}, name)
	}
	g.Value = v
	return nil
}

// Bind is the session's upsert: a cell re-executing a definition replaces the
// old entry and takes over attribution. The declaration order stays put, so
// re-running a cell doesn't shuffle the recomputation tie-break.
func (gs *GlobalState) Bind(name string, v values.Value, mutable bool, cell string) {
	if g, ok := gs.Globals[name]; ok {
		g.Value = v
		g.Mutable = mutable
		g.Cell = cell
		return
	}
	gs.Globals[name] = &Global{Value: v, Mutable: mutable, Cell: cell, Order: gs.nextDeclaration()}
}

func (gs *GlobalState) Lookup(name string) (*Global, bool) {
	g, ok := gs.Globals[name]
	return g, ok
}

// OwnerOf resolves a name to the cell owning its most recent definition,
// checking all the namespaces a cell can define into.
func (gs *GlobalState) OwnerOf(name string) (string, bool) {
	if g, ok := gs.Globals[name]; ok {
		return g.Cell, true
	}
	if f, ok := gs.Functions[name]; ok {
		return f.Cell, true
	}
	if t, ok := gs.Types[name]; ok {
		return t.Cell, true
	}
	if i, ok := gs.Imports[name]; ok {
		return i.Cell, true
	}
	return "", false
}

func (gs *GlobalState) BindImport(name string, names []string, alias, cell string) {
	gs.Imports[name] = &Import{Names: names, Alias: alias, Cell: cell, Order: gs.nextDeclaration()}
}

func (gs *GlobalState) BindFunction(name string, params []string, returnType string, isAsync bool, cell string) {
	gs.Functions[name] = &Function{Params: params, ReturnType: returnType,
		IsAsync: isAsync, Cell: cell, Order: gs.nextDeclaration()}
}

func (gs *GlobalState) BindType(name string, kind TypeKind, fields []string, target, cell string) {
	gs.Types[name] = &TypeDef{Kind: kind, Fields: fields, Target: target,
		Cell: cell, Order: gs.nextDeclaration()}
}

// ClearCellState removes every entry the cell owns, across all four maps,
// in a single pass.
func (gs *GlobalState) ClearCellState(cell string) {
	for name, g := range gs.Globals {
		if g.Cell == cell {
			delete(gs.Globals, name)
		}
	}
	for name, i := range gs.Imports {
		if i.Cell == cell {
			delete(gs.Imports, name)
		}
	}
	for name, f := range gs.Functions {
		if f.Cell == cell {
			delete(gs.Functions, name)
		}
	}
	for name, t := range gs.Types {
		if t.Cell == cell {
			delete(gs.Types, name)
		}
	}
}

// Clear empties the whole state but keeps the declaration counter running,
// so orders stay monotonic across a clear.
func (gs *GlobalState) Clear() {
	gs.Globals = map[string]*Global{}
	gs.Imports = map[string]*Import{}
	gs.Functions = map[string]*Function{}
	gs.Types = map[string]*TypeDef{}
	gs.Slabs = map[int]values.Value{}
}

// GlobalNames returns the globals in declaration order.
func (gs *GlobalState) GlobalNames() []string {
	names := []string{}
	for name := range gs.Globals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return gs.Globals[names[i]].Order < gs.Globals[names[j]].Order
	})
	return names
}

// Snapshot deep-copies the state for a checkpoint. The copy shares nothing
// mutable with the original.
func (gs *GlobalState) Snapshot() *GlobalState {
	snapshot := NewGlobalState()
	snapshot.nextOrder = gs.nextOrder
	snapshot.nextSlab = gs.nextSlab
	for name, g := range gs.Globals {
		snapshot.Globals[name] = &Global{Value: g.Value.DeepCopy(), Mutable: g.Mutable, Cell: g.Cell, Order: g.Order}
	}
	for name, i := range gs.Imports {
		snapshot.Imports[name] = &Import{Names: append([]string{}, i.Names...), Alias: i.Alias, Cell: i.Cell, Order: i.Order}
	}
	for name, f := range gs.Functions {
		snapshot.Functions[name] = &Function{Params: append([]string{}, f.Params...),
			ReturnType: f.ReturnType, IsAsync: f.IsAsync, Cell: f.Cell, Order: f.Order}
	}
	for name, t := range gs.Types {
		snapshot.Types[name] = &TypeDef{Kind: t.Kind, Fields: append([]string{}, t.Fields...),
			Target: t.Target, Cell: t.Cell, Order: t.Order}
	}
	for id, v := range gs.Slabs {
		snapshot.Slabs[id] = v
	}
	return snapshot
}

// Restore replaces this state's contents with a snapshot's. The snapshot
// itself stays pristine and can be restored from again.
func (gs *GlobalState) Restore(snapshot *GlobalState) {
	restored := snapshot.Snapshot()
	gs.Globals = restored.Globals
	gs.Imports = restored.Imports
	gs.Functions = restored.Functions
	gs.Types = restored.Types
	gs.Slabs = restored.Slabs
	gs.nextOrder = restored.nextOrder
	gs.nextSlab = restored.nextSlab
}

// EstimateMemory gives a rough byte count of the values held in the state.
func (gs *GlobalState) EstimateMemory() int64 {
	total := int64(0)
	for name, g := range gs.Globals {
		total += int64(len(name)) + estimateValue(g.Value)
	}
	for _, v := range gs.Slabs {
		total += estimateValue(v)
	}
	return total
}

func estimateValue(v values.Value) int64 {
	const header = 16
	switch v.T {
	case values.STRING:
		return header + int64(len(v.V.(string)))
	case values.LIST:
		total := int64(header)
		for _, e := range v.V.(*values.List).Elements {
			total += estimateValue(e)
		}
		return total
	case values.TUPLE:
		total := int64(header)
		for _, e := range v.V.(*values.Tuple).Elements {
			total += estimateValue(e)
		}
		return total
	case values.MAP:
		m := v.V.(*values.Map)
		total := int64(header)
		for _, k := range m.Keys {
			total += int64(len(k)) + estimateValue(m.Entries[k])
		}
		return total
	}
	return header
}

// SafeState is the thread-safe wrapper. WithState takes a shared read lock,
// WithStateMut an exclusive one; both guarantee release on every exit path,
// panics included.
type SafeState struct {
	mu    sync.RWMutex
	state *GlobalState
}

func NewSafeState() *SafeState {
	return &SafeState{state: NewGlobalState()}
}

func (ss *SafeState) WithState(f func(gs *GlobalState)) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	f(ss.state)
}

func (ss *SafeState) WithStateMut(f func(gs *GlobalState)) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	f(ss.state)
}
