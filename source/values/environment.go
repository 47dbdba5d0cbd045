package values

// Lexically scoped bindings. An Environment is a frame mapping names to
// storage with a mutability flag, plus a pointer to the enclosing frame;
// lookup walks the chain inner-to-outer. Closures hold a strong reference to
// the chain in effect at their creation, so a frame lives as long as the
// longest-lived closure that captured it.

type Storage struct {
	Val     Value
	Mutable bool
}

type Environment struct {
	Store map[string]Storage
	Ext   *Environment
}

func NewEnvironment() *Environment {
	return &Environment{Store: make(map[string]Storage)}
}

// Pushes a fresh scope whose outer frame is the receiver.
func (e *Environment) NewChild() *Environment {
	return &Environment{Store: make(map[string]Storage), Ext: e}
}

// Define inserts in the innermost frame, shadowing any outer binding of the
// same name.
func (e *Environment) Define(name string, val Value, mutable bool) {
	e.Store[name] = Storage{Val: val, Mutable: mutable}
}

func (e *Environment) Get(name string) (Value, bool) {
	storage, ok := e.Store[name]
	if ok {
		return storage.Val, true
	}
	if e.Ext == nil {
		return UNDEF, false
	}
	return e.Ext.Get(name)
}

func (e *Environment) Exists(name string) bool {
	_, ok := e.Get(name)
	return ok
}

type SetResult int

const (
	SetOk SetResult = iota
	SetAbsent
	SetImmutable
)

// Set updates the innermost frame containing the name. The caller turns
// SetAbsent and SetImmutable into errors carrying the right token.
func (e *Environment) Set(name string, val Value) SetResult {
	storage, ok := e.Store[name]
	if ok {
		if !storage.Mutable {
			return SetImmutable
		}
		e.Store[name] = Storage{Val: val, Mutable: true}
		return SetOk
	}
	if e.Ext == nil {
		return SetAbsent
	}
	return e.Ext.Set(name, val)
}

func (e *Environment) Clear() {
	e.Store = make(map[string]Storage)
}

// Every name visible from this frame, innermost binding winning.
func (e *Environment) Names() []string {
	seen := map[string]bool{}
	result := []string{}
	for env := e; env != nil; env = env.Ext {
		for name := range env.Store {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}
	return result
}
