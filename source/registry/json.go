package registry

// JSON export and import of a GlobalState. Scalars and plain containers are
// flattened; anything else (closures, actors, ranges) is parked in the slab
// table and exported as a slab reference. Importing a slab reference in the
// same process finds the slab again; importing one into a process that
// doesn't have it is governed by the slab policy.

import (
	"encoding/json"
	"sort"

	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/logging"
	"github.com/paiml/ruchy-sub025/source/token"
	"github.com/paiml/ruchy-sub025/source/values"
)

type SlabPolicy int

const (
	SlabLenient SlabPolicy = iota // missing slab decodes to nil with a warning
	SlabStrict                    // missing slab is an error
)

type exportedGlobal struct {
	Name             string          `json:"name"`
	Value            json.RawMessage `json:"value"`
	Mutable          bool            `json:"mutable"`
	CellId           string          `json:"cell_id"`
	DeclarationOrder int             `json:"declaration_order"`
}

type exportedImport struct {
	Name   string   `json:"name"`
	Names  []string `json:"imported_names"`
	Alias  string   `json:"alias,omitempty"`
	CellId string   `json:"cell_id"`
}

type exportedFunction struct {
	Name       string   `json:"name"`
	Params     []string `json:"params"`
	ReturnType string   `json:"return_type,omitempty"`
	IsAsync    bool     `json:"is_async"`
	CellId     string   `json:"cell_id"`
}

type exportedType struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields,omitempty"`
	Target string   `json:"target,omitempty"`
	CellId string   `json:"cell_id"`
}

type exportedState struct {
	Globals   []exportedGlobal   `json:"globals"`
	Imports   []exportedImport   `json:"imports"`
	Functions []exportedFunction `json:"functions"`
	Types     []exportedType     `json:"types"`
}

var typeKindNames = map[TypeKind]string{StructType: "struct", EnumType: "enum", AliasType: "alias"}

// ExportJSON renders the whole state, globals in declaration order.
func (gs *GlobalState) ExportJSON() ([]byte, *err.Error) {
	out := exportedState{
		Globals:   []exportedGlobal{},
		Imports:   []exportedImport{},
		Functions: []exportedFunction{},
		Types:     []exportedType{},
	}
	for _, name := range gs.GlobalNames() {
		g := gs.Globals[name]
		encoded, e := gs.encodeValue(g.Value)
		if e != nil {
			return nil, e
		}
		out.Globals = append(out.Globals, exportedGlobal{
			Name: name, Value: encoded, Mutable: g.Mutable,
			CellId: g.Cell, DeclarationOrder: g.Order,
		})
	}
	for _, name := range sortedKeys(gs.Imports) {
		i := gs.Imports[name]
		out.Imports = append(out.Imports, exportedImport{Name: name, Names: i.Names, Alias: i.Alias, CellId: i.Cell})
	}
	for _, name := range sortedKeys(gs.Functions) {
		f := gs.Functions[name]
		out.Functions = append(out.Functions, exportedFunction{Name: name, Params: f.Params,
			ReturnType: f.ReturnType, IsAsync: f.IsAsync, CellId: f.Cell})
	}
	for _, name := range sortedKeys(gs.Types) {
		t := gs.Types[name]
		out.Types = append(out.Types, exportedType{Name: name, Kind: typeKindNames[t.Kind],
			Fields: t.Fields, Target: t.Target, CellId: t.Cell})
	}
	result, jsonErr := json.MarshalIndent(out, "", "  ")
	if jsonErr != nil {
		return nil, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
	}
	return result, nil
}

// ImportJSON replaces the state's contents with the exported form.
func (gs *GlobalState) ImportJSON(data []byte, policy SlabPolicy) *err.Error {
	var in exportedState
	if jsonErr := json.Unmarshal(data, &in); jsonErr != nil {
		return err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
	}

	slabs := gs.Slabs // survive the clear; slab refs resolve in-process
	gs.Clear()
	gs.Slabs = slabs

	for _, g := range in.Globals {
		v, e := gs.decodeValue(g.Value, policy)
		if e != nil {
			return e
		}
		gs.Globals[g.Name] = &Global{Value: v, Mutable: g.Mutable, Cell: g.CellId, Order: g.DeclarationOrder}
		if g.DeclarationOrder > gs.nextOrder {
			gs.nextOrder = g.DeclarationOrder
		}
	}
	for _, i := range in.Imports {
		gs.Imports[i.Name] = &Import{Names: i.Names, Alias: i.Alias, Cell: i.CellId, Order: gs.nextDeclaration()}
	}
	for _, f := range in.Functions {
		gs.Functions[f.Name] = &Function{Params: f.Params, ReturnType: f.ReturnType,
			IsAsync: f.IsAsync, Cell: f.CellId, Order: gs.nextDeclaration()}
	}
	for _, t := range in.Types {
		kind := AliasType
		for k, name := range typeKindNames {
			if name == t.Kind {
				kind = k
			}
		}
		gs.Types[t.Name] = &TypeDef{Kind: kind, Fields: t.Fields, Target: t.Target,
			Cell: t.CellId, Order: gs.nextDeclaration()}
	}
	return nil
}

func (gs *GlobalState) encodeValue(v values.Value) (json.RawMessage, *err.Error) {
	switch v.T {
	case values.NULL, values.UNDEFINED_VALUE:
		return json.RawMessage("null"), nil
	case values.BOOL:
		return wrap("bool", v.V.(bool))
	case values.INT:
		return wrap("int", v.V.(int64))
	case values.FLOAT:
		return wrap("float", v.V.(float64))
	case values.STRING:
		return wrap("string", v.V.(string))
	case values.LIST:
		elements := []json.RawMessage{}
		for _, e := range v.V.(*values.List).Elements {
			encoded, encodeErr := gs.encodeValue(e)
			if encodeErr != nil {
				return nil, encodeErr
			}
			elements = append(elements, encoded)
		}
		return wrap("list", elements)
	case values.MAP:
		m := v.V.(*values.Map)
		pairs := [][2]json.RawMessage{}
		for _, k := range m.Keys {
			encoded, encodeErr := gs.encodeValue(m.Entries[k])
			if encodeErr != nil {
				return nil, encodeErr
			}
			key, _ := json.Marshal(k)
			pairs = append(pairs, [2]json.RawMessage{key, encoded})
		}
		return wrap("map", pairs)
	}
	// Everything else goes to the slab.
	gs.nextSlab++
	gs.Slabs[gs.nextSlab] = v
	return wrap("slab_ref", gs.nextSlab)
}

func (gs *GlobalState) decodeValue(raw json.RawMessage, policy SlabPolicy) (values.Value, *err.Error) {
	if string(raw) == "null" {
		return values.NIL, nil
	}
	var wrapper map[string]json.RawMessage
	if jsonErr := json.Unmarshal(raw, &wrapper); jsonErr != nil {
		return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
	}
	for key, inner := range wrapper {
		switch key {
		case "bool":
			var b bool
			if jsonErr := json.Unmarshal(inner, &b); jsonErr != nil {
				return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
			}
			return values.MakeBool(b), nil
		case "int":
			var i int64
			if jsonErr := json.Unmarshal(inner, &i); jsonErr != nil {
				return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
			}
			return values.MakeInt(i), nil
		case "float":
			var f float64
			if jsonErr := json.Unmarshal(inner, &f); jsonErr != nil {
				return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
			}
			return values.MakeFloat(f), nil
		case "string":
			var s string
			if jsonErr := json.Unmarshal(inner, &s); jsonErr != nil {
				return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
			}
			return values.MakeString(s), nil
		case "list":
			var elements []json.RawMessage
			if jsonErr := json.Unmarshal(inner, &elements); jsonErr != nil {
				return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
			}
			decoded := []values.Value{}
			for _, e := range elements {
				v, decodeErr := gs.decodeValue(e, policy)
				if decodeErr != nil {
					return values.UNDEF, decodeErr
				}
				decoded = append(decoded, v)
			}
			return values.MakeList(decoded), nil
		case "map":
			var pairs [][2]json.RawMessage
			if jsonErr := json.Unmarshal(inner, &pairs); jsonErr != nil {
				return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
			}
			m := values.NewMap()
			for _, pair := range pairs {
				var k string
				if jsonErr := json.Unmarshal(pair[0], &k); jsonErr != nil {
					return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
				}
				v, decodeErr := gs.decodeValue(pair[1], policy)
				if decodeErr != nil {
					return values.UNDEF, decodeErr
				}
				m.Set(k, v)
			}
			return values.MakeMap(m), nil
		case "slab_ref":
			var id int
			if jsonErr := json.Unmarshal(inner, &id); jsonErr != nil {
				return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
			}
			if v, ok := gs.Slabs[id]; ok {
				return v, nil
			}
			if policy == SlabStrict {
				return values.UNDEF, err.CreateErr("eval/slabref", &token.Token{}, id)
			}
			logging.Warnf("slab reference %d has no backing slab; decoding as nil", id)
			return values.NIL, nil
		}
	}
	return values.UNDEF, err.CreateErr("serve/import/json", &token.Token{}, "unrecognized value encoding "+string(raw))
}

func wrap(key string, inner any) (json.RawMessage, *err.Error) {
	encoded, jsonErr := json.Marshal(map[string]any{key: inner})
	if jsonErr != nil {
		return nil, err.CreateErr("serve/import/json", &token.Token{}, jsonErr.Error())
	}
	return json.RawMessage(encoded), nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := []string{}
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
