package session

// Cell execution: parsing, dependency resolution, the three execution modes,
// and the reactive cascade. Dependencies are recomputed from resolved names
// on every run, never cached against source, so moving a definition between
// cells yields a correct graph on the next execution with no invalidation
// bookkeeping.

import (
	"sort"
	"strings"
	"time"

	"github.com/paiml/ruchy-sub025/source/ast"
	"github.com/paiml/ruchy-sub025/source/dtypes"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/interpreter"
	"github.com/paiml/ruchy-sub025/source/logging"
	"github.com/paiml/ruchy-sub025/source/parser"
	"github.com/paiml/ruchy-sub025/source/registry"
	"github.com/paiml/ruchy-sub025/source/values"
	"github.com/paiml/ruchy-sub025/source/vm"
)

// ExecuteCell runs one cell under the given mode.
func (s *SharedSession) ExecuteCell(id string, mode Mode) ExecuteResponse {
	if !s.running.CompareAndSwap(false, true) {
		return errorResponse(err.CreateErr("serve/busy", nil), nil)
	}
	defer s.running.Store(false)
	return s.executeLocked(id, mode)
}

// ExecuteAll runs every cell in topological order, declaration order
// breaking ties, under Normal semantics per cell.
func (s *SharedSession) ExecuteAll() []ExecuteResponse {
	if !s.running.CompareAndSwap(false, true) {
		return []ExecuteResponse{errorResponse(err.CreateErr("serve/busy", nil), nil)}
	}
	defer s.running.Store(false)

	responses := []ExecuteResponse{}
	for _, id := range s.topologicalOrder(s.allCellIds()) {
		responses = append(responses, s.executeLocked(id, Normal))
	}
	return responses
}

func (s *SharedSession) executeLocked(id string, mode Mode) ExecuteResponse {
	cell, ok := s.Cells[id]
	if !ok {
		return errorResponse(err.CreateErr("serve/cell/unknown", nil, id), nil)
	}

	switch mode {
	case Transactional:
		return s.executeTransactional(cell)
	case Reactive:
		response := s.executeOne(cell)
		if !response.Success {
			return response
		}
		return s.cascade(cell, response)
	}
	return s.executeOne(cell)
}

func (s *SharedSession) executeTransactional(cell *Cell) ExecuteResponse {
	snapshot := s.State.Snapshot()
	response := s.executeOne(cell)
	if !response.Success {
		s.State.Restore(snapshot)
		response.RolledBack = true
		response.Error = "RolledBack: " + response.Error
	}
	return response
}

// executeOne is the common path: parse, resolve dependencies, run, harvest
// definitions back into the GlobalState.
func (s *SharedSession) executeOne(cell *Cell) ExecuteResponse {
	started := time.Now()
	cell.State = Running
	cell.LastError = nil

	if s.Sandbox != nil {
		if e := s.Sandbox.CheckSource(cell.Source); e != nil {
			return s.fail(cell, e, started, 0)
		}
	}

	p := parser.NewParser(cell.Id, cell.Source)
	program := p.ParseProgram()
	parseMS := millisSince(started)
	if len(p.Ers) > 0 {
		return s.fail(cell, p.Ers[0], started, parseMS)
	}

	s.resolveDependencies(cell, program)

	env := s.hydrateEnv()
	evalStarted := time.Now()
	result, e := s.run(program, env)
	evalMS := millisSince(evalStarted)
	if e != nil {
		return s.fail(cell, e, started, parseMS)
	}

	s.harvest(cell, program, env)

	if s.Sandbox != nil {
		if e := s.Sandbox.CheckMemory(int(s.EstimateMemory())); e != nil {
			return s.fail(cell, e, started, parseMS)
		}
	}

	cell.State = Ok
	cell.LastResult = &result
	logging.Debugf("session %s: %s ok in %.2fms", s.Id, cell.Id, millisSince(started))
	return ExecuteResponse{
		Success:       true,
		Value:         result.Describe(values.ViewDebug),
		AffectedCells: []string{cell.Id},
		Timing:        Timing{ParseMS: parseMS, EvalMS: evalMS, TotalMS: millisSince(started)},
	}
}

func (s *SharedSession) fail(cell *Cell, e *err.Error, started time.Time, parseMS float64) ExecuteResponse {
	cell.State = Err
	cell.LastError = e
	cell.LastResult = nil
	logging.Debugf("session %s: %s failed: %s", s.Id, cell.Id, e.Error())
	response := errorResponse(e, []string{cell.Id})
	response.Timing = Timing{ParseMS: parseMS, TotalMS: millisSince(started)}
	return response
}

// run picks the execution engine. The bytecode path is tried first when the
// session asks for it; a cell the compiler can't lower falls back silently.
func (s *SharedSession) run(program *ast.Program, env *values.Environment) (values.Value, *err.Error) {
	deadline, budget := s.deadline()

	if s.UseVM {
		chunk, compileErr := vm.Compile(program)
		if compileErr == nil {
			machine := vm.NewMachine()
			machine.Out = s.Out
			machine.Deadline = deadline
			machine.BudgetMS = budget
			return machine.Run(chunk, env)
		}
		logging.Tracef("session %s: falling back to the interpreter: %s", s.Id, compileErr.Message)
	}

	c := interpreter.NewContext(env)
	c.Out = s.Out
	c.Deadline = deadline
	c.BudgetMS = budget
	return interpreter.Run(program, c)
}

func (s *SharedSession) deadline() (time.Time, int64) {
	if s.Sandbox == nil {
		return time.Time{}, 0
	}
	budget := s.Sandbox.Limits.CPUTimeMS
	return time.Now().Add(time.Duration(budget) * time.Millisecond), budget
}

// hydrateEnv builds the evaluation environment from the globals, in
// declaration order. Container payloads are shared, not copied: a cell
// mutating an array through a global handle mutates the global.
func (s *SharedSession) hydrateEnv() *values.Environment {
	env := values.NewEnvironment()
	for _, name := range s.State.GlobalNames() {
		g := s.State.Globals[name]
		env.Define(name, g.Value, g.Mutable)
	}
	return env
}

// resolveDependencies recomputes the cell's edges: it depends on whichever
// cell owns the most recent definition of each name it references.
func (s *SharedSession) resolveDependencies(cell *Cell, program *ast.Program) {
	for dep := range cell.Dependencies {
		if other, ok := s.Cells[dep]; ok {
			other.Dependents.Remove(cell.Id)
		}
	}
	cell.Dependencies = dtypes.Set[string]{}

	for name := range referencedNames(program) {
		owner, ok := s.State.OwnerOf(name)
		if !ok || owner == cell.Id || owner == "" {
			continue
		}
		if _, ok := s.Cells[owner]; !ok {
			continue
		}
		cell.Dependencies.Add(owner)
		s.Cells[owner].Dependents.Add(cell.Id)
	}
}

func referencedNames(node ast.Node) dtypes.Set[string] {
	names := dtypes.Set[string]{}
	collectNames(node, names)
	return names
}

func collectNames(node ast.Node, into dtypes.Set[string]) {
	if identifier, ok := node.(*ast.Identifier); ok {
		into.Add(identifier.Value)
	}
	for _, child := range node.Children() {
		if child != nil {
			collectNames(child, into)
		}
	}
}

// harvest writes the cell's top-level definitions back into the GlobalState,
// taking over attribution for the names it defines, and propagates updated
// values of pre-existing globals without changing their owners.
func (s *SharedSession) harvest(cell *Cell, program *ast.Program, env *values.Environment) {
	defined := dtypes.Set[string]{}

	for _, statement := range program.Statements {
		switch statement := statement.(type) {
		case *ast.LetExpression:
			if v, ok := env.Get(statement.Name); ok {
				s.State.Bind(statement.Name, v, statement.Mutable, cell.Id)
				defined.Add(statement.Name)
			}
		case *ast.FunctionLiteral:
			if statement.Name == "" {
				continue
			}
			if v, ok := env.Get(statement.Name); ok {
				s.State.Bind(statement.Name, v, false, cell.Id)
				defined.Add(statement.Name)
			}
			params := []string{}
			for _, p := range statement.Params {
				params = append(params, p.Name)
			}
			s.State.BindFunction(statement.Name, params, statement.ReturnType, statement.IsAsync, cell.Id)
		case *ast.ActorExpression:
			if v, ok := env.Get(statement.Name); ok {
				s.State.Bind(statement.Name, v, false, cell.Id)
				defined.Add(statement.Name)
			}
		case *ast.StructDefinition:
			fields := []string{}
			for _, f := range statement.Fields {
				fields = append(fields, f.Name)
			}
			s.State.BindType(statement.Name, registry.StructType, fields, "", cell.Id)
		case *ast.EnumDefinition:
			s.State.BindType(statement.Name, registry.EnumType, statement.Variants, "", cell.Id)
		case *ast.TypeAlias:
			s.State.BindType(statement.Name, registry.AliasType, nil, statement.Target, cell.Id)
		case *ast.ImportExpression:
			s.State.BindImport(statement.Module, statement.Names, statement.Alias, cell.Id)
		}
	}

	// Reassignments of other cells' globals keep their attribution.
	for _, name := range s.State.GlobalNames() {
		if defined.Contains(name) {
			continue
		}
		g := s.State.Globals[name]
		if v, ok := env.Get(name); ok && !values.Equals(v, g.Value) {
			g.Value = v
		}
	}
}

// cascade re-executes every transitive dependent of the cell in topological
// order. A failure marks everything downstream of it as skipped; the
// affected list names, in order, the cells that actually ran.
func (s *SharedSession) cascade(origin *Cell, response ExecuteResponse) ExecuteResponse {
	graph := s.dependencyGraph()
	dependents := graph.Reachable(dtypes.MakeFromSlice([]string{origin.Id}))
	dependents.Remove(origin.Id)

	failed := dtypes.Set[string]{}
	failedBy := map[string]string{}
	for _, id := range s.topologicalOrder(dependents.ToSlice()) {
		cell := s.Cells[id]
		if upstream, skip := s.skippedBy(cell, failed, failedBy); skip {
			cell.State = Skipped
			cell.LastError = err.CreateErr("serve/skipped", nil, upstream)
			cell.LastResult = nil
			failed.Add(id)
			failedBy[id] = upstream
			continue
		}
		inner := s.executeOne(cell)
		if inner.Success {
			response.AffectedCells = append(response.AffectedCells, id)
			continue
		}
		response.AffectedCells = append(response.AffectedCells, id)
		failed.Add(id)
		failedBy[id] = id
	}
	return response
}

func (s *SharedSession) skippedBy(cell *Cell, failed dtypes.Set[string], failedBy map[string]string) (string, bool) {
	for dep := range cell.Dependencies {
		if failed.Contains(dep) {
			return failedBy[dep], true
		}
	}
	return "", false
}

// dependencyGraph renders the session's edges as defining cell → dependent,
// the direction a cascade flows.
func (s *SharedSession) dependencyGraph() dtypes.Digraph[string] {
	graph := dtypes.Digraph[string]{}
	for id, cell := range s.Cells {
		graph.AddSafe(id)
		for dependent := range cell.Dependents {
			graph.AddArrow(id, dependent)
		}
	}
	return graph
}

// topologicalOrder sorts cell ids so dependencies come before dependents,
// breaking ties by declaration order. Cells on a cycle are appended at the
// end in declaration order rather than dropped.
func (s *SharedSession) topologicalOrder(ids []string) []string {
	pending := dtypes.MakeFromSlice(ids)
	result := []string{}
	for !pending.IsEmpty() {
		ready := []string{}
		for id := range pending {
			blocked := false
			for dep := range s.Cells[id].Dependencies {
				if pending.Contains(dep) {
					blocked = true
					break
				}
			}
			if !blocked {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 { // cycle; take everything left
			ready = pending.ToSlice()
		}
		sort.Slice(ready, func(i, j int) bool {
			return s.cellOrder(ready[i]) < s.cellOrder(ready[j])
		})
		for _, id := range ready {
			result = append(result, id)
			pending.Remove(id)
		}
	}
	return result
}

// cellOrder is the earliest declaration_order of anything the cell owns;
// cells that have never defined anything order by creation.
func (s *SharedSession) cellOrder(id string) int {
	best := 1 << 30
	for _, g := range s.State.Globals {
		if g.Cell == id && g.Order < best {
			best = g.Order
		}
	}
	for _, f := range s.State.Functions {
		if f.Cell == id && f.Order < best {
			best = f.Order
		}
	}
	if best == 1<<30 {
		return (1 << 30) + s.Cells[id].created
	}
	return best
}

func (s *SharedSession) allCellIds() []string {
	ids := []string{}
	for id := range s.Cells {
		ids = append(ids, id)
	}
	return ids
}

// ExplainReactive describes what a reactive execution of the cell would run,
// without running anything.
func (s *SharedSession) ExplainReactive(id string) (string, *err.Error) {
	cell, ok := s.Cells[id]
	if !ok {
		return "", err.CreateErr("serve/cell/unknown", nil, id)
	}
	graph := s.dependencyGraph()
	dependents := graph.Reachable(dtypes.MakeFromSlice([]string{id}))
	dependents.Remove(id)

	var sb strings.Builder
	sb.WriteString(cell.Id + " runs first")
	order := s.topologicalOrder(dependents.ToSlice())
	if len(order) == 0 {
		sb.WriteString("; nothing depends on it")
		return sb.String(), nil
	}
	sb.WriteString("; then, in order: " + strings.Join(order, ", "))
	return sb.String(), nil
}

func errorResponse(e *err.Error, affected []string) ExecuteResponse {
	if affected == nil {
		affected = []string{}
	}
	return ExecuteResponse{Success: false, Error: e.Error(), AffectedCells: affected}
}

func millisSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
