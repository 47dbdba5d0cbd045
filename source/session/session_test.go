package session

import (
	"bytes"
	"strings"
	"testing"

	"github.com/paiml/ruchy-sub025/source/sandbox"
	"github.com/paiml/ruchy-sub025/source/values"
)

func newTestSession() *SharedSession {
	s := NewSession("test")
	s.Out = &bytes.Buffer{}
	return s
}

func mustSucceed(t *testing.T, response ExecuteResponse) ExecuteResponse {
	t.Helper()
	if !response.Success {
		t.Fatalf("execution failed: %s", response.Error)
	}
	return response
}

func TestBindingsSurviveAcrossCells(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`let x = 10`)
	b := s.AddCell(`x * 2`)

	mustSucceed(t, s.ExecuteCell(a, Normal))
	response := mustSucceed(t, s.ExecuteCell(b, Normal))

	if response.Value != "20" {
		t.Fatalf("wanted 20, got %s", response.Value)
	}
	if !s.Cells[b].Dependencies.Contains(a) {
		t.Fatalf("cell B should depend on cell A")
	}
	if !s.Cells[a].Dependents.Contains(b) {
		t.Fatalf("cell A should list cell B as a dependent")
	}
}

func TestFunctionsSurviveAcrossCells(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`fun f(n) { if n <= 1 { n } else { f(n - 1) + f(n - 2) } }`)
	b := s.AddCell(`f(10)`)

	mustSucceed(t, s.ExecuteCell(a, Normal))
	response := mustSucceed(t, s.ExecuteCell(b, Normal))

	if response.Value != "55" {
		t.Fatalf("wanted 55, got %s", response.Value)
	}
	if _, ok := s.State.Functions["f"]; !ok {
		t.Fatalf("f should be registered in the functions map")
	}
}

func TestReactiveCascade(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`let x = 1`)
	b := s.AddCell(`let y = x + 1`)
	c := s.AddCell(`y * 10`)

	mustSucceed(t, s.ExecuteCell(a, Normal))
	mustSucceed(t, s.ExecuteCell(b, Normal))
	mustSucceed(t, s.ExecuteCell(c, Normal))

	s.UpdateCell(a, `let x = 5`)
	response := mustSucceed(t, s.ExecuteCell(a, Reactive))

	want := []string{a, b, c}
	if len(response.AffectedCells) != 3 {
		t.Fatalf("wanted affected cells %v, got %v", want, response.AffectedCells)
	}
	for i := range want {
		if response.AffectedCells[i] != want[i] {
			t.Fatalf("wanted affected cells %v, got %v", want, response.AffectedCells)
		}
	}
	if !values.Equals(s.State.Globals["y"].Value, values.MakeInt(6)) {
		t.Fatalf("the cascade should recompute y as 6")
	}
	if s.Cells[c].LastResult.Describe(values.ViewDebug) != "60" {
		t.Fatalf("the cascade should recompute cell C as 60")
	}
}

func TestReactiveSkipsDownstreamOfFailure(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`let x = 1`)
	b := s.AddCell(`let y = x / 0`)
	c := s.AddCell(`y + 1`)

	mustSucceed(t, s.ExecuteCell(a, Normal))
	s.Cells[b].Dependencies.Add(a)
	s.Cells[a].Dependents.Add(b)
	s.ExecuteCell(b, Normal) // fails, but records the dependency hull
	s.Cells[c].Dependencies.Add(b)
	s.Cells[b].Dependents.Add(c)

	s.UpdateCell(a, `let x = 2`)
	response := s.ExecuteCell(a, Reactive)

	if !response.Success {
		t.Fatalf("the root cell itself should succeed")
	}
	if s.Cells[c].State != Skipped {
		t.Fatalf("cells downstream of a failure should be skipped, got %s", s.Cells[c].State)
	}
}

func TestTransactionalRollback(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`let mut x = 10`)
	mustSucceed(t, s.ExecuteCell(a, Normal))

	b := s.AddCell(`let z = undefined_var + 1`)
	response := s.ExecuteCell(b, Transactional)

	if response.Success {
		t.Fatalf("cell B should fail")
	}
	if !response.RolledBack {
		t.Fatalf("the response should be marked rolled back")
	}
	if !strings.HasPrefix(response.Error, "RolledBack") {
		t.Fatalf("the error should announce the rollback, got %s", response.Error)
	}
	if !values.Equals(s.State.Globals["x"].Value, values.MakeInt(10)) {
		t.Fatalf("x should still be 10 after the rollback")
	}
}

func TestErrorRecoveryAtCellBoundary(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`try { 10 / 0 } catch (e) { -1 }`)
	response := mustSucceed(t, s.ExecuteCell(a, Normal))
	if response.Value != "-1" {
		t.Fatalf("wanted -1, got %s", response.Value)
	}

	b := s.AddCell(`[1, 2, 3][-1]`)
	response = mustSucceed(t, s.ExecuteCell(b, Normal))
	if response.Value != "3" {
		t.Fatalf("wanted 3, got %s", response.Value)
	}

	c := s.AddCell(`match 5 { x if x > 3 => "big", _ => "small" }`)
	response = mustSucceed(t, s.ExecuteCell(c, Normal))
	if response.Value != `"big"` {
		t.Fatalf(`wanted "big", got %s`, response.Value)
	}
}

func TestFailedCellDoesNotPoisonTheSession(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`10 / 0`)
	if s.ExecuteCell(a, Normal).Success {
		t.Fatalf("cell A should fail")
	}
	if s.Cells[a].State != Err {
		t.Fatalf("cell A should be in the error state")
	}

	b := s.AddCell(`1 + 1`)
	response := mustSucceed(t, s.ExecuteCell(b, Normal))
	if response.Value != "2" {
		t.Fatalf("the next cell should still run; got %s", response.Value)
	}
}

func TestEnginesAgreeOnFib(t *testing.T) {
	source := []string{
		`fun fib(n) { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } }`,
		`fib(15)`,
	}
	results := []string{}
	for _, useVM := range []bool{false, true} {
		s := newTestSession()
		s.UseVM = useVM
		var response ExecuteResponse
		for _, src := range source {
			response = mustSucceed(t, s.ExecuteCell(s.AddCell(src), Normal))
		}
		results = append(results, response.Value)
	}
	if results[0] != "610" || results[1] != "610" {
		t.Fatalf("engines disagree: interpreter %s, vm %s", results[0], results[1])
	}
}

func TestSandboxDeniesFileAccess(t *testing.T) {
	s := newTestSession()
	s.Sandbox = sandbox.Restricted()
	a := s.AddCell(`let path = "/etc/passwd"`)
	response := s.ExecuteCell(a, Normal)

	if response.Success {
		t.Fatalf("the restricted sandbox should reject filesystem references")
	}
	if !strings.Contains(response.Error, "PermissionDenied") {
		t.Fatalf("wanted a PermissionDenied error, got %s", response.Error)
	}
	if len(s.State.Globals) != 0 {
		t.Fatalf("a rejected cell must not touch the GlobalState")
	}
}

func TestSandboxBudgetCrossesEngines(t *testing.T) {
	s := newTestSession()
	s.UseVM = true
	s.Sandbox = sandbox.New(sandbox.Limits{CPUTimeMS: 100})

	// The match keeps g's cell off the bytecode path, so g is a tree-walking
	// closure; the call in the next cell compiles and reaches g through the
	// bridge, which must carry the CPU budget with it.
	a := s.AddCell(`fun g() { loop { match 1 { _ => 1 } } }`)
	b := s.AddCell(`g()`)

	mustSucceed(t, s.ExecuteCell(a, Normal))
	response := s.ExecuteCell(b, Normal)

	if response.Success {
		t.Fatalf("the call should have run out of CPU budget")
	}
	if !strings.Contains(response.Error, "Timeout") {
		t.Fatalf("wanted a Timeout error, got %s", response.Error)
	}
}

func TestCheckpointRestore(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`let mut x = 1`)
	mustSucceed(t, s.ExecuteCell(a, Normal))

	s.CreateCheckpoint("cp")

	b := s.AddCell(`x = 99`)
	mustSucceed(t, s.ExecuteCell(b, Normal))
	if !values.Equals(s.State.Globals["x"].Value, values.MakeInt(99)) {
		t.Fatalf("x should be 99 before the restore")
	}

	if e := s.RestoreFromCheckpoint("cp"); e != nil {
		t.Fatalf("restore: %s", e.Error())
	}
	if !values.Equals(s.State.Globals["x"].Value, values.MakeInt(1)) {
		t.Fatalf("x should be back to 1 after the restore")
	}

	if e := s.RestoreFromCheckpoint("nope"); e == nil || e.ErrorId != "serve/checkpoint/unknown" {
		t.Fatalf("restoring an unknown checkpoint should fail")
	}
}

func TestDeleteCellRemovesItsDefinitions(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`let x = 1`)
	mustSucceed(t, s.ExecuteCell(a, Normal))

	s.DeleteCell(a)

	if _, ok := s.State.Globals["x"]; ok {
		t.Fatalf("deleting the defining cell should remove its global")
	}
	if _, ok := s.Cells[a]; ok {
		t.Fatalf("the cell itself should be gone")
	}
}

func TestBusySessionRejectsExecution(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`1`)
	s.running.Store(true)
	response := s.ExecuteCell(a, Normal)
	if response.Success || !strings.Contains(response.Error, "already executing") {
		t.Fatalf("a busy session should reject with a ServerError, got %s", response.Error)
	}
	s.running.Store(false)
	mustSucceed(t, s.ExecuteCell(a, Normal))
}

func TestExecuteAllRunsInDependencyOrder(t *testing.T) {
	s := newTestSession()
	// Added in an order that only works if execution is topological.
	b := s.AddCell(`let y = x + 1`)
	a := s.AddCell(`let x = 1`)
	c := s.AddCell(`y * 10`)

	// A first run wires the graph up.
	mustSucceed(t, s.ExecuteCell(a, Normal))
	mustSucceed(t, s.ExecuteCell(b, Normal))
	mustSucceed(t, s.ExecuteCell(c, Normal))

	responses := s.ExecuteAll()
	for _, response := range responses {
		if !response.Success {
			t.Fatalf("execute-all failed: %s", response.Error)
		}
	}
	if s.Cells[c].LastResult.Describe(values.ViewDebug) != "20" {
		t.Fatalf("execute-all should run dependencies first; C came out as %s",
			s.Cells[c].LastResult.Describe(values.ViewDebug))
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := newTestSession()
	mustSucceed(t, s.ExecuteCell(s.AddCell(`let x = 42`), Normal))
	mustSucceed(t, s.ExecuteCell(s.AddCell(`let name = "ruchy"`), Normal))

	data, e := s.ExportState()
	if e != nil {
		t.Fatalf("export: %s", e.Error())
	}

	fresh := newTestSession()
	if e := fresh.ImportState(data); e != nil {
		t.Fatalf("import: %s", e.Error())
	}
	if !values.Equals(fresh.State.Globals["x"].Value, values.MakeInt(42)) {
		t.Fatalf("x didn't survive the round trip")
	}
	if !values.Equals(fresh.State.Globals["name"].Value, values.MakeString("ruchy")) {
		t.Fatalf("name didn't survive the round trip")
	}
}

func TestExplainReactive(t *testing.T) {
	s := newTestSession()
	a := s.AddCell(`let x = 1`)
	b := s.AddCell(`x + 1`)
	mustSucceed(t, s.ExecuteCell(a, Normal))
	mustSucceed(t, s.ExecuteCell(b, Normal))

	explanation, e := s.ExplainReactive(a)
	if e != nil {
		t.Fatalf("explain: %s", e.Error())
	}
	if !strings.Contains(explanation, b) {
		t.Fatalf("the explanation should mention the dependent cell: %s", explanation)
	}
}
