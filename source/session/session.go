package session

// A SharedSession is a per-notebook evaluator: a GlobalState, a map of
// cells, and the dependency bookkeeping between them. Executions within a
// session are serialized; a second execute arriving while one is in flight
// is rejected with a ServerError rather than queued.

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/paiml/ruchy-sub025/source/dtypes"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/registry"
	"github.com/paiml/ruchy-sub025/source/sandbox"
	"github.com/paiml/ruchy-sub025/source/values"
)

type Mode int

const (
	Normal Mode = iota
	Reactive
	Transactional
)

var modeNames = map[Mode]string{Normal: "normal", Reactive: "reactive", Transactional: "transactional"}

func (m Mode) String() string { return modeNames[m] }

// ParseMode turns a user-supplied mode name into a Mode.
func ParseMode(name string) (Mode, bool) {
	for mode, modeName := range modeNames {
		if modeName == name {
			return mode, true
		}
	}
	return Normal, false
}

type CellState int

const (
	Fresh CellState = iota
	Running
	Ok
	Err
	Skipped
)

var cellStateNames = map[CellState]string{
	Fresh: "fresh", Running: "running", Ok: "ok", Err: "error", Skipped: "skipped",
}

func (cs CellState) String() string { return cellStateNames[cs] }

type Cell struct {
	Id           string
	Source       string
	Dependencies dtypes.Set[string]
	Dependents   dtypes.Set[string]
	LastResult   *values.Value
	LastError    *err.Error
	State        CellState
	created      int
}

type Timing struct {
	ParseMS float64 `json:"parse_ms"`
	EvalMS  float64 `json:"eval_ms"`
	TotalMS float64 `json:"total_ms"`
}

type ExecuteResponse struct {
	Success       bool     `json:"success"`
	Value         string   `json:"value,omitempty"`
	Error         string   `json:"error,omitempty"`
	RolledBack    bool     `json:"rolled_back,omitempty"`
	AffectedCells []string `json:"affected_cells"`
	Timing        Timing   `json:"timing"`
}

// A Checkpoint is an immutable snapshot of the GlobalState; restoring does
// not consume it.
type Checkpoint struct {
	Name      string
	Snapshot  *registry.GlobalState
	Timestamp time.Time
}

type SharedSession struct {
	Id          string
	State       *registry.GlobalState
	Cells       map[string]*Cell
	Mode        Mode
	Checkpoints map[string]*Checkpoint
	Sandbox     *sandbox.Sandbox // nil runs unrestricted
	SlabPolicy  registry.SlabPolicy
	UseVM       bool // try the bytecode path first, fall back per cell
	Out         io.Writer

	running        atomic.Bool
	nextCell       int
	nextCheckpoint int
}

func NewSession(id string) *SharedSession {
	return &SharedSession{
		Id:          id,
		State:       registry.NewGlobalState(),
		Cells:       map[string]*Cell{},
		Checkpoints: map[string]*Checkpoint{},
		Out:         os.Stdout,
	}
}

// AddCell creates a cell with a fresh id. It does not execute.
func (s *SharedSession) AddCell(source string) string {
	s.nextCell++
	id := fmt.Sprintf("cell-%d", s.nextCell)
	s.Cells[id] = &Cell{
		Id:           id,
		Source:       source,
		Dependencies: dtypes.Set[string]{},
		Dependents:   dtypes.Set[string]{},
		State:        Fresh,
		created:      s.nextCell,
	}
	return id
}

// UpdateCell replaces a cell's source. It does not re-execute; the stale
// last_result stands until the next run.
func (s *SharedSession) UpdateCell(id, source string) bool {
	cell, ok := s.Cells[id]
	if !ok {
		return false
	}
	cell.Source = source
	cell.State = Fresh
	return true
}

// DeleteCell removes the cell, its graph edges, and everything it defined.
func (s *SharedSession) DeleteCell(id string) bool {
	cell, ok := s.Cells[id]
	if !ok {
		return false
	}
	for dep := range cell.Dependencies {
		if other, ok := s.Cells[dep]; ok {
			other.Dependents.Remove(id)
		}
	}
	for dependent := range cell.Dependents {
		if other, ok := s.Cells[dependent]; ok {
			other.Dependencies.Remove(id)
		}
	}
	s.State.ClearCellState(id)
	delete(s.Cells, id)
	return true
}

func (s *SharedSession) SetExecutionMode(mode Mode) {
	s.Mode = mode
}

// CreateCheckpoint snapshots the GlobalState. An empty name gets a generated
// one.
func (s *SharedSession) CreateCheckpoint(name string) *Checkpoint {
	if name == "" {
		s.nextCheckpoint++
		name = fmt.Sprintf("cp-%d", s.nextCheckpoint)
	}
	checkpoint := &Checkpoint{Name: name, Snapshot: s.State.Snapshot(), Timestamp: time.Now()}
	s.Checkpoints[name] = checkpoint
	return checkpoint
}

// RestoreFromCheckpoint replaces the GlobalState with a named snapshot.
func (s *SharedSession) RestoreFromCheckpoint(name string) *err.Error {
	checkpoint, ok := s.Checkpoints[name]
	if !ok {
		return err.CreateErr("serve/checkpoint/unknown", nil, name)
	}
	s.State.Restore(checkpoint.Snapshot)
	return nil
}

// EstimateMemory reports the rough footprint of the state plus cell sources.
func (s *SharedSession) EstimateMemory() int64 {
	total := s.State.EstimateMemory()
	for _, cell := range s.Cells {
		total += int64(len(cell.Source))
	}
	return total
}

// ExportState renders the GlobalState as JSON for persistence.
func (s *SharedSession) ExportState() ([]byte, *err.Error) {
	return s.State.ExportJSON()
}

// ImportState replaces the GlobalState from an exported form.
func (s *SharedSession) ImportState(data []byte) *err.Error {
	return s.State.ImportJSON(data, s.SlabPolicy)
}
