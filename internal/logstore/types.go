package logstore

import (
	"time"

	"github.com/GitTumb/QuFRes/internal/circuit"
)

// #region types

// RunRecord is one persisted pipeline run: construction inputs, the signal
// snapshot (so the run can be replayed), and the accumulated statistics.
type RunRecord struct {
	RunID       string
	Task        circuit.Task
	Params      circuit.Params
	Patched     bool
	PatchShape  []int // nil for single-patch runs
	SignalShape []int
	SignalData  []float64
	Shots       int
	Norms       []float64
	Frequencies [][]float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RunSummary is the metadata-only view used by listings.
type RunSummary struct {
	RunID     string
	Task      circuit.Task
	Patched   bool
	Shots     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LogEntry is one append-only provenance row: a measurement round folded
// into a run.
type LogEntry struct {
	RunID     string
	Shots     int
	Seed      int64
	Backend   string
	CreatedAt time.Time
}

// #endregion types
