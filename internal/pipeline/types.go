// Package pipeline wires the resampling stages together: partition and
// amplitude-encode a signal, build one transform program per patch, drive an
// execution backend for repeated measurement rounds, and reconstruct an
// output signal from the accumulated frequency statistics.
package pipeline

import (
	"context"

	"github.com/GitTumb/QuFRes/internal/circuit"
)

// #region executor

// Executor is the narrow simulation contract the pipeline consumes: run a
// transform program for a number of shots and report how often each classical
// outcome was observed. Implementations must reproduce identical counts for
// identical (program, shots, seed) inputs.
type Executor interface {
	Execute(ctx context.Context, prog *circuit.Program, shots int, seed int64) (map[int]int, error)
}

// #endregion executor

// #region logbook

// Logbook accumulates measurement statistics across Run calls. Frequencies
// holds one dense probability vector per patch, paired with patches by
// position; each vector sums to 1. Shots grows monotonically.
type Logbook struct {
	Task        circuit.Task
	Patched     bool
	Shots       int
	Frequencies [][]float64
}

// Clone returns a deep copy, so callers get a read-only view.
func (l Logbook) Clone() Logbook {
	c := l
	c.Frequencies = make([][]float64, len(l.Frequencies))
	for i, f := range l.Frequencies {
		c.Frequencies[i] = append([]float64(nil), f...)
	}
	return c
}

// #endregion logbook

// #region reconstruction-error

// ReconstructionError reports use of reconstruction state that does not
// exist yet: Reconstruct before any Run, or Output before Reconstruct.
type ReconstructionError struct {
	Reason string
}

func (e *ReconstructionError) Error() string {
	return "pipeline: " + e.Reason
}

// #endregion reconstruction-error

// #region options

// Option configures a Resampler.
type Option func(*Resampler)

// WithWorkers sets the worker-pool size for patched runs.
func WithWorkers(n int) Option {
	return func(r *Resampler) { r.workers = n }
}

// #endregion options
