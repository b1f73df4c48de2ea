package fixture

import (
	"context"
	"fmt"
	"math"

	"github.com/GitTumb/QuFRes/internal/circuit"
	"github.com/GitTumb/QuFRes/internal/pipeline"
	"github.com/GitTumb/QuFRes/internal/sim"
)

// #region types

// ReplayResult captures the outcome of replaying one fixture.
type ReplayResult struct {
	Passed bool
	Reason string

	// Largest absolute deviation from the recorded frequencies and output.
	FrequencyDiff float64
	OutputDiff    float64

	// Replayed end state, for recording new fixtures.
	Logbook     pipeline.Logbook
	Output      []float64
	OutputShape []int
}

// #endregion types

// #region replay

// Replay re-runs a fixture's rounds on the local backend and compares the
// resulting logbook and reconstruction against the recorded expectations.
// Frequencies must match exactly (same seed, same sampler); the output is
// compared within the fixture's tolerance.
func Replay(ctx context.Context, f *Fixture) (*ReplayResult, error) {
	signal, err := f.Signal.ToSignal()
	if err != nil {
		return nil, fmt.Errorf("fixture signal: %w", err)
	}

	exec := sim.New(sim.DefaultConfig())
	r, err := pipeline.New(signal, circuit.Task(f.Task), f.Params.ToParams(), f.PatchShape, exec)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	for i, round := range f.Rounds {
		if err := r.Run(ctx, round.Shots, round.Seed); err != nil {
			return nil, fmt.Errorf("round %d: %w", i, err)
		}
	}
	out, err := r.Reconstruct()
	if err != nil {
		return nil, fmt.Errorf("reconstruct: %w", err)
	}

	result := &ReplayResult{
		Passed:      true,
		Logbook:     r.Logbook(),
		Output:      out.Data,
		OutputShape: out.Shape,
	}

	if len(f.Expected.Frequencies) > 0 {
		diff, err := maxFrequencyDiff(f.Expected.Frequencies, result.Logbook.Frequencies)
		if err != nil {
			result.Passed = false
			result.Reason = err.Error()
			return result, nil
		}
		result.FrequencyDiff = diff
		if diff != 0 {
			result.Passed = false
			result.Reason = fmt.Sprintf("frequencies diverged by %g", diff)
			return result, nil
		}
	}

	if len(f.Expected.Output) > 0 {
		if len(f.Expected.Output) != len(out.Data) {
			result.Passed = false
			result.Reason = fmt.Sprintf("output length %d, recorded %d", len(out.Data), len(f.Expected.Output))
			return result, nil
		}
		for i, v := range f.Expected.Output {
			d := math.Abs(out.Data[i] - v)
			if d > result.OutputDiff {
				result.OutputDiff = d
			}
		}
		if result.OutputDiff > f.Expected.Tolerance {
			result.Passed = false
			result.Reason = fmt.Sprintf("output diverged by %g, tolerance %g", result.OutputDiff, f.Expected.Tolerance)
			return result, nil
		}
	}

	return result, nil
}

func maxFrequencyDiff(want, got [][]float64) (float64, error) {
	if len(want) != len(got) {
		return 0, fmt.Errorf("recorded %d patches, replay produced %d", len(want), len(got))
	}
	var diff float64
	for p := range want {
		if len(want[p]) != len(got[p]) {
			return 0, fmt.Errorf("patch %d: recorded %d outcomes, replay produced %d", p, len(want[p]), len(got[p]))
		}
		for o := range want[p] {
			d := math.Abs(want[p][o] - got[p][o])
			if d > diff {
				diff = d
			}
		}
	}
	return diff, nil
}

// #endregion replay

// #region record

// Record builds a fixture from a freshly replayed run so a stored run can
// be pinned for regression checks.
func Record(ctx context.Context, description string, signal FixtureSignal, task circuit.Task, params FixtureParams, patchShape []int, rounds []FixtureRound, tolerance float64) (*Fixture, error) {
	f := &Fixture{
		Description: description,
		Signal:      signal,
		Task:        string(task),
		Params:      params,
		PatchShape:  patchShape,
		Rounds:      rounds,
		Expected:    FixtureExpected{Tolerance: tolerance},
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	result, err := Replay(ctx, f)
	if err != nil {
		return nil, err
	}
	f.Expected.Frequencies = result.Logbook.Frequencies
	f.Expected.Output = result.Output
	f.Expected.OutputShape = result.OutputShape
	return f, nil
}

// #endregion record
