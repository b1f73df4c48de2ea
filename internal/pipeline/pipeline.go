package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/GitTumb/QuFRes/internal/circuit"
	"github.com/GitTumb/QuFRes/internal/encode"
	"github.com/GitTumb/QuFRes/internal/pool"
	"github.com/GitTumb/QuFRes/internal/tensor"
)

// defaultWorkers matches the original pool size for patched runs.
const defaultWorkers = 4

// #region resampler

// Resampler is the public pipeline surface. All transform programs are built
// once at construction, which fixes the outcome-space size for the lifetime
// of the instance; repeated Run calls accumulate into the same logbook.
type Resampler struct {
	signal     *tensor.Tensor
	task       circuit.Task
	params     circuit.Params
	patchShape []int
	patched    bool
	gridCounts []int
	dims       int

	norms    []float64
	programs []*circuit.Program
	encBits  int // encoding qubits per patch
	outBits  int // measured bits per patch

	exec    Executor
	workers int

	logbook Logbook
	output  *tensor.Tensor
}

// New encodes the signal, validates the task parameters, and builds one
// transform program per patch. The signal is consumed read-only.
func New(signal *tensor.Tensor, task circuit.Task, params circuit.Params, patchShape []int, exec Executor, opts ...Option) (*Resampler, error) {
	if exec == nil {
		return nil, fmt.Errorf("pipeline: executor is required")
	}

	dims := params.TaskDims(task)
	if dims <= 0 {
		return nil, &circuit.ConfigError{Task: task, Param: "d", Value: dims,
			Reason: "dimensionality must be positive"}
	}
	if dims != signal.Rank() {
		return nil, &circuit.ConfigError{Task: task, Param: "d", Value: dims,
			Reason: fmt.Sprintf("dimensionality does not match signal rank %d", signal.Rank())}
	}

	states, norms, err := encode.Encode(signal, patchShape)
	if err != nil {
		return nil, err
	}
	patched := patchShape != nil && !tensor.SameShape(patchShape, signal.Shape)

	var gridCounts []int
	if patched {
		gridCounts, err = tensor.Grid(signal.Shape, patchShape)
		if err != nil {
			return nil, err
		}
	}

	r := &Resampler{
		signal:     signal,
		task:       task,
		params:     params,
		patchShape: patchShape,
		patched:    patched,
		gridCounts: gridCounts,
		dims:       dims,
		norms:      norms,
		exec:       exec,
		workers:    defaultWorkers,
		logbook:    Logbook{Task: task, Patched: patched},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.programs = make([]*circuit.Program, len(states))
	for i, state := range states {
		prog, err := circuit.Build(task, state, params)
		if err != nil {
			return nil, err
		}
		r.programs[i] = prog
	}
	r.encBits, _ = encode.NumQubits(len(states[0]))
	r.outBits = r.programs[0].Clbits
	return r, nil
}

// #endregion resampler

// #region run

// Run executes every patch program for the given shot count and folds the
// resulting frequency vectors into the logbook under the shot-weighted
// average rule. Patched runs fan out over the worker pool; results are
// re-associated with patches strictly by input order. The logbook is only
// mutated after every execution succeeded.
func (r *Resampler) Run(ctx context.Context, shots int, seed int64) error {
	if shots <= 0 {
		return fmt.Errorf("pipeline: shots must be positive, got %d", shots)
	}

	workers := 1
	if r.patched {
		workers = r.workers
	}
	fresh, err := pool.Map(ctx, workers, r.programs, func(ctx context.Context, prog *circuit.Program) ([]float64, error) {
		counts, err := r.exec.Execute(ctx, prog, shots, seed)
		if err != nil {
			return nil, err
		}
		return countsToFrequencies(counts, shots, r.outBits), nil
	})
	if err != nil {
		return fmt.Errorf("pipeline: run: %w", err)
	}

	if r.logbook.Shots == 0 {
		r.logbook.Frequencies = fresh
		r.logbook.Shots = shots
		return nil
	}

	oldShots := r.logbook.Shots
	total := oldShots + shots
	for p, freshFreqs := range fresh {
		old := r.logbook.Frequencies[p]
		for o := range old {
			old[o] = (old[o]*float64(oldShots) + freshFreqs[o]*float64(shots)) / float64(total)
		}
	}
	r.logbook.Shots = total
	return nil
}

// countsToFrequencies converts sparse outcome counts into a dense probability
// vector over the full outcome space, zero-filling unseen outcomes.
func countsToFrequencies(counts map[int]int, shots, outBits int) []float64 {
	freqs := make([]float64, 1<<outBits)
	for outcome, n := range counts {
		if outcome >= 0 && outcome < len(freqs) {
			freqs[outcome] += float64(n) / float64(shots)
		}
	}
	return freqs
}

// #endregion run

// #region reconstruct

// Reconstruct inverts the accumulated frequencies into a signal estimate:
// each patch becomes reshape(freqs*norm, (side,)^d), patches are stitched
// back over the original grid, and the whole signal is rescaled by
// 2^(measuredBits-encodingQubits) to compensate for the outcome-space change.
func (r *Resampler) Reconstruct() (*tensor.Tensor, error) {
	if r.logbook.Shots == 0 {
		return nil, &ReconstructionError{Reason: "no measurements recorded; call Run first"}
	}

	sideBits := r.outBits / r.dims
	side := 1 << sideBits
	patchLen := 1 << r.outBits

	patchShape := make([]int, r.dims)
	for i := range patchShape {
		patchShape[i] = side
	}

	var out *tensor.Tensor
	if r.patched {
		numPatches := len(r.programs)
		stacked := tensor.Zeros(append([]int{numPatches}, patchShape...))
		for p, freqs := range r.logbook.Frequencies {
			for o, f := range freqs {
				stacked.Data[p*patchLen+o] = f * r.norms[p]
			}
		}
		outShape := make([]int, r.dims)
		for i := range outShape {
			outShape[i] = r.gridCounts[i] * side
		}
		var err error
		out, err = tensor.Reassemble(stacked, outShape)
		if err != nil {
			return nil, err
		}
	} else {
		out = tensor.Zeros(patchShape)
		for o, f := range r.logbook.Frequencies[0] {
			out.Data[o] = f * r.norms[0]
		}
	}

	out.Scale(math.Pow(2, float64(r.outBits-r.encBits)))
	r.output = out
	return out, nil
}

// Output returns the reconstructed signal.
func (r *Resampler) Output() (*tensor.Tensor, error) {
	if r.output == nil {
		return nil, &ReconstructionError{Reason: "signal has not been reconstructed yet"}
	}
	return r.output, nil
}

// Logbook returns a read-only copy of the accumulated statistics.
func (r *Resampler) Logbook() Logbook {
	return r.logbook.Clone()
}

// Signal returns the input signal (read-only).
func (r *Resampler) Signal() *tensor.Tensor { return r.signal }

// Task returns the transform task this pipeline was built for.
func (r *Resampler) Task() circuit.Task { return r.task }

// Params returns the builder parameters fixed at construction.
func (r *Resampler) Params() circuit.Params { return r.params }

// PatchShape returns the patch shape, nil for single-patch runs.
func (r *Resampler) PatchShape() []int { return r.patchShape }

// Norms returns the per-patch L1 norms captured during encoding.
func (r *Resampler) Norms() []float64 {
	return append([]float64(nil), r.norms...)
}

// #endregion reconstruct
