package circuit

import (
	"github.com/GitTumb/QuFRes/internal/encode"
)

// #region downsample

// Downsample1D builds the down-sampling program for a 1D signal: encode,
// optional diffusion, forward transform over the full register, inverse
// transform over the retained low-order qubits, measure those.
func Downsample1D(state []float64, nTilde int, hadamard bool) (*Program, error) {
	return downsample(TaskDownsample1D, state, 1, nTilde, hadamard)
}

// Downsample2D builds the down-sampling program for a 2D signal. The register
// splits into two equal subregisters, one per axis; each is transformed and
// truncated independently.
func Downsample2D(state []float64, nTilde int, hadamard bool) (*Program, error) {
	return downsample(TaskDownsample2D, state, 2, nTilde, hadamard)
}

// DownsampleMD builds the down-sampling program for a d-dimensional signal:
// d equal-width subregisters, a forward transform and a truncated inverse
// transform applied identically to each, measuring the retained low-order
// qubits of every subregister in original relative order.
func DownsampleMD(state []float64, d, nTilde int, hadamard bool) (*Program, error) {
	return downsample(TaskDownsampleMD, state, d, nTilde, hadamard)
}

// downsample is the single source of truth for all down-sampling variants;
// the 1D and 2D tasks are the d=1 and d=2 cases.
func downsample(task Task, state []float64, d, nTilde int, hadamard bool) (*Program, error) {
	nEnc, err := encode.NumQubits(len(state))
	if err != nil {
		return nil, err
	}
	if d <= 0 {
		return nil, &ConfigError{Task: task, Param: "d", Value: d, Reason: "dimensionality must be positive"}
	}
	if nEnc%d != 0 {
		return nil, &ConfigError{Task: task, Param: "d", Value: d,
			Reason: "encoding register does not split into equal subregisters"}
	}
	if nTilde < 0 {
		return nil, &ConfigError{Task: task, Param: "nTilde", Value: nTilde, Reason: "discard count must be non-negative"}
	}
	n0 := nEnc / d
	nSub := n0 - nTilde
	if nSub <= 0 {
		return nil, &ConfigError{Task: task, Param: "nTilde", Value: nTilde,
			Reason: "cannot discard all qubits of a subregister"}
	}

	prog := &Program{Task: task, Qubits: nEnc, Clbits: d * nSub}
	prog.Ops = append(prog.Ops, Op{Kind: OpInit, Qubits: qubitRange(0, nEnc), State: cloneState(state)})
	if hadamard {
		prog.Ops = append(prog.Ops, Op{Kind: OpHadamard, Qubits: qubitRange(0, nEnc)})
	}
	for i := 0; i < d; i++ {
		prog.Ops = append(prog.Ops, Op{Kind: OpQFT, Qubits: qubitRange(i*n0, n0)})
	}
	for i := 0; i < d; i++ {
		prog.Ops = append(prog.Ops, Op{Kind: OpInvQFT, Qubits: qubitRange(i*n0, nSub)})
	}
	if hadamard {
		for i := 0; i < d; i++ {
			prog.Ops = append(prog.Ops, Op{Kind: OpHadamard, Qubits: qubitRange(i*n0, nSub)})
		}
	}
	for i := 0; i < d; i++ {
		prog.Ops = append(prog.Ops, Op{
			Kind:   OpMeasure,
			Qubits: qubitRange(i*n0, nSub),
			Clbits: qubitRange(i*nSub, nSub),
		})
	}
	return prog, nil
}

// #endregion downsample

// #region upsample

// UpsampleMD builds the up-sampling program for a d-dimensional signal: the
// register is extended by nTilde padding qubits per subregister, a forward
// transform runs over the original subregisters, the padding qubits are
// rotated into place by adjacent swaps to equalize subregister widths, an
// inverse transform runs over the widened subregisters, and every qubit is
// measured.
func UpsampleMD(state []float64, d, nTilde int) (*Program, error) {
	nEnc, err := encode.NumQubits(len(state))
	if err != nil {
		return nil, err
	}
	if d <= 0 {
		return nil, &ConfigError{Task: TaskUpsample, Param: "d", Value: d, Reason: "dimensionality must be positive"}
	}
	if nEnc%d != 0 {
		return nil, &ConfigError{Task: TaskUpsample, Param: "d", Value: d,
			Reason: "encoding register does not split into equal subregisters"}
	}
	if nTilde < 0 {
		return nil, &ConfigError{Task: TaskUpsample, Param: "nTilde", Value: nTilde, Reason: "padding count must be non-negative"}
	}
	n0 := nEnc / d
	n1 := n0 + nTilde
	nUp := nEnc + d*nTilde

	prog := &Program{Task: TaskUpsample, Qubits: nUp, Clbits: nUp}
	prog.Ops = append(prog.Ops, Op{Kind: OpInit, Qubits: qubitRange(0, nEnc), State: cloneState(state)})
	prog.Ops = append(prog.Ops, Op{Kind: OpHadamard, Qubits: qubitRange(0, nUp)})
	for i := 0; i < d; i++ {
		prog.Ops = append(prog.Ops, Op{Kind: OpQFT, Qubits: qubitRange(i*n0, n0)})
	}
	// Rotate each padding qubit down past the subregisters it must cross so
	// that every subregister ends up n1 wide with its padding on top.
	for i := 0; i < (d-1)*nTilde; i++ {
		padIdx := i/nTilde + 1
		for j := 0; j < n0*(d-padIdx); j++ {
			prog.Ops = append(prog.Ops, Op{Kind: OpSwap, Qubits: []int{nEnc + i - j, nEnc + i - j - 1}})
		}
	}
	for i := 0; i < d; i++ {
		prog.Ops = append(prog.Ops, Op{Kind: OpInvQFT, Qubits: qubitRange(i*n1, n1)})
	}
	prog.Ops = append(prog.Ops, Op{Kind: OpHadamard, Qubits: qubitRange(0, nUp)})
	prog.Ops = append(prog.Ops, Op{Kind: OpMeasure, Qubits: qubitRange(0, nUp), Clbits: qubitRange(0, nUp)})
	return prog, nil
}

// #endregion upsample

// #region build

// Params bundles the builder parameters shared by all tasks.
type Params struct {
	NTilde   int  // qubits discarded (down) or padded (up) per subregister
	Dims     int  // subregister count; ignored by the 1D and 2D tasks
	Hadamard bool // diffusion stages on the down-sampling tasks
}

// Build dispatches a task name to its builder.
func Build(task Task, state []float64, p Params) (*Program, error) {
	switch task {
	case TaskDownsample1D:
		return Downsample1D(state, p.NTilde, p.Hadamard)
	case TaskDownsample2D:
		return Downsample2D(state, p.NTilde, p.Hadamard)
	case TaskDownsampleMD:
		return DownsampleMD(state, p.Dims, p.NTilde, p.Hadamard)
	case TaskUpsample:
		return UpsampleMD(state, p.Dims, p.NTilde)
	}
	return nil, &ConfigError{Task: task, Param: "task", Value: 0, Reason: "unknown task"}
}

// Dims returns the subregister count a task will use for given params.
func (p Params) TaskDims(task Task) int {
	switch task {
	case TaskDownsample1D:
		return 1
	case TaskDownsample2D:
		return 2
	default:
		return p.Dims
	}
}

// #endregion build

// #region helpers

func qubitRange(start, n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = start + i
	}
	return r
}

func cloneState(state []float64) []float64 {
	return append([]float64(nil), state...)
}

// #endregion helpers
