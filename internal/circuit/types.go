// Package circuit builds immutable transform descriptions for resampling
// tasks. A Program is a closed, serializable instruction list over a register
// of qubits; it is constructed once by the builders here and interpreted only
// by an execution backend.
package circuit

import "fmt"

// #region tasks
// Task names the four resampling transform variants.
type Task string

const (
	TaskDownsample1D Task = "downsample_1d"
	TaskDownsample2D Task = "downsample_2d"
	TaskDownsampleMD Task = "downsample_md"
	TaskUpsample     Task = "upsample"
)

// #endregion tasks

// #region ops
// OpKind tags the closed set of program instructions.
type OpKind string

const (
	OpInit     OpKind = "init"     // load an amplitude vector onto Qubits
	OpHadamard OpKind = "hadamard" // diffusion stage on each listed qubit
	OpQFT      OpKind = "qft"      // forward Fourier transform over Qubits
	OpInvQFT   OpKind = "iqft"     // inverse Fourier transform over Qubits
	OpSwap     OpKind = "swap"     // exchange the two listed qubits
	OpMeasure  OpKind = "measure"  // read Qubits[i] into Clbits[i]
)

// Op is one program instruction. Qubit lists are in ascending significance
// order: Qubits[0] is the least significant slot of a Fourier stage.
type Op struct {
	Kind   OpKind    `json:"kind"`
	Qubits []int     `json:"qubits"`
	Clbits []int     `json:"clbits,omitempty"` // measure only
	State  []float64 `json:"state,omitempty"`  // init only
}

// Program is a transform description over Qubits register slots with Clbits
// measured outputs. Programs are immutable once built.
type Program struct {
	Task   Task `json:"task"`
	Qubits int  `json:"qubits"`
	Clbits int  `json:"clbits"`
	Ops    []Op `json:"ops"`
}

// #endregion ops

// #region config-error
// ConfigError reports invalid transform parameters: non-integer subregister
// widths, non-positive retained qubit counts, dimensionality mismatches.
type ConfigError struct {
	Task   Task
	Param  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("circuit: %s: %s=%d: %s", e.Task, e.Param, e.Value, e.Reason)
}

// #endregion config-error
