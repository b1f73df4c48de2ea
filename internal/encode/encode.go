// Package encode converts non-negative tensors into probability-amplitude
// vectors: each patch is normalized by its entry sum and square-rooted, so the
// squared amplitudes form a probability distribution over basis outcomes.
package encode

import (
	"math"

	"github.com/GitTumb/QuFRes/internal/tensor"
)

// #region num-qubits

// NumQubits returns log2(n) for an amplitude-vector length n, failing when n
// is not a power of two.
func NumQubits(n int) (int, error) {
	if n > 0 && n&(n-1) == 0 {
		return bitsLen(n) - 1, nil
	}
	return 0, &tensor.ShapeError{Op: "encode", Axis: -1, Shape: []int{n},
		Reason: "amplitude vector length is not a power of two"}
}

func bitsLen(n int) int {
	b := 0
	for n > 0 {
		b++
		n >>= 1
	}
	return b
}

// #endregion num-qubits

// #region encode

// Encode partitions the signal and amplitude-encodes each patch. States are
// flattened row-major amplitude vectors, one per patch, paired by position
// with the patch norms (the patch entry sums). A zero-norm patch encodes to
// an all-zero state: 0/0 is defined as 0, never NaN.
//
// Single-patch and multi-patch inputs share one code path; a single-patch
// signal simply yields one state.
func Encode(signal *tensor.Tensor, patchShape []int) (states [][]float64, norms []float64, err error) {
	patches, err := tensor.Partition(signal, patchShape)
	if err != nil {
		return nil, nil, err
	}

	patched := patches.Rank() == signal.Rank()+1
	numPatches := 1
	patchLen := patches.Len()
	if patched {
		numPatches = patches.Shape[0]
		patchLen = patchLen / numPatches
	}

	if _, err := NumQubits(patchLen); err != nil {
		return nil, nil, err
	}

	states = make([][]float64, numPatches)
	norms = make([]float64, numPatches)
	for p := 0; p < numPatches; p++ {
		chunk := patches.Data[p*patchLen : (p+1)*patchLen]

		var norm float64
		for _, v := range chunk {
			norm += v
		}
		norms[p] = norm

		state := make([]float64, patchLen)
		if norm != 0 {
			for i, v := range chunk {
				state[i] = math.Sqrt(v / norm)
			}
		}
		states[p] = state
	}
	return states, norms, nil
}

// #endregion encode
