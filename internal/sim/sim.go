// Package sim is a reference state-vector backend for the execution contract:
// it interprets a circuit.Program, tracks the full amplitude vector, and
// samples measurement outcomes with a seeded PRNG. Identical (program, shots,
// seed) inputs reproduce identical counts.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/GitTumb/QuFRes/internal/circuit"
)

// #region config
// Config bounds a simulator instance.
type Config struct {
	MaxQubits int // refuse programs with larger registers
}

// DefaultConfig returns limits suitable for workstation runs.
func DefaultConfig() Config {
	return Config{MaxQubits: 24}
}

// #endregion config

// #region simulator
// Simulator executes transform programs on a dense state vector.
type Simulator struct {
	config Config
}

// New creates a simulator with the given configuration.
func New(config Config) *Simulator {
	return &Simulator{config: config}
}

// MaxQubits reports the largest register this simulator accepts.
func (s *Simulator) MaxQubits() int {
	return s.config.MaxQubits
}

// #endregion simulator

// #region execute
// Execute runs the program and returns outcome counts over shots trials.
// Unobserved outcomes are absent from the map.
func (s *Simulator) Execute(ctx context.Context, prog *circuit.Program, shots int, seed int64) (map[int]int, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("sim: shots must be positive, got %d", shots)
	}
	probs, err := s.Distribution(ctx, prog)
	if err != nil {
		return nil, err
	}

	cdf := make([]float64, len(probs))
	acc := 0.0
	for i, p := range probs {
		acc += p
		cdf[i] = acc
	}

	rng := rand.New(rand.NewSource(seed))
	counts := make(map[int]int)
	for i := 0; i < shots; i++ {
		r := rng.Float64() * acc
		outcome := sort.SearchFloat64s(cdf, r)
		if outcome >= len(cdf) {
			outcome = len(cdf) - 1
		}
		counts[outcome]++
	}
	return counts, nil
}

// Distribution evaluates the program and returns the exact outcome
// probability vector over the measured classical bits.
func (s *Simulator) Distribution(ctx context.Context, prog *circuit.Program) ([]float64, error) {
	if prog.Qubits <= 0 {
		return nil, fmt.Errorf("sim: program has no qubits")
	}
	if prog.Qubits > s.config.MaxQubits {
		return nil, fmt.Errorf("sim: %d qubits exceeds limit %d", prog.Qubits, s.config.MaxQubits)
	}

	amps := make([]complex128, 1<<prog.Qubits)
	amps[0] = 1

	// (qubit, clbit) pairs accumulated from measure ops, applied at the end.
	var measured [][2]int

	for _, op := range prog.Ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch op.Kind {
		case circuit.OpInit:
			if err := initState(amps, op.Qubits, op.State); err != nil {
				return nil, err
			}
		case circuit.OpHadamard:
			for _, q := range op.Qubits {
				applyHadamard(amps, q)
			}
		case circuit.OpQFT:
			applyFourier(amps, op.Qubits, false)
		case circuit.OpInvQFT:
			applyFourier(amps, op.Qubits, true)
		case circuit.OpSwap:
			if len(op.Qubits) != 2 {
				return nil, fmt.Errorf("sim: swap op needs 2 qubits, got %d", len(op.Qubits))
			}
			applySwap(amps, op.Qubits[0], op.Qubits[1])
		case circuit.OpMeasure:
			if len(op.Clbits) != len(op.Qubits) {
				return nil, fmt.Errorf("sim: measure op has %d qubits but %d clbits", len(op.Qubits), len(op.Clbits))
			}
			for i, q := range op.Qubits {
				measured = append(measured, [2]int{q, op.Clbits[i]})
			}
		default:
			return nil, fmt.Errorf("sim: unknown op kind %q", op.Kind)
		}
	}

	if len(measured) == 0 {
		return nil, fmt.Errorf("sim: program measures no qubits")
	}

	probs := make([]float64, 1<<prog.Clbits)
	for i, a := range amps {
		p := real(a)*real(a) + imag(a)*imag(a)
		if p == 0 {
			continue
		}
		outcome := 0
		for _, mc := range measured {
			outcome |= ((i >> mc[0]) & 1) << mc[1]
		}
		probs[outcome] += p
	}
	return probs, nil
}

// #endregion execute

// #region init
// initState loads an amplitude vector onto the listed qubits, all other
// qubits staying |0>. The vector index j maps bit t to op qubit t. An
// all-zero vector (zero-norm patch) leaves the register in |0...0>.
func initState(amps []complex128, qubits []int, state []float64) error {
	if len(state) != 1<<len(qubits) {
		return fmt.Errorf("sim: init state length %d does not address %d qubits", len(state), len(qubits))
	}

	var norm float64
	for _, v := range state {
		norm += v * v
	}
	for i := range amps {
		amps[i] = 0
	}
	if norm == 0 {
		amps[0] = 1
		return nil
	}
	scale := 1 / math.Sqrt(norm)

	for j, v := range state {
		if v == 0 {
			continue
		}
		idx := 0
		for t, q := range qubits {
			idx |= ((j >> t) & 1) << q
		}
		amps[idx] = complex(v*scale, 0)
	}
	return nil
}

// #endregion init

// #region gates

func applyHadamard(amps []complex128, q int) {
	h := complex(1/math.Sqrt2, 0)
	bit := 1 << q
	for i := range amps {
		if i&bit == 0 {
			j := i | bit
			a, b := amps[i], amps[j]
			amps[i] = h * (a + b)
			amps[j] = h * (a - b)
		}
	}
}

func applySwap(amps []complex128, q1, q2 int) {
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := range amps {
		if i&bit1 != 0 && i&bit2 == 0 {
			j := (i &^ bit1) | bit2
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}

// applyFourier applies the unitary Fourier transform over the subspace
// spanned by the listed qubits, for every setting of the remaining qubits.
// Forward uses the positive-exponent kernel with 1/sqrt(K) normalization;
// inverse is its adjoint.
func applyFourier(amps []complex128, qubits []int, inverse bool) {
	k := len(qubits)
	K := 1 << k
	fft := fourier.NewCmplxFFT(K)
	scale := complex(1/math.Sqrt(float64(K)), 0)

	inSub := make([]complex128, K)
	outSub := make([]complex128, K)

	others := otherQubits(len(amps), qubits)
	for c := 0; c < 1<<len(others); c++ {
		base := 0
		for t, q := range others {
			base |= ((c >> t) & 1) << q
		}
		for j := 0; j < K; j++ {
			inSub[j] = amps[base|subIndex(j, qubits)]
		}
		if inverse {
			outSub = fft.Coefficients(outSub, inSub)
		} else {
			outSub = fft.Sequence(outSub, inSub)
		}
		for j := 0; j < K; j++ {
			amps[base|subIndex(j, qubits)] = outSub[j] * scale
		}
	}
}

func subIndex(j int, qubits []int) int {
	idx := 0
	for t, q := range qubits {
		idx |= ((j >> t) & 1) << q
	}
	return idx
}

func otherQubits(stateLen int, qubits []int) []int {
	n := 0
	for 1<<n < stateLen {
		n++
	}
	in := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		in[q] = true
	}
	others := make([]int, 0, n-len(qubits))
	for q := 0; q < n; q++ {
		if !in[q] {
			others = append(others, q)
		}
	}
	return others
}

// #endregion gates

// #region fidelity

// Fidelity returns |<a|b>|^2 for two real amplitude vectors of equal length.
// Used by tests and the replay harness to compare encodings.
func Fidelity(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot * dot
}

// #endregion fidelity
