package circuit

import (
	"errors"
	"testing"
)

func uniformState(nQubits int) []float64 {
	n := 1 << nQubits
	s := make([]float64, n)
	for i := range s {
		s[i] = 1.0 / float64(nQubits*nQubits) // placeholder values; builders never inspect them
	}
	return s
}

func kinds(p *Program) []OpKind {
	ks := make([]OpKind, len(p.Ops))
	for i, op := range p.Ops {
		ks[i] = op.Kind
	}
	return ks
}

func TestDownsample1DStructure(t *testing.T) {
	prog, err := Downsample1D(uniformState(3), 1, true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if prog.Qubits != 3 || prog.Clbits != 2 {
		t.Fatalf("register sizes: qubits=%d clbits=%d, want 3/2", prog.Qubits, prog.Clbits)
	}

	want := []OpKind{OpInit, OpHadamard, OpQFT, OpInvQFT, OpHadamard, OpMeasure}
	got := kinds(prog)
	if len(got) != len(want) {
		t.Fatalf("op count: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d: got %s want %s", i, got[i], want[i])
		}
	}

	// Forward transform covers the full register, inverse only the retained qubits.
	if len(prog.Ops[2].Qubits) != 3 {
		t.Fatalf("forward transform width %d, want 3", len(prog.Ops[2].Qubits))
	}
	if len(prog.Ops[3].Qubits) != 2 || prog.Ops[3].Qubits[0] != 0 {
		t.Fatalf("inverse transform qubits %v, want [0 1]", prog.Ops[3].Qubits)
	}
	meas := prog.Ops[len(prog.Ops)-1]
	if len(meas.Qubits) != 2 || meas.Qubits[0] != 0 || meas.Clbits[1] != 1 {
		t.Fatalf("measure op %v/%v, want qubits [0 1] clbits [0 1]", meas.Qubits, meas.Clbits)
	}
}

func TestDownsample1DNoDiffusion(t *testing.T) {
	prog, err := Downsample1D(uniformState(3), 0, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, op := range prog.Ops {
		if op.Kind == OpHadamard {
			t.Fatal("unexpected diffusion stage with hadamard disabled")
		}
	}
	// nTilde == 0 keeps the full register measured.
	if prog.Clbits != 3 {
		t.Fatalf("clbits %d, want 3 for nTilde=0", prog.Clbits)
	}
}

func TestDownsample2DUsesGeneralPath(t *testing.T) {
	// 4x4 patch: 4 qubits, two subregisters of 2, discard 1 per subregister.
	prog, err := Downsample2D(uniformState(4), 1, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if prog.Qubits != 4 || prog.Clbits != 2 {
		t.Fatalf("register sizes: qubits=%d clbits=%d, want 4/2", prog.Qubits, prog.Clbits)
	}

	var measured []int
	seen := map[int]bool{}
	for _, op := range prog.Ops {
		if op.Kind != OpMeasure {
			continue
		}
		for _, q := range op.Qubits {
			if seen[q] {
				t.Fatalf("qubit %d measured twice", q)
			}
			seen[q] = true
			measured = append(measured, q)
		}
	}
	// Low-order qubit of each subregister, in subregister order.
	if len(measured) != 2 || measured[0] != 0 || measured[1] != 2 {
		t.Fatalf("measured qubits %v, want [0 2]", measured)
	}
}

func TestDownsampleMDSubregisters(t *testing.T) {
	// 6 qubits, d=3, discard 1 per subregister of width 2.
	prog, err := DownsampleMD(uniformState(6), 3, 1, true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if prog.Clbits != 3 {
		t.Fatalf("clbits %d, want 3", prog.Clbits)
	}

	var forwards [][]int
	for _, op := range prog.Ops {
		if op.Kind == OpQFT {
			forwards = append(forwards, op.Qubits)
		}
	}
	if len(forwards) != 3 {
		t.Fatalf("expected 3 forward transforms, got %d", len(forwards))
	}
	for i, q := range forwards {
		if len(q) != 2 || q[0] != i*2 {
			t.Fatalf("forward transform %d targets %v, want width 2 at offset %d", i, q, i*2)
		}
	}
}

func TestDownsampleConfigErrors(t *testing.T) {
	var cfgErr *ConfigError

	// Discarding the whole subregister.
	if _, err := Downsample1D(uniformState(3), 3, true); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for nTilde=3 on 3 qubits, got %v", err)
	}

	// 3 qubits do not split into 2 subregisters.
	if _, err := Downsample2D(uniformState(3), 1, true); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for odd register split, got %v", err)
	}

	if _, err := DownsampleMD(uniformState(4), 0, 1, true); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for d=0, got %v", err)
	}

	if _, err := DownsampleMD(uniformState(4), 2, -1, true); !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for negative nTilde, got %v", err)
	}
}

func TestUpsampleStructure(t *testing.T) {
	// 4 qubits, d=2, pad 1 per subregister: 6-qubit register, all measured.
	prog, err := UpsampleMD(uniformState(4), 2, 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if prog.Qubits != 6 || prog.Clbits != 6 {
		t.Fatalf("register sizes: qubits=%d clbits=%d, want 6/6", prog.Qubits, prog.Clbits)
	}

	init := prog.Ops[0]
	if init.Kind != OpInit || len(init.Qubits) != 4 {
		t.Fatalf("init op targets %v, want the 4 encoding qubits", init.Qubits)
	}

	// One padding qubit must cross subregister boundary: swaps 4↔3, 3↔2.
	var swaps [][]int
	for _, op := range prog.Ops {
		if op.Kind == OpSwap {
			swaps = append(swaps, op.Qubits)
		}
	}
	if len(swaps) != 2 {
		t.Fatalf("expected 2 swaps, got %d", len(swaps))
	}
	if swaps[0][0] != 4 || swaps[0][1] != 3 || swaps[1][0] != 3 || swaps[1][1] != 2 {
		t.Fatalf("unexpected swap pattern %v", swaps)
	}

	// Inverse transforms cover the widened subregisters.
	var inverses [][]int
	for _, op := range prog.Ops {
		if op.Kind == OpInvQFT {
			inverses = append(inverses, op.Qubits)
		}
	}
	if len(inverses) != 2 || len(inverses[0]) != 3 || inverses[1][0] != 3 {
		t.Fatalf("unexpected inverse transform layout %v", inverses)
	}
}

func TestUpsample1DNoSwaps(t *testing.T) {
	prog, err := UpsampleMD(uniformState(3), 1, 2)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, op := range prog.Ops {
		if op.Kind == OpSwap {
			t.Fatal("d=1 upsample must not emit swaps")
		}
	}
	if prog.Qubits != 5 {
		t.Fatalf("qubits %d, want 5", prog.Qubits)
	}
}

func TestBuildDispatch(t *testing.T) {
	prog, err := Build(TaskUpsample, uniformState(2), Params{NTilde: 1, Dims: 1})
	if err != nil {
		t.Fatalf("build dispatch: %v", err)
	}
	if prog.Task != TaskUpsample {
		t.Fatalf("task %s, want %s", prog.Task, TaskUpsample)
	}

	if _, err := Build(Task("bogus"), uniformState(2), Params{}); err == nil {
		t.Fatal("expected error for unknown task")
	}
}
