package logstore

import (
	"path/filepath"
	"testing"

	"github.com/GitTumb/QuFRes/internal/circuit"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "qufres.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunRoundTrip(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateRun(RunRecord{
		Task:        circuit.TaskDownsample2D,
		Params:      circuit.Params{NTilde: 1, Dims: 2, Hadamard: true},
		Patched:     true,
		PatchShape:  []int{4, 4},
		SignalShape: []int{8, 8},
		SignalData:  make([]float64, 64),
	})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run ID")
	}

	norms := []float64{16, 16}
	freqs := [][]float64{
		{0.25, 0.25, 0.25, 0.25},
		{0.5, 0.5, 0, 0},
	}
	if err := s.UpdateRun(id, 1000, norms, freqs); err != nil {
		t.Fatalf("update run: %v", err)
	}

	rec, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if rec.Task != circuit.TaskDownsample2D || !rec.Patched {
		t.Fatalf("unexpected run metadata: %+v", rec)
	}
	if rec.Params.NTilde != 1 || rec.Params.Dims != 2 || !rec.Params.Hadamard {
		t.Fatalf("unexpected params: %+v", rec.Params)
	}
	if len(rec.PatchShape) != 2 || rec.PatchShape[0] != 4 {
		t.Fatalf("unexpected patch shape %v", rec.PatchShape)
	}
	if rec.Shots != 1000 {
		t.Fatalf("shots %d, want 1000", rec.Shots)
	}
	if len(rec.SignalData) != 64 {
		t.Fatalf("signal snapshot length %d, want 64", len(rec.SignalData))
	}
	if len(rec.Frequencies) != 2 {
		t.Fatalf("expected 2 frequency vectors, got %d", len(rec.Frequencies))
	}
	for p := range freqs {
		if rec.Norms[p] != norms[p] {
			t.Fatalf("patch %d norm %f, want %f", p, rec.Norms[p], norms[p])
		}
		for o := range freqs[p] {
			if rec.Frequencies[p][o] != freqs[p][o] {
				t.Fatalf("patch %d freq %d: %f != %f", p, o, rec.Frequencies[p][o], freqs[p][o])
			}
		}
	}
}

func TestUpdateReplacesFrequencies(t *testing.T) {
	s := openTestStore(t)

	id, _ := s.CreateRun(RunRecord{
		Task:        circuit.TaskDownsample1D,
		Params:      circuit.Params{NTilde: 1, Hadamard: true},
		SignalShape: []int{8},
		SignalData:  make([]float64, 8),
	})

	if err := s.UpdateRun(id, 10, []float64{8}, [][]float64{{1, 0, 0, 0}}); err != nil {
		t.Fatalf("update 1: %v", err)
	}
	if err := s.UpdateRun(id, 20, []float64{8}, [][]float64{{0.5, 0.5, 0, 0}}); err != nil {
		t.Fatalf("update 2: %v", err)
	}

	rec, err := s.GetRun(id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if rec.Shots != 20 {
		t.Fatalf("shots %d, want 20", rec.Shots)
	}
	if rec.Frequencies[0][1] != 0.5 {
		t.Fatalf("frequencies not replaced: %v", rec.Frequencies[0])
	}
}

func TestUpdateUnknownRun(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpdateRun("missing", 10, []float64{1}, [][]float64{{1}}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestRunLog(t *testing.T) {
	s := openTestStore(t)

	id, _ := s.CreateRun(RunRecord{
		Task:        circuit.TaskUpsample,
		Params:      circuit.Params{NTilde: 1, Dims: 1},
		SignalShape: []int{4},
		SignalData:  make([]float64, 4),
	})

	if err := s.AppendLog(id, 100, 42, "local"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	if err := s.AppendLog(id, 200, 43, "remote"); err != nil {
		t.Fatalf("append log: %v", err)
	}

	logs, err := s.Logs(id)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	if logs[0].Shots != 100 || logs[0].Seed != 42 || logs[0].Backend != "local" {
		t.Fatalf("unexpected first entry %+v", logs[0])
	}
	if logs[1].Backend != "remote" {
		t.Fatalf("unexpected second entry %+v", logs[1])
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.CreateRun(RunRecord{
			Task:        circuit.TaskDownsample1D,
			Params:      circuit.Params{NTilde: 1, Hadamard: true},
			SignalShape: []int{8},
			SignalData:  make([]float64, 8),
		}); err != nil {
			t.Fatalf("create run %d: %v", i, err)
		}
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
}
