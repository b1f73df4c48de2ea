// fixture-export turns a run stored in a qufres log store into a replay
// fixture JSON. The exported fixture re-runs the recorded rounds on the
// local simulator, so the pinned expectations are freshly regenerated and
// then cross-checked against the stored frequencies.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/GitTumb/QuFRes/internal/fixture"
	"github.com/GitTumb/QuFRes/internal/logstore"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to qufres.db")
	runID := flag.String("run", "", "run ID to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	tolerance := flag.Float64("tolerance", 1e-9, "output comparison tolerance recorded in the fixture")
	desc := flag.String("desc", "", "fixture description (default derived from run)")
	flag.Parse()

	if *dbPath == "" || *runID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/qufres.db --run id --out path/to/fixture.json [--tolerance t]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath, *tolerance, *desc); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(dbPath, runID, outPath string, tolerance float64, desc string) error {
	store, err := logstore.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rec, err := store.GetRun(runID)
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	logs, err := store.Logs(runID)
	if err != nil {
		return fmt.Errorf("load run log: %w", err)
	}
	if len(logs) == 0 {
		return fmt.Errorf("run %s has no measurement log", runID)
	}

	if desc == "" {
		desc = fmt.Sprintf("%s run over %v signal", rec.Task, rec.SignalShape)
	}
	rounds := make([]fixture.FixtureRound, len(logs))
	for i, l := range logs {
		rounds[i] = fixture.FixtureRound{Shots: l.Shots, Seed: l.Seed}
	}

	f, err := fixture.Record(
		context.Background(),
		desc,
		fixture.FixtureSignal{Shape: rec.SignalShape, Data: rec.SignalData},
		rec.Task,
		fixture.FixtureParams{
			NTilde:   rec.Params.NTilde,
			Dims:     rec.Params.Dims,
			Hadamard: rec.Params.Hadamard,
		},
		rec.PatchShape,
		rounds,
		tolerance,
	)
	if err != nil {
		return fmt.Errorf("record fixture: %w", err)
	}

	// The regenerated expectations must agree with what the store holds,
	// otherwise the stored run was produced by a different sampler.
	if diff := storedDiff(rec.Frequencies, f.Expected.Frequencies); diff != 0 {
		return fmt.Errorf("replayed frequencies diverge from stored run by %g", diff)
	}

	if err := fixture.Save(outPath, f); err != nil {
		return err
	}
	fmt.Printf("exported %s (%d rounds, %d patches) to %s\n",
		runID, len(rounds), len(f.Expected.Frequencies), outPath)
	return nil
}

func storedDiff(stored, replayed [][]float64) float64 {
	if len(stored) != len(replayed) {
		return math.Inf(1)
	}
	var diff float64
	for p := range stored {
		if len(stored[p]) != len(replayed[p]) {
			return math.Inf(1)
		}
		for o := range stored[p] {
			if d := math.Abs(stored[p][o] - replayed[p][o]); d > diff {
				diff = d
			}
		}
	}
	return diff
}

// #endregion export
