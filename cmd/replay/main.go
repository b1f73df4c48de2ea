// replay re-executes a recorded resampling run on the local simulator and
// verifies the stored statistics still reproduce. It runs either from a
// fixture JSON or directly from a run stored in a qufres log store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/GitTumb/QuFRes/internal/fixture"
	"github.com/GitTumb/QuFRes/internal/logstore"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to qufres.db (DB mode)")
	runID := flag.String("run", "", "run ID to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/qufres.db --run id")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}
	if *dbPath != "" && *runID == "" {
		fmt.Fprintln(os.Stderr, "DB mode needs --run id")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *runID)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

func runFixtureMode(path string) int {
	f, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	return report(f)
}

// #endregion fixture-mode

// #region db-mode

// runDBMode rebuilds a fixture from the stored signal snapshot and the
// run's measurement log, replaying every recorded round in order.
func runDBMode(dbPath, runID string) int {
	store, err := logstore.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	rec, err := store.GetRun(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load run: %v\n", err)
		return 2
	}
	logs, err := store.Logs(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load run log: %v\n", err)
		return 2
	}
	if len(logs) == 0 {
		fmt.Fprintln(os.Stderr, "run has no measurement log, nothing to replay")
		return 2
	}

	f := &fixture.Fixture{
		Description: fmt.Sprintf("stored run %s", runID),
		Signal:      fixture.FixtureSignal{Shape: rec.SignalShape, Data: rec.SignalData},
		Task:        string(rec.Task),
		Params: fixture.FixtureParams{
			NTilde:   rec.Params.NTilde,
			Dims:     rec.Params.Dims,
			Hadamard: rec.Params.Hadamard,
		},
		PatchShape: rec.PatchShape,
		Expected:   fixture.FixtureExpected{Frequencies: rec.Frequencies},
	}
	for _, l := range logs {
		f.Rounds = append(f.Rounds, fixture.FixtureRound{Shots: l.Shots, Seed: l.Seed})
	}
	return report(f)
}

// #endregion db-mode

// #region report

func report(f *fixture.Fixture) int {
	result, err := fixture.Replay(context.Background(), f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay error: %v\n", err)
		return 2
	}

	fmt.Printf("Replay: %s\n", f.Description)
	fmt.Printf("  task=%s rounds=%d patches=%d\n", f.Task, len(f.Rounds), len(result.Logbook.Frequencies))
	fmt.Printf("  frequency diff=%g output diff=%g\n", result.FrequencyDiff, result.OutputDiff)
	if !result.Passed {
		fmt.Printf("FAIL: %s\n", result.Reason)
		return 1
	}
	fmt.Println("PASS")
	return 0
}

// #endregion report
