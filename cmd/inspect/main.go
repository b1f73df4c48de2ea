// inspect prints stored resampling runs from a qufres log store: a listing
// of recent runs, or the full detail of one run including its per-patch
// frequency summary and measurement log.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/GitTumb/QuFRes/internal/logstore"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to qufres.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/qufres.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	store, err := logstore.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string `json:"run_id"`
	Task      string `json:"task"`
	Patched   bool   `json:"patched"`
	Shots     int    `json:"shots"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func runListMode(store *logstore.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:     r.RunID,
			Task:      string(r.Task),
			Patched:   r.Patched,
			Shots:     r.Shots,
			CreatedAt: r.CreatedAt.Format("2006-01-02T15:04:05Z"),
			UpdatedAt: r.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-14s  %-7s  %8s  %s\n", "Run", "Task", "Patched", "Shots", "Updated")
	fmt.Printf("%-12s+-%-14s+-%-7s+-%8s+-%s\n",
		"------------", "--------------", "-------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-14s  %-7v  %8d  %s\n",
			shortID(r.RunID), r.Task, r.Patched, r.Shots, r.UpdatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID       string        `json:"run_id"`
	Task        string        `json:"task"`
	NTilde      int           `json:"n_tilde"`
	Dims        int           `json:"dims"`
	Hadamard    bool          `json:"hadamard"`
	Patched     bool          `json:"patched"`
	PatchShape  []int         `json:"patch_shape,omitempty"`
	SignalShape []int         `json:"signal_shape"`
	Shots       int           `json:"shots"`
	CreatedAt   string        `json:"created_at"`
	Patches     []patchDetail `json:"patches"`
	Log         []logDetail   `json:"log"`
}

type patchDetail struct {
	Index    int     `json:"index"`
	Norm     float64 `json:"norm"`
	Outcomes int     `json:"outcomes"`
	Entropy  float64 `json:"entropy"`
	Peak     int     `json:"peak_outcome"`
	PeakFreq float64 `json:"peak_frequency"`
}

type logDetail struct {
	Shots     int    `json:"shots"`
	Seed      int64  `json:"seed"`
	Backend   string `json:"backend"`
	CreatedAt string `json:"created_at"`
}

func runDetailMode(store *logstore.Store, runID string, jsonOut bool) error {
	rec, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	logs, err := store.Logs(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:       rec.RunID,
		Task:        string(rec.Task),
		NTilde:      rec.Params.NTilde,
		Dims:        rec.Params.Dims,
		Hadamard:    rec.Params.Hadamard,
		Patched:     rec.Patched,
		PatchShape:  rec.PatchShape,
		SignalShape: rec.SignalShape,
		Shots:       rec.Shots,
		CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	for p, freqs := range rec.Frequencies {
		pd := patchDetail{Index: p, Outcomes: len(freqs)}
		if p < len(rec.Norms) {
			pd.Norm = rec.Norms[p]
		}
		for o, f := range freqs {
			if f > pd.PeakFreq {
				pd.PeakFreq = f
				pd.Peak = o
			}
			if f > 0 {
				pd.Entropy -= f * math.Log2(f)
			}
		}
		out.Patches = append(out.Patches, pd)
	}
	for _, l := range logs {
		out.Log = append(out.Log, logDetail{
			Shots:     l.Shots,
			Seed:      l.Seed,
			Backend:   l.Backend,
			CreatedAt: l.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:       %s\n", out.RunID)
	fmt.Printf("Task:      %s (ntilde=%d dims=%d hadamard=%v)\n", out.Task, out.NTilde, out.Dims, out.Hadamard)
	fmt.Printf("Signal:    %v", out.SignalShape)
	if out.Patched {
		fmt.Printf(" in patches of %v", out.PatchShape)
	}
	fmt.Printf("\nShots:     %d\n", out.Shots)
	fmt.Printf("Created:   %s\n\n", out.CreatedAt)

	fmt.Printf("%-6s  %10s  %8s  %8s  %6s  %9s\n", "Patch", "Norm", "Outcomes", "Entropy", "Peak", "Peak Freq")
	for _, pd := range out.Patches {
		fmt.Printf("%-6d  %10.4f  %8d  %8.4f  %6d  %9.4f\n",
			pd.Index, pd.Norm, pd.Outcomes, pd.Entropy, pd.Peak, pd.PeakFreq)
	}

	if len(out.Log) > 0 {
		fmt.Printf("\nMeasurement log:\n")
		for _, l := range out.Log {
			fmt.Printf("  %s  shots=%-8d seed=%-12d backend=%s\n", l.CreatedAt, l.Shots, l.Seed, l.Backend)
		}
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion helpers
