// qufres runs a resampling pipeline end to end: load a signal, execute the
// requested transform over one or more sampling rounds, reconstruct, and
// optionally persist the run to a log store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GitTumb/QuFRes/internal/circuit"
	"github.com/GitTumb/QuFRes/internal/logstore"
	"github.com/GitTumb/QuFRes/internal/pipeline"
	"github.com/GitTumb/QuFRes/internal/remote"
	"github.com/GitTumb/QuFRes/internal/sim"
	"github.com/GitTumb/QuFRes/internal/tensor"
)

// #region main

func main() {
	signalPath := flag.String("signal", "", "path to signal JSON ({\"shape\": [...], \"data\": [...]})")
	task := flag.String("task", string(circuit.TaskDownsample1D), "transform task: downsample_1d | downsample_2d | downsample_md | upsample")
	nTilde := flag.Int("ntilde", 1, "qubits removed (downsample) or added (upsample) per dimension")
	dims := flag.Int("dims", 0, "signal dimensions for downsample_md and upsample (inferred from shape when 0)")
	hadamard := flag.Bool("hadamard", true, "wrap the transform in Hadamard diffusion layers")
	patch := flag.String("patch", "", "comma-separated patch shape, e.g. 4,4 (empty = whole signal)")
	shots := flag.Int("shots", 1024, "shots per round")
	rounds := flag.Int("rounds", 1, "number of sampling rounds to accumulate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "base PRNG seed; round i uses seed+i")
	workers := flag.Int("workers", 4, "concurrent patch executions")
	backend := flag.String("backend", envOr("QUFRES_BACKEND", ""), "remote backend address (empty = in-process simulator)")
	dbPath := flag.String("db", envOr("QUFRES_DB", ""), "log store path; empty disables persistence")
	outPath := flag.String("out", "", "write reconstructed signal JSON here (default stdout)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *signalPath == "" {
		fmt.Fprintln(os.Stderr, "usage: qufres --signal path/to/signal.json [--task downsample_1d] [--ntilde 1] [--patch 4,4] [--shots N] [--rounds N]")
		os.Exit(2)
	}

	if err := run(*signalPath, circuit.Task(*task), *nTilde, *dims, *hadamard, *patch, *shots, *rounds, *seed, *workers, *backend, *dbPath, *outPath); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

// #endregion main

// #region run

type signalFile struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func run(signalPath string, task circuit.Task, nTilde, dims int, hadamard bool, patch string, shots, rounds int, seed int64, workers int, backendAddr, dbPath, outPath string) error {
	signal, err := loadSignal(signalPath)
	if err != nil {
		return err
	}

	params := circuit.Params{NTilde: nTilde, Dims: dims, Hadamard: hadamard}
	if params.Dims == 0 {
		params.Dims = signal.Rank()
	}
	patchShape, err := parsePatch(patch)
	if err != nil {
		return err
	}

	exec, backendName, closeExec, err := buildExecutor(backendAddr)
	if err != nil {
		return err
	}
	defer closeExec()

	r, err := pipeline.New(signal, task, params, patchShape, exec, pipeline.WithWorkers(workers))
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	log.Info().
		Str("task", string(task)).
		Ints("shape", signal.Shape).
		Str("backend", backendName).
		Int("shots", shots).
		Int("rounds", rounds).
		Msg("starting run")

	ctx := context.Background()
	var store *logstore.Store
	var runID string
	if dbPath != "" {
		store, err = logstore.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open log store: %w", err)
		}
		defer store.Close()

		runID, err = store.CreateRun(logstore.RunRecord{
			Task:        task,
			Params:      params,
			Patched:     patchShape != nil,
			PatchShape:  patchShape,
			SignalShape: signal.Shape,
			SignalData:  signal.Data,
		})
		if err != nil {
			return fmt.Errorf("create run record: %w", err)
		}
		log.Info().Str("run_id", runID).Msg("run registered")
	}

	for i := 0; i < rounds; i++ {
		roundSeed := seed + int64(i)
		start := time.Now()
		if err := r.Run(ctx, shots, roundSeed); err != nil {
			return fmt.Errorf("round %d: %w", i, err)
		}
		log.Info().
			Int("round", i).
			Int64("seed", roundSeed).
			Dur("elapsed", time.Since(start)).
			Msg("round complete")

		if store != nil {
			lb := r.Logbook()
			if err := store.UpdateRun(runID, lb.Shots, r.Norms(), lb.Frequencies); err != nil {
				return fmt.Errorf("persist round %d: %w", i, err)
			}
			if err := store.AppendLog(runID, shots, roundSeed, backendName); err != nil {
				return fmt.Errorf("log round %d: %w", i, err)
			}
		}
	}

	out, err := r.Reconstruct()
	if err != nil {
		return fmt.Errorf("reconstruct: %w", err)
	}
	log.Info().Ints("shape", out.Shape).Float64("sum", out.Sum()).Msg("reconstruction complete")

	return writeSignal(outPath, out)
}

// #endregion run

// #region helpers

func loadSignal(path string) (*tensor.Tensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signal %s: %w", path, err)
	}
	var sf signalFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse signal %s: %w", path, err)
	}
	return tensor.New(sf.Shape, sf.Data)
}

func writeSignal(path string, t *tensor.Tensor) error {
	data, err := json.MarshalIndent(signalFile{Shape: t.Shape, Data: t.Data}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func buildExecutor(addr string) (pipeline.Executor, string, func(), error) {
	if addr == "" {
		return sim.New(sim.DefaultConfig()), "local", func() {}, nil
	}
	client, err := remote.Dial(addr, log.Logger)
	if err != nil {
		return nil, "", nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	limit, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, "", nil, fmt.Errorf("backend %s unreachable: %w", addr, err)
	}
	log.Info().Str("addr", addr).Int("max_qubits", limit).Msg("connected to backend")
	return client, addr, func() { client.Close() }, nil
}

func parsePatch(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid patch shape %q", s)
		}
		shape[i] = v
	}
	return shape, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
