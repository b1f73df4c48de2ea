// simserver exposes the state-vector simulator as a msgpack-RPC backend so
// controllers on other hosts can offload circuit sampling.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GitTumb/QuFRes/internal/remote"
	"github.com/GitTumb/QuFRes/internal/sim"
)

// #region main

func main() {
	addr := flag.String("addr", envOr("QUFRES_LISTEN", "localhost:5571"), "listen address")
	maxQubits := flag.Int("max-qubits", sim.DefaultConfig().MaxQubits, "largest register to accept")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if !*verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	simulator := sim.New(sim.Config{MaxQubits: *maxQubits})
	srv, err := remote.NewServer(*addr, simulator, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("shutting down")
		srv.Close()
	}()

	log.Info().Str("addr", srv.Addr()).Int("max_qubits", *maxQubits).Msg("simulator backend listening")
	if err := srv.Serve(); err != nil {
		log.Fatal().Err(err).Msg("serve failed")
	}
}

// #endregion main

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
