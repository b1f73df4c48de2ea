// Package fixture records resampling runs as JSON files and replays them
// against the local state-vector backend. Fixtures pin end-to-end behavior:
// a recorded (signal, task, params, rounds) tuple must reproduce the same
// logbook and reconstruction on every revision.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/GitTumb/QuFRes/internal/circuit"
	"github.com/GitTumb/QuFRes/internal/tensor"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string          `json:"description"`
	Signal      FixtureSignal   `json:"signal"`
	Task        string          `json:"task"`
	Params      FixtureParams   `json:"params"`
	PatchShape  []int           `json:"patch_shape,omitempty"`
	Rounds      []FixtureRound  `json:"rounds"`
	Expected    FixtureExpected `json:"expected"`
}

// FixtureSignal is the JSON-serializable input signal.
type FixtureSignal struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// FixtureParams mirrors circuit.Params with JSON tags.
type FixtureParams struct {
	NTilde   int  `json:"n_tilde"`
	Dims     int  `json:"dims"`
	Hadamard bool `json:"hadamard"`
}

// FixtureRound is one recorded execution round.
type FixtureRound struct {
	Shots int   `json:"shots"`
	Seed  int64 `json:"seed"`
}

// FixtureExpected captures the recorded end state. Frequencies are exact
// for a matching seed; Output is compared within Tolerance because the
// reconstruction accumulates float rounding.
type FixtureExpected struct {
	Frequencies [][]float64 `json:"frequencies"`
	Output      []float64   `json:"output"`
	OutputShape []int       `json:"output_shape"`
	Tolerance   float64     `json:"tolerance"`
}

// #endregion fixture-types

// #region fixture-io

// Load reads and parses a JSON fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the fixture as indented JSON.
func Save(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

func (f *Fixture) validate() error {
	if len(f.Signal.Shape) == 0 || len(f.Signal.Data) == 0 {
		return fmt.Errorf("missing signal")
	}
	if len(f.Rounds) == 0 {
		return fmt.Errorf("no rounds recorded")
	}
	for i, r := range f.Rounds {
		if r.Shots <= 0 {
			return fmt.Errorf("round %d has non-positive shots", i)
		}
	}
	return nil
}

// ToSignal converts the fixture signal to a tensor.
func (s *FixtureSignal) ToSignal() (*tensor.Tensor, error) {
	return tensor.New(s.Shape, s.Data)
}

// ToParams converts fixture params to circuit params.
func (p *FixtureParams) ToParams() circuit.Params {
	return circuit.Params{NTilde: p.NTilde, Dims: p.Dims, Hadamard: p.Hadamard}
}

// #endregion fixture-io
