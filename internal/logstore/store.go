// Package logstore persists pipeline runs in SQLite: run metadata, the
// signal snapshot, per-patch frequency statistics, and an append-only log of
// measurement rounds.
package logstore

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/GitTumb/QuFRes/internal/circuit"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	task          TEXT NOT NULL,
	patched       INTEGER NOT NULL,
	n_tilde       INTEGER NOT NULL,
	dims          INTEGER NOT NULL,
	hadamard      INTEGER NOT NULL,
	patch_shape   TEXT,
	signal_shape  TEXT NOT NULL,
	signal_data   BLOB NOT NULL,
	shots         INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_frequencies (
	run_id        TEXT NOT NULL,
	patch_idx     INTEGER NOT NULL,
	norm          REAL NOT NULL,
	freqs         BLOB NOT NULL,
	PRIMARY KEY (run_id, patch_idx),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	shots         INTEGER NOT NULL,
	seed          INTEGER NOT NULL,
	backend       TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store
// Store manages persisted runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region create-run
// CreateRun inserts a new run row. A missing RunID is generated; the
// assigned ID is returned.
func (s *Store) CreateRun(rec RunRecord) (string, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	now := time.Now().UTC()

	sigShape, err := json.Marshal(rec.SignalShape)
	if err != nil {
		return "", fmt.Errorf("marshal signal shape: %w", err)
	}
	var patchShape interface{}
	if rec.PatchShape != nil {
		b, err := json.Marshal(rec.PatchShape)
		if err != nil {
			return "", fmt.Errorf("marshal patch shape: %w", err)
		}
		patchShape = string(b)
	}

	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, task, patched, n_tilde, dims, hadamard, patch_shape,
		                   signal_shape, signal_data, shots, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		rec.RunID, string(rec.Task), boolInt(rec.Patched),
		rec.Params.NTilde, rec.Params.Dims, boolInt(rec.Params.Hadamard),
		patchShape, string(sigShape), encodeFloats(rec.SignalData),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return rec.RunID, nil
}

// #endregion create-run

// #region update-run
// UpdateRun replaces a run's accumulated statistics atomically: total shot
// count plus one (norm, frequencies) pair per patch.
func (s *Store) UpdateRun(runID string, shots int, norms []float64, freqs [][]float64) error {
	if len(norms) != len(freqs) {
		return fmt.Errorf("update run %s: %d norms for %d frequency vectors", runID, len(norms), len(freqs))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE runs SET shots = ?, updated_at = ? WHERE run_id = ?`,
		shots, time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run: run %s not found", runID)
	}

	for p, f := range freqs {
		_, err = tx.Exec(
			`INSERT INTO run_frequencies (run_id, patch_idx, norm, freqs) VALUES (?, ?, ?, ?)
			 ON CONFLICT(run_id, patch_idx) DO UPDATE SET norm = excluded.norm, freqs = excluded.freqs`,
			runID, p, norms[p], encodeFloats(f),
		)
		if err != nil {
			return fmt.Errorf("upsert frequencies patch %d: %w", p, err)
		}
	}
	return tx.Commit()
}

// #endregion update-run

// #region get-run
// GetRun retrieves a full run record by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	var task string
	var patched, hadamard int
	var patchShape sql.NullString
	var sigShape string
	var sigData []byte
	var createdStr, updatedStr string

	err := s.db.QueryRow(
		`SELECT run_id, task, patched, n_tilde, dims, hadamard, patch_shape,
		        signal_shape, signal_data, shots, created_at, updated_at
		 FROM runs WHERE run_id = ?`, runID,
	).Scan(&rec.RunID, &task, &patched, &rec.Params.NTilde, &rec.Params.Dims, &hadamard,
		&patchShape, &sigShape, &sigData, &rec.Shots, &createdStr, &updatedStr)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}

	rec.Task = circuit.Task(task)
	rec.Patched = patched != 0
	rec.Params.Hadamard = hadamard != 0
	if patchShape.Valid {
		if err := json.Unmarshal([]byte(patchShape.String), &rec.PatchShape); err != nil {
			return RunRecord{}, fmt.Errorf("unmarshal patch shape: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(sigShape), &rec.SignalShape); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal signal shape: %w", err)
	}
	rec.SignalData = decodeFloats(sigData)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)

	rows, err := s.db.Query(
		`SELECT norm, freqs FROM run_frequencies WHERE run_id = ? ORDER BY patch_idx`, runID,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get frequencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var norm float64
		var blob []byte
		if err := rows.Scan(&norm, &blob); err != nil {
			return RunRecord{}, fmt.Errorf("scan frequencies: %w", err)
		}
		rec.Norms = append(rec.Norms, norm)
		rec.Frequencies = append(rec.Frequencies, decodeFloats(blob))
	}
	return rec, rows.Err()
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recently updated runs, metadata only.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT run_id, task, patched, shots, created_at, updated_at
		 FROM runs ORDER BY updated_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var task string
		var patched int
		var createdStr, updatedStr string
		if err := rows.Scan(&s.RunID, &task, &patched, &s.Shots, &createdStr, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Task = circuit.Task(task)
		s.Patched = patched != 0
		s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		out = append(out, s)
	}
	return out, rows.Err()
}

// #endregion list-runs

// #region run-log
// AppendLog records one measurement round against a run.
func (s *Store) AppendLog(runID string, shots int, seed int64, backend string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_log (run_id, shots, seed, backend, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, shots, seed, backend, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// Logs returns the measurement rounds recorded for a run, oldest first.
func (s *Store) Logs(runID string) ([]LogEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, shots, seed, backend, created_at FROM run_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get logs: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Shots, &e.Seed, &e.Backend, &createdStr); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion run-log

// #region float-encoding

func encodeFloats(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeFloats(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion float-encoding
