// Package history persists the ledger of launched batch runs in a SQLite
// database under the workspace, so past invocations stay inspectable after
// their terminals are gone.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	ledgerDirName  = ".benchctl"
	ledgerFileName = "runs.db"
)

// State is the lifecycle state of a recorded run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Run is one recorded batch invocation.
type Run struct {
	ID         string
	CreatedAt  time.Time
	FinishedAt *time.Time
	Argv       []string
	Workers    int
	Subset     string
	Split      string
	Slice      string
	Shuffle    bool
	Evaluate   bool
	OutputDir  string
	ExitCode   *int
	State      State
}

// NewRun allocates a Run with a fresh ID in the pending state.
func NewRun(argv []string, workers int, outputDir string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Argv:      argv,
		Workers:   workers,
		OutputDir: outputDir,
		State:     StatePending,
	}
}

// Store is the run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// LedgerPath returns the database location for a workspace.
func LedgerPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ledgerDirName, ledgerFileName)
}

// Open opens (creating if needed) the ledger for a workspace.
func Open(workspaceRoot string) (*Store, error) {
	path := LedgerPath(workspaceRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		finished_at TEXT,
		argv TEXT NOT NULL,
		workers INTEGER NOT NULL,
		subset TEXT NOT NULL DEFAULT '',
		split TEXT NOT NULL DEFAULT '',
		slice TEXT NOT NULL DEFAULT '',
		shuffle INTEGER NOT NULL DEFAULT 0,
		evaluate INTEGER NOT NULL DEFAULT 0,
		output_dir TEXT NOT NULL,
		exit_code INTEGER,
		state TEXT NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize run ledger: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Insert records a new run.
func (s *Store) Insert(run *Run) error {
	argv, err := json.Marshal(run.Argv)
	if err != nil {
		return fmt.Errorf("failed to encode argv: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, created_at, argv, workers, subset, split, slice, shuffle, evaluate, output_dir, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.Format(time.RFC3339Nano),
		string(argv),
		run.Workers,
		run.Subset,
		run.Split,
		run.Slice,
		boolToInt(run.Shuffle),
		boolToInt(run.Evaluate),
		run.OutputDir,
		string(run.State),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// MarkRunning transitions a run to the running state.
func (s *Store) MarkRunning(id string) error {
	return s.setState(id, StateRunning)
}

func (s *Store) setState(id string, state State) error {
	res, err := s.db.Exec(`UPDATE runs SET state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

// Finish records the child's exit code and final state.
func (s *Store) Finish(id string, exitCode int) error {
	state := StateSucceeded
	if exitCode != 0 {
		state = StateFailed
	}

	res, err := s.db.Exec(`UPDATE runs SET state = ?, exit_code = ?, finished_at = ? WHERE id = ?`,
		string(state), exitCode, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// Get fetches a run by ID. Unique ID prefixes are accepted, so operators can
// use the short form printed by `runs list`.
func (s *Store) Get(id string) (*Run, error) {
	rows, err := s.db.Query(selectColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY created_at DESC`, id, id+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query run %s: %w", id, err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("run %s not found", id)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("run ID %s is ambiguous (%d matches)", id, len(runs))
	}
}

// List returns the most recent runs, newest first. A limit of 0 means all.
func (s *Store) List(limit int) ([]*Run, error) {
	query := selectColumns + ` FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// Prune deletes ledger entries whose output directory no longer exists and
// returns how many were removed.
func (s *Store) Prune() (int, error) {
	runs, err := s.List(0)
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, run := range runs {
		if _, err := os.Stat(run.OutputDir); err == nil {
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
			return pruned, fmt.Errorf("failed to prune run %s: %w", run.ID, err)
		}
		pruned++
	}
	return pruned, nil
}

const selectColumns = `SELECT id, created_at, finished_at, argv, workers, subset, split, slice, shuffle, evaluate, output_dir, exit_code, state`

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		var (
			run        Run
			createdAt  string
			finishedAt sql.NullString
			argv       string
			shuffle    int
			evaluate   int
			exitCode   sql.NullInt64
			state      string
		)
		if err := rows.Scan(&run.ID, &createdAt, &finishedAt, &argv, &run.Workers,
			&run.Subset, &run.Split, &run.Slice, &shuffle, &evaluate,
			&run.OutputDir, &exitCode, &state); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
		}
		run.CreatedAt = ts

		if finishedAt.Valid {
			ts, err := time.Parse(time.RFC3339Nano, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
			}
			run.FinishedAt = &ts
		}

		if err := json.Unmarshal([]byte(argv), &run.Argv); err != nil {
			return nil, fmt.Errorf("failed to decode argv: %w", err)
		}

		run.Shuffle = shuffle != 0
		run.Evaluate = evaluate != 0
		if exitCode.Valid {
			code := int(exitCode.Int64)
			run.ExitCode = &code
		}
		run.State = State(state)

		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ShortID returns the 8-character prefix used in listings.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
