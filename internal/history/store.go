package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iobroker-community/adapter-radar/internal/ledger"
)

// Run is one completed scan as recorded in the history database.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    ledger.Summary
}

// Store is the SQLite-backed scan history.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS scan_runs (
	id            TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	query         TEXT NOT NULL,
	strategies    INTEGER NOT NULL,
	subdivided    INTEGER NOT NULL,
	found         INTEGER NOT NULL,
	new_repos     INTEGER NOT NULL,
	updated_repos INTEGER NOT NULL,
	stale_repos   INTEGER NOT NULL,
	removed_repos INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scan_runs_finished ON scan_runs(finished_at DESC);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record inserts one completed run. A missing ID gets a fresh UUID;
// the stamped run is returned.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_runs (
			id, started_at, finished_at, query, strategies, subdivided,
			found, new_repos, updated_repos, stale_repos, removed_repos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Summary.Query,
		run.Summary.Strategies,
		run.Summary.Subdivided,
		run.Summary.Found,
		run.Summary.New,
		run.Summary.Updated,
		run.Summary.Stale,
		run.Summary.Removed,
	)
	if err != nil {
		return Run{}, fmt.Errorf("recording scan run: %w", err)
	}
	return run, nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, query, strategies, subdivided,
		       found, new_repos, updated_repos, stale_repos, removed_repos
		FROM scan_runs
		ORDER BY finished_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying scan runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(
			&run.ID, &started, &finished, &run.Summary.Query,
			&run.Summary.Strategies, &run.Summary.Subdivided,
			&run.Summary.Found, &run.Summary.New, &run.Summary.Updated,
			&run.Summary.Stale, &run.Summary.Removed,
		); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
