// Package history persists a record of pipeline runs in a local SQLite
// database so past results stay inspectable from the CLI.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"explainer-pipeline/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	concept       TEXT NOT NULL,
	state         TEXT NOT NULL,
	scenes_parsed INTEGER NOT NULL,
	clips_built   INTEGER NOT NULL,
	partial       INTEGER NOT NULL,
	output_file   TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	started_at    TEXT NOT NULL,
	completed_at  TEXT NOT NULL,
	elapsed_sec   REAL NOT NULL
);
`

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open connects to (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one run report.
func (s *Store) Record(ctx context.Context, r *types.RunReport) error {
	partial := 0
	if r.Partial {
		partial = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, concept, state, scenes_parsed, clips_built,
			partial, output_file, error, started_at, completed_at, elapsed_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Concept, r.State, r.ScenesParsed, r.ClipsBuilt,
		partial, r.OutputFile, r.Error, r.StartedAt, r.CompletedAt, r.ElapsedSec,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]types.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, concept, state, scenes_parsed, clips_built,
			partial, output_file, error, started_at, completed_at, elapsed_sec
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []types.RunReport
	for rows.Next() {
		var r types.RunReport
		var partial int
		if err := rows.Scan(&r.RunID, &r.Concept, &r.State, &r.ScenesParsed,
			&r.ClipsBuilt, &partial, &r.OutputFile, &r.Error,
			&r.StartedAt, &r.CompletedAt, &r.ElapsedSec); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Partial = partial != 0
		out = append(out, r)
	}
	return out, rows.Err()
}
