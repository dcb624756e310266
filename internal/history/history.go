// Package history persists login check runs to SQLite so that a flaky
// staging environment can be told apart from a real regression by looking
// at the recent run record.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rohelgravityer/marketeers-login-check/internal/report"
)

// DB stores check runs in a single SQLite file.
type DB struct {
	db     *sql.DB
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file and directory.
	CreateIfNotExists bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{CreateIfNotExists: true}
}

// Open opens or creates the run history database under dbDir.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "logincheck.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("run history not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check history path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	// modernc.org/sqlite uses the mode query parameter to control file
	// creation: rwc allows creation, rw requires an existing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}

	h := &DB{db: db, dbPath: dbPath}
	if err := h.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *DB) init() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			target      TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			verdict     TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			detail      TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_target_started
			ON runs(target, started_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize run history schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (h *DB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *DB) Path() string {
	return h.dbPath
}

// Save records a completed run. The full report is stored as JSON in the
// detail column; the indexed columns exist for listing and pruning. The
// start time goes in as epoch nanoseconds so ordering is numeric, not
// textual.
func (h *DB) Save(ctx context.Context, run *report.Run) error {
	detail, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO runs (id, target, started_at, duration_ms, verdict, error, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Target,
		run.StartedAt.UnixNano(),
		run.Duration.Milliseconds(),
		string(run.Verdict),
		run.Error,
		string(detail),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the most recent runs for a target, newest first. A zero
// limit means all runs.
func (h *DB) Recent(ctx context.Context, target string, limit int) ([]*report.Run, error) {
	query := `SELECT detail FROM runs WHERE target = ? ORDER BY started_at DESC`
	args := []any{target}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var runs []*report.Run
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		var run report.Run
		if err := json.Unmarshal([]byte(detail), &run); err != nil {
			return nil, fmt.Errorf("failed to decode run detail: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// ConsecutiveFailures counts the failed runs for a target since the last
// pass, newest first. Inconclusive runs are skipped: they say nothing
// about the product.
func (h *DB) ConsecutiveFailures(ctx context.Context, target string) (int, error) {
	runs, err := h.Recent(ctx, target, 0)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, run := range runs {
		switch run.Verdict {
		case report.VerdictPass:
			return count, nil
		case report.VerdictFail:
			count++
		}
	}
	return count, nil
}
