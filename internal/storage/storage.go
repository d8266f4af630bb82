// Package storage archives dashboard runs in a SQLite database.
//
// Each run keeps its serialized dashboard so that past results can be served
// without recomputation. Old runs are rotated out once the archive exceeds
// its configured size.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/cinestat/internal/models"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	generated_at INTEGER NOT NULL,
	movie_count  INTEGER NOT NULL,
	title_count  INTEGER NOT NULL,
	payload      BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs (generated_at DESC);
`

// Storage is a SQLite-backed run archive. It is safe for concurrent use.
type Storage struct {
	db      *sql.DB
	maxRuns int
	path    string
}

// New opens (creating if needed) the archive at dbPath. An empty path uses
// the OS temp directory; ":memory:" keeps everything in memory.
func New(maxRuns int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "cinestat", "runs.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each in-memory connection is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Storage{db: db, maxRuns: maxRuns, path: dbPath}, nil
}

// Path returns the database location.
func (s *Storage) Path() string { return s.path }

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun inserts or replaces a run and rotates the archive.
func (s *Storage) SaveRun(ctx context.Context, run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, generated_at, movie_count, title_count, payload) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.GeneratedAt.UTC().UnixNano(), run.MovieCount, run.TitleCount, []byte(run.Payload))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	if _, err := s.RotateRuns(ctx); err != nil {
		return err
	}
	return nil
}

// GetRun retrieves a run with its payload.
func (s *Storage) GetRun(ctx context.Context, id string) (*models.Run, error) {
	var (
		run     models.Run
		nanos   int64
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, generated_at, movie_count, title_count, payload FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &nanos, &run.MovieCount, &run.TitleCount, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	run.GeneratedAt = time.Unix(0, nanos).UTC()
	run.Payload = payload
	return &run, nil
}

// ListRuns returns up to limit runs, newest first, without payloads.
// limit <= 0 returns every run.
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	query := `SELECT id, generated_at, movie_count, title_count FROM runs ORDER BY generated_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.Run, 0)
	for rows.Next() {
		var (
			run   models.Run
			nanos int64
		)
		if err := rows.Scan(&run.ID, &nanos, &run.MovieCount, &run.TitleCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.GeneratedAt = time.Unix(0, nanos).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// RotateRuns deletes all but the newest maxRuns runs and reports how many
// were removed. maxRuns <= 0 disables rotation.
func (s *Storage) RotateRuns(ctx context.Context) (int64, error) {
	if s.maxRuns <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY generated_at DESC, id DESC LIMIT ?
		)`, s.maxRuns)
	if err != nil {
		return 0, fmt.Errorf("failed to rotate runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to rotate runs: %w", err)
	}
	return n, nil
}

// CountRuns returns the number of archived runs.
func (s *Storage) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}
