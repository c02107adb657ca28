package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oshokin/release-feed/internal/config"

	// Register the pure-Go sqlite driver.
	_ "modernc.org/sqlite"
)

// Repository defines persistence operations for packager run history.
type Repository interface {
	RecordRun(ctx context.Context, run *Run) error
	MarkPublished(ctx context.Context, runID string) error
	LastRun(ctx context.Context) (*Run, error)
	Close() error
}

// Run describes a single packager invocation.
type Run struct {
	// ID is the unique identifier assigned to the run.
	ID string
	// Tag is the version tag the run was invoked with.
	Tag string
	// BuildCode is the compact code derived from the tag.
	BuildCode string
	// Published reports whether the metadata artifact was uploaded.
	Published bool
	// StartedAt is when the run began, in UTC.
	StartedAt time.Time
}

// ErrNotFound is returned when no run has been recorded yet.
var ErrNotFound = errors.New("run not found")

// schema creates the runs table on first open. Kept additive: new columns
// arrive via ALTER statements in later migrations.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	tag        TEXT NOT NULL,
	build_code TEXT NOT NULL,
	published  INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// SQLiteRepository persists run history to a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (and migrates) the database at the provided path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if path == "" {
		path = config.DefaultHistoryFilename
	}

	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// The driver serializes access through a single connection.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// RecordRun inserts the run into the history.
func (r *SQLiteRepository) RecordRun(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New("run with an identifier must be provided")
	}

	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, tag, build_code, published, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Tag, run.BuildCode, boolToInt(run.Published), startedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return nil
}

// MarkPublished flags the run as published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, runID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE runs SET published = 1 WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("mark run published: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark run published: %w", err)
	}

	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// LastRun returns the most recently started run.
func (r *SQLiteRepository) LastRun(ctx context.Context) (*Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tag, build_code, published, started_at FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`)

	var (
		run       Run
		published int
		startedAt string
	)

	err := row.Scan(&run.ID, &run.Tag, &run.BuildCode, &published, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load last run: %w", err)
	}

	run.Published = published != 0

	run.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("decode run timestamp: %w", err)
	}

	return &run, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}

// boolToInt maps a bool onto the 0/1 representation stored in SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
