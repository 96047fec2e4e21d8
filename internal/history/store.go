package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"armature/internal/config"
	"armature/internal/faults"
)

// Store persists build records backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 20

// Open initializes or connects to the history database at cfg.HistoryPath()
// and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the database file at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin inserts b as a running build. StartedAt defaults to now.
func (s *Store) Begin(ctx context.Context, b *Build) error {
	if b == nil || strings.TrimSpace(b.ID) == "" {
		return faults.Wrap(faults.ErrValidation, "history", "begin", "build id is required", nil)
	}
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now().UTC()
	}
	b.Status = StatusRunning
	return s.execWithRetry(ctx,
		`INSERT INTO builds (id, assembly, status, end_point, mode, component_count, started_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Assembly, b.Status, b.EndPoint, b.Mode, b.Components, formatTime(b.StartedAt),
	)
}

// Finish stamps the outcome on build id.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) error {
	if out.Status == "" || out.Status == StatusRunning {
		return faults.Wrap(faults.ErrValidation, "history", "finish", "final status is required", nil)
	}
	res, err := s.db.ExecContext(ensureContext(ctx),
		`UPDATE builds SET status = ?, finished_at = ?, error_message = ?, context_dump = ?,
        steps_run = ?, steps_skipped = ? WHERE id = ?`,
		out.Status, formatTime(time.Now().UTC()), out.ErrorMessage, out.ContextDump,
		out.StepsRun, out.StepsSkipped, id,
	)
	if err != nil {
		return fmt.Errorf("finish build %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return faults.Wrap(faults.ErrNotFound, "history", "finish", "build "+id, nil)
	}
	return nil
}

// Get returns build id.
func (s *Store) Get(ctx context.Context, id string) (*Build, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), selectBuild+" WHERE id = ?", id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.Wrap(faults.ErrNotFound, "history", "get", "build "+id, nil)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// List returns the most recent builds, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Build, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), selectBuild+" ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var out []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

const selectBuild = `SELECT id, assembly, status, end_point, mode, component_count,
    steps_run, steps_skipped, started_at, finished_at, error_message, context_dump FROM builds`

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*Build, error) {
	var (
		b        Build
		status   string
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Assembly, &status, &b.EndPoint, &b.Mode, &b.Components,
		&b.StepsRun, &b.StepsSkipped, &started, &finished, &b.ErrorMessage, &b.ContextDump); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan build: %w", err)
	}
	b.Status = Status(status)
	b.StartedAt = parseTime(started)
	if finished.Valid {
		b.FinishedAt = parseTime(finished.String)
	}
	return &b, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
