package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"livecap/internal/capture"
)

// Outcome values stored in the journal. Finished jobs use the capture
// outcomes; running and abandoned exist only here.
const (
	OutcomeRunning   = "running"
	OutcomeAbandoned = "abandoned"
)

// DefaultLimit caps Recent when the caller passes a non-positive limit.
const DefaultLimit = 20

// Entry is one journal row.
type Entry struct {
	ID           string     `json:"id"`
	RunID        string     `json:"run_id,omitempty"`
	SourceID     string     `json:"source_id"`
	Address      string     `json:"address"`
	SessionID    string     `json:"session_id,omitempty"`
	OutputPath   string     `json:"output_path,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Outcome      string     `json:"outcome"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	Error        string     `json:"error,omitempty"`
	ReleaseError string     `json:"release_error,omitempty"`
}

// Duration reports how long the capture ran; running entries measure to now.
func (e Entry) Duration(now time.Time) time.Duration {
	end := now
	if e.FinishedAt != nil {
		end = *e.FinishedAt
	}
	if e.StartedAt.IsZero() || end.Before(e.StartedAt) {
		return 0
	}
	return end.Sub(e.StartedAt)
}

// Store is the SQLite-backed journal.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records a job as running.
func (s *Store) Begin(ctx context.Context, runID string, job capture.Job) error {
	if job.ID == "" {
		return errors.New("job id is empty")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO captures (
            id, run_id, source_id, address, session_id, output_path, started_at, outcome
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		nullableString(runID),
		job.SourceID,
		job.Address,
		nullableString(job.SessionID),
		nullableString(job.OutputPath),
		formatTime(job.StartedAt),
		OutcomeRunning,
	)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

// Finish closes the row for result.Job. Jobs that never reached Begin (for
// example when output preparation failed) are inserted already finished.
func (s *Store) Finish(ctx context.Context, runID string, result capture.Result) error {
	job := result.Job
	if job.ID == "" {
		return errors.New("job id is empty")
	}
	finished := result.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO captures (
            id, run_id, source_id, address, session_id, output_path, started_at,
            finished_at, outcome, error_kind, error_message, release_error
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            finished_at = excluded.finished_at,
            outcome = excluded.outcome,
            error_kind = excluded.error_kind,
            error_message = excluded.error_message,
            release_error = excluded.release_error`,
		job.ID,
		nullableString(runID),
		job.SourceID,
		job.Address,
		nullableString(job.SessionID),
		nullableString(job.OutputPath),
		formatTime(job.StartedAt),
		formatTime(finished),
		string(result.Outcome),
		nullableString(result.ErrorKind()),
		nullableError(result.Err),
		nullableError(result.ReleaseErr),
	)
	if err != nil {
		return fmt.Errorf("finish capture: %w", err)
	}
	return nil
}

// MarkAbandoned closes running rows that belong to any run other than
// currentRunID and returns how many were closed.
func (s *Store) MarkAbandoned(ctx context.Context, currentRunID string, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE captures SET outcome = ?, finished_at = ?
         WHERE outcome = ? AND COALESCE(run_id, '') != ?`,
		OutcomeAbandoned,
		formatTime(now),
		OutcomeRunning,
		currentRunID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark abandoned: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.query(ctx, `SELECT `+entryColumns+` FROM captures ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
}

// Running returns entries without an outcome yet, oldest first.
func (s *Store) Running(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM captures WHERE outcome = ? ORDER BY started_at`, OutcomeRunning)
}

// Prune deletes finished entries that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM captures WHERE outcome != ? AND started_at < ?`, OutcomeRunning, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune captures: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = `id, run_id, source_id, address, session_id, output_path,
    started_at, finished_at, outcome, error_kind, error_message, release_error`

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captures: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry                                       Entry
		runID, sessionID, outputPath                sql.NullString
		finishedAt, errorKind, errorMsg, releaseErr sql.NullString
		startedAt                                   string
	)
	if err := rows.Scan(
		&entry.ID, &runID, &entry.SourceID, &entry.Address, &sessionID, &outputPath,
		&startedAt, &finishedAt, &entry.Outcome, &errorKind, &errorMsg, &releaseErr,
	); err != nil {
		return Entry{}, fmt.Errorf("scan capture: %w", err)
	}
	entry.RunID = runID.String
	entry.SessionID = sessionID.String
	entry.OutputPath = outputPath.String
	entry.ErrorKind = errorKind.String
	entry.Error = errorMsg.String
	entry.ReleaseError = releaseErr.String
	if t, err := parseTime(startedAt); err == nil {
		entry.StartedAt = t
	}
	if finishedAt.Valid {
		if t, err := parseTime(finishedAt.String); err == nil {
			entry.FinishedAt = &t
		}
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableError(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

// timeLayout keeps a fixed fraction width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
