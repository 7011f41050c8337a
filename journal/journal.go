// Package journal records flash runs and their fastboot sessions in SQLite.
//
// A run is opened with StartRun, receives every terminated session through
// the hook returned by Hook, and is closed with FinishRun:
//
//	j, err := journal.Open("fastboot.db", journal.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	runID, err := j.StartRun(ctx, "factory.zip", serial)
//	client := fastboot.New(binding, fastboot.WithSessionHook(j.Hook(ctx, runID)))
//	err = f.RunFlashAll(ctx, update)
//	j.FinishRun(ctx, runID, err)
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/moffa90/go-fastboot/fastboot"
)

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Option is a functional option for configuring a Journal.
type Option func(*Journal)

// WithLogger sets a logger.
func WithLogger(logger Logger) Option {
	return func(j *Journal) {
		j.logger = logger
	}
}

// Journal stores runs and sessions. It is safe for concurrent use.
type Journal struct {
	db     *sql.DB
	logger Logger
}

// Open opens or creates the journal database at path.
func Open(path string, opts ...Option) (*Journal, error) {
	j := &Journal{}
	for _, opt := range opts {
		opt(j)
	}

	j.logDebug("journal_open", "db_path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// One writer keeps SQLite from reporting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	j.db = db
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// StartRun records a new running run and returns its id.
func (j *Journal) StartRun(ctx context.Context, source, serial string) (string, error) {
	id := uuid.NewString()

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, serial, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, source, serial, StatusRunning, formatTime(time.Now()))
	if err != nil {
		j.logError("journal_start_run_failed", "source", source, "error", err)
		return "", fmt.Errorf("start run: %w", err)
	}

	j.logInfo("journal_run_started", "run_id", id, "source", source, "serial", serial)
	return id, nil
}

// FinishRun marks a run succeeded, or failed with runErr's message.
func (j *Journal) FinishRun(ctx context.Context, runID string, runErr error) error {
	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusFailed, runErr.Error()
	}

	result, err := j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, message, formatTime(time.Now()), runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if rows == 0 {
		return fmt.Errorf("finish run %s: run not found", runID)
	}

	j.logInfo("journal_run_finished", "run_id", runID, "status", status)
	return nil
}

// RecordSession appends a terminated session to a run.
func (j *Journal) RecordSession(ctx context.Context, runID string, s fastboot.Session) error {
	var message string
	if last, ok := s.Last(); ok {
		message = last.Message
	}

	lines := make([]string, 0, len(s.Packets))
	for _, p := range s.Packets {
		lines = append(lines, fmt.Sprint(p))
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO sessions (run_id, seq, command, status, message, packets, started_at, finished_at)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?
		FROM sessions WHERE run_id = ?`,
		runID, s.Command(), string(s.Status), message, strings.Join(lines, "\n"),
		formatTime(s.StartedAt), formatTime(s.FinishedAt), runID)
	if err != nil {
		return fmt.Errorf("record session %q: %w", s.Command(), err)
	}

	j.logDebug("journal_session_recorded", "run_id", runID, "command", s.Command(), "status", s.Status)
	return nil
}

// Hook returns a fastboot.SessionHook that records sessions into runID.
// Failures are logged because the hook cannot return them.
func (j *Journal) Hook(ctx context.Context, runID string) fastboot.SessionHook {
	return func(s fastboot.Session) {
		if err := j.RecordSession(ctx, runID, s); err != nil {
			j.logError("journal_record_failed", "run_id", runID, "error", err)
		}
	}
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, source, serial, status, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Serial, &r.Status, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Sessions returns the sessions of a run in the order they terminated.
func (j *Journal) Sessions(ctx context.Context, runID string) ([]SessionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_id, seq, command, status, message, packets, started_at, finished_at
		FROM sessions WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list sessions of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			s                 SessionRecord
			started, finished string
		)
		err := rows.Scan(&s.ID, &s.RunID, &s.Seq, &s.Command, &s.Status, &s.Message, &s.Packets, &started, &finished)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.StartedAt = parseTime(started)
		s.FinishedAt = parseTime(finished)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions of %s: %w", runID, err)
	}
	return out, nil
}

// timeLayout is fixed width so that text ordering is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (j *Journal) logDebug(msg string, kv ...interface{}) {
	if j.logger != nil {
		j.logger.Debug(msg, kv...)
	}
}

func (j *Journal) logInfo(msg string, kv ...interface{}) {
	if j.logger != nil {
		j.logger.Info(msg, kv...)
	}
}

func (j *Journal) logError(msg string, kv ...interface{}) {
	if j.logger != nil {
		j.logger.Error(msg, kv...)
	}
}
