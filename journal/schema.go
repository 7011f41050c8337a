package journal

import "time"

// Schema creates the run and session tables.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    serial TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('running', 'succeeded', 'failed')),
    error TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id),
    seq INTEGER NOT NULL,
    command TEXT NOT NULL,
    status TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    packets TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    UNIQUE(run_id, seq)
);
`

// Run status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one flash run.
type Run struct {
	ID         string
	Source     string
	Serial     string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// SessionRecord is one terminated fastboot session of a run.
type SessionRecord struct {
	ID      int64
	RunID   string
	Seq     int
	Command string

	// Status is OKAY or FAIL
	Status string

	// Message is the message of the terminal response
	Message string

	// Packets is the transcript, one packet per line
	Packets string

	StartedAt  time.Time
	FinishedAt time.Time
}
