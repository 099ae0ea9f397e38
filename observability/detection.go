// Package observability records detection call outcomes to a SQLite audit
// log. Recording never blocks or fails the caller: write errors are logged
// via slog and dropped.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS detection_events (
	event_id    TEXT PRIMARY KEY,
	question    TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	answer_len  INTEGER NOT NULL DEFAULT 0,
	source_refs INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_detection_events_created
	ON detection_events(created_at);
`

// Open opens the audit database with the production pragmas applied via
// EXEC (driver-agnostic) and ensures the schema exists. The caller must
// blank-import a database/sql SQLite driver, e.g. modernc.org/sqlite.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("observability: open %s: %w", path, err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("observability: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("observability: ensure schema: %w", err)
	}
	return db, nil
}

// Event is one detection call outcome.
type Event struct {
	Question   string
	Outcome    string // "answered", "timeout", "error"
	AnswerLen  int
	SourceRefs int
	DurationMs int64
	Error      string
}

// Recorder persists detection events.
type Recorder struct {
	db    *sql.DB
	newID func() string
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithIDGenerator sets a custom event ID generator.
func WithIDGenerator(gen func() string) RecorderOption {
	return func(r *Recorder) { r.newID = gen }
}

// NewRecorder creates a Recorder on an open audit database.
func NewRecorder(db *sql.DB, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		db: db,
		newID: func() string {
			return "det_" + uuid.Must(uuid.NewV7()).String()
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record writes one event. Errors are logged, never propagated, so a
// failing audit store cannot break a detection call.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil {
		return
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO detection_events (
			event_id, question, outcome, answer_len, source_refs,
			duration_ms, error, created_at
		) VALUES (?,?,?,?,?,?,?,?)`,
		r.newID(), ev.Question, ev.Outcome, ev.AnswerLen, ev.SourceRefs,
		ev.DurationMs, ev.Error, time.Now().Unix())
	if err != nil {
		slog.Error("observability: detection event write failed",
			"error", err, "outcome", ev.Outcome)
	}
}

// Recent returns the latest events, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT question, outcome, answer_len, source_refs, duration_ms, error
		FROM detection_events ORDER BY created_at DESC, event_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("observability: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Question, &ev.Outcome, &ev.AnswerLen,
			&ev.SourceRefs, &ev.DurationMs, &ev.Error); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
