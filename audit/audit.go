// CLAUDE:SUMMARY SQLite audit trail for tool invocations with async buffered writes and a kit middleware.
// Package audit records every tool invocation in an SQLite audit trail.
//
// Snapshots and comparison results are never persisted; the audit log
// records only who called what, with which parameters, and how it went.
package audit

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/regveille/dbopen"
	"github.com/hazyhaar/regveille/idgen"
	"github.com/hazyhaar/regveille/kit"
)

// Entry is one audit record.
type Entry struct {
	EntryID    string `json:"entry_id"`
	Action     string `json:"action"`
	Parameters string `json:"parameters"` // JSON-encoded request
	Transport  string `json:"transport"`
	SessionID  string `json:"session_id"`
	Status     string `json:"status"` // "success" | "error"
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  int64  `json:"timestamp"` // unix seconds
}

// Logger records audit entries.
type Logger interface {
	Log(ctx context.Context, e *Entry) error
	LogAsync(e *Entry)
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	entry_id      TEXT PRIMARY KEY,
	action        TEXT NOT NULL,
	parameters    TEXT NOT NULL DEFAULT '',
	transport     TEXT NOT NULL DEFAULT 'stdio',
	session_id    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	duration_ms   INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action, created_at);
`

// SQLiteLogger writes audit entries to an SQLite database. LogAsync
// entries go through a buffered channel drained by a background writer;
// Close flushes the buffer.
type SQLiteLogger struct {
	db    *sql.DB
	newID idgen.Generator
	queue chan *Entry
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// Option configures a SQLiteLogger.
type Option func(*SQLiteLogger)

// WithIDGenerator sets a custom ID generator for entry IDs.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(l *SQLiteLogger) { l.newID = gen }
}

// NewSQLiteLogger creates a logger on the given database. Call Init before
// logging.
func NewSQLiteLogger(db *sql.DB, opts ...Option) *SQLiteLogger {
	l := &SQLiteLogger{
		db:    db,
		newID: idgen.Prefixed("aud_", idgen.Default),
		queue: make(chan *Entry, 256),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.drain()
	return l
}

// Init creates the audit schema. Idempotent.
func (l *SQLiteLogger) Init() error {
	_, err := l.db.Exec(schema)
	return err
}

// Log records an entry synchronously, filling defaults first. Writes go
// through dbopen.Exec so a reader holding the write lock only delays the
// insert instead of failing it.
func (l *SQLiteLogger) Log(ctx context.Context, e *Entry) error {
	l.fillDefaults(e)
	_, err := dbopen.Exec(ctx, l.db, `
		INSERT INTO audit_log (
			entry_id, action, parameters, transport, session_id,
			status, error_message, duration_ms, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		e.EntryID, e.Action, e.Parameters, e.Transport, e.SessionID,
		e.Status, e.Error, e.DurationMs, e.Timestamp)
	return err
}

// LogAsync queues an entry for the background writer. If the buffer is
// full, or the logger is already closed while a tool call is still
// finishing, the entry is dropped with a warning: audit must never block
// or panic a tool call.
func (l *SQLiteLogger) LogAsync(e *Entry) {
	l.fillDefaults(e)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		slog.Warn("audit: logger closed, entry dropped", "action", e.Action)
		return
	}
	select {
	case l.queue <- e:
	default:
		slog.Warn("audit: buffer full, entry dropped", "action", e.Action)
	}
}

// Close stops the background writer after flushing queued entries.
// Idempotent; LogAsync calls racing with shutdown drop their entries.
func (l *SQLiteLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.done
	return nil
}

func (l *SQLiteLogger) drain() {
	defer close(l.done)
	for e := range l.queue {
		if err := l.Log(context.Background(), e); err != nil {
			slog.Warn("audit: write failed", "action", e.Action, "error", err)
		}
	}
}

func (l *SQLiteLogger) fillDefaults(e *Entry) {
	if e.EntryID == "" {
		e.EntryID = l.newID()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	if e.Transport == "" {
		e.Transport = "stdio"
	}
	if e.Status == "" {
		if e.Error != "" {
			e.Status = "error"
		} else {
			e.Status = "success"
		}
	}
}

// Middleware returns a kit.Middleware that audits every invocation of the
// wrapped endpoint under the given action name. Request parameters are
// recorded via encodeParams; failures are recorded with the error message.
func Middleware(logger Logger, action string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			e := &Entry{
				Action:     action,
				Parameters: encodeParams(req),
				Transport:  kit.GetTransport(ctx),
				SessionID:  kit.GetSessionID(ctx),
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				e.Error = err.Error()
			}
			logger.LogAsync(e)
			return resp, err
		}
	}
}
