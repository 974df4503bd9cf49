// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit records session lifecycle events (login, idle warning,
// extension, expiry, logout) in a local SQLite database.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/storefront-tui/internal/clock"
	"github.com/jeranaias/storefront-tui/internal/util"
)

// FileName is the audit database file name inside the data directory.
const FileName = "audit.db"

// MaxDetailLength bounds the stored detail text.
const MaxDetailLength = 500

// DefaultLimit is used by Recent when limit <= 0.
const DefaultLimit = 50

// ErrClosed is returned after Close.
var ErrClosed = errors.New("audit: store closed")

// EventType names a session lifecycle event.
type EventType string

const (
	EventLogin        EventType = "SESSION_LOGIN"
	EventLoginFailed  EventType = "SESSION_LOGIN_FAILED"
	EventWarning      EventType = "SESSION_WARNING"
	EventExtended     EventType = "SESSION_EXTENDED"
	EventExpired      EventType = "SESSION_EXPIRED"
	EventLogout       EventType = "SESSION_LOGOUT"
	EventLogoutFailed EventType = "SESSION_LOGOUT_FAILED"
	EventWarningsOff  EventType = "SESSION_WARNINGS_SUPPRESSED"
	EventWarningsOn   EventType = "SESSION_WARNINGS_ENABLED"
)

// Event is one audit record.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Type      EventType `json:"event_type"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Schema is the audit database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS session_events (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_session_events_created ON session_events(created_at);
`

// Store is an append-only audit log.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	clock  clock.Clock
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for event timestamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens (creating if needed) the audit database at path. Use
// ":memory:" for a throwaway store.
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &Store{db: db, clock: clock.Real()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OpenDir opens FileName inside dir.
func OpenDir(dir string, opts ...Option) (*Store, error) {
	return Open(filepath.Join(dir, FileName), opts...)
}

// Record appends an event. Detail is redacted and truncated before storage.
func (s *Store) Record(ctx context.Context, sessionID string, typ EventType, detail string) (Event, error) {
	ev := Event{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Type:      typ,
		Detail:    util.TruncateRunes(Redact(detail), MaxDetailLength),
		CreatedAt: s.clock.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Event{}, ErrClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_events (id, session_id, event_type, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, string(ev.Type), ev.Detail, ev.CreatedAt.UnixNano())
	if err != nil {
		return Event{}, fmt.Errorf("failed to record %s: %w", typ, err)
	}
	return ev, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.query(ctx,
		`SELECT id, session_id, event_type, detail, created_at FROM session_events
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// BySession returns every event for one session, oldest first.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]Event, error) {
	return s.query(ctx,
		`SELECT id, session_id, event_type, detail, created_at FROM session_events
		 WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`, sessionID)
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev   Event
			typ  string
			nano int64
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &typ, &ev.Detail, &nano); err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		ev.Type = EventType(typ)
		ev.CreatedAt = time.Unix(0, nano).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

var redactors = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-_.]+`), "Bearer [TOKEN_REDACTED]"},
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), "[JWT_REDACTED]"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd|token)\s*[=:]\s*\S+`), "[SECRET_REDACTED]"},
}

// Redact masks credentials that may leak into error text.
func Redact(s string) string {
	for _, r := range redactors {
		s = r.pattern.ReplaceAllString(s, r.replace)
	}
	return s
}
