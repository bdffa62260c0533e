// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit keeps a durable trail of session lifecycle events in SQLite.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Session event types.
const (
	EventStarted  = "SESSION_STARTED"
	EventWarning  = "SESSION_WARNING"
	EventExtended = "SESSION_EXTENDED"
	EventExpired  = "SESSION_EXPIRED"
	EventEnded    = "SESSION_ENDED"
)

// Schema creates the event table.
const Schema = `
CREATE TABLE IF NOT EXISTS session_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	occurred_at INTEGER NOT NULL,
	session_id  TEXT    NOT NULL,
	user_name   TEXT    NOT NULL DEFAULT '',
	event_type  TEXT    NOT NULL,
	metadata    TEXT    NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
`

// Event is one audited session event.
type Event struct {
	ID         int64
	OccurredAt time.Time
	SessionID  string
	User       string
	Type       string
	Metadata   map[string]string
}

// Recorder is the write side of the trail.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Store is a SQLite-backed audit trail.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.alphastream/audit.db.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".alphastream", "audit.db"), nil
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends ev to the trail. A zero OccurredAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if ev.Type == "" {
		return errors.New("audit event type is required")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	meta := ev.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_events (occurred_at, session_id, user_name, event_type, metadata)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.OccurredAt.UnixNano(), ev.SessionID, ev.User, ev.Type, string(metaJSON))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, occurred_at, session_id, user_name, event_type, metadata
		 FROM session_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev       Event
			nanos    int64
			metaJSON string
		)
		if err := rows.Scan(&ev.ID, &nanos, &ev.SessionID, &ev.User, &ev.Type, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.OccurredAt = time.Unix(0, nanos)
		if err := json.Unmarshal([]byte(metaJSON), &ev.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
