package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/superline-ai/agent-detection/internal/event"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	type TEXT NOT NULL,
	ts INTEGER NOT NULL,
	payload TEXT NOT NULL,
	extractor_type TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
CREATE INDEX IF NOT EXISTS idx_events_session_extractor ON events(session_id, extractor_type);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
`

// SQLiteStore is the durable local Store backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) a SQLite event store.
// An empty path opens a private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertEvents(ctx context.Context, events []event.StoredEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (session_id, type, ts, payload, extractor_type) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode payload: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, ev.SessionID, string(ev.Type), ev.Timestamp, string(payload), ev.ExtractorType); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) EventsBySession(ctx context.Context, sessionID string) ([]event.StoredEvent, error) {
	return s.query(ctx,
		`SELECT id, session_id, type, ts, payload, extractor_type FROM events WHERE session_id = ? ORDER BY id`,
		sessionID)
}

func (s *SQLiteStore) EventsByExtractor(ctx context.Context, sessionID, extractorType string) ([]event.StoredEvent, error) {
	return s.query(ctx,
		`SELECT id, session_id, type, ts, payload, extractor_type FROM events WHERE session_id = ? AND extractor_type = ? ORDER BY id`,
		sessionID, extractorType)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]event.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []event.StoredEvent
	for rows.Next() {
		var ev event.StoredEvent
		var typ, payload string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &typ, &ev.Timestamp, &payload, &ev.ExtractorType); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = event.Type(typ)
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE ts < ?`, cutoff); err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session events: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
