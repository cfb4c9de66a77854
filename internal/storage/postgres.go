package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/superline-ai/agent-detection/internal/event"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	type TEXT NOT NULL,
	ts BIGINT NOT NULL,
	payload JSONB NOT NULL,
	extractor_type TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
CREATE INDEX IF NOT EXISTS idx_events_session_extractor ON events(session_id, extractor_type);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
`

// PostgresStore is the Store backend for server-side evaluation deployments
// where many labeled sessions are persisted centrally.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to Postgres and ensures the schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres store: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing connection; used by tests.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertEvents(ctx context.Context, events []event.StoredEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (session_id, type, ts, payload, extractor_type) VALUES ($1, $2, $3, $4, $5)`)
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
		if _, err := stmt.ExecContext(ctx, ev.SessionID, string(ev.Type), ev.Timestamp, payload, ev.ExtractorType); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) EventsBySession(ctx context.Context, sessionID string) ([]event.StoredEvent, error) {
	return s.query(ctx,
		`SELECT id, session_id, type, ts, payload, extractor_type FROM events WHERE session_id = $1 ORDER BY id`,
		sessionID)
}

func (s *PostgresStore) EventsByExtractor(ctx context.Context, sessionID, extractorType string) ([]event.StoredEvent, error) {
	return s.query(ctx,
		`SELECT id, session_id, type, ts, payload, extractor_type FROM events WHERE session_id = $1 AND extractor_type = $2 ORDER BY id`,
		sessionID, extractorType)
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]event.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []event.StoredEvent
	for rows.Next() {
		var ev event.StoredEvent
		var typ string
		var payload []byte
		if err := rows.Scan(&ev.ID, &ev.SessionID, &typ, &ev.Timestamp, &payload, &ev.ExtractorType); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = event.Type(typ)
		if err := json.Unmarshal(payload, &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE ts < $1`, cutoff); err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session events: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
