// Package storage provides the durable, buffered per-session event log.
// A Storage fronts one of the pluggable Store backends with an in-memory
// buffer whose flush is triggered by size, a periodic timer, the page
// becoming hidden, or teardown.
package storage

import (
	"context"

	"github.com/superline-ai/agent-detection/internal/event"
)

// Store is a durable event store backend.
type Store interface {
	// InsertEvents persists a batch. IDs are assigned by the backend.
	InsertEvents(ctx context.Context, events []event.StoredEvent) error
	// EventsBySession returns every stored event for a session, in insert order.
	EventsBySession(ctx context.Context, sessionID string) ([]event.StoredEvent, error)
	// EventsByExtractor returns a session's events tagged for one extractor.
	EventsByExtractor(ctx context.Context, sessionID, extractorType string) ([]event.StoredEvent, error)
	// DeleteOlderThan removes events with a timestamp before cutoff (ms).
	DeleteOlderThan(ctx context.Context, cutoff int64) error
	// DeleteSession removes every event belonging to a session.
	DeleteSession(ctx context.Context, sessionID string) error
	Close() error
}

// TabStore is the short-lived per-tab key/value store that carries the
// session id across page loads. Live adapters back it with browser tab
// storage; tests and the replay harness use the in-memory implementation.
type TabStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}
