package storage

import (
	"context"
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
)

// MemoryStore is the in-memory Store backend. It is the default for replay
// evaluation, where durability across process restarts is irrelevant.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	events []event.StoredEvent
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) InsertEvents(_ context.Context, events []event.StoredEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		s.nextID++
		ev.ID = s.nextID
		s.events = append(s.events, ev)
	}
	return nil
}

func (s *MemoryStore) EventsBySession(_ context.Context, sessionID string) ([]event.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.StoredEvent
	for _, ev := range s.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *MemoryStore) EventsByExtractor(_ context.Context, sessionID, extractorType string) ([]event.StoredEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []event.StoredEvent
	for _, ev := range s.events {
		if ev.SessionID == sessionID && ev.ExtractorType == extractorType {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	for _, ev := range s.events {
		if ev.Timestamp >= cutoff {
			kept = append(kept, ev)
		}
	}
	s.events = kept
	return nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	for _, ev := range s.events {
		if ev.SessionID != sessionID {
			kept = append(kept, ev)
		}
	}
	s.events = kept
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// MemoryTabStore is the in-memory TabStore.
type MemoryTabStore struct {
	mu sync.Mutex
	kv map[string]string
}

func NewMemoryTabStore() *MemoryTabStore {
	return &MemoryTabStore{kv: make(map[string]string)}
}

func (t *MemoryTabStore) Get(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.kv[key]
	return v, ok
}

func (t *MemoryTabStore) Set(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.kv[key] = value
}

func (t *MemoryTabStore) Delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.kv, key)
}
