package storage

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/superline-ai/agent-detection/internal/clock"
	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/metrics"
)

// sessionKey is the tab-store key carrying the session id across reloads.
const sessionKey = "agentdetect_session_id"

const finalFlushTimeout = 2 * time.Second

// Options configures a Storage.
type Options struct {
	Store         Store
	Tab           TabStore
	Scheduler     clock.Scheduler
	BufferSize    int           // size-triggered flush threshold; <=0 means 50
	FlushInterval time.Duration // periodic flush; <=0 disables the timer
	Metrics       *metrics.Metrics
	Debug         bool
}

// Storage buffers events ahead of the backend and owns session identity.
// Appends on the event path are fire-and-forget: a size-triggered flush runs
// in the background so handler dispatch is never blocked on the store.
type Storage struct {
	store   Store
	tab     TabStore
	sched   clock.Scheduler
	metrics *metrics.Metrics
	debug   bool

	bufferSize    int
	flushInterval time.Duration

	mu        sync.Mutex
	buffer    []event.StoredEvent
	sessionID string
	timer     clock.Timer
	closed    bool
}

// New creates a Storage, restoring the session id from the tab store when
// one is present and minting a fresh one otherwise.
func New(opts Options) *Storage {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Tab == nil {
		opts.Tab = NewMemoryTabStore()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = clock.Real{}
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 50
	}
	s := &Storage{
		store:         opts.Store,
		tab:           opts.Tab,
		sched:         opts.Scheduler,
		metrics:       opts.Metrics,
		debug:         opts.Debug,
		bufferSize:    opts.BufferSize,
		flushInterval: opts.FlushInterval,
	}
	s.restoreSession()
	if s.flushInterval > 0 {
		s.scheduleFlush()
	}
	return s
}

func (s *Storage) restoreSession() {
	if id, ok := s.tab.Get(sessionKey); ok && id != "" {
		s.sessionID = id
		if s.debug {
			log.Printf("storage: restored session %s", id)
		}
		return
	}
	s.sessionID = uuid.NewString()
	s.tab.Set(sessionKey, s.sessionID)
	if s.debug {
		log.Printf("storage: created session %s", s.sessionID)
	}
}

// SessionID returns the current session id.
func (s *Storage) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// SetSessionID overrides the current session id and persists it.
func (s *Storage) SetSessionID(id string) {
	s.mu.Lock()
	s.sessionID = id
	s.mu.Unlock()
	s.tab.Set(sessionKey, id)
}

// ClearSessionID drops the persisted session id; the next Storage will mint
// a fresh session.
func (s *Storage) ClearSessionID() {
	s.tab.Delete(sessionKey)
}

// Append buffers one event tagged for an extractor. When the buffer reaches
// the size threshold a flush starts in the background.
func (s *Storage) Append(ev event.Event, extractorType string) {
	s.AppendMany([]event.Event{ev}, extractorType)
}

// AppendMany buffers a batch of events sharing one extractor tag.
func (s *Storage) AppendMany(events []event.Event, extractorType string) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for _, ev := range events {
		s.buffer = append(s.buffer, event.StoredEvent{
			SessionID:     s.sessionID,
			Type:          ev.Type,
			Timestamp:     ev.Timestamp,
			Payload:       ev.Payload,
			ExtractorType: extractorType,
		})
	}
	depth := len(s.buffer)
	s.mu.Unlock()

	s.metrics.SetBufferDepth(depth)
	if depth >= s.bufferSize {
		go func() {
			if err := s.flush(context.Background(), "size"); err != nil {
				log.Printf("storage: size-triggered flush failed: %v", err)
			}
		}()
	}
}

// Flush forces the buffered events to the backend.
func (s *Storage) Flush(ctx context.Context) error {
	return s.flush(ctx, "forced")
}

// NotifyHidden flushes synchronously when the page loses visibility.
func (s *Storage) NotifyHidden(ctx context.Context) {
	if err := s.flush(ctx, "hidden"); err != nil {
		log.Printf("storage: hidden flush failed: %v", err)
	}
}

// FinalFlush is the best-effort, non-cancelable teardown flush. It may race
// the process exiting; a failure is logged, never returned.
func (s *Storage) FinalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	if err := s.flush(ctx, "final"); err != nil {
		log.Printf("storage: final flush failed: %v", err)
	}
}

func (s *Storage) flush(ctx context.Context, trigger string) error {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := s.buffer
	s.buffer = nil
	s.mu.Unlock()

	start := s.sched.Now()
	err := s.store.InsertEvents(ctx, batch)
	s.metrics.ObserveFlushLatency(s.sched.Now().Sub(start))
	if err != nil {
		// Re-queue only the failed batch, ahead of anything appended since.
		s.mu.Lock()
		s.buffer = append(batch, s.buffer...)
		depth := len(s.buffer)
		s.mu.Unlock()
		s.metrics.SetBufferDepth(depth)
		s.metrics.IncStorageError("insert")
		return err
	}

	s.mu.Lock()
	depth := len(s.buffer)
	s.mu.Unlock()
	s.metrics.SetBufferDepth(depth)
	s.metrics.IncStorageFlush(trigger)
	if s.debug {
		log.Printf("storage: flushed %d events (%s)", len(batch), trigger)
	}
	return nil
}

func (s *Storage) scheduleFlush() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = s.sched.AfterFunc(s.flushInterval, func() {
		if err := s.flush(context.Background(), "interval"); err != nil {
			log.Printf("storage: interval flush failed: %v", err)
		}
		s.scheduleFlush()
	})
	s.mu.Unlock()
}

// EventsForExtractor returns the session's persisted events tagged for one
// extractor. The buffer is flushed first so the view is complete.
func (s *Storage) EventsForExtractor(ctx context.Context, extractorType string) ([]event.StoredEvent, error) {
	if err := s.flush(ctx, "forced"); err != nil {
		return nil, err
	}
	return s.store.EventsByExtractor(ctx, s.SessionID(), extractorType)
}

// AllEvents returns every persisted event of the current session.
func (s *Storage) AllEvents(ctx context.Context) ([]event.StoredEvent, error) {
	if err := s.flush(ctx, "forced"); err != nil {
		return nil, err
	}
	return s.store.EventsBySession(ctx, s.SessionID())
}

// PruneOlderThan deletes events whose timestamp is older than maxAge.
func (s *Storage) PruneOlderThan(ctx context.Context, maxAge time.Duration) error {
	cutoff := s.sched.Now().Add(-maxAge).UnixMilli()
	return s.store.DeleteOlderThan(ctx, cutoff)
}

// ClearEvents drops buffered and persisted events of the current session.
func (s *Storage) ClearEvents(ctx context.Context) error {
	s.mu.Lock()
	s.buffer = nil
	s.mu.Unlock()
	s.metrics.SetBufferDepth(0)
	return s.store.DeleteSession(ctx, s.SessionID())
}

// Close stops the flush timer, performs the final flush and releases the
// backend.
func (s *Storage) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timer := s.timer
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	s.FinalFlush()
	return s.store.Close()
}
