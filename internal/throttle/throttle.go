// Package throttle rate-limits high-frequency interaction events using the
// timestamps the events carry, not wall-clock arrival time. The first event
// of a gap passes immediately (leading edge); later events inside the window
// collapse into a single trailing flush.
package throttle

import (
	"sync"
	"time"

	"github.com/superline-ai/agent-detection/internal/clock"
	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/port"
)

// DefaultWindows are the stock per-type throttle windows.
func DefaultWindows() map[event.Type]time.Duration {
	return map[event.Type]time.Duration{
		event.TypePointerMove: 50 * time.Millisecond,
		event.TypeScroll:      100 * time.Millisecond,
		event.TypeKeyDown:     50 * time.Millisecond,
		event.TypeKeyUp:       50 * time.Millisecond,
	}
}

// Throttle builds throttled handlers. Event types without a configured
// window pass through unmodified.
type Throttle struct {
	windows map[event.Type]time.Duration
	sched   clock.Scheduler
}

// New creates a Throttle with the given windows. A nil map means no
// throttling at all.
func New(windows map[event.Type]time.Duration, sched clock.Scheduler) *Throttle {
	if sched == nil {
		sched = clock.Real{}
	}
	return &Throttle{windows: windows, sched: sched}
}

// Wrap returns a handler that applies the type's window before invoking h.
func (t *Throttle) Wrap(typ event.Type, h port.Handler) port.Handler {
	window, ok := t.windows[typ]
	if !ok || window <= 0 {
		return h
	}
	s := &state{window: window, sched: t.sched, emit: h}
	return s.arrive
}

// state is the per-wrapped-handler limiter. lastProcessed tracks the
// timestamp of the last event handed to the downstream handler; at most one
// pending payload waits for the trailing flush.
type state struct {
	mu sync.Mutex

	window time.Duration
	sched  clock.Scheduler
	emit   port.Handler

	processedAny  bool
	lastProcessed int64

	pending    *event.Event
	pendingSeq uint64
}

func (s *state) arrive(ev event.Event) {
	s.mu.Lock()

	windowMs := s.window.Milliseconds()
	elapsed := ev.Timestamp - s.lastProcessed

	if !s.processedAny || elapsed >= windowMs {
		// Leading edge. Any stashed payload is superseded.
		s.processedAny = true
		s.lastProcessed = ev.Timestamp
		s.pending = nil
		s.pendingSeq++
		s.mu.Unlock()
		s.emit(ev)
		return
	}

	// Inside the window: stash and schedule the trailing flush. A newer
	// arrival bumps the sequence so the superseded flush is a no-op.
	stashed := ev
	s.pending = &stashed
	s.pendingSeq++
	seq := s.pendingSeq
	delay := s.window - time.Duration(elapsed)*time.Millisecond
	s.mu.Unlock()

	s.sched.AfterFunc(delay, func() { s.flush(seq) })
}

func (s *state) flush(seq uint64) {
	s.mu.Lock()
	if seq != s.pendingSeq || s.pending == nil {
		s.mu.Unlock()
		return
	}
	ev := *s.pending
	s.pending = nil
	s.processedAny = true
	s.lastProcessed = ev.Timestamp
	s.mu.Unlock()
	s.emit(ev)
}
