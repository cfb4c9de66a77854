package throttle

import (
	"testing"
	"time"

	"github.com/superline-ai/agent-detection/internal/clock"
	"github.com/superline-ai/agent-detection/internal/event"
)

func moveAt(ts int64) event.Event {
	return event.Event{Type: event.TypePointerMove, Timestamp: ts}
}

func TestWrapPassesThroughUnconfiguredTypes(t *testing.T) {
	sched := clock.NewManual(time.Unix(0, 0))
	th := New(map[event.Type]time.Duration{event.TypePointerMove: 50 * time.Millisecond}, sched)

	var got []int64
	h := th.Wrap(event.TypeClick, func(ev event.Event) { got = append(got, ev.Timestamp) })

	for _, ts := range []int64{0, 1, 2, 3} {
		h(event.Event{Type: event.TypeClick, Timestamp: ts})
	}
	if len(got) != 4 {
		t.Fatalf("expected all 4 events to pass through, got %d", len(got))
	}
}

func TestLeadingEdge(t *testing.T) {
	sched := clock.NewManual(time.Unix(0, 0))
	th := New(DefaultWindows(), sched)

	var got []int64
	h := th.Wrap(event.TypePointerMove, func(ev event.Event) { got = append(got, ev.Timestamp) })

	h(moveAt(0))
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("first event should process immediately, got %v", got)
	}

	h(moveAt(60))
	if len(got) != 2 || got[1] != 60 {
		t.Fatalf("event past the window should process immediately, got %v", got)
	}
}

func TestTrailingFlushEmitsLatestPending(t *testing.T) {
	// Events at t=0,10,20,60 with a 50ms window must produce exactly
	// three invocations: 0 (leading), 20 (trailing flush, replacing 10),
	// and 60.
	sched := clock.NewManual(time.Unix(0, 0))
	th := New(DefaultWindows(), sched)

	var got []int64
	h := th.Wrap(event.TypePointerMove, func(ev event.Event) { got = append(got, ev.Timestamp) })

	h(moveAt(0))
	h(moveAt(10))
	h(moveAt(20))

	// The superseded flush for t=10 is a no-op; the flush for t=20 fires.
	sched.Advance(50 * time.Millisecond)
	if len(got) != 2 || got[1] != 20 {
		t.Fatalf("expected trailing flush of latest pending (20), got %v", got)
	}

	h(moveAt(60))
	sched.Advance(50 * time.Millisecond)

	if len(got) != 3 {
		t.Fatalf("expected exactly 3 invocations, got %d (%v)", len(got), got)
	}
	if got[2] != 60 {
		t.Fatalf("expected final event 60, got %v", got)
	}
}

func TestLeadingEdgeClearsPending(t *testing.T) {
	// In instant (non-realtime) replay the trailing flush never fires
	// before the next leading edge arrives; the pending payload is
	// superseded and dropped.
	sched := clock.NewManual(time.Unix(0, 0))
	th := New(DefaultWindows(), sched)

	var got []int64
	h := th.Wrap(event.TypePointerMove, func(ev event.Event) { got = append(got, ev.Timestamp) })

	h(moveAt(0))
	h(moveAt(10))
	h(moveAt(60))
	sched.Advance(time.Second)

	if len(got) != 2 || got[0] != 0 || got[1] != 60 {
		t.Fatalf("expected [0 60], got %v", got)
	}
}

func TestZeroWindowPassesThrough(t *testing.T) {
	sched := clock.NewManual(time.Unix(0, 0))
	th := New(map[event.Type]time.Duration{event.TypeScroll: 0}, sched)

	count := 0
	h := th.Wrap(event.TypeScroll, func(event.Event) { count++ })
	h(event.Event{Type: event.TypeScroll, Timestamp: 0})
	h(event.Event{Type: event.TypeScroll, Timestamp: 1})
	if count != 2 {
		t.Fatalf("zero window should not throttle, got %d invocations", count)
	}
}
