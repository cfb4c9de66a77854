package extractor

import (
	"context"
	"testing"

	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/port"
	"github.com/superline-ai/agent-detection/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *port.Bus, *storage.Storage, *PointerMotion) {
	t.Helper()
	bus := port.NewBus()
	st := storage.New(storage.Options{Store: storage.NewMemoryStore()})
	p := NewPointerMotion()
	m := NewManager(ManagerOptions{
		Extractors: []Extractor{p},
		Events:     bus,
		Storage:    st,
	})
	return m, bus, st, p
}

func TestManagerWiresHandlersAndStoresEvents(t *testing.T) {
	ctx := context.Background()
	m, bus, st, p := newTestManager(t)

	if err := m.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if bus.HandlerCount(event.TypePointerMove) != 1 {
		t.Fatalf("expected 1 registered handler, got %d", bus.HandlerCount(event.TypePointerMove))
	}

	bus.Emit(event.Event{Type: event.TypePointerMove, Timestamp: 100, Payload: event.Payload{X: 1}})

	f, _, _ := p.ExtractFeatures(ctx)
	if f["mouse_move_count"] != 1 {
		t.Fatalf("extractor should see the event, got %v", f["mouse_move_count"])
	}

	stored, err := st.EventsForExtractor(ctx, TypePointerMotion)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(stored) != 1 || stored[0].ExtractorType != TypePointerMotion {
		t.Fatalf("expected 1 stored event tagged for the extractor, got %+v", stored)
	}
}

func TestManagerStartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, bus, _, _ := newTestManager(t)

	if err := m.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.StartListening(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if bus.HandlerCount(event.TypePointerMove) != 1 {
		t.Fatalf("second start must not register again, got %d handlers", bus.HandlerCount(event.TypePointerMove))
	}
}

func TestManagerStopUnregistersEverything(t *testing.T) {
	ctx := context.Background()
	m, bus, _, p := newTestManager(t)

	if err := m.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.StopListening()
	m.StopListening() // idempotent

	if bus.HandlerCount(event.TypePointerMove) != 0 {
		t.Fatalf("expected no handlers after stop, got %d", bus.HandlerCount(event.TypePointerMove))
	}

	bus.Emit(event.Event{Type: event.TypePointerMove, Timestamp: 1})
	f, _, _ := p.ExtractFeatures(ctx)
	if f["mouse_move_count"] != 0 {
		t.Fatal("events after stop must not reach the extractor")
	}
}

func TestManagerHydratesExtractorsOnStart(t *testing.T) {
	ctx := context.Background()
	bus := port.NewBus()
	store := storage.NewMemoryStore()

	// A previous page load persisted pointer events for this session.
	first := storage.New(storage.Options{Store: store})
	for _, ts := range []int64{0, 10, 20} {
		first.Append(event.Event{Type: event.TypePointerMove, Timestamp: ts}, TypePointerMotion)
	}
	if err := first.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	// Same session resumes: the tab store still carries the session id.
	p := NewPointerMotion()
	m := NewManager(ManagerOptions{
		Extractors: []Extractor{p},
		Events:     bus,
		Storage:    first,
	})
	if err := m.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	f, _, _ := p.ExtractFeatures(ctx)
	if f["mouse_move_count"] != 3 {
		t.Fatalf("expected 3 hydrated events, got %v", f["mouse_move_count"])
	}
}

func TestManagerFlushesOnHiddenVisibility(t *testing.T) {
	ctx := context.Background()
	bus := port.NewBus()
	store := storage.NewMemoryStore()
	st := storage.New(storage.Options{Store: store})
	p := NewPointerMotion()
	m := NewManager(ManagerOptions{
		Extractors: []Extractor{p},
		Events:     bus,
		Storage:    st,
	})
	if err := m.StartListening(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	bus.Emit(event.Event{Type: event.TypePointerMove, Timestamp: 10, Payload: event.Payload{X: 1}})

	// A non-hidden visibility change must not force a flush.
	bus.Emit(event.Event{Type: event.TypeVisibility, Timestamp: 20, Payload: event.Payload{Visibility: "visible"}})
	if got, _ := store.EventsBySession(ctx, st.SessionID()); len(got) != 0 {
		t.Fatalf("buffer flushed on visible, %d events persisted", len(got))
	}

	bus.Emit(event.Event{Type: event.TypeVisibility, Timestamp: 30, Payload: event.Payload{Visibility: "hidden"}})
	got, err := store.EventsBySession(ctx, st.SessionID())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the buffered event persisted on hidden, got %d", len(got))
	}
}
