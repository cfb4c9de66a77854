package port

import (
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
)

// Bus is an in-process EventPort. Producers (live adapters, the replay
// engine) push events through Emit; handlers run synchronously in
// registration order, so dispatch order is preserved.
type Bus struct {
	mu       sync.RWMutex
	next     Subscription
	handlers map[event.Type][]busEntry
}

type busEntry struct {
	sub Subscription
	h   Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[event.Type][]busEntry)}
}

// On registers a handler for an event type.
func (b *Bus) On(t event.Type, h Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.handlers[t] = append(b.handlers[t], busEntry{sub: b.next, h: h})
	return b.next
}

// Off removes a previously registered handler. Unknown subscriptions are
// ignored.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, entries := range b.handlers {
		for i, e := range entries {
			if e.sub == sub {
				b.handlers[t] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Emit dispatches an event to every handler registered for its type.
func (b *Bus) Emit(ev event.Event) {
	b.mu.RLock()
	entries := make([]busEntry, len(b.handlers[ev.Type]))
	copy(entries, b.handlers[ev.Type])
	b.mu.RUnlock()

	for _, e := range entries {
		e.h(ev)
	}
}

// HandlerCount reports how many handlers are registered for a type.
func (b *Bus) HandlerCount(t event.Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[t])
}
