// Package extractor turns streams of interaction events (and the one-shot
// environment snapshot) into named feature sets. The five concrete
// extractors form a closed set behind one contract; each owns its
// accumulator state exclusively.
package extractor

import (
	"context"
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/port"
)

// Features maps feature names to number, boolean or string values. Absent
// or insufficient data is represented by sentinel values (-1, false,
// "unknown"), never by omission, so the downstream vector shape is stable.
type Features map[string]any

// Merge overlays other onto f and returns f.
func (f Features) Merge(other Features) Features {
	for k, v := range other {
		f[k] = v
	}
	return f
}

// EventHandler is one (event type, handler) pair an extractor wants wired
// by the manager.
type EventHandler struct {
	Type    event.Type
	Handler port.Handler
}

// Extractor is the capability contract shared by all feature extractors.
type Extractor interface {
	// Type is the extractor's tag, used to route stored events back to it.
	Type() string
	// ExtractFeatures produces the extractor's feature subset. hasData is
	// false when the accumulated signal was insufficient; the returned
	// features then carry the sentinel defaults.
	ExtractFeatures(ctx context.Context) (features Features, hasData bool, err error)
	// DefaultFeatures is the sentinel feature set.
	DefaultFeatures() Features
	// ProcessEvents hydrates internal state from persisted history.
	ProcessEvents(events []event.StoredEvent)
	// EventHandlers lists the handlers the manager should register.
	EventHandlers() []EventHandler
	// SetListening flips the guard that makes late callbacks from a torn
	// down pipeline no-ops.
	SetListening(listening bool)
}

// listenGuard is the embedded listening flag shared by the event-driven
// extractors.
type listenGuard struct {
	mu        sync.Mutex
	listening bool
}

func (g *listenGuard) SetListening(listening bool) {
	g.mu.Lock()
	g.listening = listening
	g.mu.Unlock()
}

func (g *listenGuard) isListening() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listening
}
