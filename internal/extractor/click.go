package extractor

import (
	"context"
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
)

// TypeClick tags the click/pointer activity extractor.
const TypeClick = "click"

// Click tracks click and pointer-move volume and flags active movement
// using the same tight-run rule as the scroll extractor.
type Click struct {
	listenGuard

	mu     sync.Mutex
	clicks []int64
	moves  []int64
}

func NewClick() *Click { return &Click{} }

func (c *Click) Type() string { return TypeClick }

func (c *Click) ExtractFeatures(context.Context) (Features, bool, error) {
	c.mu.Lock()
	clicks := len(c.clicks)
	moves := make([]int64, len(c.moves))
	copy(moves, c.moves)
	c.mu.Unlock()

	f := c.DefaultFeatures()
	f["click_count"] = clicks
	f["pointer_activity_count"] = len(moves)
	if clicks == 0 && len(moves) == 0 {
		return f, false, nil
	}
	f["active_movement"] = hasActiveRun(moves, activeRunGapMs)
	return f, true, nil
}

func (c *Click) DefaultFeatures() Features {
	return Features{
		"click_count":            0,
		"pointer_activity_count": 0,
		"active_movement":        false,
	}
}

func (c *Click) ProcessEvents(events []event.StoredEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range events {
		switch ev.Type {
		case event.TypeClick:
			c.clicks = append(c.clicks, ev.Timestamp)
		case event.TypePointerMove:
			c.moves = append(c.moves, ev.Timestamp)
		}
	}
}

func (c *Click) EventHandlers() []EventHandler {
	return []EventHandler{
		{Type: event.TypeClick, Handler: func(ev event.Event) {
			if !c.isListening() {
				return
			}
			c.mu.Lock()
			c.clicks = append(c.clicks, ev.Timestamp)
			c.mu.Unlock()
		}},
		{Type: event.TypePointerMove, Handler: func(ev event.Event) {
			if !c.isListening() {
				return
			}
			c.mu.Lock()
			c.moves = append(c.moves, ev.Timestamp)
			c.mu.Unlock()
		}},
	}
}
