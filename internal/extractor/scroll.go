package extractor

import (
	"context"
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
)

// TypeScroll tags the scroll activity extractor.
const TypeScroll = "scroll"

// activeRunGapMs is the maximum gap between consecutive events inside an
// "active" run, shared by the scroll and click extractors.
const activeRunGapMs = 50

// Scroll flags whether any scrolling happened and whether it was active
// (a tight run of events rather than isolated ones).
type Scroll struct {
	listenGuard

	mu         sync.Mutex
	timestamps []int64
}

func NewScroll() *Scroll { return &Scroll{} }

func (s *Scroll) Type() string { return TypeScroll }

func (s *Scroll) record(ts int64) {
	s.mu.Lock()
	s.timestamps = append(s.timestamps, ts)
	s.mu.Unlock()
}

func (s *Scroll) ExtractFeatures(context.Context) (Features, bool, error) {
	s.mu.Lock()
	timestamps := make([]int64, len(s.timestamps))
	copy(timestamps, s.timestamps)
	s.mu.Unlock()

	f := s.DefaultFeatures()
	f["scroll_count"] = len(timestamps)
	if len(timestamps) == 0 {
		return f, false, nil
	}
	f["has_scrolled"] = true
	f["active_scrolling"] = hasActiveRun(timestamps, activeRunGapMs)
	return f, true, nil
}

func (s *Scroll) DefaultFeatures() Features {
	return Features{
		"has_scrolled":     false,
		"active_scrolling": false,
		"scroll_count":     0,
	}
}

func (s *Scroll) ProcessEvents(events []event.StoredEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if ev.Type != event.TypeScroll {
			continue
		}
		s.timestamps = append(s.timestamps, ev.Timestamp)
	}
}

func (s *Scroll) EventHandlers() []EventHandler {
	return []EventHandler{
		{Type: event.TypeScroll, Handler: func(ev event.Event) {
			if !s.isListening() {
				return
			}
			s.record(ev.Timestamp)
		}},
	}
}
