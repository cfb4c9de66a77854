package extractor

import (
	"context"
	"testing"

	"github.com/superline-ai/agent-detection/internal/event"
)

func feedScrolls(s *Scroll, timestamps ...int64) {
	s.SetListening(true)
	h := s.EventHandlers()[0].Handler
	for _, ts := range timestamps {
		h(event.Event{Type: event.TypeScroll, Timestamp: ts})
	}
}

func TestScrollNoEvents(t *testing.T) {
	s := NewScroll()

	f, hasData, err := s.ExtractFeatures(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasData {
		t.Fatal("expected hasData=false without events")
	}
	if f["has_scrolled"] != false || f["active_scrolling"] != false {
		t.Fatalf("expected sentinel flags, got %v", f)
	}
}

func TestScrollActiveFlag(t *testing.T) {
	tests := []struct {
		name       string
		timestamps []int64
		active     bool
	}{
		{"tight run is active", []int64{0, 20, 40}, true},
		{"spaced events are not active", []int64{0, 100, 200}, false},
		{"single event is not active", []int64{0}, false},
		{"one tight pair inside spaced events", []int64{0, 200, 220, 500}, true},
		{"gap of exactly the threshold is not active", []int64{0, 50, 100}, false},
		{"unsorted input is sorted first", []int64{40, 0, 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScroll()
			feedScrolls(s, tt.timestamps...)

			f, hasData, _ := s.ExtractFeatures(context.Background())
			if !hasData {
				t.Fatal("expected hasData=true with events")
			}
			if f["has_scrolled"] != true {
				t.Fatal("expected has_scrolled=true")
			}
			if f["active_scrolling"] != tt.active {
				t.Fatalf("expected active_scrolling=%v, got %v", tt.active, f["active_scrolling"])
			}
		})
	}
}
