package extractor

import (
	"context"
	"testing"

	"github.com/superline-ai/agent-detection/internal/event"
)

func TestClickNoActivity(t *testing.T) {
	c := NewClick()

	f, hasData, err := c.ExtractFeatures(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasData {
		t.Fatal("expected hasData=false without activity")
	}
	if f["click_count"] != 0 || f["active_movement"] != false {
		t.Fatalf("expected sentinel features, got %v", f)
	}
}

func TestClickCountsAndActiveMovement(t *testing.T) {
	c := NewClick()
	c.SetListening(true)

	var clickH, moveH func(event.Event)
	for _, eh := range c.EventHandlers() {
		switch eh.Type {
		case event.TypeClick:
			clickH = eh.Handler
		case event.TypePointerMove:
			moveH = eh.Handler
		}
	}

	clickH(event.Event{Type: event.TypeClick, Timestamp: 10})
	clickH(event.Event{Type: event.TypeClick, Timestamp: 500})
	for _, ts := range []int64{0, 20, 40} {
		moveH(event.Event{Type: event.TypePointerMove, Timestamp: ts})
	}

	f, hasData, _ := c.ExtractFeatures(context.Background())
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	if f["click_count"] != 2 {
		t.Fatalf("expected 2 clicks, got %v", f["click_count"])
	}
	if f["pointer_activity_count"] != 3 {
		t.Fatalf("expected 3 moves, got %v", f["pointer_activity_count"])
	}
	if f["active_movement"] != true {
		t.Fatal("tight move run should flag active movement")
	}
}

func TestClickSparseMovementIsNotActive(t *testing.T) {
	c := NewClick()
	c.ProcessEvents([]event.StoredEvent{
		{Type: event.TypePointerMove, Timestamp: 0},
		{Type: event.TypePointerMove, Timestamp: 100},
		{Type: event.TypePointerMove, Timestamp: 200},
		{Type: event.TypeClick, Timestamp: 150},
	})

	f, hasData, _ := c.ExtractFeatures(context.Background())
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	if f["active_movement"] != false {
		t.Fatal("spaced moves must not flag active movement")
	}
	if f["click_count"] != 1 {
		t.Fatalf("expected 1 click from history, got %v", f["click_count"])
	}
}
