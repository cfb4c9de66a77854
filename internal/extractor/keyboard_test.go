package extractor

import (
	"context"
	"math"
	"testing"

	"github.com/superline-ai/agent-detection/internal/event"
)

func feedKeys(k *Keyboard, timestamps ...int64) {
	k.SetListening(true)
	h := k.EventHandlers()[0].Handler
	for _, ts := range timestamps {
		h(event.Event{Type: event.TypeKeyDown, Timestamp: ts, Payload: event.Payload{Key: "a"}})
	}
}

func TestKeyboardSentinelBelowTwoEvents(t *testing.T) {
	for _, timestamps := range [][]int64{nil, {100}} {
		k := NewKeyboard()
		feedKeys(k, timestamps...)

		f, hasData, err := k.ExtractFeatures(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hasData {
			t.Fatalf("expected hasData=false for %d events", len(timestamps))
		}
		if f["typing_consistency"] != -1 {
			t.Fatalf("expected sentinel -1, got %v", f["typing_consistency"])
		}
		if f["key_press_count"] != len(timestamps) {
			t.Fatalf("key_press_count must reflect true count, got %v", f["key_press_count"])
		}
	}
}

func TestKeyboardPerfectlyRegularCadence(t *testing.T) {
	k := NewKeyboard()
	feedKeys(k, 0, 100, 200, 300, 400)

	f, hasData, _ := k.ExtractFeatures(context.Background())
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	c := f["typing_consistency"].(float64)
	if math.Abs(c-1) > 1e-9 {
		t.Fatalf("constant intervals should score consistency 1, got %v", c)
	}
}

func TestKeyboardConsistencyStaysInUnitRange(t *testing.T) {
	// Wildly irregular intervals push the CV past 1; the score clamps.
	k := NewKeyboard()
	feedKeys(k, 0, 1, 2, 2900, 2901)

	f, hasData, _ := k.ExtractFeatures(context.Background())
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	c := f["typing_consistency"].(float64)
	if c < 0 || c > 1 {
		t.Fatalf("consistency must be within [0,1], got %v", c)
	}
}

func TestKeyboardSplitsBurstsAtLargeGaps(t *testing.T) {
	// Two regular bursts separated by a 5s pause; the lone trailing event
	// forms a length-1 burst and is discarded.
	k := NewKeyboard()
	feedKeys(k, 0, 100, 200, 5300, 5400, 5500, 20000)

	f, hasData, _ := k.ExtractFeatures(context.Background())
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	c := f["typing_consistency"].(float64)
	if math.Abs(c-1) > 1e-9 {
		t.Fatalf("both bursts are perfectly regular, expected 1, got %v", c)
	}
}

func TestKeyboardNoValidBursts(t *testing.T) {
	// Every gap exceeds the burst threshold: only length-1 bursts exist.
	k := NewKeyboard()
	feedKeys(k, 0, 4000, 8000, 12000)

	f, hasData, _ := k.ExtractFeatures(context.Background())
	if hasData {
		t.Fatal("expected hasData=false with no valid bursts")
	}
	if f["typing_consistency"] != -1 {
		t.Fatalf("expected sentinel -1, got %v", f["typing_consistency"])
	}
}

func TestKeyboardSortsUnorderedHistory(t *testing.T) {
	k := NewKeyboard()
	k.ProcessEvents([]event.StoredEvent{
		{Type: event.TypeKeyDown, Timestamp: 200},
		{Type: event.TypeKeyDown, Timestamp: 0},
		{Type: event.TypeKeyUp, Timestamp: 50}, // ignored
		{Type: event.TypeKeyDown, Timestamp: 100},
	})

	f, hasData, _ := k.ExtractFeatures(context.Background())
	if !hasData {
		t.Fatal("expected hasData=true")
	}
	if f["key_press_count"] != 3 {
		t.Fatalf("expected 3 key-down events, got %v", f["key_press_count"])
	}
	c := f["typing_consistency"].(float64)
	if math.Abs(c-1) > 1e-9 {
		t.Fatalf("sorted intervals are regular, expected 1, got %v", c)
	}
}
