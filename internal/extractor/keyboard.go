package extractor

import (
	"context"
	"sort"
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
)

// TypeKeyboard tags the keyboard cadence extractor.
const TypeKeyboard = "keyboard"

const (
	// burstGapMs splits key-down sequences into typing bursts.
	burstGapMs = 3000
	// minKeyEvents is the minimum events before cadence is computable.
	minKeyEvents = 2
)

// Keyboard measures typing cadence regularity. Agents tend to emit key
// events with near-constant intervals, humans do not.
type Keyboard struct {
	listenGuard

	mu       sync.Mutex
	keyDowns []int64
}

func NewKeyboard() *Keyboard { return &Keyboard{} }

func (k *Keyboard) Type() string { return TypeKeyboard }

func (k *Keyboard) record(ts int64) {
	k.mu.Lock()
	k.keyDowns = append(k.keyDowns, ts)
	k.mu.Unlock()
}

func (k *Keyboard) ExtractFeatures(context.Context) (Features, bool, error) {
	k.mu.Lock()
	downs := make([]int64, len(k.keyDowns))
	copy(downs, k.keyDowns)
	k.mu.Unlock()

	f := k.DefaultFeatures()
	f["key_press_count"] = len(downs)
	if len(downs) < minKeyEvents {
		return f, false, nil
	}

	sort.Slice(downs, func(i, j int) bool { return downs[i] < downs[j] })

	var burstCVs []float64
	for _, burst := range splitBursts(downs) {
		if len(burst) < 3 {
			// Need at least two intervals for a variation coefficient.
			continue
		}
		intervals := make([]float64, 0, len(burst)-1)
		for i := 1; i < len(burst); i++ {
			intervals = append(intervals, float64(burst[i]-burst[i-1]))
		}
		m := mean(intervals)
		if m <= 0 {
			continue
		}
		burstCVs = append(burstCVs, populationStd(intervals)/m)
	}

	if len(burstCVs) == 0 {
		return f, false, nil
	}

	avgCV := mean(burstCVs)
	if avgCV > 1 {
		avgCV = 1
	}
	// Higher consistency means a more regular cadence.
	f["typing_consistency"] = 1 - avgCV
	return f, true, nil
}

// splitBursts segments sorted timestamps wherever the inter-event gap
// exceeds the burst threshold, discarding single-event bursts.
func splitBursts(sorted []int64) [][]int64 {
	var bursts [][]int64
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i]-sorted[i-1] > burstGapMs {
			if i-start > 1 {
				bursts = append(bursts, sorted[start:i])
			}
			start = i
		}
	}
	return bursts
}

func (k *Keyboard) DefaultFeatures() Features {
	return Features{
		"typing_consistency": -1,
		"key_press_count":    0,
	}
}

func (k *Keyboard) ProcessEvents(events []event.StoredEvent) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, ev := range events {
		if ev.Type != event.TypeKeyDown {
			continue
		}
		k.keyDowns = append(k.keyDowns, ev.Timestamp)
	}
}

func (k *Keyboard) EventHandlers() []EventHandler {
	return []EventHandler{
		{Type: event.TypeKeyDown, Handler: func(ev event.Event) {
			if !k.isListening() {
				return
			}
			k.record(ev.Timestamp)
		}},
	}
}
