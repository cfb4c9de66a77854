package extractor

import (
	"context"
	"math"
	"sync"

	"github.com/superline-ai/agent-detection/internal/event"
)

// TypePointerMotion tags the pointer motion extractor.
const TypePointerMotion = "pointer_motion"

const (
	// minMoveSamples is the minimum number of recorded moves before speed
	// statistics are meaningful.
	minMoveSamples = 5
	// idleGapMs is the consecutive-sample gap that counts as an idle period.
	idleGapMs = 2000
)

type pointerSample struct {
	x, y float64
	ts   int64
}

// PointerMotion accumulates pointer-move samples and derives speed and
// idle-gap statistics.
type PointerMotion struct {
	listenGuard

	mu      sync.Mutex
	samples []pointerSample
}

func NewPointerMotion() *PointerMotion { return &PointerMotion{} }

func (p *PointerMotion) Type() string { return TypePointerMotion }

func (p *PointerMotion) record(ev event.Event) {
	p.mu.Lock()
	p.samples = append(p.samples, pointerSample{x: ev.Payload.X, y: ev.Payload.Y, ts: ev.Timestamp})
	p.mu.Unlock()
}

func (p *PointerMotion) ExtractFeatures(context.Context) (Features, bool, error) {
	p.mu.Lock()
	samples := make([]pointerSample, len(p.samples))
	copy(samples, p.samples)
	p.mu.Unlock()

	f := p.DefaultFeatures()
	f["mouse_move_count"] = len(samples)
	if len(samples) < minMoveSamples {
		return f, false, nil
	}

	var speeds []float64
	idleCount := 0
	lastActive := samples[0].ts
	for i := 1; i < len(samples); i++ {
		dt := samples[i].ts - samples[i-1].ts
		if dt > 0 {
			dx := samples[i].x - samples[i-1].x
			dy := samples[i].y - samples[i-1].y
			speeds = append(speeds, math.Hypot(dx, dy)/float64(dt))
		}

		if samples[i].ts-lastActive > idleGapMs {
			idleCount++
		}
		// Movement advances the last-active mark.
		lastActive = samples[i].ts
	}

	f["avg_speed"] = mean(speeds)
	f["std_speed"] = populationStd(speeds)
	f["idle_count"] = idleCount
	return f, true, nil
}

func (p *PointerMotion) DefaultFeatures() Features {
	return Features{
		"avg_speed":        -1,
		"std_speed":        -1,
		"idle_count":       -1,
		"mouse_move_count": 0,
	}
}

func (p *PointerMotion) ProcessEvents(events []event.StoredEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range events {
		if ev.Type != event.TypePointerMove {
			continue
		}
		p.samples = append(p.samples, pointerSample{x: ev.Payload.X, y: ev.Payload.Y, ts: ev.Timestamp})
	}
}

func (p *PointerMotion) EventHandlers() []EventHandler {
	return []EventHandler{
		{Type: event.TypePointerMove, Handler: func(ev event.Event) {
			if !p.isListening() {
				return
			}
			p.record(ev)
		}},
	}
}
