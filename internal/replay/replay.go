// Package replay re-dispatches a recorded event sequence through the live
// detection pipeline. It implements the same environment contract as live
// capture, so the manager, detector and extractors run unmodified.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/port"
)

// RecordedEvent is one event of a snapshot, in recorded order.
type RecordedEvent struct {
	Type      event.Type    `json:"type"`
	Timestamp int64         `json:"timestamp"`
	Data      event.Payload `json:"data"`
}

// Snapshot is a recorded session: the environment metadata plus the ordered
// event sequence. Label optionally carries the ground truth ("human" or
// "agent") for offline evaluation.
type Snapshot struct {
	Metadata event.Metadata  `json:"metadata"`
	Events   []RecordedEvent `json:"events"`
	Label    string          `json:"label,omitempty"`
}

// LoadSnapshot reads a snapshot from a JSON file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &s, nil
}

// Environment pumps a snapshot through an in-process event bus. With
// realTime set, Start waits out the recorded timestamp deltas between
// dispatches; otherwise it dispatches immediately, collapsing all delays
// for fast, deterministic evaluation.
type Environment struct {
	snapshot *Snapshot
	bus      *port.Bus
	realTime bool
}

// NewEnvironment creates a replay environment for a snapshot.
func NewEnvironment(snapshot *Snapshot, realTime bool) *Environment {
	return &Environment{
		snapshot: snapshot,
		bus:      port.NewBus(),
		realTime: realTime,
	}
}

// Metadata returns the snapshot-backed metadata port.
func (e *Environment) Metadata() port.MetadataPort { return e }

// GetMetadata serves the recorded environment snapshot.
func (e *Environment) GetMetadata(context.Context) (event.Metadata, error) {
	return e.snapshot.Metadata, nil
}

// Events returns the event port handlers subscribe on.
func (e *Environment) Events() port.EventPort { return e.bus }

// Start dispatches the recorded events in order. It returns when the
// sequence is exhausted or the context is canceled; a zero-event snapshot
// completes immediately.
func (e *Environment) Start(ctx context.Context) error {
	var last int64
	for i, rec := range e.snapshot.Events {
		if e.realTime && i > 0 {
			delta := rec.Timestamp - last
			if delta > 0 {
				select {
				case <-time.After(time.Duration(delta) * time.Millisecond):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		last = rec.Timestamp

		e.bus.Emit(event.Event{
			Type:      rec.Type,
			Timestamp: rec.Timestamp,
			Payload:   rec.Data,
		})
	}
	return nil
}
