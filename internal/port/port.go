// Package port declares the contracts through which the detection pipeline
// observes an environment: a one-shot metadata fetch and a typed event
// subscription surface. Live browser adapters and the replay engine both
// satisfy these contracts, so everything downstream is a shared consumer.
package port

import (
	"context"

	"github.com/superline-ai/agent-detection/internal/event"
)

// Handler receives one dispatched event.
type Handler func(ev event.Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription int64

// MetadataPort fetches the environment snapshot. One-shot; callers cache.
type MetadataPort interface {
	GetMetadata(ctx context.Context) (event.Metadata, error)
}

// EventPort is the typed subscribe/unsubscribe surface for interaction events.
type EventPort interface {
	On(t event.Type, h Handler) Subscription
	Off(sub Subscription)
}

// Environment composes the two ports with a start hook. For live
// environments Start is a no-op; for replay environments it pumps the
// recorded stream.
type Environment interface {
	Metadata() MetadataPort
	Events() EventPort
	Start(ctx context.Context) error
}
