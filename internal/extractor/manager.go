package extractor

import (
	"context"
	"log"

	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/metrics"
	"github.com/superline-ai/agent-detection/internal/port"
	"github.com/superline-ai/agent-detection/internal/storage"
	"github.com/superline-ai/agent-detection/internal/throttle"
)

// DefaultSet builds the standard closed set of extractors.
func DefaultSet(meta port.MetadataPort) []Extractor {
	return []Extractor{
		NewMetadata(meta),
		NewPointerMotion(),
		NewKeyboard(),
		NewScroll(),
		NewClick(),
	}
}

// Manager owns the extractor lifecycle: it hydrates extractors from stored
// history on resume, registers their throttled and storing event handlers,
// and tears everything down again.
type Manager struct {
	extractors []Extractor
	events     port.EventPort
	storage    *storage.Storage
	throttle   *throttle.Throttle
	metrics    *metrics.Metrics
	debug      bool

	listening bool
	subs      []port.Subscription
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Extractors []Extractor
	Events     port.EventPort
	Storage    *storage.Storage
	Throttle   *throttle.Throttle
	Metrics    *metrics.Metrics
	Debug      bool
}

// NewManager creates a Manager. A nil Throttle passes events through
// unthrottled.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Throttle == nil {
		opts.Throttle = throttle.New(nil, nil)
	}
	return &Manager{
		extractors: opts.Extractors,
		events:     opts.Events,
		storage:    opts.Storage,
		throttle:   opts.Throttle,
		metrics:    opts.Metrics,
		debug:      opts.Debug,
	}
}

// Extractors returns the managed set.
func (m *Manager) Extractors() []Extractor { return m.extractors }

// StartListening hydrates each extractor from its persisted events and
// registers its handlers. Idempotent.
func (m *Manager) StartListening(ctx context.Context) error {
	if m.listening {
		return nil
	}

	// Resume extractor state from the session's stored history before any
	// live event is dispatched.
	for _, ex := range m.extractors {
		stored, err := m.storage.EventsForExtractor(ctx, ex.Type())
		if err != nil {
			log.Printf("manager: loading stored events for %s: %v", ex.Type(), err)
			continue
		}
		if len(stored) > 0 {
			ex.ProcessEvents(stored)
			if m.debug {
				log.Printf("manager: replayed %d stored events into %s", len(stored), ex.Type())
			}
		}
	}

	for _, ex := range m.extractors {
		tag := ex.Type()
		for _, eh := range ex.EventHandlers() {
			sub := m.events.On(eh.Type, m.wrap(eh.Type, tag, eh.Handler))
			m.subs = append(m.subs, sub)
		}
		ex.SetListening(true)
	}

	// Losing visibility is the last reliable moment to persist the buffer.
	sub := m.events.On(event.TypeVisibility, func(ev event.Event) {
		if ev.Payload.Visibility == "hidden" {
			m.storage.NotifyHidden(context.Background())
		}
	})
	m.subs = append(m.subs, sub)

	m.listening = true
	return nil
}

// wrap throttles the extractor handler and appends the raw payload to
// storage after the extractor has seen it. The append is fire-and-forget;
// event processing never waits on persistence.
func (m *Manager) wrap(typ event.Type, tag string, h port.Handler) port.Handler {
	throttled := m.throttle.Wrap(typ, func(ev event.Event) {
		h(ev)
		m.storage.Append(ev, tag)
		m.metrics.IncEventsDispatched(string(typ))
	})
	if m.metrics == nil {
		return throttled
	}
	return func(ev event.Event) {
		m.metrics.IncEventsReceived(string(typ))
		throttled(ev)
	}
}

// StopListening unregisters every handler and flips the extractors'
// listening flags off. Idempotent.
func (m *Manager) StopListening() {
	if !m.listening {
		return
	}
	for _, sub := range m.subs {
		m.events.Off(sub)
	}
	m.subs = nil
	for _, ex := range m.extractors {
		ex.SetListening(false)
	}
	m.listening = false
}

// Listening reports whether handlers are currently registered.
func (m *Manager) Listening() bool { return m.listening }
