// Package detector orchestrates detection cycles over the extractor set and
// owns the lifecycle state machine.
package detector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/superline-ai/agent-detection/internal/clock"
	"github.com/superline-ai/agent-detection/internal/event"
	"github.com/superline-ai/agent-detection/internal/extractor"
	"github.com/superline-ai/agent-detection/internal/metrics"
	"github.com/superline-ai/agent-detection/internal/model"
	"github.com/superline-ai/agent-detection/internal/port"
	"github.com/superline-ai/agent-detection/internal/storage"
	"github.com/superline-ai/agent-detection/internal/throttle"
)

// ErrNotInitialized is returned by any detection call before Init.
var ErrNotInitialized = errors.New("detector not initialized")

// State is the detector lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateIdle
	StateActive
	StateFinalizing
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Result is one detection verdict. Produced fresh each cycle, never
// persisted by the core.
type Result struct {
	IsAgent  bool               `json:"is_agent"`
	Score    float64            `json:"score"`
	Features extractor.Features `json:"features"`
}

// Options wires the detector's infrastructure.
type Options struct {
	Environment     port.Environment
	Storage         *storage.Storage // nil means an in-memory storage
	Model           model.Source
	Scheduler       clock.Scheduler
	Metrics         *metrics.Metrics
	ThrottleWindows map[event.Type]time.Duration // nil means the defaults
}

// Config is the per-session lifecycle configuration passed to Init.
type Config struct {
	OnDetection func(Result)
	Debug       bool
	Extractors  []extractor.Extractor // override; nil means the default set
	AutoStart   bool
}

// Detector classifies a session as human- or agent-driven.
type Detector struct {
	mu sync.Mutex

	env     port.Environment
	storage *storage.Storage
	source  model.Source
	sched   clock.Scheduler
	metrics *metrics.Metrics

	windows map[event.Type]time.Duration

	state       State
	debug       bool
	onDetection func(Result)
	manager     *extractor.Manager
}

// New creates an uninitialized Detector.
func New(opts Options) *Detector {
	if opts.Scheduler == nil {
		opts.Scheduler = clock.Real{}
	}
	if opts.Storage == nil {
		opts.Storage = storage.New(storage.Options{Scheduler: opts.Scheduler, Metrics: opts.Metrics})
	}
	windows := opts.ThrottleWindows
	if windows == nil {
		windows = throttle.DefaultWindows()
	}
	return &Detector{
		env:     opts.Environment,
		storage: opts.Storage,
		source:  opts.Model,
		sched:   opts.Scheduler,
		metrics: opts.Metrics,
		windows: windows,
		state:   StateUninitialized,
	}
}

// Init loads the model parameters, restores or creates the session,
// instantiates the extractor set and, when configured, starts detection.
// Returns the detector for chaining.
func (d *Detector) Init(ctx context.Context, cfg Config) (*Detector, error) {
	d.mu.Lock()
	if d.state != StateUninitialized {
		d.mu.Unlock()
		return d, fmt.Errorf("detector already initialized (state %s)", d.state)
	}
	if d.source == nil {
		d.mu.Unlock()
		return d, model.ErrNoModel
	}
	if _, err := d.source.Parameters(); err != nil {
		d.mu.Unlock()
		return d, fmt.Errorf("loading model parameters: %w", err)
	}

	extractors := cfg.Extractors
	if extractors == nil {
		extractors = extractor.DefaultSet(d.env.Metadata())
	}
	d.manager = extractor.NewManager(extractor.ManagerOptions{
		Extractors: extractors,
		Events:     d.env.Events(),
		Storage:    d.storage,
		Throttle:   throttle.New(d.windows, d.sched),
		Metrics:    d.metrics,
		Debug:      cfg.Debug,
	})
	d.debug = cfg.Debug
	d.onDetection = cfg.OnDetection
	d.state = StateIdle
	if d.debug {
		log.Printf("detector: initialized, session %s", d.storage.SessionID())
	}
	d.mu.Unlock()

	if cfg.AutoStart {
		if err := d.StartDetection(ctx); err != nil {
			return d, err
		}
	}
	return d, nil
}

// State reports the current lifecycle state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SessionID exposes the session the detector observes.
func (d *Detector) SessionID() string { return d.storage.SessionID() }

// StartDetection arms event listening. A no-op when already active.
func (d *Detector) StartDetection(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case StateUninitialized:
		return ErrNotInitialized
	case StateActive:
		return nil
	}
	if err := d.manager.StartListening(ctx); err != nil {
		return fmt.Errorf("starting listeners: %w", err)
	}
	d.state = StateActive
	if d.debug {
		log.Printf("detector: active")
	}
	return nil
}

// CurrentResult runs one detection cycle without changing state.
func (d *Detector) CurrentResult(ctx context.Context) (Result, error) {
	return d.runCycle(ctx)
}

// FinalizeDetection runs one last cycle and tears listening down. A
// re-entrant call while finalizing (or after finalization) re-runs a cycle
// and returns without tearing down a second time.
func (d *Detector) FinalizeDetection(ctx context.Context) (Result, error) {
	d.mu.Lock()
	switch d.state {
	case StateUninitialized:
		d.mu.Unlock()
		return Result{}, ErrNotInitialized
	case StateFinalizing, StateFinalized:
		d.mu.Unlock()
		return d.runCycle(ctx)
	}
	d.state = StateFinalizing
	d.mu.Unlock()

	res, err := d.runCycle(ctx)

	d.mu.Lock()
	d.manager.StopListening()
	d.state = StateFinalized
	d.mu.Unlock()
	d.storage.FinalFlush()
	if d.debug {
		log.Printf("detector: finalized")
	}
	return res, err
}

// Cleanup tears down listening if active and clears the session's stored
// events. Model parameters are kept.
func (d *Detector) Cleanup(ctx context.Context) {
	d.mu.Lock()
	if d.state == StateUninitialized {
		d.mu.Unlock()
		return
	}
	d.manager.StopListening()
	d.state = StateIdle
	d.mu.Unlock()

	if err := d.storage.ClearEvents(ctx); err != nil {
		log.Printf("detector: clearing session events: %v", err)
	}
}

// CleanupOldEvents prunes stored events older than maxAge.
func (d *Detector) CleanupOldEvents(ctx context.Context, maxAge time.Duration) error {
	d.mu.Lock()
	if d.state == StateUninitialized {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	d.mu.Unlock()
	return d.storage.PruneOlderThan(ctx, maxAge)
}

// runCycle gathers features from every extractor, preprocesses, scores and
// reports. A single extractor's failure is replaced by its defaults and
// never aborts the cycle.
func (d *Detector) runCycle(ctx context.Context) (Result, error) {
	d.mu.Lock()
	if d.state == StateUninitialized {
		d.mu.Unlock()
		return Result{}, ErrNotInitialized
	}
	manager := d.manager
	onDetection := d.onDetection
	d.mu.Unlock()

	params, err := d.source.Parameters()
	if err != nil {
		return Result{}, fmt.Errorf("detection cycle: %w", err)
	}

	extractors := manager.Extractors()

	// Defaults always underlie whatever the extractors produce, so the
	// vector shape is stable even under partial data.
	merged := extractor.Features{}
	for _, ex := range extractors {
		merged.Merge(ex.DefaultFeatures())
	}

	results := make([]extractor.Features, len(extractors))
	var wg sync.WaitGroup
	for i, ex := range extractors {
		wg.Add(1)
		go func(i int, ex extractor.Extractor) {
			defer wg.Done()
			feats, _, err := ex.ExtractFeatures(ctx)
			if err != nil {
				log.Printf("detector: extractor %s failed, using defaults: %v", ex.Type(), err)
				d.metrics.IncExtractorFailure(ex.Type())
				results[i] = ex.DefaultFeatures()
				return
			}
			results[i] = feats
		}(i, ex)
	}
	wg.Wait()
	for _, feats := range results {
		merged.Merge(feats)
	}

	preprocessed := model.Preprocess(merged, params)
	score := model.Score(preprocessed, params)

	res := Result{
		IsAgent:  model.IsAgent(score),
		Score:    score,
		Features: merged,
	}
	d.metrics.IncDetectionCycle()
	d.metrics.ObserveScore(score)
	if onDetection != nil {
		onDetection(res)
	}
	if d.debug {
		log.Printf("detector: cycle score=%.4f agent=%v", res.Score, res.IsAgent)
	}
	return res, nil
}
