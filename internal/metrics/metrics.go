// Package metrics instruments the detection pipeline with Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the Prometheus metrics for the detection pipeline.
// A nil *Metrics is valid and records nothing, so instrumentation points
// never have to branch.
type Metrics struct {
	// Counters
	EventsDispatched  *prometheus.CounterVec
	EventsReceived    *prometheus.CounterVec
	StorageFlushes    *prometheus.CounterVec
	StorageErrors     *prometheus.CounterVec
	DetectionCycles   prometheus.Counter
	ExtractorFailures *prometheus.CounterVec

	// Gauges
	BufferDepth prometheus.Gauge

	// Histograms
	FlushLatency   prometheus.Histogram
	DetectionScore prometheus.Histogram
}

// New creates the pipeline metrics and registers them on reg. Passing
// prometheus.DefaultRegisterer gives the usual process-global behavior.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdetect_events_dispatched_total",
				Help: "Events dispatched to extractor handlers, by event type",
			},
			[]string{"type"},
		),
		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdetect_events_received_total",
				Help: "Events received from the port ahead of throttling, by event type",
			},
			[]string{"type"},
		),
		StorageFlushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdetect_storage_flushes_total",
				Help: "Buffer flushes by trigger (size, interval, hidden, final, forced)",
			},
			[]string{"trigger"},
		),
		StorageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdetect_storage_errors_total",
				Help: "Storage backend failures by operation",
			},
			[]string{"op"},
		),
		DetectionCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agentdetect_detection_cycles_total",
				Help: "Completed detection cycles",
			},
		),
		ExtractorFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentdetect_extractor_failures_total",
				Help: "Extraction failures replaced by default features, by extractor",
			},
			[]string{"extractor"},
		),
		BufferDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "agentdetect_storage_buffer_depth",
				Help: "Events currently buffered ahead of the next flush",
			},
		),
		FlushLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentdetect_storage_flush_latency_seconds",
				Help:    "Latency of flushing a batch to the event store",
				Buckets: prometheus.DefBuckets,
			},
		),
		DetectionScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentdetect_detection_score",
				Help:    "Distribution of detection probabilities",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}

	reg.MustRegister(
		m.EventsDispatched,
		m.EventsReceived,
		m.StorageFlushes,
		m.StorageErrors,
		m.DetectionCycles,
		m.ExtractorFailures,
		m.BufferDepth,
		m.FlushLatency,
		m.DetectionScore,
	)
	return m
}

func (m *Metrics) IncEventsDispatched(typ string) {
	if m == nil {
		return
	}
	m.EventsDispatched.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncEventsReceived(typ string) {
	if m == nil {
		return
	}
	m.EventsReceived.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncStorageFlush(trigger string) {
	if m == nil {
		return
	}
	m.StorageFlushes.WithLabelValues(trigger).Inc()
}

func (m *Metrics) IncStorageError(op string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) IncDetectionCycle() {
	if m == nil {
		return
	}
	m.DetectionCycles.Inc()
}

func (m *Metrics) IncExtractorFailure(extractor string) {
	if m == nil {
		return
	}
	m.ExtractorFailures.WithLabelValues(extractor).Inc()
}

func (m *Metrics) SetBufferDepth(depth int) {
	if m == nil {
		return
	}
	m.BufferDepth.Set(float64(depth))
}

func (m *Metrics) ObserveFlushLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.FlushLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveScore(score float64) {
	if m == nil {
		return
	}
	m.DetectionScore.Observe(score)
}
