package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report ingestion and consensus paths.
type Metrics struct {
	ReportsSubmitted prometheus.Counter
	ReportsRejected  prometheus.Counter
	PersistenceError prometheus.Counter

	// Report stream metrics.
	StreamPublished       prometheus.Counter
	StreamPublishFailures prometheus.Counter
	StreamConsumed        prometheus.Counter

	// Consensus metrics.
	VerificationTransitions prometheus.Counter
	RecomputeDuration       prometheus.Histogram
	VerifiedLocations       prometheus.Gauge
	StoredReports           prometheus.Gauge
	PrunedReports           prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.ReportsRejected,
		m.PersistenceError,
		m.StreamPublished,
		m.StreamPublishFailures,
		m.StreamConsumed,
		m.VerificationTransitions,
		m.RecomputeDuration,
		m.VerifiedLocations,
		m.StoredReports,
		m.PrunedReports,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "reports_submitted_total",
			Help:      "Total citizen reports accepted by the gateway.",
		}),
		ReportsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "reports_rejected_total",
			Help:      "Total submissions rejected by validation.",
		}),
		PersistenceError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "persistence_errors_total",
			Help:      "Total failed writes to the durable report archive.",
		}),
		StreamPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "stream_published_total",
			Help:      "Total reports published to the report stream.",
		}),
		StreamPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "stream_publish_failures_total",
			Help:      "Total failed publishes to the report stream.",
		}),
		StreamConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "stream_consumed_total",
			Help:      "Total reports consumed from the report stream.",
		}),
		VerificationTransitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "verification_transitions_total",
			Help:      "Total verified-status map overwrites.",
		}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waterwatch",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a full consensus recomputation cycle.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		VerifiedLocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "waterwatch",
			Name:      "verified_locations",
			Help:      "Number of locations with a verified status.",
		}),
		StoredReports: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "waterwatch",
			Name:      "stored_reports",
			Help:      "Reports currently held in the in-memory store.",
		}),
		PrunedReports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waterwatch",
			Name:      "pruned_reports_total",
			Help:      "Reports dropped by the out-of-window pruner.",
		}),
	}
}
