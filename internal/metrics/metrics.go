// Package metrics exposes prober counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the prober's collectors.
type Metrics struct {
	// Outcomes counts classified exchanges per target and outcome kind
	Outcomes *prometheus.CounterVec

	// RateLimits counts 429 responses per target and bucket
	RateLimits *prometheus.CounterVec

	// CallDuration tracks the annotated call length
	CallDuration *prometheus.HistogramVec

	// PublishErrors counts events that failed on at least one publisher
	PublishErrors *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prober_outcomes_total",
				Help: "Total number of classified HTTP exchanges",
			},
			[]string{"target", "kind"},
		),
		RateLimits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prober_rate_limited_total",
				Help: "Total number of rate-limited responses",
			},
			[]string{"target", "bucket"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prober_call_duration_seconds",
				Help:    "HTTP call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"target"},
		),
		PublishErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prober_publish_errors_total",
				Help: "Total number of outcome events that failed to publish",
			},
			[]string{"target"},
		),
		gatherer: reg,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveOutcome(targetID, kind string) {
	m.Outcomes.WithLabelValues(targetID, kind).Inc()
}

func (m *Metrics) ObserveRateLimit(targetID, bucket string) {
	m.RateLimits.WithLabelValues(targetID, bucket).Inc()
}

func (m *Metrics) ObserveDuration(targetID string, seconds float64) {
	m.CallDuration.WithLabelValues(targetID).Observe(seconds)
}

func (m *Metrics) ObservePublishError(targetID string) {
	m.PublishErrors.WithLabelValues(targetID).Inc()
}
