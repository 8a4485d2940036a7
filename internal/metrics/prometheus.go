// Package metrics exposes Prometheus counters and histograms for the pipeline.
// A nil *Manager is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for generative calls.
const (
	OutcomeGenerated   = "generated"
	OutcomeSoftFailure = "soft_failure"
	OutcomeHardFailure = "hard_failure"
)

// Manager owns every pipeline metric on its own registry.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	stageTransitions *prometheus.CounterVec
	externalCalls    *prometheus.CounterVec
	externalLatency  *prometheus.HistogramVec
	fallbackRecords  *prometheus.CounterVec
	persistFailures  prometheus.Counter
	biometricScores  prometheus.Histogram
	admittedGuests   prometheus.Gauge
	roundsReplayed   prometheus.Counter
	httpRequests     *prometheus.CounterVec
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry a fresh
// registry is used so tests and multiple servers never collide.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "velvet_rope",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)

	m.stageTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "stage_transitions_total",
		Help:      "Pipeline stage transitions by destination stage",
	}, []string{"stage"})

	m.externalCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "external_calls_total",
		Help:      "Generative service calls by artifact and outcome",
	}, []string{"artifact", "outcome"})

	m.externalLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "external_call_duration_seconds",
		Help:      "Latency of generative service calls",
		Buckets:   m.histogramBuckets,
	}, []string{"artifact"})

	m.fallbackRecords = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fallback_records_total",
		Help:      "Records produced by local fallbacks instead of the generative service",
	}, []string{"artifact"})

	m.persistFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "persist_failures_total",
		Help:      "Failed attempts to persist pipeline state",
	})

	m.biometricScores = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "yesness_score",
		Help:      "Distribution of biometric yesness scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.admittedGuests = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "admitted_guests",
		Help:      "Guests admitted by the current guest list",
	})

	m.roundsReplayed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rounds_replayed_total",
		Help:      "Simulation rounds streamed to clients",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code",
	}, []string{"route", "code"})

	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StageEntered records a transition into stage.
func (m *Manager) StageEntered(stage string) {
	if m == nil {
		return
	}
	m.stageTransitions.WithLabelValues(stage).Inc()
}

// ExternalCall records one generative call.
func (m *Manager) ExternalCall(artifact, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.externalCalls.WithLabelValues(artifact, outcome).Inc()
	m.externalLatency.WithLabelValues(artifact).Observe(elapsed.Seconds())
}

// FallbackRecords records n records produced by a fallback.
func (m *Manager) FallbackRecords(artifact string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fallbackRecords.WithLabelValues(artifact).Add(float64(n))
}

// PersistFailed records a swallowed persistence error.
func (m *Manager) PersistFailed() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

// YesnessScore records a vetted attendee's score.
func (m *Manager) YesnessScore(score int) {
	if m == nil {
		return
	}
	m.biometricScores.Observe(float64(score))
}

// Admitted sets the admitted guest gauge.
func (m *Manager) Admitted(n int) {
	if m == nil {
		return
	}
	m.admittedGuests.Set(float64(n))
}

// RoundReplayed records a streamed simulation round.
func (m *Manager) RoundReplayed() {
	if m == nil {
		return
	}
	m.roundsReplayed.Inc()
}

// HTTPRequest records a served request.
func (m *Manager) HTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, code).Inc()
}
