package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for evaluation and verification runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Evaluations      *prometheus.CounterVec // labels: strategy, kind
	EvaluationErrors *prometheus.CounterVec // labels: strategy
	EvaluationDur    prometheus.Histogram
	Verifications    *prometheus.CounterVec // labels: result
	VerifyConflicts  prometheus.Counter
	VerifyDeferred   prometheus.Counter
	FetchErrors      *prometheus.CounterVec // labels: source
	PendingSignals   prometheus.Gauge
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_evaluations_total",
			Help: "Strategy evaluations by strategy and emitted signal kind",
		}, []string{"strategy", "kind"}),
		EvaluationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_evaluation_errors_total",
			Help: "Evaluations that failed on malformed input or fetch errors",
		}, []string{"strategy"}),
		EvaluationDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_evaluation_duration_seconds",
			Help:    "Time spent fetching and evaluating one watch",
			Buckets: prometheus.DefBuckets,
		}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_verifications_total",
			Help: "Signals settled by result",
		}, []string{"result"}),
		VerifyConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_verify_conflicts_total",
			Help: "Verifications that lost the check-and-set race to another writer",
		}),
		VerifyDeferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_verify_deferred_total",
			Help: "Verifications deferred because no bar followed the signal yet",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_fetch_errors_total",
			Help: "Market data fetch failures by source",
		}, []string{"source"}),
		PendingSignals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_pending_signals",
			Help: "Signals awaiting verification as of the last verify run",
		}),
	}
	m.registry.MustRegister(
		m.Evaluations, m.EvaluationErrors, m.EvaluationDur,
		m.Verifications, m.VerifyConflicts, m.VerifyDeferred,
		m.FetchErrors, m.PendingSignals,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveEvaluation(strategy, kind string, took time.Duration) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(strategy, kind).Inc()
	m.EvaluationDur.Observe(took.Seconds())
}

func (m *Metrics) EvaluationFailed(strategy string) {
	if m == nil {
		return
	}
	m.EvaluationErrors.WithLabelValues(strategy).Inc()
}

func (m *Metrics) Verified(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.VerifyConflicts.Inc()
}

func (m *Metrics) Deferred() {
	if m == nil {
		return
	}
	m.VerifyDeferred.Inc()
}

func (m *Metrics) FetchFailed(source string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingSignals.Set(float64(n))
}
