package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the pipeline's Prometheus collectors.
type Metrics struct {
	Requests        *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	StageFailures   *prometheus.CounterVec
	Classifications *prometheus.CounterVec
	Reformulations  prometheus.Counter
	Notifications   *prometheus.CounterVec
	Retries         *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reel_digest",
			Name:      "requests_total",
			Help:      "Requests handled, by final outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reel_digest",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reel_digest",
			Name:      "stage_failures_total",
			Help:      "Stage failures, by stage and error kind.",
		}, []string{"stage", "kind"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reel_digest",
			Name:      "classifications_total",
			Help:      "Transcripts classified, by category.",
		}, []string{"category"}),
		Reformulations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reel_digest",
			Name:      "schema_reformulations_total",
			Help:      "Summaries re-requested after a schema violation.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reel_digest",
			Name:      "notifications_total",
			Help:      "Notifications delivered, by message kind.",
		}, []string{"kind"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reel_digest",
			Name:      "retries_total",
			Help:      "Retried provider and store operations.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.Requests,
			m.StageDuration,
			m.StageFailures,
			m.Classifications,
			m.Reformulations,
			m.Notifications,
			m.Retries,
		)
	}
	return m
}

// ObserveRetry matches retry.Observer.
func (m *Metrics) ObserveRetry(op string, _ int, _ error) {
	m.Retries.WithLabelValues(op).Inc()
}
