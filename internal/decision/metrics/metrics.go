package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for case decisions.
type Metrics struct {
	// Decision outcomes: accepted, rejected, conflict
	DecisionOutcome *prometheus.CounterVec

	// Latency of the accept transaction, including code allocation
	AcceptLatency prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DecisionOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_case_decisions_total",
			Help: "Case decisions by outcome",
		}, []string{"outcome"}),

		AcceptLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oncofeliz_case_accept_duration_seconds",
			Help:    "Duration of the accept transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveAcceptLatency(d time.Duration) {
	if m != nil {
		m.AcceptLatency.Observe(d.Seconds())
	}
}
