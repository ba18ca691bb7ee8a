package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the case registry.
type Metrics struct {
	CasesCreated      prometheus.Counter
	CaseTransitions   *prometheus.CounterVec
	TransitionLatency prometheus.Histogram
}

// New registers the case metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CasesCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "oncofeliz_cases_created_total",
			Help: "Total number of cases registered",
		}),
		CaseTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_case_transitions_total",
			Help: "Case status transitions by target status and outcome",
		}, []string{"to", "outcome"}), // outcome: "ok", "conflict"
		TransitionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oncofeliz_case_transition_duration_seconds",
			Help:    "Duration of guarded case status updates",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.CasesCreated.Inc()
	}
}

// ObserveTransition records a transition attempt that reached the store.
func (m *Metrics) ObserveTransition(to, outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.CaseTransitions.WithLabelValues(to, outcome).Inc()
	m.TransitionLatency.Observe(time.Since(start).Seconds())
}
