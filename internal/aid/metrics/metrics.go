package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"oncofeliz/internal/aid/models"
)

// Metrics provides observability for the aid request pipeline.
type Metrics struct {
	Transitions  *prometheus.CounterVec
	Conflicts    *prometheus.CounterVec
	DeliveredBOB prometheus.Histogram
	CostDrift    prometheus.Histogram
}

// New registers the aid request metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_aid_request_transitions_total",
			Help: "Aid request status changes, by target status",
		}, []string{"status"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_aid_request_conflicts_total",
			Help: "Aid request changes refused because the request had moved on",
		}, []string{"operation"}),
		DeliveredBOB: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oncofeliz_aid_request_delivered_cost_bob",
			Help:    "Real cost of delivered aid requests in bolivianos",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		CostDrift: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "oncofeliz_aid_request_cost_drift_ratio",
			Help:    "Real over estimated cost for delivered requests that had an estimate",
			Buckets: []float64{0.5, 0.8, 0.95, 1, 1.05, 1.2, 1.5, 2},
		}),
	}
}

func (m *Metrics) IncrementTransition(status models.Status) {
	if m != nil {
		m.Transitions.WithLabelValues(string(status)).Inc()
	}
}

func (m *Metrics) IncrementConflict(operation string) {
	if m != nil {
		m.Conflicts.WithLabelValues(operation).Inc()
	}
}

// ObserveDelivery records the real cost and, when an estimate exists, how far
// the real cost drifted from it.
func (m *Metrics) ObserveDelivery(realCost models.Cents, estimate *models.Cents) {
	if m == nil {
		return
	}
	m.DeliveredBOB.Observe(float64(realCost) / 100)
	if estimate != nil && *estimate > 0 {
		m.CostDrift.Observe(float64(realCost) / float64(*estimate))
	}
}
