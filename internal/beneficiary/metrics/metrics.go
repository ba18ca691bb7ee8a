package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	StatusChanges *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		StatusChanges: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_beneficiary_status_changes_total",
			Help: "Beneficiary status changes by target status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementStatusChange(status string) {
	if m != nil {
		m.StatusChanges.WithLabelValues(status).Inc()
	}
}
