package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for evaluations and score proposals.
type Metrics struct {
	SocialEvaluations *prometheus.CounterVec
	PsychEvaluations  prometheus.Counter
	Proposals         *prometheus.CounterVec
}

// New registers the evaluation metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SocialEvaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_social_evaluations_total",
			Help: "Social evaluations attached, by vulnerability level",
		}, []string{"level"}),
		PsychEvaluations: f.NewCounter(prometheus.CounterOpts{
			Name: "oncofeliz_psychological_evaluations_total",
			Help: "Psychological evaluations attached",
		}),
		Proposals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "oncofeliz_score_proposals_total",
			Help: "Score proposals produced, by outcome",
		}, []string{"outcome"}), // outcome: "suggested", "degraded"
	}
}

func (m *Metrics) IncrementSocial(level string) {
	if m != nil {
		m.SocialEvaluations.WithLabelValues(level).Inc()
	}
}

func (m *Metrics) IncrementPsychological() {
	if m != nil {
		m.PsychEvaluations.Inc()
	}
}

func (m *Metrics) IncrementProposal(outcome string) {
	if m != nil {
		m.Proposals.WithLabelValues(outcome).Inc()
	}
}
