package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "oncofeliz/pkg/domain"
)

// ScoreProposal is a scorer suggestion kept for a limited time so the social
// worker can confirm or correct it. It never changes a case by itself.
type ScoreProposal struct {
	ID                    uuid.UUID `json:"id"`
	CaseID                id.CaseID `json:"pacienteRegistroId"`
	Scores                Scores    `json:"puntajes"`
	SuggestedObservations string    `json:"observacionesSugeridas,omitempty"`
	ReportRef             string    `json:"informeRef"`
	// Degraded is set when the scorer could not be reached and Scores are zero.
	Degraded  bool      `json:"degradada"`
	CreatedBy id.UserID `json:"creadoPorId"`
	CreatedAt time.Time `json:"fechaCreacion"`
	ExpiresAt time.Time `json:"expiraEn"`
}

// SuggestedTotal and SuggestedLevel help the operator compare with their own
// assessment.
func (p *ScoreProposal) SuggestedTotal() int { return p.Scores.Total() }

func (p *ScoreProposal) SuggestedLevel() VulnerabilityLevel { return p.Scores.Level() }

// MarshalJSON adds the suggested total and level to the wire form. Decoding
// ignores them, so stored proposals round-trip unchanged.
func (p ScoreProposal) MarshalJSON() ([]byte, error) {
	type plain ScoreProposal
	return json.Marshal(struct {
		plain
		Total int                `json:"puntajeTotalSugerido"`
		Level VulnerabilityLevel `json:"nivelSugerido"`
	}{plain(p), p.SuggestedTotal(), p.SuggestedLevel()})
}

// Evaluations groups both assessments of one case for reads.
type Evaluations struct {
	Social        *SocialEvaluation        `json:"evaluacionSocial,omitempty"`
	Psychological *PsychologicalEvaluation `json:"evaluacionPsicologica,omitempty"`
}
