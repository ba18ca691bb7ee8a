package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
)

// Scores are the six socio-economic sub-scores of a social evaluation.
type Scores struct {
	Income             int `json:"ingresoFamiliar"`
	HouseholdSize      int `json:"numPersonasHogar"`
	Housing            int `json:"tipoVivienda"`
	ParentalEmployment int `json:"situacionLaboralPadres"`
	HealthcareAccess   int `json:"accesoSalud"`
	MedicalExpense     int `json:"gastosMedicosMensuales"`
}

// ScoreField describes one sub-score and its inclusive upper bound.
type ScoreField struct {
	Name string
	Max  int
	get  func(*Scores) *int
}

// ScoreFields lists the sub-scores in display order. The bounds add up to 100.
var ScoreFields = []ScoreField{
	{Name: "ingresoFamiliar", Max: 20, get: func(s *Scores) *int { return &s.Income }},
	{Name: "numPersonasHogar", Max: 15, get: func(s *Scores) *int { return &s.HouseholdSize }},
	{Name: "tipoVivienda", Max: 15, get: func(s *Scores) *int { return &s.Housing }},
	{Name: "situacionLaboralPadres", Max: 20, get: func(s *Scores) *int { return &s.ParentalEmployment }},
	{Name: "accesoSalud", Max: 15, get: func(s *Scores) *int { return &s.HealthcareAccess }},
	{Name: "gastosMedicosMensuales", Max: 15, get: func(s *Scores) *int { return &s.MedicalExpense }},
}

// Validate checks every sub-score against its own bound and names each
// offending field.
func (s Scores) Validate() error {
	var bad []string
	for _, f := range ScoreFields {
		v := *f.get(&s)
		if v < 0 || v > f.Max {
			bad = append(bad, f.Name+" must be between 0 and "+strconv.Itoa(f.Max))
		}
	}
	if len(bad) > 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, strings.Join(bad, "; "))
	}
	return nil
}

// Clamp forces every sub-score into its range.
func (s Scores) Clamp() Scores {
	for _, f := range ScoreFields {
		p := f.get(&s)
		switch {
		case *p < 0:
			*p = 0
		case *p > f.Max:
			*p = f.Max
		}
	}
	return s
}

// Total is the sum of the sub-scores.
func (s Scores) Total() int {
	return s.Income + s.HouseholdSize + s.Housing + s.ParentalEmployment + s.HealthcareAccess + s.MedicalExpense
}

// Level derives the vulnerability level from the total.
func (s Scores) Level() VulnerabilityLevel {
	return LevelFor(s.Total())
}

// VulnerabilityLevel buckets a social evaluation total.
type VulnerabilityLevel string

const (
	LevelHigh   VulnerabilityLevel = "ALTO"
	LevelMedium VulnerabilityLevel = "MEDIO"
	LevelLow    VulnerabilityLevel = "BAJO"
)

// LevelFor maps a total to ALTO (60 and up), MEDIO (30 to 59) or BAJO.
func LevelFor(total int) VulnerabilityLevel {
	switch {
	case total >= 60:
		return LevelHigh
	case total >= 30:
		return LevelMedium
	default:
		return LevelLow
	}
}

// SocialEvaluation is the social worker's assessment of a case. At most one
// exists per case; attaching again overwrites it.
//
// Invariants:
//   - every sub-score is within its bound
//   - the report reference is non-empty
//   - total and level are always derived from the sub-scores
type SocialEvaluation struct {
	CaseID       id.CaseID  `json:"pacienteRegistroId"`
	Scores       Scores     `json:"puntajes"`
	Observations string     `json:"observaciones,omitempty"`
	ReportRef    string     `json:"informeRef"`
	ProposalID   *uuid.UUID `json:"propuestaId,omitempty"`
	EvaluatedBy  id.UserID  `json:"trabajadorSocialId"`
	EvaluatedAt  time.Time  `json:"fechaEvaluacion"`
}

func NewSocialEvaluation(caseID id.CaseID, scores Scores, reportRef, observations string, proposalID *uuid.UUID, evaluator id.UserID, now time.Time) (*SocialEvaluation, error) {
	var problems []string
	if err := scores.Validate(); err != nil {
		de, _ := dErrors.As(err)
		problems = append(problems, de.Message)
	}
	reportRef = strings.TrimSpace(reportRef)
	if reportRef == "" {
		problems = append(problems, "informeRef is required")
	}
	if len(problems) > 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, strings.Join(problems, "; "))
	}
	return &SocialEvaluation{
		CaseID:       caseID,
		Scores:       scores,
		Observations: strings.TrimSpace(observations),
		ReportRef:    reportRef,
		ProposalID:   proposalID,
		EvaluatedBy:  evaluator,
		EvaluatedAt:  now,
	}, nil
}

func (e *SocialEvaluation) TotalScore() int {
	return e.Scores.Total()
}

func (e *SocialEvaluation) VulnerabilityLevel() VulnerabilityLevel {
	return e.Scores.Level()
}

// MarshalJSON adds the derived total and level to the wire form.
func (e SocialEvaluation) MarshalJSON() ([]byte, error) {
	type plain SocialEvaluation
	return json.Marshal(struct {
		plain
		Total int                `json:"puntajeTotal"`
		Level VulnerabilityLevel `json:"nivelVulnerabilidad"`
	}{plain(e), e.Scores.Total(), e.Scores.Level()})
}
