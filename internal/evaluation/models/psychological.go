package models

import (
	"strings"
	"time"

	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
)

// PsychologicalEvaluation is the psychologist's assessment of a case.
// At most one exists per case.
type PsychologicalEvaluation struct {
	CaseID       id.CaseID `json:"pacienteRegistroId"`
	Observations string    `json:"observaciones"`
	ReportRef    string    `json:"informeRef,omitempty"`
	EvaluatedBy  id.UserID `json:"psicologoId"`
	EvaluatedAt  time.Time `json:"fechaEvaluacion"`
}

func NewPsychologicalEvaluation(caseID id.CaseID, observations, reportRef string, evaluator id.UserID, now time.Time) (*PsychologicalEvaluation, error) {
	observations = strings.TrimSpace(observations)
	if observations == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "observaciones is required")
	}
	return &PsychologicalEvaluation{
		CaseID:       caseID,
		Observations: observations,
		ReportRef:    strings.TrimSpace(reportRef),
		EvaluatedBy:  evaluator,
		EvaluatedAt:  now,
	}, nil
}
