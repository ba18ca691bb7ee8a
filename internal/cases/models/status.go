package models

import (
	"slices"
	"strings"

	dErrors "oncofeliz/pkg/domain-errors"
)

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	StatusInitialRegistration      CaseStatus = "REGISTRO_INICIAL"
	StatusPendingPsychEvaluation   CaseStatus = "PENDIENTE_EVALUACION_PSICOLOGICA"
	StatusUnderAdministratorReview CaseStatus = "EN_EVALUACION_ADMINISTRADOR"
	StatusActiveBeneficiary        CaseStatus = "BENEFICIARIO_ACTIVO"
	StatusRejected                 CaseStatus = "CASO_RECHAZADO"
)

// AllStatuses lists the states in lifecycle order.
var AllStatuses = []CaseStatus{
	StatusInitialRegistration,
	StatusPendingPsychEvaluation,
	StatusUnderAdministratorReview,
	StatusActiveBeneficiary,
	StatusRejected,
}

var transitions = map[CaseStatus][]CaseStatus{
	StatusInitialRegistration:      {StatusPendingPsychEvaluation, StatusUnderAdministratorReview},
	StatusPendingPsychEvaluation:   {StatusUnderAdministratorReview},
	StatusUnderAdministratorReview: {StatusActiveBeneficiary, StatusRejected},
}

// ParseCaseStatus accepts a status name in any letter case.
func ParseCaseStatus(s string) (CaseStatus, error) {
	st := CaseStatus(strings.ToUpper(strings.TrimSpace(s)))
	if st.IsValid() {
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid case status: "+s)
}

func (s CaseStatus) IsValid() bool {
	return slices.Contains(AllStatuses, s)
}

// IsDecided reports whether the case reached a terminal state.
func (s CaseStatus) IsDecided() bool {
	return s == StatusActiveBeneficiary || s == StatusRejected
}

// CanTransitionTo is the single source of truth for the case state machine.
func (s CaseStatus) CanTransitionTo(target CaseStatus) bool {
	return slices.Contains(transitions[s], target)
}

// SourcesOf returns every status that may move to target.
func SourcesOf(target CaseStatus) []CaseStatus {
	var out []CaseStatus
	for _, from := range AllStatuses {
		if from.CanTransitionTo(target) {
			out = append(out, from)
		}
	}
	return out
}

func (s CaseStatus) String() string { return string(s) }
