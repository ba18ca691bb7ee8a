// Package models defines beneficiaries: accepted cases that the charity now
// supports, identified by a public code.
package models

import (
	"strings"
	"time"

	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
)

// Status is the administrative state of a beneficiary. Any status may be set
// from any other.
type Status string

const (
	StatusActive    Status = "ACTIVO"
	StatusInactive  Status = "INACTIVO"
	StatusRecovered Status = "RECUPERADO"
	StatusDeceased  Status = "FALLECIDO"
)

// AllStatuses lists statuses in display order.
var AllStatuses = []Status{StatusActive, StatusInactive, StatusRecovered, StatusDeceased}

// ParseStatus accepts the status names case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "estadoBeneficiario must be one of ACTIVO, INACTIVO, RECUPERADO, FALLECIDO")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusRecovered, StatusDeceased:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Beneficiary is created exactly once per accepted case.
type Beneficiary struct {
	ID         id.BeneficiaryID `json:"id"`
	Code       string           `json:"codigoBeneficiario"`
	CaseID     id.CaseID        `json:"pacienteRegistroId"`
	Status     Status           `json:"estadoBeneficiario"`
	AssignedTo id.UserID        `json:"asignadoAId"`
	AcceptedBy id.UserID        `json:"aceptadoPorId"`
	AcceptedAt time.Time        `json:"fechaAceptacion"`
	UpdatedAt  time.Time        `json:"actualizadoEn"`
}

// New builds an active beneficiary for an accepted case.
func New(code string, caseID id.CaseID, assignedTo, acceptedBy id.UserID, now time.Time) *Beneficiary {
	return &Beneficiary{
		Code:       code,
		CaseID:     caseID,
		Status:     StatusActive,
		AssignedTo: assignedTo,
		AcceptedBy: acceptedBy,
		AcceptedAt: now,
		UpdatedAt:  now,
	}
}

// CanRequestAid reports whether new aid requests may be filed.
func (b *Beneficiary) CanRequestAid() bool {
	return b.Status == StatusActive
}

// StatusCount is one row of the beneficiary summary.
type StatusCount struct {
	Status Status `json:"estado"`
	Count  int    `json:"cantidad"`
}

// Summary counts beneficiaries per status.
type Summary struct {
	Total    int           `json:"total"`
	ByStatus []StatusCount `json:"porEstado"`
}
