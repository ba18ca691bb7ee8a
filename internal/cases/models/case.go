package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"oncofeliz/internal/authz"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/email"
)

const (
	maxNameLength   = 200
	maxReasonLength = 1000
)

// Case is an intake record for a child being considered for support.
//
// Invariants:
//   - child name, diagnosis and every guardian field except email are non-empty
//   - the birth date is not in the future
//   - age is derived from the birth date, never stored or accepted as input
//   - the creator and the creator's role are immutable
//   - the rejection reason is set exactly when the status is CASO_RECHAZADO
//   - status changes follow CaseStatus.CanTransitionTo
type Case struct {
	ID              id.CaseID  `json:"id"`
	ChildName       string     `json:"nombreCompletoNino"`
	BirthDate       time.Time  `json:"fechaNacimiento"`
	Age             int        `json:"edad"`
	ChildCI         string     `json:"ciNino,omitempty"`
	Diagnosis       string     `json:"diagnostico"`
	Guardian        Guardian   `json:"tutor"`
	Status          CaseStatus `json:"estado"`
	RejectionReason string     `json:"motivoRechazo,omitempty"`
	CreatedBy       id.UserID  `json:"creadoPorId"`
	CreatedByRole   authz.Role `json:"creadoPorRol"`
	CreatedAt       time.Time  `json:"fechaRegistro"`
	UpdatedAt       time.Time  `json:"actualizadoEn"`
}

// Guardian is the adult responsible for the child.
type Guardian struct {
	Name         string `json:"nombreCompleto"`
	CI           string `json:"ci"`
	Relationship string `json:"parentesco"`
	Phone        string `json:"telefono"`
	Address      string `json:"direccion"`
	Email        string `json:"email,omitempty"`
}

// Registration is the editable part of a case.
type Registration struct {
	ChildName string
	BirthDate time.Time
	ChildCI   string
	Diagnosis string
	Guardian  Guardian
}

// Normalize trims every field and validates the result. All problems are
// reported together.
func (r Registration) Normalize(now time.Time) (Registration, error) {
	out := Registration{
		ChildName: strings.TrimSpace(r.ChildName),
		BirthDate: r.BirthDate,
		ChildCI:   strings.TrimSpace(r.ChildCI),
		Diagnosis: strings.TrimSpace(r.Diagnosis),
		Guardian: Guardian{
			Name:         strings.TrimSpace(r.Guardian.Name),
			CI:           strings.TrimSpace(r.Guardian.CI),
			Relationship: strings.TrimSpace(r.Guardian.Relationship),
			Phone:        strings.TrimSpace(r.Guardian.Phone),
			Address:      strings.TrimSpace(r.Guardian.Address),
		},
	}

	var problems []string
	required := []struct{ field, value string }{
		{"nombreCompletoNino", out.ChildName},
		{"diagnostico", out.Diagnosis},
		{"nombreCompletoTutor", out.Guardian.Name},
		{"ciTutor", out.Guardian.CI},
		{"parentesco", out.Guardian.Relationship},
		{"telefonoTutor", out.Guardian.Phone},
		{"direccion", out.Guardian.Address},
	}
	for _, f := range required {
		if f.value == "" {
			problems = append(problems, f.field+" is required")
		}
	}
	if utf8.RuneCountInString(out.ChildName) > maxNameLength || utf8.RuneCountInString(out.Guardian.Name) > maxNameLength {
		problems = append(problems, "names must be 200 characters or less")
	}
	switch {
	case out.BirthDate.IsZero():
		problems = append(problems, "fechaNacimiento is required")
	case dateOnly(out.BirthDate).After(dateOnly(now)):
		problems = append(problems, "fechaNacimiento cannot be in the future")
	}
	normalized, ok := email.Normalize(r.Guardian.Email)
	if !ok {
		problems = append(problems, "emailTutor is not a valid email address")
	}
	out.Guardian.Email = normalized

	if len(problems) > 0 {
		return Registration{}, dErrors.New(dErrors.CodeInvariantViolation, strings.Join(problems, "; "))
	}
	out.BirthDate = dateOnly(out.BirthDate)
	return out, nil
}

// NewCase builds a case in REGISTRO_INICIAL.
func NewCase(reg Registration, creator id.UserID, creatorRole authz.Role, now time.Time) (*Case, error) {
	reg, err := reg.Normalize(now)
	if err != nil {
		return nil, err
	}
	if creator.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator is required")
	}
	c := &Case{
		Status:        StatusInitialRegistration,
		CreatedBy:     creator,
		CreatedByRole: creatorRole,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.apply(reg)
	c.Age = c.AgeAt(now)
	return c, nil
}

func (c *Case) apply(reg Registration) {
	c.ChildName = reg.ChildName
	c.BirthDate = reg.BirthDate
	c.ChildCI = reg.ChildCI
	c.Diagnosis = reg.Diagnosis
	c.Guardian = reg.Guardian
}

// ApplyRegistration replaces the editable fields. The caller validated reg.
func (c *Case) ApplyRegistration(reg Registration, now time.Time) {
	c.apply(reg)
	c.UpdatedAt = now
	c.Age = c.AgeAt(now)
}

// AgeAt returns the child's age in completed years at now.
func (c *Case) AgeAt(now time.Time) int {
	if c.BirthDate.IsZero() {
		return 0
	}
	b := c.BirthDate
	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// IsEditable reports whether registration fields may still change.
func (c *Case) IsEditable() bool {
	return c.Status == StatusInitialRegistration
}

// OwnedBy reports whether actor created the case under its current role.
func (c *Case) OwnedBy(actor authz.Actor) bool {
	return c.CreatedBy == actor.ID && c.CreatedByRole == actor.Role
}

// NormalizeRejectionReason trims reason and checks its length.
func NormalizeRejectionReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "motivo is required")
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "motivo must be 1000 characters or less")
	}
	return reason, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StatusCount is one row of the per-status statistics.
type StatusCount struct {
	Status CaseStatus `json:"estado"`
	Count  int        `json:"total"`
}
