package handler

import (
	"strings"
	"time"

	"oncofeliz/internal/cases/models"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
)

// CaseRequest is the body of POST /registro-paciente and
// PUT /paciente-registro/{id}. Any "edad" sent by the client is ignored.
type CaseRequest struct {
	ChildName     string `json:"nombreCompletoNino"`
	BirthDate     string `json:"fechaNacimiento"`
	ChildCI       string `json:"ciNino"`
	Diagnosis     string `json:"diagnostico"`
	GuardianName  string `json:"nombreCompletoTutor"`
	GuardianCI    string `json:"ciTutor"`
	Relationship  string `json:"parentesco"`
	GuardianPhone string `json:"telefonoTutor"`
	Address       string `json:"direccion"`
	GuardianEmail string `json:"emailTutor"`
	CreatedByID   *int64 `json:"creadoPorId"`

	parsedBirthDate time.Time
}

// Validate parses the birth date and enforces field sizes. Required-field
// checks live in the model so all of them are reported together.
func (r *CaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, f := range []string{r.ChildName, r.ChildCI, r.Diagnosis, r.GuardianName, r.GuardianCI, r.Relationship, r.GuardianPhone, r.Address, r.GuardianEmail} {
		if len(f) > 2000 {
			return dErrors.New(dErrors.CodeValidation, "field too long")
		}
	}
	if raw := strings.TrimSpace(r.BirthDate); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "fechaNacimiento must be a date (YYYY-MM-DD)")
		}
		r.parsedBirthDate = t
	}
	if r.CreatedByID != nil && *r.CreatedByID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "creadoPorId must be positive")
	}
	return nil
}

// Registration converts the request into the model input.
func (r *CaseRequest) Registration() models.Registration {
	return models.Registration{
		ChildName: r.ChildName,
		BirthDate: r.parsedBirthDate,
		ChildCI:   r.ChildCI,
		Diagnosis: r.Diagnosis,
		Guardian: models.Guardian{
			Name:         r.GuardianName,
			CI:           r.GuardianCI,
			Relationship: r.Relationship,
			Phone:        r.GuardianPhone,
			Address:      r.Address,
			Email:        r.GuardianEmail,
		},
	}
}

// ClaimedCreator returns the optional creadoPorId.
func (r *CaseRequest) ClaimedCreator() id.UserID {
	if r.CreatedByID == nil {
		return 0
	}
	return id.UserID(*r.CreatedByID)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
