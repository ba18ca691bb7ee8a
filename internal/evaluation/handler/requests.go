package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"oncofeliz/internal/evaluation/models"
	"oncofeliz/internal/evaluation/service"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/httputil"
)

// SocialEvaluationRequest is the body of POST /evaluacion-social. As a
// multipart form it carries the same fields plus the informeSocialPdf file.
// All six sub-scores are mandatory.
type SocialEvaluationRequest struct {
	CaseID       int64  `json:"pacienteRegistroId"`
	Income       *int   `json:"ingresoFamiliar"`
	Household    *int   `json:"numPersonasHogar"`
	Housing      *int   `json:"tipoVivienda"`
	Employment   *int   `json:"situacionLaboralPadres"`
	Healthcare   *int   `json:"accesoSalud"`
	Medical      *int   `json:"gastosMedicosMensuales"`
	Observations string `json:"observaciones"`
	ReportRef    string `json:"informeRef"`
	ProposalID   string `json:"propuestaId"`
	AuthorID     int64  `json:"trabajadorSocialId"`

	proposalID *uuid.UUID
}

// scoreFields pairs each sub-score with its wire name, in form order.
func (r *SocialEvaluationRequest) scoreFields() []scoreField {
	return []scoreField{
		{"ingresoFamiliar", &r.Income},
		{"numPersonasHogar", &r.Household},
		{"tipoVivienda", &r.Housing},
		{"situacionLaboralPadres", &r.Employment},
		{"accesoSalud", &r.Healthcare},
		{"gastosMedicosMensuales", &r.Medical},
	}
}

type scoreField struct {
	name string
	dst  **int
}

func (r *SocialEvaluationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.CaseID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "pacienteRegistroId is required")
	}
	var missing []string
	for _, f := range r.scoreFields() {
		if *f.dst == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", "))
	}
	if r.AuthorID < 0 {
		return dErrors.New(dErrors.CodeValidation, "trabajadorSocialId must be positive")
	}
	if raw := strings.TrimSpace(r.ProposalID); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "propuestaId must be a UUID")
		}
		r.proposalID = &pid
	}
	r.ReportRef = strings.TrimSpace(r.ReportRef)
	return nil
}

// Input must follow a successful Validate.
func (r *SocialEvaluationRequest) Input(report *service.Upload) service.SocialInput {
	return service.SocialInput{
		CaseID: id.CaseID(r.CaseID),
		Scores: models.Scores{
			Income:             *r.Income,
			HouseholdSize:      *r.Household,
			Housing:            *r.Housing,
			ParentalEmployment: *r.Employment,
			HealthcareAccess:   *r.Healthcare,
			MedicalExpense:     *r.Medical,
		},
		Observations:  r.Observations,
		Report:        report,
		ReportRef:     r.ReportRef,
		ProposalID:    r.proposalID,
		ClaimedAuthor: id.UserID(r.AuthorID),
	}
}

// socialFromForm reads the request from a parsed multipart form.
func socialFromForm(r *http.Request) (*SocialEvaluationRequest, error) {
	req := &SocialEvaluationRequest{
		Observations: r.FormValue("observaciones"),
		ReportRef:    r.FormValue("informeRef"),
		ProposalID:   r.FormValue("propuestaId"),
	}
	var err error
	if req.CaseID, err = httputil.FormInt(r, "pacienteRegistroId"); err != nil {
		return nil, err
	}
	if req.AuthorID, err = httputil.FormInt(r, "trabajadorSocialId"); err != nil {
		return nil, err
	}
	for _, f := range req.scoreFields() {
		v, err := httputil.FormIntPtr(r, f.name)
		if err != nil {
			return nil, err
		}
		if v != nil {
			score := int(*v)
			*f.dst = &score
		}
	}
	return req, req.Validate()
}

// PsychologicalEvaluationRequest is the body of POST /evaluacion-psicologica.
// As a multipart form it may carry the informePsicologicoPdf file.
type PsychologicalEvaluationRequest struct {
	CaseID       int64  `json:"pacienteRegistroId"`
	Observations string `json:"observaciones"`
	ReportRef    string `json:"informeRef"`
	AuthorID     int64  `json:"psicologoId"`
}

func (r *PsychologicalEvaluationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.CaseID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "pacienteRegistroId is required")
	}
	if r.AuthorID < 0 {
		return dErrors.New(dErrors.CodeValidation, "psicologoId must be positive")
	}
	r.ReportRef = strings.TrimSpace(r.ReportRef)
	return nil
}

func (r *PsychologicalEvaluationRequest) Input(report *service.Upload) service.PsychologicalInput {
	return service.PsychologicalInput{
		CaseID:        id.CaseID(r.CaseID),
		Observations:  r.Observations,
		Report:        report,
		ReportRef:     r.ReportRef,
		ClaimedAuthor: id.UserID(r.AuthorID),
	}
}

func psychologicalFromForm(r *http.Request) (*PsychologicalEvaluationRequest, error) {
	req := &PsychologicalEvaluationRequest{
		Observations: r.FormValue("observaciones"),
		ReportRef:    r.FormValue("informeRef"),
	}
	var err error
	if req.CaseID, err = httputil.FormInt(r, "pacienteRegistroId"); err != nil {
		return nil, err
	}
	if req.AuthorID, err = httputil.FormInt(r, "psicologoId"); err != nil {
		return nil, err
	}
	return req, req.Validate()
}
