package handler

import (
	"net/http"
	"strings"

	"oncofeliz/internal/aid/models"
	"oncofeliz/internal/aid/service"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/httputil"
)

// CreateRequest is the body of POST /solicitudes-ayuda. As a multipart form
// it carries the same fields plus the documentoRespaldo file.
type CreateRequest struct {
	BeneficiaryID int64         `json:"beneficiarioId"`
	Type          string        `json:"tipoAyuda"`
	Priority      string        `json:"prioridad"`
	Detail        string        `json:"detalleSolicitud"`
	Description   string        `json:"descripcion"`
	EstimatedCost *models.Cents `json:"costoEstimado"`
	DocumentRef   string        `json:"documentoRef"`
	RequesterID   int64         `json:"solicitadoPorId"`
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.BeneficiaryID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "beneficiarioId is required")
	}
	if strings.TrimSpace(r.Type) == "" {
		return dErrors.New(dErrors.CodeValidation, "tipoAyuda is required")
	}
	if strings.TrimSpace(r.Detail) == "" {
		r.Detail = r.Description
	}
	if strings.TrimSpace(r.Detail) == "" {
		return dErrors.New(dErrors.CodeValidation, "detalleSolicitud is required")
	}
	if r.RequesterID < 0 {
		return dErrors.New(dErrors.CodeValidation, "solicitadoPorId must be positive")
	}
	return nil
}

func (r *CreateRequest) Input(doc *service.Upload) service.CreateInput {
	return service.CreateInput{
		BeneficiaryID: id.BeneficiaryID(r.BeneficiaryID),
		Draft: models.Draft{
			Type:          models.Type(r.Type),
			Priority:      models.Priority(r.Priority),
			Detail:        r.Detail,
			EstimatedCost: r.EstimatedCost,
			DocumentRef:   r.DocumentRef,
		},
		Document:         doc,
		ClaimedRequester: id.UserID(r.RequesterID),
	}
}

func createFromForm(r *http.Request) (*CreateRequest, error) {
	req := &CreateRequest{
		Type:        r.FormValue("tipoAyuda"),
		Priority:    r.FormValue("prioridad"),
		Detail:      r.FormValue("detalleSolicitud"),
		Description: r.FormValue("descripcion"),
		DocumentRef: r.FormValue("documentoRef"),
	}
	var err error
	if req.BeneficiaryID, err = httputil.FormInt(r, "beneficiarioId"); err != nil {
		return nil, err
	}
	if req.RequesterID, err = httputil.FormInt(r, "solicitadoPorId"); err != nil {
		return nil, err
	}
	if req.EstimatedCost, err = formCents(r, "costoEstimado"); err != nil {
		return nil, err
	}
	return req, req.Validate()
}

// UpdateRequest is the body of PUT /solicitudes-ayuda/{id}. Absent fields
// keep their value.
type UpdateRequest struct {
	Type          *string       `json:"tipoAyuda"`
	Priority      *string       `json:"prioridad"`
	Detail        *string       `json:"detalleSolicitud"`
	EstimatedCost *models.Cents `json:"costoEstimado"`
	DocumentRef   *string       `json:"documentoRef"`
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Type == nil && r.Priority == nil && r.Detail == nil && r.EstimatedCost == nil && r.DocumentRef == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	return nil
}

func (r *UpdateRequest) Input(requestID id.AidRequestID) service.UpdateInput {
	return service.UpdateInput{
		RequestID:     requestID,
		Type:          r.Type,
		Priority:      r.Priority,
		Detail:        r.Detail,
		EstimatedCost: r.EstimatedCost,
		DocumentRef:   r.DocumentRef,
	}
}

// ApproveRequest is the body of PUT /solicitudes-ayuda/{id}/aprobar.
type ApproveRequest struct {
	ReviewerID   int64  `json:"revisadoPorId"`
	Instructions string `json:"instruccionesEntrega"`
}

func (r *ApproveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.ReviewerID < 0 {
		return dErrors.New(dErrors.CodeValidation, "revisadoPorId must be positive")
	}
	return nil
}

// RejectRequest is the body of PUT /solicitudes-ayuda/{id}/rechazar.
type RejectRequest struct {
	ReviewerID int64  `json:"revisadoPorId"`
	Reason     string `json:"motivoRechazo"`
}

func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.ReviewerID < 0 {
		return dErrors.New(dErrors.CodeValidation, "revisadoPorId must be positive")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "motivoRechazo is required")
	}
	return nil
}

// DeliverRequest is the body of PUT /solicitudes-ayuda/{id}/entregar. As a
// multipart form the invoice comes as the facturaPdf file.
type DeliverRequest struct {
	RealCost     models.Cents `json:"costoReal"`
	InvoiceRef   string       `json:"facturaRef"`
	Provider     string       `json:"proveedor"`
	Observations string       `json:"observaciones"`
	Instructions string       `json:"instruccionesEntrega"`
}

func (r *DeliverRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.RealCost <= 0 {
		return dErrors.New(dErrors.CodeValidation, "costoReal must be greater than zero")
	}
	return nil
}

func (r *DeliverRequest) Input(requestID id.AidRequestID, invoice *service.Upload) service.DeliveryInput {
	return service.DeliveryInput{
		RequestID:    requestID,
		RealCost:     r.RealCost,
		Invoice:      invoice,
		InvoiceRef:   r.InvoiceRef,
		Provider:     r.Provider,
		Observations: r.Observations,
		Instructions: r.Instructions,
	}
}

func deliverFromForm(r *http.Request) (*DeliverRequest, error) {
	req := &DeliverRequest{
		InvoiceRef:   r.FormValue("facturaRef"),
		Provider:     r.FormValue("proveedor"),
		Observations: r.FormValue("observaciones"),
		Instructions: r.FormValue("instruccionesEntrega"),
	}
	cost, err := formCents(r, "costoReal")
	if err != nil {
		return nil, err
	}
	if cost != nil {
		req.RealCost = *cost
	}
	return req, req.Validate()
}

// formCents reads an optional money field such as "340,50".
func formCents(r *http.Request, field string) (*models.Cents, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	c, err := models.ParseCents(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be an amount like 340.50")
	}
	return &c, nil
}
