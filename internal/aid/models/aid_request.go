// Package models defines aid requests: concrete help (medicine, food,
// transport, ...) filed for an active beneficiary and tracked until delivery.
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
)

// Type is the kind of aid requested.
type Type string

const (
	TypeMedication Type = "MEDICAMENTOS"
	TypeFood       Type = "ALIMENTOS"
	TypeTransport  Type = "TRANSPORTE"
	TypeHousing    Type = "VIVIENDA"
	TypeOther      Type = "OTRO"
)

// AllTypes lists the aid types in report order.
var AllTypes = []Type{TypeMedication, TypeFood, TypeTransport, TypeHousing, TypeOther}

func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllTypes {
		if t == known {
			return t, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvariantViolation, "tipoAyuda must be one of MEDICAMENTOS, ALIMENTOS, TRANSPORTE, VIVIENDA, OTRO")
}

// Priority orders the review queue.
type Priority string

const (
	PriorityLow    Priority = "BAJA"
	PriorityMedium Priority = "MEDIA"
	PriorityHigh   Priority = "ALTA"
	PriorityUrgent Priority = "URGENTE"
)

var priorityRank = map[Priority]int{PriorityLow: 1, PriorityMedium: 2, PriorityHigh: 3, PriorityUrgent: 4}

// ParsePriority defaults to MEDIA when s is blank.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if p == "" {
		return PriorityMedium, nil
	}
	if _, ok := priorityRank[p]; !ok {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "prioridad must be one of BAJA, MEDIA, ALTA, URGENTE")
	}
	return p, nil
}

// Rank is higher for more pressing requests.
func (p Priority) Rank() int { return priorityRank[p] }

const maxDetailLength = 4000

// AidRequest is one request for help. Once ENTREGADO or RECHAZADA it no
// longer changes.
type AidRequest struct {
	ID                   id.AidRequestID  `json:"id"`
	Code                 string           `json:"codigoSolicitud"`
	BeneficiaryID        id.BeneficiaryID `json:"beneficiarioId"`
	RequestedBy          id.UserID        `json:"solicitadoPorId"`
	Type                 Type             `json:"tipoAyuda"`
	Priority             Priority         `json:"prioridad"`
	Detail               string           `json:"detalleSolicitud"`
	EstimatedCost        *Cents           `json:"costoEstimado,omitempty"`
	DocumentRef          string           `json:"documentoRespaldo,omitempty"`
	Status               Status           `json:"estado"`
	ReviewedBy           id.UserID        `json:"revisadoPorId,omitempty"`
	ReviewedAt           *time.Time       `json:"fechaRevision,omitempty"`
	DeliveryInstructions string           `json:"instruccionesEntrega,omitempty"`
	RejectionReason      string           `json:"motivoRechazo,omitempty"`
	DeliveredAt          *time.Time       `json:"fechaEntrega,omitempty"`
	RealCost             *Cents           `json:"costoReal,omitempty"`
	Provider             string           `json:"proveedor,omitempty"`
	InvoiceRef           string           `json:"facturaRef,omitempty"`
	DeliveryObservations string           `json:"observacionesEntrega,omitempty"`
	CreatedAt            time.Time        `json:"fechaSolicitud"`
	UpdatedAt            time.Time        `json:"actualizadoEn"`
}

// Draft is the requester-editable part of an aid request.
type Draft struct {
	Type          Type
	Priority      Priority
	Detail        string
	EstimatedCost *Cents
	DocumentRef   string
}

// Normalize trims the detail and checks every field.
func (d Draft) Normalize() (Draft, error) {
	t, err := ParseType(string(d.Type))
	if err != nil {
		return d, err
	}
	p, err := ParsePriority(string(d.Priority))
	if err != nil {
		return d, err
	}
	d.Type, d.Priority = t, p
	d.Detail = strings.TrimSpace(d.Detail)
	if d.Detail == "" {
		return d, dErrors.New(dErrors.CodeInvariantViolation, "detalleSolicitud is required")
	}
	if utf8.RuneCountInString(d.Detail) > maxDetailLength {
		return d, dErrors.New(dErrors.CodeInvariantViolation, "detalleSolicitud is too long")
	}
	if d.EstimatedCost != nil && *d.EstimatedCost < 0 {
		return d, dErrors.New(dErrors.CodeInvariantViolation, "costoEstimado must not be negative")
	}
	d.DocumentRef = strings.TrimSpace(d.DocumentRef)
	return d, nil
}

// New builds a pending request. The draft must already be normalized.
func New(code string, beneficiaryID id.BeneficiaryID, requestedBy id.UserID, d Draft, now time.Time) *AidRequest {
	r := &AidRequest{
		Code:          code,
		BeneficiaryID: beneficiaryID,
		RequestedBy:   requestedBy,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.Apply(d, now)
	return r
}

// Apply copies the draft onto the request.
func (r *AidRequest) Apply(d Draft, now time.Time) {
	r.Type = d.Type
	r.Priority = d.Priority
	r.Detail = d.Detail
	r.EstimatedCost = d.EstimatedCost
	r.DocumentRef = d.DocumentRef
	r.UpdatedAt = now
}

// Draft returns the editable fields, for partial updates.
func (r *AidRequest) Draft() Draft {
	return Draft{
		Type:          r.Type,
		Priority:      r.Priority,
		Detail:        r.Detail,
		EstimatedCost: r.EstimatedCost,
		DocumentRef:   r.DocumentRef,
	}
}

// Delivery records how a request was fulfilled.
type Delivery struct {
	RealCost     Cents
	InvoiceRef   string
	Provider     string
	Observations string
	Instructions string
}

// Validate requires a positive real cost and an invoice.
func (d Delivery) Validate() error {
	var problems []string
	if d.RealCost <= 0 {
		problems = append(problems, "costoReal must be greater than zero")
	}
	if strings.TrimSpace(d.InvoiceRef) == "" {
		problems = append(problems, "an invoice (facturaPdf) is required")
	}
	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, strings.Join(problems, "; "))
	}
	return nil
}

// StatusCount is one row of the aid request summary.
type StatusCount struct {
	Status Status `json:"estado"`
	Count  int    `json:"cantidad"`
}

// Summary counts requests per status and reconciles delivered costs.
type Summary struct {
	Total              int           `json:"total"`
	ByStatus           []StatusCount `json:"porEstado"`
	EstimatedDelivered Cents         `json:"costoEstimadoEntregado"`
	RealDelivered      Cents         `json:"costoRealEntregado"`
}
