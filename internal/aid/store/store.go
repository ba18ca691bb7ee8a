// Package store persists aid requests. Every state change is a conditional
// write keyed on the expected current status.
package store

import (
	"time"

	"oncofeliz/internal/aid/models"
	id "oncofeliz/pkg/domain"
)

// Filter narrows listings. Zero values match everything.
type Filter struct {
	Status        models.Status
	BeneficiaryID id.BeneficiaryID
	Type          models.Type
	RequestedBy   id.UserID
}

func (f Filter) matches(r *models.AidRequest) bool {
	switch {
	case f.Status != "" && r.Status != f.Status:
		return false
	case !f.BeneficiaryID.IsZero() && r.BeneficiaryID != f.BeneficiaryID:
		return false
	case f.Type != "" && r.Type != f.Type:
		return false
	case !f.RequestedBy.IsZero() && r.RequestedBy != f.RequestedBy:
		return false
	}
	return true
}

// Transition moves a request from one of From to To. Only the fields that
// belong to To are written.
type Transition struct {
	RequestID id.AidRequestID
	From      []models.Status
	To        models.Status
	At        time.Time

	// Review, for RECEPCIONADO and RECHAZADA.
	ReviewedBy           id.UserID
	DeliveryInstructions string
	RejectionReason      string

	// Delivery, for ENTREGADO.
	Delivery *models.Delivery
}

func (t Transition) apply(r *models.AidRequest) {
	r.Status = t.To
	r.UpdatedAt = t.At
	at := t.At
	switch t.To {
	case models.StatusReceived:
		r.ReviewedBy, r.ReviewedAt = t.ReviewedBy, &at
		r.DeliveryInstructions = t.DeliveryInstructions
	case models.StatusRejected:
		r.ReviewedBy, r.ReviewedAt = t.ReviewedBy, &at
		r.RejectionReason = t.RejectionReason
	case models.StatusDelivered:
		if t.Delivery == nil {
			return
		}
		cost := t.Delivery.RealCost
		r.DeliveredAt = &at
		r.RealCost = &cost
		r.InvoiceRef = t.Delivery.InvoiceRef
		r.Provider = t.Delivery.Provider
		r.DeliveryObservations = t.Delivery.Observations
		if t.Delivery.Instructions != "" {
			r.DeliveryInstructions = t.Delivery.Instructions
		}
	}
}

// Totals are per-status counts plus delivered cost sums.
type Totals struct {
	Counts             map[models.Status]int
	EstimatedDelivered models.Cents
	RealDelivered      models.Cents
}
