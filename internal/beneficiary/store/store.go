// Package store persists beneficiaries.
package store

import (
	"oncofeliz/internal/beneficiary/models"
	id "oncofeliz/pkg/domain"
)

// Filter narrows beneficiary listings. Zero values match everything.
type Filter struct {
	Status     models.Status
	AssignedTo id.UserID
}

func (f Filter) matches(b *models.Beneficiary) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if !f.AssignedTo.IsZero() && b.AssignedTo != f.AssignedTo {
		return false
	}
	return true
}
