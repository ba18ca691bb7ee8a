// Package store persists cases. Both implementations guard every status
// change with a compare-and-set on the current status.
package store

import (
	"slices"
	"time"

	"oncofeliz/internal/cases/models"
	id "oncofeliz/pkg/domain"
)

// Filter narrows case listings. Zero values match everything.
type Filter struct {
	Status    models.CaseStatus
	CreatedBy id.UserID
}

func (f Filter) matches(c *models.Case) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if !f.CreatedBy.IsZero() && c.CreatedBy != f.CreatedBy {
		return false
	}
	return true
}

// Transition describes a guarded status change. From narrows the sources the
// state machine allows for To; an empty From accepts every one of them.
type Transition struct {
	CaseID id.CaseID
	From   []models.CaseStatus
	To     models.CaseStatus
	// RejectionReason is stored only when To is CASO_RECHAZADO.
	RejectionReason string
	At              time.Time
}

// sources returns the statuses the case may be in for the change to apply.
func (t Transition) sources() []models.CaseStatus {
	legal := models.SourcesOf(t.To)
	if len(t.From) == 0 {
		return legal
	}
	out := make([]models.CaseStatus, 0, len(t.From))
	for _, st := range t.From {
		if slices.Contains(legal, st) {
			out = append(out, st)
		}
	}
	return out
}
