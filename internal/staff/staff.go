// Package staff is a read-only view of charity accounts. Accounts are managed
// by the account service; the lifecycle engine only needs to know whether a
// member exists, is active, and which role it holds.
package staff

import (
	"context"
	"errors"
	"time"

	"oncofeliz/internal/authz"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/sentinel"
)

// Member is one staff account.
type Member struct {
	ID        id.UserID  `json:"id"`
	FullName  string     `json:"nombreCompleto"`
	Email     string     `json:"email"`
	Role      authz.Role `json:"rol"`
	Active    bool       `json:"activo"`
	CreatedAt time.Time  `json:"creadoEn"`
}

// Store reads members.
type Store interface {
	FindByID(ctx context.Context, memberID id.UserID) (*Member, error)
	ListByRole(ctx context.Context, role authz.Role) ([]*Member, error)
}

// Directory answers staff questions for other modules.
type Directory struct {
	store Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

// Get returns the member or a not-found domain error.
func (d *Directory) Get(ctx context.Context, memberID id.UserID) (*Member, error) {
	if memberID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "staff member id is required")
	}
	m, err := d.store.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "staff member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff member")
	}
	return m, nil
}

// RequireAssignable returns the member when it exists, is active and holds a
// role that may be responsible for a beneficiary.
func (d *Directory) RequireAssignable(ctx context.Context, memberID id.UserID) (*Member, error) {
	m, err := d.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, dErrors.New(dErrors.CodeValidation, "assigned professional is inactive")
	}
	if !m.Role.AssignableToBeneficiary() {
		return nil, dErrors.New(dErrors.CodeValidation, "assigned professional must be an assistant, social worker or psychologist")
	}
	return m, nil
}

// ListAssignable lists the active members a beneficiary can be assigned to.
func (d *Directory) ListAssignable(ctx context.Context) ([]*Member, error) {
	out := make([]*Member, 0)
	for _, role := range []authz.Role{authz.RoleAssistant, authz.RoleSocialWorker, authz.RolePsychologist} {
		ms, err := d.store.ListByRole(ctx, role)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list staff")
		}
		out = append(out, ms...)
	}
	return out, nil
}
