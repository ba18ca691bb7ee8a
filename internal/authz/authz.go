// Package authz is the single place that decides which role may perform which
// lifecycle operation. Services call Require once per operation.
package authz

import (
	"context"
	"strings"

	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/requestcontext"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin        Role = "ADMINISTRADOR"
	RoleSocialWorker Role = "TRABAJADOR_SOCIAL"
	RolePsychologist Role = "PSICOLOGO"
	RoleAssistant    Role = "ASISTENTE"
	RoleBeneficiary  Role = "BENEFICIARIO"
)

var roles = []Role{RoleAdmin, RoleSocialWorker, RolePsychologist, RoleAssistant, RoleBeneficiary}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range roles {
		if r == known {
			return r, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown role "+s)
}

func (r Role) String() string { return string(r) }

// AssignableToBeneficiary reports whether a staff member with this role may
// be made responsible for a beneficiary's aid requests.
func (r Role) AssignableToBeneficiary() bool {
	switch r {
	case RoleAssistant, RoleSocialWorker, RolePsychologist:
		return true
	default:
		return false
	}
}

// Capability names one guarded operation.
type Capability string

const (
	CaseCreate         Capability = "case.create"
	CaseEdit           Capability = "case.edit"
	CaseRead           Capability = "case.read"
	CaseSubmit         Capability = "case.submit"
	CaseDecide         Capability = "case.decide"
	EvaluationSocial   Capability = "evaluation.social"
	EvaluationPsych    Capability = "evaluation.psych"
	EvaluationPropose  Capability = "evaluation.propose"
	BeneficiaryRead    Capability = "beneficiary.read"
	BeneficiaryReadOwn Capability = "beneficiary.read_own"
	BeneficiaryStatus  Capability = "beneficiary.status"
	AidCreate          Capability = "aid.create"
	AidRead            Capability = "aid.read"
	AidReadOwn         Capability = "aid.read_own"
	AidReview          Capability = "aid.review"
	AidDeliver         Capability = "aid.deliver"
	ReportRead         Capability = "report.read"
)

func caps(cs ...Capability) map[Capability]struct{} {
	m := make(map[Capability]struct{}, len(cs))
	for _, c := range cs {
		m[c] = struct{}{}
	}
	return m
}

var matrix = map[Role]map[Capability]struct{}{
	RoleAdmin: caps(
		CaseRead, CaseDecide,
		BeneficiaryRead, BeneficiaryStatus,
		AidCreate, AidRead, AidReview, AidDeliver,
		ReportRead,
	),
	RoleSocialWorker: caps(
		CaseCreate, CaseEdit, CaseRead, CaseSubmit,
		EvaluationSocial, EvaluationPropose,
		BeneficiaryRead,
		AidCreate, AidRead,
	),
	RolePsychologist: caps(
		CaseRead,
		EvaluationPsych,
		BeneficiaryRead,
		AidCreate, AidRead,
	),
	RoleAssistant: caps(
		BeneficiaryRead, BeneficiaryStatus,
		AidCreate, AidRead, AidReview, AidDeliver,
		ReportRead,
	),
	RoleBeneficiary: caps(
		BeneficiaryReadOwn, AidReadOwn,
	),
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	_, ok := matrix[r][c]
	return ok
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID              id.UserID
	Role            Role
	BeneficiaryCode string
}

// ActorFrom reads the actor installed by the auth middleware.
func ActorFrom(ctx context.Context) (Actor, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsZero() {
		return Actor{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	role, err := ParseRole(requestcontext.Role(ctx))
	if err != nil {
		return Actor{}, dErrors.New(dErrors.CodeForbidden, "unknown role")
	}
	return Actor{ID: userID, Role: role, BeneficiaryCode: requestcontext.BeneficiaryCode(ctx)}, nil
}

// Require returns the actor when its role holds c, and an authorization error
// otherwise.
func Require(ctx context.Context, c Capability) (Actor, error) {
	actor, err := ActorFrom(ctx)
	if err != nil {
		return Actor{}, err
	}
	if !actor.Role.Can(c) {
		return Actor{}, dErrors.New(dErrors.CodeForbidden, "role "+string(actor.Role)+" may not perform "+string(c))
	}
	return actor, nil
}

// RequireSelf checks that an optional acting-user id sent in a request body
// names the authenticated actor.
func RequireSelf(actor Actor, claimed id.UserID) error {
	if claimed.IsZero() || claimed == actor.ID {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "acting user does not match the authenticated user")
}

// WithActor is a test helper that installs an actor on ctx.
func WithActor(ctx context.Context, userID id.UserID, role Role) context.Context {
	return requestcontext.WithActor(ctx, userID, string(role))
}
