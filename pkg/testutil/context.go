package testutil

import (
	"net/http"

	"oncofeliz/internal/authz"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/requestcontext"
)

// WithActor adds an authenticated user to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithActor(req *http.Request, userID int64, role authz.Role) *http.Request {
	ctx := authz.WithActor(req.Context(), id.UserID(userID), role)
	return req.WithContext(ctx)
}

// WithBeneficiary authenticates the request as the beneficiary owning code.
func WithBeneficiary(req *http.Request, userID int64, code string) *http.Request {
	ctx := authz.WithActor(req.Context(), id.UserID(userID), authz.RoleBeneficiary)
	ctx = requestcontext.WithBeneficiaryCode(ctx, code)
	return req.WithContext(ctx)
}

// WithWarnings installs a warning collector, as the request id middleware does.
func WithWarnings(req *http.Request) *http.Request {
	return req.WithContext(requestcontext.WithWarnings(req.Context()))
}
