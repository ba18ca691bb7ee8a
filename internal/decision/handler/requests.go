package handler

import (
	"strings"

	dErrors "oncofeliz/pkg/domain-errors"
)

// AcceptRequest is the body of POST /aceptar-caso/{id}.
type AcceptRequest struct {
	AdminID    int64 `json:"adminId"`
	AssignedTo int64 `json:"asignadoAId"`
}

func (r *AcceptRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.AssignedTo <= 0 {
		return dErrors.New(dErrors.CodeValidation, "asignadoAId is required")
	}
	if r.AdminID < 0 {
		return dErrors.New(dErrors.CodeValidation, "adminId must be positive")
	}
	return nil
}

// RejectRequest is the body of PUT /rechazar-caso/{id}.
type RejectRequest struct {
	Reason  string `json:"motivo"`
	AdminID int64  `json:"adminId"`
}

func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Reason) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "motivo must be at most 2000 characters")
	}
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "motivo is required")
	}
	if r.AdminID < 0 {
		return dErrors.New(dErrors.CodeValidation, "adminId must be positive")
	}
	return nil
}
