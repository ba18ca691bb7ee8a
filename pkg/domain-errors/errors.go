// Package domainerrors defines coded errors shared by models, services and the
// HTTP boundary. Stores return sentinel errors; services translate them into
// one of the codes below so handlers can render a stable error kind.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code is the stable, client-visible error kind.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodePrecondition       Code = "precondition_failed"
	CodeConflict           Code = "conflict"
	CodeNotFound           Code = "not_found"
	CodeForbidden          Code = "forbidden"
	CodeUnauthorized       Code = "unauthorized"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
)

// Error carries a code, a human readable message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// GetCode returns the code of the outermost coded error, or CodeInternal.
func GetCode(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// Is is errors.Is re-exported so callers need only one errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// ToHTTPStatus maps a code to the response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodePrecondition, CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
