// Package httputil renders the JSON envelope every endpoint returns and
// translates domain errors into it.
//
//	{ "success": true, "data": {...}, "mensaje": "...", "advertencias": [...] }
//	{ "success": false, "error": "conflict", "mensaje": "..." }
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/requestcontext"
)

// MaxJSONBody caps JSON request bodies.
const MaxJSONBody = 1 << 20

// Envelope is the response body shape shared by all endpoints.
type Envelope struct {
	Success      bool     `json:"success"`
	Data         any      `json:"data,omitempty"`
	Mensaje      string   `json:"mensaje,omitempty"`
	Error        string   `json:"error,omitempty"`
	Advertencias []string `json:"advertencias,omitempty"`
}

// Validatable is implemented by request DTOs. Validate normalizes and parses
// the request in place.
type Validatable interface {
	Validate() error
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope, attaching any warnings collected
// on the request context.
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any, mensaje string) {
	WriteJSON(w, status, Envelope{
		Success:      true,
		Data:         data,
		Mensaje:      mensaje,
		Advertencias: requestcontext.Warnings(r.Context()),
	})
}

// WriteError translates err into an error envelope. Messages of internal
// errors are never exposed.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	env := Envelope{Success: false, Error: string(code)}
	if code != dErrors.CodeInternal {
		if de, ok := dErrors.As(err); ok {
			env.Mensaje = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), env)
}

// DecodeAndPrepare decodes a JSON body into T and runs its Validate method.
// On failure it writes the error response and returns false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	body := http.MaxBytesReader(w, r.Body, MaxJSONBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

// LogError logs a failed operation. Client errors are logged at warn level,
// internal ones at error level.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.ToHTTPStatus(dErrors.GetCode(err)) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
