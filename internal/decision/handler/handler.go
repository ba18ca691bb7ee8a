package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	casemodels "oncofeliz/internal/cases/models"
	"oncofeliz/internal/decision/service"
	"oncofeliz/internal/staff"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/httputil"
	"oncofeliz/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the decision operations used by the handler.
type Service interface {
	Accept(ctx context.Context, caseID id.CaseID, assignedTo, claimedAdmin id.UserID) (*service.Acceptance, error)
	Reject(ctx context.Context, caseID id.CaseID, reason string, claimedAdmin id.UserID) (*casemodels.Case, error)
	ListAssignees(ctx context.Context) ([]*staff.Member, error)
}

// Handler exposes the administrator's decision over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/aceptar-caso/{id}", h.HandleAccept)
	r.Put("/rechazar-caso/{id}", h.HandleReject)
	r.Get("/asistentes", h.HandleListAssignees)
}

func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AcceptRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.service.Accept(ctx, caseID, id.UserID(req.AssignedTo), id.UserID(req.AdminID))
	if err != nil {
		h.fail(ctx, w, "accept case failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, res, "Caso aceptado. Código de beneficiario: "+res.Beneficiary.Code)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	c, err := h.service.Reject(ctx, caseID, req.Reason, id.UserID(req.AdminID))
	if err != nil {
		h.fail(ctx, w, "reject case failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, c, "Caso rechazado")
}

// HandleListAssignees lists who a case can be assigned to on acceptance.
func (h *Handler) HandleListAssignees(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListAssignees(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "list assignees failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, members, "")
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}
