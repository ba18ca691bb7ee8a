package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oncofeliz/internal/cases/models"
	"oncofeliz/internal/cases/service"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/httputil"
	"oncofeliz/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the case registry operations used by the handler.
type Service interface {
	CreateCase(ctx context.Context, reg models.Registration, claimedCreator id.UserID) (*models.Case, error)
	GetCase(ctx context.Context, caseID id.CaseID) (*service.Detail, error)
	UpdateCase(ctx context.Context, caseID id.CaseID, reg models.Registration) (*models.Case, error)
	DeleteCase(ctx context.Context, caseID id.CaseID) error
	SubmitForReview(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	RequestPsychologicalEvaluation(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	ListPendingReview(ctx context.Context) ([]*service.Detail, error)
	ListPendingPsychological(ctx context.Context) ([]*service.Detail, error)
	ListMine(ctx context.Context, status string) ([]*models.Case, error)
	Stats(ctx context.Context) ([]models.StatusCount, error)
}

// Handler exposes the case registry over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the case routes. The router is expected to authenticate.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registro-paciente", h.HandleCreate)
	r.Get("/paciente-registro/{id}", h.HandleGet)
	r.Put("/paciente-registro/{id}", h.HandleUpdate)
	r.Delete("/paciente-registro/{id}", h.HandleDelete)
	r.Get("/mis-registros", h.HandleListMine)
	r.Get("/casos/estadisticas", h.HandleStats)
	r.Put("/solicitar-evaluacion-psicologica/{id}", h.HandleRequestPsychological)
	r.Put("/enviar-a-administrador/{id}", h.HandleSubmit)
	r.Get("/casos-en-evaluacion", h.HandleListPending)
	r.Get("/pendientes-evaluacion-psicologica", h.HandleListPendingPsychological)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.CreateCase(ctx, req.Registration(), req.ClaimedCreator())
	if err != nil {
		h.fail(ctx, w, "create case failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusCreated, c, "Registro creado correctamente")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetCase(r.Context(), caseID)
	if err != nil {
		h.fail(r.Context(), w, "get case failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, d, "")
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CaseRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	c, err := h.service.UpdateCase(ctx, caseID, req.Registration())
	if err != nil {
		h.fail(ctx, w, "update case failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, c, "Registro actualizado correctamente")
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCase(r.Context(), caseID); err != nil {
		h.fail(r.Context(), w, "delete case failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, nil, "Registro eliminado correctamente")
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListMine(r.Context(), r.URL.Query().Get("estado"))
	if err != nil {
		h.fail(r.Context(), w, "list own cases failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, cases, "")
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "case stats failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, stats, "")
}

func (h *Handler) HandleRequestPsychological(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.RequestPsychologicalEvaluation(r.Context(), caseID)
	if err != nil {
		h.fail(r.Context(), w, "request psychological evaluation failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, c, "Caso enviado a evaluación psicológica")
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	caseID, ok := h.caseID(w, r)
	if !ok {
		return
	}
	c, err := h.service.SubmitForReview(r.Context(), caseID)
	if err != nil {
		h.fail(r.Context(), w, "submit for review failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, c, "Caso enviado al administrador")
}

func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListPendingReview(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "list pending review failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, cases, "")
}

func (h *Handler) HandleListPendingPsychological(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.ListPendingPsychological(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "list pending psychological failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, cases, "")
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return caseID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}
