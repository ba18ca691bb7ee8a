package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"oncofeliz/internal/beneficiary/models"
	"oncofeliz/internal/beneficiary/service"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/httputil"
	"oncofeliz/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the beneficiary directory operations used by the handler.
type Service interface {
	SetStatus(ctx context.Context, beneficiaryID id.BeneficiaryID, rawStatus string) (*models.Beneficiary, error)
	Get(ctx context.Context, beneficiaryID id.BeneficiaryID) (*service.View, error)
	GetByCode(ctx context.Context, code string) (*service.View, error)
	ListAll(ctx context.Context, rawStatus string, assignedTo id.UserID) ([]*service.View, error)
	ListByAssignedProfessional(ctx context.Context, professionalID id.UserID) ([]*service.View, error)
	SummaryStats(ctx context.Context) (*models.Summary, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/beneficiarios", h.HandleList)
	r.Get("/beneficiarios/estadisticas", h.HandleStats)
	r.Get("/beneficiarios/{id}", h.HandleGet)
	r.Get("/beneficiarios-usuario/{id}", h.HandleListAssigned)
	r.Get("/beneficiario-movil/{codigo}", h.HandleGetByCode)
	r.Put("/reportes/beneficiario/{id}/estado", h.HandleSetStatus)
}

// StatusRequest is the body of PUT /reportes/beneficiario/{id}/estado.
type StatusRequest struct {
	Status string `json:"estadoBeneficiario"`
}

func (r *StatusRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.Status) == "" {
		return dErrors.New(dErrors.CodeValidation, "estadoBeneficiario is required")
	}
	return nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var assignedTo id.UserID
	if raw := r.URL.Query().Get("asignadoAId"); raw != "" {
		var err error
		if assignedTo, err = id.ParseUserID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	list, err := h.service.ListAll(r.Context(), r.URL.Query().Get("estado"), assignedTo)
	if err != nil {
		h.fail(r.Context(), w, "list beneficiaries failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, list, "")
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.SummaryStats(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "beneficiary stats failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, sum, "")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	beneficiaryID, err := id.ParseBeneficiaryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	v, err := h.service.Get(r.Context(), beneficiaryID)
	if err != nil {
		h.fail(r.Context(), w, "get beneficiary failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, v, "")
}

func (h *Handler) HandleListAssigned(w http.ResponseWriter, r *http.Request) {
	professionalID, err := id.ParseUserID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListByAssignedProfessional(r.Context(), professionalID)
	if err != nil {
		h.fail(r.Context(), w, "list assigned beneficiaries failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, list, "")
}

func (h *Handler) HandleGetByCode(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "codigo"))
	if err != nil {
		h.fail(r.Context(), w, "get beneficiary by code failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, v, "")
}

func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	beneficiaryID, err := id.ParseBeneficiaryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	b, err := h.service.SetStatus(ctx, beneficiaryID, req.Status)
	if err != nil {
		h.fail(ctx, w, "set beneficiary status failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, b, "Estado del beneficiario actualizado")
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}
