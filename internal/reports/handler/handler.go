package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	aidservice "oncofeliz/internal/aid/service"
	"oncofeliz/internal/reports/service"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service defines the report operations used by the handler.
type Service interface {
	AidSummary(ctx context.Context, q aidservice.ListQuery) (*service.AidReport, error)
	ExportAidRequests(ctx context.Context, q aidservice.ListQuery) (*service.Export, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/reportes/solicitudes", h.HandleAidSummary)
	r.Get("/reportes/solicitudes/export", h.HandleAidExport)
}

func (h *Handler) HandleAidSummary(w http.ResponseWriter, r *http.Request) {
	q, err := aidQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rep, err := h.service.AidSummary(r.Context(), q)
	if err != nil {
		h.fail(r.Context(), w, "aid report failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, rep, "")
}

// HandleAidExport streams the workbook as an attachment.
func (h *Handler) HandleAidExport(w http.ResponseWriter, r *http.Request) {
	q, err := aidQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.service.ExportAidRequests(r.Context(), q)
	if err != nil {
		h.fail(r.Context(), w, "aid export failed", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Content); err != nil {
		h.logger.WarnContext(r.Context(), "aid export write failed", "error", err)
	}
}

// aidQuery reads the same filters as the aid request listing.
func aidQuery(r *http.Request) (aidservice.ListQuery, error) {
	query := r.URL.Query()
	q := aidservice.ListQuery{Status: query.Get("estado"), Type: query.Get("tipo")}
	var err error
	if raw := query.Get("beneficiarioId"); raw != "" {
		if q.BeneficiaryID, err = id.ParseBeneficiaryID(raw); err != nil {
			return q, err
		}
	}
	if raw := query.Get("solicitadoPorId"); raw != "" {
		if q.RequestedBy, err = id.ParseUserID(raw); err != nil {
			return q, err
		}
	}
	return q, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}
