package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oncofeliz/internal/aid/models"
	"oncofeliz/internal/aid/service"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/httputil"
	"oncofeliz/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const (
	supportField = "documentoRespaldo"
	invoiceField = "facturaPdf"
)

// Service defines the aid request operations used by the handler.
type Service interface {
	CreateRequest(ctx context.Context, in service.CreateInput) (*models.AidRequest, error)
	Review(ctx context.Context, in service.ReviewInput) (*models.AidRequest, error)
	MarkReadyForPickup(ctx context.Context, requestID id.AidRequestID) (*models.AidRequest, error)
	Deliver(ctx context.Context, in service.DeliveryInput) (*models.AidRequest, error)
	UpdateRequest(ctx context.Context, in service.UpdateInput) (*models.AidRequest, error)
	DeleteRequest(ctx context.Context, requestID id.AidRequestID) error
	Get(ctx context.Context, requestID id.AidRequestID) (*service.View, error)
	ListByFilter(ctx context.Context, q service.ListQuery) ([]*service.View, error)
	ListForBeneficiary(ctx context.Context, beneficiaryID id.BeneficiaryID) ([]*service.View, error)
	SummaryStats(ctx context.Context, requestedBy id.UserID) (*models.Summary, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/solicitudes-ayuda", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/stats/resumen", h.HandleStats)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Put("/{id}/aprobar", h.HandleApprove)
		r.Put("/{id}/rechazar", h.HandleReject)
		r.Put("/{id}/lista-para-recoger", h.HandleReady)
		r.Put("/{id}/entregar", h.HandleDeliver)
	})
	r.Get("/beneficiario-solicitudes/{beneficiarioId}", h.HandleListForBeneficiary)
}

// HandleCreate accepts JSON, or a multipart form with the supporting PDF.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		req *CreateRequest
		doc *service.Upload
	)
	if httputil.IsMultipart(r) {
		var (
			release func()
			err     error
		)
		doc, release, err = h.parseUpload(w, r, supportField)
		defer release()
		if err != nil {
			h.fail(ctx, w, "aid request upload failed", err)
			return
		}
		if req, err = createFromForm(r); err != nil {
			h.fail(ctx, w, "aid request form invalid", err)
			return
		}
	} else {
		var ok bool
		if req, ok = httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}

	res, err := h.service.CreateRequest(ctx, req.Input(doc))
	if err != nil {
		h.fail(ctx, w, "create aid request failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusCreated, res, "Solicitud de ayuda registrada. Código: "+res.Code)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := service.ListQuery{Status: query.Get("estado"), Type: query.Get("tipo")}
	if raw := query.Get("beneficiarioId"); raw != "" {
		var err error
		if q.BeneficiaryID, err = id.ParseBeneficiaryID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if raw := query.Get("solicitadoPorId"); raw != "" {
		var err error
		if q.RequestedBy, err = id.ParseUserID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	list, err := h.service.ListByFilter(r.Context(), q)
	if err != nil {
		h.fail(r.Context(), w, "list aid requests failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, list, "")
}

// HandleListForBeneficiary serves the requests of one beneficiary, including
// to the beneficiary itself.
func (h *Handler) HandleListForBeneficiary(w http.ResponseWriter, r *http.Request) {
	beneficiaryID, err := id.ParseBeneficiaryID(chi.URLParam(r, "beneficiarioId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ListForBeneficiary(r.Context(), beneficiaryID)
	if err != nil {
		h.fail(r.Context(), w, "list beneficiary aid requests failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, list, "")
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	var requestedBy id.UserID
	if raw := r.URL.Query().Get("solicitadoPorId"); raw != "" {
		var err error
		if requestedBy, err = id.ParseUserID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	sum, err := h.service.SummaryStats(r.Context(), requestedBy)
	if err != nil {
		h.fail(r.Context(), w, "aid request stats failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, sum, "")
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Get(r.Context(), requestID)
	if err != nil {
		h.fail(r.Context(), w, "get aid request failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, v, "")
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.UpdateRequest(ctx, req.Input(requestID))
	if err != nil {
		h.fail(ctx, w, "update aid request failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, res, "Solicitud actualizada")
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRequest(r.Context(), requestID); err != nil {
		h.fail(r.Context(), w, "delete aid request failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, nil, "Solicitud eliminada")
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApproveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Review(ctx, service.ReviewInput{
		RequestID:       requestID,
		Decision:        service.DecisionApprove,
		Note:            req.Instructions,
		ClaimedReviewer: id.UserID(req.ReviewerID),
	})
	if err != nil {
		h.fail(ctx, w, "approve aid request failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, res, "Solicitud aprobada")
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	res, err := h.service.Review(ctx, service.ReviewInput{
		RequestID:       requestID,
		Decision:        service.DecisionReject,
		Note:            req.Reason,
		ClaimedReviewer: id.UserID(req.ReviewerID),
	})
	if err != nil {
		h.fail(ctx, w, "reject aid request failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, res, "Solicitud rechazada")
}

func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	res, err := h.service.MarkReadyForPickup(r.Context(), requestID)
	if err != nil {
		h.fail(r.Context(), w, "mark aid request ready failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, res, "Solicitud lista para recoger")
}

// HandleDeliver accepts a multipart form with the facturaPdf file, or JSON
// naming an already stored invoice in facturaRef.
func (h *Handler) HandleDeliver(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var (
		req     *DeliverRequest
		invoice *service.Upload
	)
	if httputil.IsMultipart(r) {
		var (
			release func()
			err     error
		)
		invoice, release, err = h.parseUpload(w, r, invoiceField)
		defer release()
		if err != nil {
			h.fail(ctx, w, "invoice upload failed", err)
			return
		}
		if req, err = deliverFromForm(r); err != nil {
			h.fail(ctx, w, "delivery form invalid", err)
			return
		}
		if invoice == nil && req.InvoiceRef == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Debe subir el archivo PDF de la factura"))
			return
		}
	} else {
		if req, ok = httputil.DecodeAndPrepare[DeliverRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}

	res, err := h.service.Deliver(ctx, req.Input(requestID, invoice))
	if err != nil {
		h.fail(ctx, w, "deliver aid request failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, res, "Entrega registrada")
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (id.AidRequestID, bool) {
	requestID, err := id.ParseAidRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return requestID, true
}

// parseUpload parses the multipart form and returns the named file, or nil
// when it was not sent. The returned func closes the file.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request, field string) (*service.Upload, func(), error) {
	if err := httputil.ParseMultipart(w, r); err != nil {
		return nil, func() {}, err
	}
	f, hdr, err := httputil.FormFile(r, field)
	if err != nil || f == nil {
		return nil, func() {}, err
	}
	return &service.Upload{Filename: hdr.Filename, Content: f}, func() { _ = f.Close() }, nil
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	httputil.LogError(ctx, h.logger, msg, err)
	httputil.WriteError(w, err)
}
