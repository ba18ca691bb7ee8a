package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"oncofeliz/internal/evaluation/models"
	"oncofeliz/internal/evaluation/service"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/httputil"
	"oncofeliz/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const (
	socialReportField        = "informeSocialPdf"
	psychologicalReportField = "informePsicologicoPdf"
)

// Service defines the evaluation operations used by the handler.
type Service interface {
	AttachSocialEvaluation(ctx context.Context, in service.SocialInput) (*models.SocialEvaluation, error)
	AttachPsychologicalEvaluation(ctx context.Context, in service.PsychologicalInput) (*service.PsychologicalResult, error)
	ProposeScores(ctx context.Context, caseID id.CaseID, report service.Upload) (*models.ScoreProposal, error)
	GetProposal(ctx context.Context, proposalID uuid.UUID) (*models.ScoreProposal, error)
	GetEvaluations(ctx context.Context, caseID id.CaseID) (*models.Evaluations, error)
}

// Handler exposes evaluations over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/evaluacion-social", h.HandleAttachSocial)
	r.Post("/evaluacion-psicologica", h.HandleAttachPsychological)
	r.Post("/analizar-informe-social", h.HandlePropose)
	r.Get("/propuestas/{id}", h.HandleGetProposal)
	r.Get("/paciente-registro/{id}/evaluaciones", h.HandleGetEvaluations)
}

// HandleAttachSocial accepts JSON with informeRef, or a multipart form with
// the report file.
func (h *Handler) HandleAttachSocial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		req    *SocialEvaluationRequest
		report *service.Upload
	)
	if httputil.IsMultipart(r) {
		var (
			release func()
			err     error
		)
		report, release, err = h.parseUpload(w, r, socialReportField)
		defer release()
		if err != nil {
			h.fail(ctx, w, "social evaluation upload failed", err)
			return
		}
		if req, err = socialFromForm(r); err != nil {
			h.fail(ctx, w, "social evaluation form invalid", err)
			return
		}
	} else {
		var ok bool
		if req, ok = httputil.DecodeAndPrepare[SocialEvaluationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}

	ev, err := h.service.AttachSocialEvaluation(ctx, req.Input(report))
	if err != nil {
		h.fail(ctx, w, "attach social evaluation failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusCreated, ev, "Evaluación social guardada correctamente")
}

func (h *Handler) HandleAttachPsychological(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		req    *PsychologicalEvaluationRequest
		report *service.Upload
	)
	if httputil.IsMultipart(r) {
		var (
			release func()
			err     error
		)
		report, release, err = h.parseUpload(w, r, psychologicalReportField)
		defer release()
		if err != nil {
			h.fail(ctx, w, "psychological evaluation upload failed", err)
			return
		}
		if req, err = psychologicalFromForm(r); err != nil {
			h.fail(ctx, w, "psychological evaluation form invalid", err)
			return
		}
	} else {
		var ok bool
		if req, ok = httputil.DecodeAndPrepare[PsychologicalEvaluationRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx)); !ok {
			return
		}
	}

	res, err := h.service.AttachPsychologicalEvaluation(ctx, req.Input(report))
	if err != nil {
		h.fail(ctx, w, "attach psychological evaluation failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusCreated, res, "Evaluación psicológica guardada correctamente")
}

// HandlePropose takes a multipart form with pacienteRegistroId and the
// social report.
func (h *Handler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !httputil.IsMultipart(r) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "multipart form expected"))
		return
	}
	report, release, err := h.parseUpload(w, r, socialReportField)
	defer release()
	if err != nil {
		h.fail(ctx, w, "score proposal upload failed", err)
		return
	}
	if report == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Debe subir el archivo PDF del informe social"))
		return
	}
	caseID, err := httputil.FormInt(r, "pacienteRegistroId")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if caseID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "pacienteRegistroId is required"))
		return
	}

	p, err := h.service.ProposeScores(ctx, id.CaseID(caseID), *report)
	if err != nil {
		h.fail(ctx, w, "score proposal failed", err)
		return
	}
	msg := "Análisis completado. Revise y ajuste los puntajes si es necesario."
	if p.Degraded {
		msg = "No se pudo analizar el informe. Complete los puntajes manualmente."
	}
	httputil.WriteSuccess(w, r, http.StatusOK, p, msg)
}

func (h *Handler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid proposal id"))
		return
	}
	p, err := h.service.GetProposal(r.Context(), proposalID)
	if err != nil {
		h.fail(r.Context(), w, "get score proposal failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, p, "")
}

func (h *Handler) HandleGetEvaluations(w http.ResponseWriter, r *http.Request) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	evs, err := h.service.GetEvaluations(r.Context(), caseID)
	if err != nil {
		h.fail(r.Context(), w, "get evaluations failed", err)
		return
	}
	httputil.WriteSuccess(w, r, http.StatusOK, evs, "")
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
