// Package service attaches social and psychological evaluations to cases and
// produces advisory score proposals from uploaded social reports.
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"oncofeliz/internal/authz"
	casemodels "oncofeliz/internal/cases/models"
	casestore "oncofeliz/internal/cases/store"
	"oncofeliz/internal/documents"
	evmetrics "oncofeliz/internal/evaluation/metrics"
	"oncofeliz/internal/evaluation/models"
	"oncofeliz/internal/evaluation/scorer"
	"oncofeliz/internal/platform/observability"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
	"oncofeliz/pkg/requestcontext"
)

const (
	tracerName = "oncofeliz/evaluation"

	// DefaultProposalTTL is how long a score proposal stays retrievable.
	DefaultProposalTTL = 24 * time.Hour

	warnScorerUnavailable = "El servicio de análisis no está disponible; complete los puntajes manualmente"
)

// socialStatuses are the case states that still accept a social evaluation.
var socialStatuses = []casemodels.CaseStatus{
	casemodels.StatusInitialRegistration,
	casemodels.StatusPendingPsychEvaluation,
}

// CaseStore is the slice of the case registry evaluations need.
type CaseStore interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
	Transition(ctx context.Context, t casestore.Transition) (*casemodels.Case, error)
	LockStatus(ctx context.Context, caseID id.CaseID, allowed []casemodels.CaseStatus) error
}

// Store persists evaluations.
type Store interface {
	UpsertSocial(ctx context.Context, ev *models.SocialEvaluation) error
	UpsertPsychological(ctx context.Context, ev *models.PsychologicalEvaluation) error
	FindSocial(ctx context.Context, caseID id.CaseID) (*models.SocialEvaluation, error)
	FindPsychological(ctx context.Context, caseID id.CaseID) (*models.PsychologicalEvaluation, error)
}

// ProposalStore keeps score proposals for a limited time.
type ProposalStore interface {
	Save(ctx context.Context, p *models.ScoreProposal, ttl time.Duration) error
	Find(ctx context.Context, proposalID uuid.UUID) (*models.ScoreProposal, error)
}

// DocumentStore stores uploaded PDFs.
type DocumentStore interface {
	Save(ctx context.Context, kind documents.Kind, filename string, r io.Reader) (*documents.Document, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

// Scorer suggests sub-scores from a social report.
type Scorer interface {
	Suggest(ctx context.Context, filename string, pdf []byte) (*scorer.Suggestion, error)
}

// Upload is a document received with a request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// SocialInput carries a social evaluation. Either Report or ReportRef
// identifies the report; with neither, the report of the referenced proposal
// is used.
type SocialInput struct {
	CaseID        id.CaseID
	Scores        models.Scores
	Observations  string
	Report        *Upload
	ReportRef     string
	ProposalID    *uuid.UUID
	ClaimedAuthor id.UserID
}

// PsychologicalInput carries a psychological evaluation. The report is
// optional.
type PsychologicalInput struct {
	CaseID        id.CaseID
	Observations  string
	Report        *Upload
	ReportRef     string
	ClaimedAuthor id.UserID
}

// PsychologicalResult is the stored evaluation and the case status after it.
type PsychologicalResult struct {
	Evaluation *models.PsychologicalEvaluation `json:"evaluacion"`
	CaseStatus casemodels.CaseStatus           `json:"estadoCaso"`
}

// Service orchestrates evaluations.
type Service struct {
	cases       CaseStore
	evaluations Store
	proposals   ProposalStore
	documents   DocumentStore
	scorer      Scorer
	tx          txcontext.Runner
	proposalTTL time.Duration
	maxUpload   int64
	logger      *slog.Logger
	metrics     *evmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *evmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithScorer enables score suggestions. Without it every proposal is degraded.
func WithScorer(sc Scorer) Option {
	return func(s *Service) {
		s.scorer = sc
	}
}

func WithProposalTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.proposalTTL = ttl
		}
	}
}

// New constructs a Service.
func New(cases CaseStore, evaluations Store, proposals ProposalStore, docs DocumentStore, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		cases:       cases,
		evaluations: evaluations,
		proposals:   proposals,
		documents:   docs,
		tx:          tx,
		proposalTTL: DefaultProposalTTL,
		maxUpload:   documents.DefaultMaxBytes,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AttachSocialEvaluation stores or replaces the social evaluation of a case
// still being prepared by its creator.
func (s *Service) AttachSocialEvaluation(ctx context.Context, in SocialInput) (ev *models.SocialEvaluation, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "evaluation.AttachSocial",
		attribute.Int64("case_id", int64(in.CaseID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.EvaluationSocial)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelf(actor, in.ClaimedAuthor); err != nil {
		return nil, err
	}
	if err := in.Scores.Validate(); err != nil {
		return nil, toValidation(err)
	}

	c, err := s.loadCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the creator of the case may evaluate it")
	}
	if !slices.Contains(socialStatuses, c.Status) {
		return nil, dErrors.New(dErrors.CodeConflict, "case no longer accepts a social evaluation")
	}

	reportRef := in.ReportRef
	if in.ProposalID != nil {
		p, err := s.proposalFor(ctx, *in.ProposalID, in.CaseID)
		if err != nil {
			return nil, err
		}
		if reportRef == "" && in.Report == nil {
			reportRef = p.ReportRef
		}
	}
	reportRef, err = s.resolveReport(ctx, documents.KindSocialReport, in.Report, reportRef)
	if err != nil {
		return nil, err
	}

	ev, err = models.NewSocialEvaluation(in.CaseID, in.Scores, reportRef, in.Observations, in.ProposalID, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.cases.LockStatus(ctx, in.CaseID, socialStatuses); err != nil {
			return err
		}
		return s.evaluations.UpsertSocial(ctx, ev)
	})
	if err != nil {
		return nil, translate(err, "failed to save social evaluation")
	}

	level := ev.VulnerabilityLevel()
	s.metrics.IncrementSocial(string(level))
	s.logger.InfoContext(ctx, "social evaluation attached",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", in.CaseID,
		"total", ev.TotalScore(),
		"level", level,
	)
	return ev, nil
}

// AttachPsychologicalEvaluation stores or replaces the psychological
// evaluation of an undecided case. A case waiting for it moves on to the
// administrator in the same transaction.
func (s *Service) AttachPsychologicalEvaluation(ctx context.Context, in PsychologicalInput) (res *PsychologicalResult, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "evaluation.AttachPsychological",
		attribute.Int64("case_id", int64(in.CaseID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.EvaluationPsych)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelf(actor, in.ClaimedAuthor); err != nil {
		return nil, err
	}

	c, err := s.loadCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if c.Status.IsDecided() {
		return nil, dErrors.New(dErrors.CodeConflict, "case has already been decided")
	}

	reportRef := in.ReportRef
	if in.Report != nil || reportRef != "" {
		if reportRef, err = s.resolveReport(ctx, documents.KindPsychologicalReport, in.Report, reportRef); err != nil {
			return nil, err
		}
	}
	ev, err := models.NewPsychologicalEvaluation(in.CaseID, in.Observations, reportRef, actor.ID, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}

	next := c.Status
	if c.Status == casemodels.StatusPendingPsychEvaluation {
		next = casemodels.StatusUnderAdministratorReview
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if next == c.Status {
			if err := s.cases.LockStatus(ctx, in.CaseID, []casemodels.CaseStatus{c.Status}); err != nil {
				return err
			}
		} else if _, err := s.cases.Transition(ctx, casestore.Transition{
			CaseID: in.CaseID,
			From:   []casemodels.CaseStatus{c.Status},
			To:     next,
			At:     ev.EvaluatedAt,
		}); err != nil {
			return err
		}
		return s.evaluations.UpsertPsychological(ctx, ev)
	})
	if err != nil {
		return nil, translate(err, "failed to save psychological evaluation")
	}

	s.metrics.IncrementPsychological()
	s.logger.InfoContext(ctx, "psychological evaluation attached",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", in.CaseID,
		"status", next,
	)
	return &PsychologicalResult{Evaluation: ev, CaseStatus: next}, nil
}

// ProposeScores stores a social report and asks the scorer for suggested
// sub-scores. When the scorer is missing or failing, the proposal carries zero
// scores and the request gets a warning. The case itself never changes.
func (s *Service) ProposeScores(ctx context.Context, caseID id.CaseID, report Upload) (p *models.ScoreProposal, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "evaluation.ProposeScores",
		attribute.Int64("case_id", int64(caseID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.EvaluationPropose)
	if err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status.IsDecided() {
		return nil, dErrors.New(dErrors.CodeConflict, "case has already been decided")
	}
	if report.Content == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "informe is required")
	}

	content, err := io.ReadAll(io.LimitReader(report.Content, s.maxUpload+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload")
	}
	doc, err := s.documents.Save(ctx, documents.KindSocialReport, report.Filename, bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p = &models.ScoreProposal{
		ID:        uuid.New(),
		CaseID:    caseID,
		ReportRef: doc.Ref,
		CreatedBy: actor.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.proposalTTL),
	}
	suggestion, err := s.suggest(ctx, report.Filename, content)
	if err != nil {
		s.logger.WarnContext(ctx, "score suggestion unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"case_id", caseID,
			"error", err,
		)
		p.Degraded = true
		requestcontext.AddWarning(ctx, warnScorerUnavailable)
		s.metrics.IncrementProposal("degraded")
	} else {
		p.Scores = suggestion.Scores.Clamp()
		p.SuggestedObservations = suggestion.Observations
		s.metrics.IncrementProposal("suggested")
	}

	if err := s.proposals.Save(ctx, p, s.proposalTTL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store score proposal")
	}
	s.logger.InfoContext(ctx, "score proposal created",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"proposal_id", p.ID,
		"degraded", p.Degraded,
	)
	return p, nil
}

// GetProposal returns a live score proposal.
func (s *Service) GetProposal(ctx context.Context, proposalID uuid.UUID) (*models.ScoreProposal, error) {
	if _, err := authz.Require(ctx, authz.EvaluationPropose); err != nil {
		return nil, err
	}
	p, err := s.proposals.Find(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "score proposal not found or expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score proposal")
	}
	return p, nil
}

// GetEvaluations returns both evaluations of a case; either may be absent.
func (s *Service) GetEvaluations(ctx context.Context, caseID id.CaseID) (*models.Evaluations, error) {
	if _, err := authz.Require(ctx, authz.CaseRead); err != nil {
		return nil, err
	}
	if _, err := s.loadCase(ctx, caseID); err != nil {
		return nil, err
	}
	out := &models.Evaluations{}
	social, err := s.evaluations.FindSocial(ctx, caseID)
	switch {
	case err == nil:
		out.Social = social
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load social evaluation")
	}
	psych, err := s.evaluations.FindPsychological(ctx, caseID)
	switch {
	case err == nil:
		out.Psychological = psych
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load psychological evaluation")
	}
	return out, nil
}

func (s *Service) suggest(ctx context.Context, filename string, content []byte) (*scorer.Suggestion, error) {
	if s.scorer == nil {
		return nil, sentinel.ErrUnavailable
	}
	return s.scorer.Suggest(ctx, filename, content)
}

func (s *Service) proposalFor(ctx context.Context, proposalID uuid.UUID, caseID id.CaseID) (*models.ScoreProposal, error) {
	p, err := s.proposals.Find(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "propuestaId not found or expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score proposal")
	}
	if p.CaseID != caseID {
		return nil, dErrors.New(dErrors.CodeValidation, "propuestaId belongs to another case")
	}
	return p, nil
}

// resolveReport stores an uploaded report, or checks that ref names a stored
// document. Upload failures surface before any write to the case.
func (s *Service) resolveReport(ctx context.Context, kind documents.Kind, upload *Upload, ref string) (string, error) {
	if upload != nil {
		doc, err := s.documents.Save(ctx, kind, upload.Filename, upload.Content)
		if err != nil {
			return "", err
		}
		return doc.Ref, nil
	}
	if ref == "" {
		return "", dErrors.New(dErrors.CodeValidation, "informeRef is required")
	}
	ok, err := s.documents.Exists(ctx, ref)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check document")
	}
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "informeRef does not name a stored document")
	}
	return ref, nil
}

func (s *Service) loadCase(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, translate(err, "failed to load case")
	}
	return c, nil
}

func translate(err error, internalMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "case status changed concurrently")
	default:
		if _, ok := dErrors.As(err); ok {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}

func toValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		de, _ := dErrors.As(err)
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}
