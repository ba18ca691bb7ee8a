// Package service implements the case registry: intake, editing and the
// transitions that lead a case to administrator review.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"oncofeliz/internal/authz"
	casemetrics "oncofeliz/internal/cases/metrics"
	"oncofeliz/internal/cases/models"
	"oncofeliz/internal/cases/store"
	evmodels "oncofeliz/internal/evaluation/models"
	"oncofeliz/internal/platform/observability"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
	"oncofeliz/pkg/requestcontext"
)

const tracerName = "oncofeliz/cases"

// Store persists cases.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	List(ctx context.Context, f store.Filter) ([]*models.Case, error)
	CountByStatus(ctx context.Context, createdBy id.UserID) (map[models.CaseStatus]int, error)
	UpdateRegistration(ctx context.Context, c *models.Case, from []models.CaseStatus) error
	Transition(ctx context.Context, t store.Transition) (*models.Case, error)
	Delete(ctx context.Context, caseID id.CaseID, from []models.CaseStatus) error
}

// EvaluationStore reads the evaluations attached to a case.
type EvaluationStore interface {
	FindSocial(ctx context.Context, caseID id.CaseID) (*evmodels.SocialEvaluation, error)
	FindPsychological(ctx context.Context, caseID id.CaseID) (*evmodels.PsychologicalEvaluation, error)
	DeleteForCase(ctx context.Context, caseID id.CaseID) error
}

// Detail is a case together with its evaluations.
type Detail struct {
	*models.Case
	evmodels.Evaluations
}

// Service orchestrates the case registry.
type Service struct {
	cases       Store
	evaluations EvaluationStore
	tx          txcontext.Runner
	logger      *slog.Logger
	metrics     *casemetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *casemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(cases Store, evaluations EvaluationStore, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		cases:       cases,
		evaluations: evaluations,
		tx:          tx,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCase registers a new case for the acting social worker. claimedCreator
// is the optional creadoPorId sent by the client.
func (s *Service) CreateCase(ctx context.Context, reg models.Registration, claimedCreator id.UserID) (*models.Case, error) {
	actor, err := authz.Require(ctx, authz.CaseCreate)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelf(actor, claimedCreator); err != nil {
		return nil, err
	}

	c, err := models.NewCase(reg, actor.ID, actor.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}
	if err := s.cases.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "a live case already uses this guardian or child CI")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
	}

	s.metrics.IncrementCreated()
	s.logger.InfoContext(ctx, "case registered",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", c.ID,
		"created_by", actor.ID,
	)
	return c, nil
}

// GetCase returns a case with its evaluations.
func (s *Service) GetCase(ctx context.Context, caseID id.CaseID) (*Detail, error) {
	if _, err := authz.Require(ctx, authz.CaseRead); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, c)
}

// UpdateCase replaces the registration fields of a case still in
// REGISTRO_INICIAL. Only the creator, under the role it registered with, may
// edit.
func (s *Service) UpdateCase(ctx context.Context, caseID id.CaseID, reg models.Registration) (*models.Case, error) {
	actor, err := authz.Require(ctx, authz.CaseEdit)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	reg, err = reg.Normalize(now)
	if err != nil {
		return nil, toValidation(err)
	}

	c, err := s.loadOwned(ctx, caseID, actor)
	if err != nil {
		return nil, err
	}
	if !c.IsEditable() {
		return nil, dErrors.New(dErrors.CodeConflict, "only cases in REGISTRO_INICIAL can be edited")
	}
	c.ApplyRegistration(reg, now)

	err = s.cases.UpdateRegistration(ctx, c, []models.CaseStatus{models.StatusInitialRegistration})
	if err != nil {
		return nil, translate(err, "failed to update case")
	}
	s.logger.InfoContext(ctx, "case updated",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", c.ID,
	)
	return c, nil
}

// DeleteCase removes a case still in REGISTRO_INICIAL and its evaluations.
func (s *Service) DeleteCase(ctx context.Context, caseID id.CaseID) error {
	actor, err := authz.Require(ctx, authz.CaseEdit)
	if err != nil {
		return err
	}
	c, err := s.loadOwned(ctx, caseID, actor)
	if err != nil {
		return err
	}
	if !c.IsEditable() {
		return dErrors.New(dErrors.CodeConflict, "only cases in REGISTRO_INICIAL can be deleted")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.cases.Delete(ctx, caseID, []models.CaseStatus{models.StatusInitialRegistration}); err != nil {
			return err
		}
		return s.evaluations.DeleteForCase(ctx, caseID)
	})
	if err != nil {
		return translate(err, "failed to delete case")
	}
	s.logger.InfoContext(ctx, "case deleted",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
	)
	return nil
}

// SubmitForReview sends a case with a social evaluation straight to the
// administrator.
func (s *Service) SubmitForReview(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	if _, err := authz.Require(ctx, authz.CaseSubmit); err != nil {
		return nil, err
	}
	return s.advanceWithSocialEvaluation(ctx, caseID, models.StatusUnderAdministratorReview)
}

// RequestPsychologicalEvaluation parks a case until a psychologist attaches
// an evaluation, which then forwards it to the administrator.
func (s *Service) RequestPsychologicalEvaluation(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	if _, err := authz.Require(ctx, authz.CaseSubmit); err != nil {
		return nil, err
	}
	return s.advanceWithSocialEvaluation(ctx, caseID, models.StatusPendingPsychEvaluation)
}

func (s *Service) advanceWithSocialEvaluation(ctx context.Context, caseID id.CaseID, to models.CaseStatus) (c *models.Case, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "cases.Advance",
		attribute.Int64("case_id", int64(caseID)),
		attribute.String("to", string(to)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.load(ctx, caseID); err != nil {
		return nil, err
	}
	if _, err := s.evaluations.FindSocial(ctx, caseID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodePrecondition, "a social evaluation must be attached first")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load social evaluation")
	}

	start := time.Now()
	c, err = s.cases.Transition(ctx, store.Transition{
		CaseID: caseID,
		From:   []models.CaseStatus{models.StatusInitialRegistration},
		To:     to,
		At:     requestcontext.Now(ctx),
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			s.metrics.ObserveTransition(string(to), "conflict", start)
			return nil, dErrors.New(dErrors.CodeConflict, "case is no longer in REGISTRO_INICIAL")
		}
		return nil, translate(err, "failed to update case status")
	}
	s.metrics.ObserveTransition(string(to), "ok", start)
	c.Age = c.AgeAt(requestcontext.Now(ctx))

	s.logger.InfoContext(ctx, "case advanced",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"status", to,
	)
	return c, nil
}

// ListPendingReview lists cases awaiting the administrator with both
// evaluations.
func (s *Service) ListPendingReview(ctx context.Context) ([]*Detail, error) {
	if _, err := authz.Require(ctx, authz.CaseRead); err != nil {
		return nil, err
	}
	return s.details(ctx, models.StatusUnderAdministratorReview)
}

// ListPendingPsychological is the psychologist queue: cases waiting for a
// psychological evaluation, with the social evaluation that sent them there.
func (s *Service) ListPendingPsychological(ctx context.Context) ([]*Detail, error) {
	if _, err := authz.Require(ctx, authz.EvaluationPsych); err != nil {
		return nil, err
	}
	return s.details(ctx, models.StatusPendingPsychEvaluation)
}

func (s *Service) details(ctx context.Context, status models.CaseStatus) ([]*Detail, error) {
	cases, err := s.cases.List(ctx, store.Filter{Status: status})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}

	out := make([]*Detail, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, c := range cases {
		g.Go(func() error {
			d, err := s.detail(gctx, c)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMine lists the cases the actor registered, optionally by status.
func (s *Service) ListMine(ctx context.Context, status string) ([]*models.Case, error) {
	actor, err := authz.Require(ctx, authz.CaseCreate)
	if err != nil {
		return nil, err
	}
	f := store.Filter{CreatedBy: actor.ID}
	if status != "" {
		if f.Status, err = models.ParseCaseStatus(status); err != nil {
			return nil, err
		}
	}
	cases, err := s.cases.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	now := requestcontext.Now(ctx)
	for _, c := range cases {
		c.Age = c.AgeAt(now)
	}
	return cases, nil
}

// Stats counts cases per status. Social workers see their own registrations;
// other readers see every case.
func (s *Service) Stats(ctx context.Context) ([]models.StatusCount, error) {
	actor, err := authz.Require(ctx, authz.CaseRead)
	if err != nil {
		return nil, err
	}
	var scope id.UserID
	if actor.Role == authz.RoleSocialWorker {
		scope = actor.ID
	}
	counts, err := s.cases.CountByStatus(ctx, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count cases")
	}
	out := make([]models.StatusCount, 0, len(models.AllStatuses))
	for _, st := range models.AllStatuses {
		out = append(out, models.StatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, translate(err, "failed to load case")
	}
	c.Age = c.AgeAt(requestcontext.Now(ctx))
	return c, nil
}

func (s *Service) loadOwned(ctx context.Context, caseID id.CaseID, actor authz.Actor) (*models.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(actor) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the creator of the case may change it")
	}
	return c, nil
}

func (s *Service) detail(ctx context.Context, c *models.Case) (*Detail, error) {
	d := &Detail{Case: c}
	social, err := s.evaluations.FindSocial(ctx, c.ID)
	switch {
	case err == nil:
		d.Social = social
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load social evaluation")
	}
	psych, err := s.evaluations.FindPsychological(ctx, c.ID)
	switch {
	case err == nil:
		d.Psychological = psych
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load psychological evaluation")
	}
	return d, nil
}

// translate maps store sentinels to domain errors.
func translate(err error, internalMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "case status changed concurrently")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "a live case already uses this guardian or child CI")
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
