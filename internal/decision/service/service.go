// Package service is the decision gate: an administrator accepts a reviewed
// case, turning it into a beneficiary, or rejects it with a reason.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"oncofeliz/internal/authz"
	benmodels "oncofeliz/internal/beneficiary/models"
	casemodels "oncofeliz/internal/cases/models"
	casestore "oncofeliz/internal/cases/store"
	decisionmetrics "oncofeliz/internal/decision/metrics"
	"oncofeliz/internal/identifier"
	"oncofeliz/internal/notify"
	"oncofeliz/internal/platform/observability"
	"oncofeliz/internal/staff"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
	"oncofeliz/pkg/requestcontext"
)

const tracerName = "oncofeliz/decision"

type CaseStore interface {
	Transition(ctx context.Context, t casestore.Transition) (*casemodels.Case, error)
}

type BeneficiaryStore interface {
	Create(ctx context.Context, b *benmodels.Beneficiary) error
}

// Identifiers allocates beneficiary codes.
type Identifiers interface {
	Next(ctx context.Context, kind identifier.Kind) (string, error)
}

// StaffDirectory validates and lists the professionals a beneficiary can be
// assigned to.
type StaffDirectory interface {
	RequireAssignable(ctx context.Context, memberID id.UserID) (*staff.Member, error)
	ListAssignable(ctx context.Context) ([]*staff.Member, error)
}

// Notifier publishes lifecycle events after commit.
type Notifier interface {
	Dispatch(ctx context.Context, e notify.Event)
}

// Acceptance is the outcome of accepting a case.
type Acceptance struct {
	Beneficiary *benmodels.Beneficiary `json:"beneficiario"`
	Case        *casemodels.Case       `json:"pacienteRegistro"`
}

type Service struct {
	cases         CaseStore
	beneficiaries BeneficiaryStore
	identifiers   Identifiers
	staff         StaffDirectory
	notifier      Notifier
	tx            txcontext.Runner
	logger        *slog.Logger
	metrics       *decisionmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *decisionmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(cases CaseStore, beneficiaries BeneficiaryStore, identifiers Identifiers, staffDir StaffDirectory, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		cases:         cases,
		beneficiaries: beneficiaries,
		identifiers:   identifiers,
		staff:         staffDir,
		tx:            tx,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAssignees lists the active professionals an accepted case can be
// assigned to.
func (s *Service) ListAssignees(ctx context.Context) ([]*staff.Member, error) {
	if _, err := authz.Require(ctx, authz.CaseDecide); err != nil {
		return nil, err
	}
	return s.staff.ListAssignable(ctx)
}

// Accept activates a case under review and creates its beneficiary in one
// transaction. Concurrent accepts of the same case yield exactly one
// beneficiary; the others get a conflict.
func (s *Service) Accept(ctx context.Context, caseID id.CaseID, assignedTo, claimedAdmin id.UserID) (res *Acceptance, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "decision.Accept",
		attribute.Int64("case_id", int64(caseID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.CaseDecide)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelf(actor, claimedAdmin); err != nil {
		return nil, err
	}
	if _, err := s.staff.RequireAssignable(ctx, assignedTo); err != nil {
		return nil, err
	}

	start := time.Now()
	now := requestcontext.Now(ctx)
	res = &Acceptance{}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.Transition(ctx, casestore.Transition{
			CaseID: caseID,
			From:   []casemodels.CaseStatus{casemodels.StatusUnderAdministratorReview},
			To:     casemodels.StatusActiveBeneficiary,
			At:     now,
		})
		if err != nil {
			return err
		}
		code, err := s.identifiers.Next(ctx, identifier.KindBeneficiary)
		if err != nil {
			return err
		}
		b := benmodels.New(code, caseID, assignedTo, actor.ID, now)
		if err := s.beneficiaries.Create(ctx, b); err != nil {
			return err
		}
		res.Case, res.Beneficiary = c, b
		return nil
	})
	s.metrics.ObserveAcceptLatency(time.Since(start))
	if err != nil {
		err = s.translate(err, "failed to accept case")
		return nil, err
	}
	res.Case.Age = res.Case.AgeAt(now)
	s.metrics.IncrementOutcome("accepted")

	s.logger.InfoContext(ctx, "case accepted",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"beneficiary_code", res.Beneficiary.Code,
		"assigned_to", assignedTo,
		"accepted_by", actor.ID,
	)
	s.dispatch(ctx, notify.NewEvent(ctx, notify.EventCaseAccepted, res.Beneficiary.Code, actor.ID, map[string]any{
		"caseId":        int64(caseID),
		"beneficiaryId": int64(res.Beneficiary.ID),
		"assignedTo":    int64(assignedTo),
	}))
	return res, nil
}

// Reject closes a case under review, keeping the trimmed reason.
func (s *Service) Reject(ctx context.Context, caseID id.CaseID, reason string, claimedAdmin id.UserID) (c *casemodels.Case, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "decision.Reject",
		attribute.Int64("case_id", int64(caseID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.CaseDecide)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelf(actor, claimedAdmin); err != nil {
		return nil, err
	}
	reason, err = casemodels.NormalizeRejectionReason(reason)
	if err != nil {
		de, _ := dErrors.As(err)
		return nil, dErrors.New(dErrors.CodeValidation, de.Message)
	}

	now := requestcontext.Now(ctx)
	c, err = s.cases.Transition(ctx, casestore.Transition{
		CaseID:          caseID,
		From:            []casemodels.CaseStatus{casemodels.StatusUnderAdministratorReview},
		To:              casemodels.StatusRejected,
		RejectionReason: reason,
		At:              now,
	})
	if err != nil {
		err = s.translate(err, "failed to reject case")
		return nil, err
	}
	c.Age = c.AgeAt(now)
	s.metrics.IncrementOutcome("rejected")

	s.logger.InfoContext(ctx, "case rejected",
		"request_id", requestcontext.RequestID(ctx),
		"case_id", caseID,
		"rejected_by", actor.ID,
	)
	s.dispatch(ctx, notify.NewEvent(ctx, notify.EventCaseRejected, caseID.String(), actor.ID, map[string]any{
		"caseId": int64(caseID),
		"reason": reason,
	}))
	return c, nil
}

func (s *Service) dispatch(ctx context.Context, e notify.Event) {
	if s.notifier != nil {
		s.notifier.Dispatch(ctx, e)
	}
}

func (s *Service) translate(err error, internalMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		s.metrics.IncrementOutcome("conflict")
		return dErrors.New(dErrors.CodeConflict, "case is not awaiting an administrator decision")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		s.metrics.IncrementOutcome("conflict")
		return dErrors.New(dErrors.CodeConflict, "case already has a beneficiary")
	default:
		if _, ok := dErrors.As(err); ok {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
	}
}
