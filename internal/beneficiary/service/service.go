// Package service is the beneficiary directory: lookups, listings and the
// administrative status of accepted cases.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"oncofeliz/internal/authz"
	benmetrics "oncofeliz/internal/beneficiary/metrics"
	"oncofeliz/internal/beneficiary/models"
	"oncofeliz/internal/beneficiary/store"
	casemodels "oncofeliz/internal/cases/models"
	"oncofeliz/internal/identifier"
	"oncofeliz/internal/staff"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/sentinel"
	"oncofeliz/pkg/requestcontext"
)

// Store persists beneficiaries.
type Store interface {
	FindByID(ctx context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error)
	FindByCode(ctx context.Context, code string) (*models.Beneficiary, error)
	List(ctx context.Context, f store.Filter) ([]*models.Beneficiary, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	SetStatus(ctx context.Context, beneficiaryID id.BeneficiaryID, status models.Status, at time.Time) (*models.Beneficiary, error)
}

// CaseReader loads the case behind a beneficiary.
type CaseReader interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
}

// StaffReader resolves the assigned professional.
type StaffReader interface {
	Get(ctx context.Context, memberID id.UserID) (*staff.Member, error)
}

// View is a beneficiary with its case and assigned professional.
type View struct {
	*models.Beneficiary
	Case     *casemodels.Case `json:"pacienteRegistro,omitempty"`
	Assigned *staff.Member    `json:"asignadoA,omitempty"`
}

type Service struct {
	beneficiaries Store
	cases         CaseReader
	staff         StaffReader
	logger        *slog.Logger
	metrics       *benmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *benmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(beneficiaries Store, cases CaseReader, staffReader StaffReader, opts ...Option) *Service {
	s := &Service{
		beneficiaries: beneficiaries,
		cases:         cases,
		staff:         staffReader,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetStatus changes the administrative status. Every status may follow any
// other.
func (s *Service) SetStatus(ctx context.Context, beneficiaryID id.BeneficiaryID, rawStatus string) (*models.Beneficiary, error) {
	actor, err := authz.Require(ctx, authz.BeneficiaryStatus)
	if err != nil {
		return nil, err
	}
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	b, err := s.beneficiaries.SetStatus(ctx, beneficiaryID, status, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "failed to update beneficiary status")
	}

	s.metrics.IncrementStatusChange(string(status))
	s.logger.InfoContext(ctx, "beneficiary status changed",
		"request_id", requestcontext.RequestID(ctx),
		"beneficiary_id", beneficiaryID,
		"status", status,
		"changed_by", actor.ID,
	)
	return b, nil
}

// Get returns one beneficiary with its case.
func (s *Service) Get(ctx context.Context, beneficiaryID id.BeneficiaryID) (*View, error) {
	if _, err := authz.Require(ctx, authz.BeneficiaryRead); err != nil {
		return nil, err
	}
	b, err := s.beneficiaries.FindByID(ctx, beneficiaryID)
	if err != nil {
		return nil, translate(err, "failed to load beneficiary")
	}
	return s.view(ctx, b)
}

// GetByCode looks a beneficiary up by its public code. A BENEFICIARIO actor
// may only read the record whose code it holds.
func (s *Service) GetByCode(ctx context.Context, code string) (*View, error) {
	actor, err := authz.ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Can(authz.BeneficiaryRead) && !actor.Role.Can(authz.BeneficiaryReadOwn) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role "+string(actor.Role)+" may not read beneficiaries")
	}
	code, err = identifier.Normalize(identifier.KindBeneficiary, code)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Can(authz.BeneficiaryRead) {
		own, err := identifier.Normalize(identifier.KindBeneficiary, actor.BeneficiaryCode)
		if err != nil || own != code {
			return nil, dErrors.New(dErrors.CodeForbidden, "beneficiaries may only read their own record")
		}
	}

	b, err := s.beneficiaries.FindByCode(ctx, code)
	if err != nil {
		return nil, translate(err, "failed to load beneficiary")
	}
	return s.view(ctx, b)
}

// ListAll lists beneficiaries, optionally by status and assigned professional.
func (s *Service) ListAll(ctx context.Context, rawStatus string, assignedTo id.UserID) ([]*View, error) {
	if _, err := authz.Require(ctx, authz.BeneficiaryRead); err != nil {
		return nil, err
	}
	f := store.Filter{AssignedTo: assignedTo}
	if rawStatus != "" {
		st, err := models.ParseStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	return s.list(ctx, f)
}

// ListByAssignedProfessional lists the beneficiaries in one professional's care.
func (s *Service) ListByAssignedProfessional(ctx context.Context, professionalID id.UserID) ([]*View, error) {
	if _, err := authz.Require(ctx, authz.BeneficiaryRead); err != nil {
		return nil, err
	}
	if professionalID.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "professional id is required")
	}
	return s.list(ctx, store.Filter{AssignedTo: professionalID})
}

// SummaryStats counts beneficiaries per status.
func (s *Service) SummaryStats(ctx context.Context) (*models.Summary, error) {
	if _, err := authz.Require(ctx, authz.BeneficiaryRead); err != nil {
		return nil, err
	}
	counts, err := s.beneficiaries.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count beneficiaries")
	}
	out := &models.Summary{ByStatus: make([]models.StatusCount, 0, len(models.AllStatuses))}
	for _, st := range models.AllStatuses {
		out.ByStatus = append(out.ByStatus, models.StatusCount{Status: st, Count: counts[st]})
		out.Total += counts[st]
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, f store.Filter) ([]*View, error) {
	list, err := s.beneficiaries.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list beneficiaries")
	}
	out := make([]*View, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, b := range list {
		g.Go(func() error {
			v, err := s.view(gctx, b)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, b *models.Beneficiary) (*View, error) {
	v := &View{Beneficiary: b}
	c, err := s.cases.FindByID(ctx, b.CaseID)
	switch {
	case err == nil:
		c.Age = c.AgeAt(requestcontext.Now(ctx))
		v.Case = c
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	m, err := s.staff.Get(ctx, b.AssignedTo)
	switch {
	case err == nil:
		v.Assigned = m
	case !dErrors.HasCode(err, dErrors.CodeNotFound):
		return nil, err
	}
	return v, nil
}

func translate(err error, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}
