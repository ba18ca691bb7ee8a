// Package service builds aid request reports: per-type totals and the xlsx
// export used by the charity's accounting.
package service

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"oncofeliz/internal/aid/models"
	aidservice "oncofeliz/internal/aid/service"
	"oncofeliz/internal/authz"
	"oncofeliz/internal/platform/observability"
	"oncofeliz/pkg/requestcontext"
)

const tracerName = "oncofeliz/reports"

// AidLister is the read side of the aid request pipeline.
type AidLister interface {
	ListByFilter(ctx context.Context, q aidservice.ListQuery) ([]*aidservice.View, error)
}

// TypeTotals aggregates the requests of one aid type.
type TypeTotals struct {
	Type               models.Type  `json:"tipoAyuda"`
	Count              int          `json:"cantidad"`
	Delivered          int          `json:"entregadas"`
	EstimatedDelivered models.Cents `json:"costoEstimadoEntregado"`
	RealDelivered      models.Cents `json:"costoRealEntregado"`
}

// AidReport is the JSON summary behind GET /reportes/solicitudes.
type AidReport struct {
	ByType             []TypeTotals `json:"porTipo"`
	Total              int          `json:"total"`
	Delivered          int          `json:"entregadas"`
	EstimatedDelivered models.Cents `json:"costoEstimadoEntregado"`
	RealDelivered      models.Cents `json:"costoRealEntregado"`
}

// Export is a rendered workbook.
type Export struct {
	Filename string
	Content  []byte
	Rows     int
}

type Service struct {
	aid    AidLister
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(aid AidLister, opts ...Option) *Service {
	s := &Service{aid: aid, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AidSummary totals the filtered requests per aid type. Every type appears,
// even with zero requests.
func (s *Service) AidSummary(ctx context.Context, q aidservice.ListQuery) (rep *AidReport, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "reports.AidSummary")
	defer func() { observability.EndSpan(span, err) }()

	list, err := s.list(ctx, q)
	if err != nil {
		return nil, err
	}
	byType := make(map[models.Type]*TypeTotals, len(models.AllTypes))
	rep = &AidReport{ByType: make([]TypeTotals, 0, len(models.AllTypes))}
	for _, t := range models.AllTypes {
		byType[t] = &TypeTotals{Type: t}
	}
	for _, v := range list {
		tt, ok := byType[v.Type]
		if !ok {
			continue
		}
		tt.Count++
		rep.Total++
		if v.Status != models.StatusDelivered {
			continue
		}
		tt.Delivered++
		rep.Delivered++
		if v.EstimatedCost != nil {
			tt.EstimatedDelivered += *v.EstimatedCost
			rep.EstimatedDelivered += *v.EstimatedCost
		}
		if v.RealCost != nil {
			tt.RealDelivered += *v.RealCost
			rep.RealDelivered += *v.RealCost
		}
	}
	for _, t := range models.AllTypes {
		rep.ByType = append(rep.ByType, *byType[t])
	}
	return rep, nil
}

// ExportAidRequests renders the filtered requests as an xlsx workbook, oldest
// first.
func (s *Service) ExportAidRequests(ctx context.Context, q aidservice.ListQuery) (out *Export, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "reports.ExportAidRequests",
		attribute.String("status", q.Status),
	)
	defer func() { observability.EndSpan(span, err) }()

	list, err := s.list(ctx, q)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b *aidservice.View) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	content, err := renderAidWorkbook(list)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	s.logger.InfoContext(ctx, "aid requests exported",
		"request_id", requestcontext.RequestID(ctx),
		"rows", len(list),
	)
	return &Export{
		Filename: "solicitudes_" + now.Format("2006-01-02") + ".xlsx",
		Content:  content,
		Rows:     len(list),
	}, nil
}

func (s *Service) list(ctx context.Context, q aidservice.ListQuery) ([]*aidservice.View, error) {
	if _, err := authz.Require(ctx, authz.ReportRead); err != nil {
		return nil, err
	}
	return s.aid.ListByFilter(ctx, q)
}
