// Package service is the aid request pipeline: professionals file requests
// for active beneficiaries, reviewers approve or reject them, and deliveries
// are reconciled against an invoice.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	aidmetrics "oncofeliz/internal/aid/metrics"
	"oncofeliz/internal/aid/models"
	"oncofeliz/internal/aid/store"
	"oncofeliz/internal/authz"
	benmodels "oncofeliz/internal/beneficiary/models"
	casemodels "oncofeliz/internal/cases/models"
	"oncofeliz/internal/documents"
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

const tracerName = "oncofeliz/aid"

// Store persists aid requests with status-guarded writes.
type Store interface {
	Create(ctx context.Context, r *models.AidRequest) error
	FindByID(ctx context.Context, requestID id.AidRequestID) (*models.AidRequest, error)
	List(ctx context.Context, f store.Filter) ([]*models.AidRequest, error)
	Totals(ctx context.Context, requestedBy id.UserID) (*store.Totals, error)
	Transition(ctx context.Context, t store.Transition) (*models.AidRequest, error)
	Update(ctx context.Context, r *models.AidRequest, from []models.Status) error
	Delete(ctx context.Context, requestID id.AidRequestID, from []models.Status) error
}

type BeneficiaryReader interface {
	FindByID(ctx context.Context, beneficiaryID id.BeneficiaryID) (*benmodels.Beneficiary, error)
}

type CaseReader interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
}

type StaffReader interface {
	Get(ctx context.Context, memberID id.UserID) (*staff.Member, error)
}

// Identifiers allocates request codes.
type Identifiers interface {
	Next(ctx context.Context, kind identifier.Kind) (string, error)
}

// DocumentStore keeps supporting documents and invoices.
type DocumentStore interface {
	Save(ctx context.Context, kind documents.Kind, filename string, r io.Reader) (*documents.Document, error)
	Exists(ctx context.Context, ref string) (bool, error)
	Delete(ctx context.Context, ref string) error
}

type Notifier interface {
	Dispatch(ctx context.Context, e notify.Event)
}

// Upload is a PDF sent with the request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Decision values accepted by Review.
const (
	DecisionApprove = "aprobar"
	DecisionReject  = "rechazar"
)

type CreateInput struct {
	BeneficiaryID    id.BeneficiaryID
	Draft            models.Draft
	Document         *Upload
	ClaimedRequester id.UserID
}

type ReviewInput struct {
	RequestID       id.AidRequestID
	Decision        string
	Note            string // delivery instructions on approval, reason on rejection
	ClaimedReviewer id.UserID
}

type DeliveryInput struct {
	RequestID    id.AidRequestID
	RealCost     models.Cents
	Invoice      *Upload
	InvoiceRef   string
	Provider     string
	Observations string
	Instructions string
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	RequestID     id.AidRequestID
	Type          *string
	Priority      *string
	Detail        *string
	EstimatedCost *models.Cents
	DocumentRef   *string
}

// ListQuery filters listings; blank fields match everything.
type ListQuery struct {
	Status        string
	Type          string
	BeneficiaryID id.BeneficiaryID
	RequestedBy   id.UserID
}

// View is a request with the records it refers to.
type View struct {
	*models.AidRequest
	Beneficiary *benmodels.Beneficiary `json:"beneficiario,omitempty"`
	Case        *casemodels.Case       `json:"pacienteRegistro,omitempty"`
	Requester   *staff.Member          `json:"solicitadoPor,omitempty"`
	Reviewer    *staff.Member          `json:"revisadoPor,omitempty"`
}

type Service struct {
	requests      Store
	beneficiaries BeneficiaryReader
	cases         CaseReader
	staff         StaffReader
	identifiers   Identifiers
	documents     DocumentStore
	notifier      Notifier
	tx            txcontext.Runner
	logger        *slog.Logger
	metrics       *aidmetrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *aidmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(
	requests Store,
	beneficiaries BeneficiaryReader,
	cases CaseReader,
	staffReader StaffReader,
	identifiers Identifiers,
	docs DocumentStore,
	tx txcontext.Runner,
	opts ...Option,
) *Service {
	s := &Service{
		requests:      requests,
		beneficiaries: beneficiaries,
		cases:         cases,
		staff:         staffReader,
		identifiers:   identifiers,
		documents:     docs,
		tx:            tx,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest files a pending request for an active beneficiary.
func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (r *models.AidRequest, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "aid.CreateRequest",
		attribute.Int64("beneficiary_id", int64(in.BeneficiaryID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.AidCreate)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelf(actor, in.ClaimedRequester); err != nil {
		return nil, err
	}
	draft, err := in.Draft.Normalize()
	if err != nil {
		return nil, toValidation(err)
	}

	b, err := s.beneficiaries.FindByID(ctx, in.BeneficiaryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "beneficiary not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary")
	}
	if !b.CanRequestAid() {
		return nil, dErrors.New(dErrors.CodePrecondition,
			"beneficiary "+b.Code+" is "+string(b.Status)+"; aid requests need an ACTIVO beneficiary")
	}

	if draft.DocumentRef, err = s.resolveDocument(ctx, documents.KindAidSupport, in.Document, draft.DocumentRef, false); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		code, err := s.identifiers.Next(ctx, identifier.KindAidRequest)
		if err != nil {
			return err
		}
		r = models.New(code, b.ID, actor.ID, draft, now)
		return s.requests.Create(ctx, r)
	})
	if err != nil {
		s.discardUpload(ctx, in.Document, draft.DocumentRef)
		return nil, s.translate(err, "create", "failed to create aid request")
	}

	s.metrics.IncrementTransition(models.StatusPending)
	s.logger.InfoContext(ctx, "aid request created",
		"request_id", requestcontext.RequestID(ctx),
		"aid_request_id", r.ID,
		"code", r.Code,
		"beneficiary_id", b.ID,
		"type", r.Type,
		"priority", r.Priority,
	)
	s.dispatch(ctx, notify.EventAidCreated, r, actor.ID, nil)
	return r, nil
}

// Review approves or rejects a pending request. Approval moves it to
// RECEPCIONADO; rejection needs a reason and is final.
func (s *Service) Review(ctx context.Context, in ReviewInput) (r *models.AidRequest, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "aid.Review",
		attribute.Int64("aid_request_id", int64(in.RequestID)),
		attribute.String("decision", in.Decision),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.AidReview)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireSelf(actor, in.ClaimedReviewer); err != nil {
		return nil, err
	}

	t := store.Transition{
		RequestID:  in.RequestID,
		From:       []models.Status{models.StatusPending},
		ReviewedBy: actor.ID,
		At:         requestcontext.Now(ctx),
	}
	note := strings.TrimSpace(in.Note)
	event := notify.EventAidApproved
	switch strings.ToLower(strings.TrimSpace(in.Decision)) {
	case DecisionApprove:
		t.To = models.StatusReceived
		t.DeliveryInstructions = note
	case DecisionReject:
		if note == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "motivoRechazo is required to reject a request")
		}
		t.To = models.StatusRejected
		t.RejectionReason = note
		event = notify.EventAidRejected
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "decision must be aprobar or rechazar")
	}

	r, err = s.requests.Transition(ctx, t)
	if err != nil {
		return nil, s.translate(err, "review", "failed to review aid request")
	}

	s.metrics.IncrementTransition(r.Status)
	s.logger.InfoContext(ctx, "aid request reviewed",
		"request_id", requestcontext.RequestID(ctx),
		"aid_request_id", r.ID,
		"status", r.Status,
		"reviewed_by", actor.ID,
	)
	s.dispatch(ctx, event, r, actor.ID, map[string]any{"note": note})
	return r, nil
}

// MarkReadyForPickup flags an approved request as waiting for collection.
func (s *Service) MarkReadyForPickup(ctx context.Context, requestID id.AidRequestID) (r *models.AidRequest, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "aid.MarkReadyForPickup",
		attribute.Int64("aid_request_id", int64(requestID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.AidDeliver)
	if err != nil {
		return nil, err
	}
	r, err = s.requests.Transition(ctx, store.Transition{
		RequestID: requestID,
		From:      models.SourcesOf(models.StatusReadyForPickup),
		To:        models.StatusReadyForPickup,
		At:        requestcontext.Now(ctx),
	})
	if err != nil {
		return nil, s.translate(err, "ready", "failed to update aid request")
	}

	s.metrics.IncrementTransition(r.Status)
	s.logger.InfoContext(ctx, "aid request ready for pickup",
		"request_id", requestcontext.RequestID(ctx),
		"aid_request_id", r.ID,
		"changed_by", actor.ID,
	)
	s.dispatch(ctx, notify.EventAidReady, r, actor.ID, nil)
	return r, nil
}

// Deliver closes an approved request with its real cost and invoice. The
// estimate is advisory and never caps the real cost.
func (s *Service) Deliver(ctx context.Context, in DeliveryInput) (r *models.AidRequest, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "aid.Deliver",
		attribute.Int64("aid_request_id", int64(in.RequestID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	actor, err := authz.Require(ctx, authz.AidDeliver)
	if err != nil {
		return nil, err
	}
	d := models.Delivery{
		RealCost:     in.RealCost,
		InvoiceRef:   strings.TrimSpace(in.InvoiceRef),
		Provider:     strings.TrimSpace(in.Provider),
		Observations: strings.TrimSpace(in.Observations),
		Instructions: strings.TrimSpace(in.Instructions),
	}
	// An upload counts as the invoice before it is stored.
	pending := d
	if in.Invoice != nil {
		pending.InvoiceRef = string(documents.KindInvoice)
	}
	if err := pending.Validate(); err != nil {
		return nil, toValidation(err)
	}

	// Refuse before storing the invoice; the guarded write below still decides.
	cur, err := s.requests.FindByID(ctx, in.RequestID)
	if err != nil {
		return nil, s.translate(err, "deliver", "failed to load aid request")
	}
	sources := models.SourcesOf(models.StatusDelivered)
	if !slices.Contains(sources, cur.Status) {
		return nil, s.translate(sentinel.ErrInvalidState, "deliver", "")
	}
	if d.InvoiceRef, err = s.resolveDocument(ctx, documents.KindInvoice, in.Invoice, d.InvoiceRef, true); err != nil {
		return nil, err
	}

	r, err = s.requests.Transition(ctx, store.Transition{
		RequestID: in.RequestID,
		From:      sources,
		To:        models.StatusDelivered,
		At:        requestcontext.Now(ctx),
		Delivery:  &d,
	})
	if err != nil {
		s.discardUpload(ctx, in.Invoice, d.InvoiceRef)
		return nil, s.translate(err, "deliver", "failed to deliver aid request")
	}

	s.metrics.IncrementTransition(r.Status)
	s.metrics.ObserveDelivery(d.RealCost, r.EstimatedCost)
	s.logger.InfoContext(ctx, "aid request delivered",
		"request_id", requestcontext.RequestID(ctx),
		"aid_request_id", r.ID,
		"real_cost", d.RealCost.String(),
		"delivered_by", actor.ID,
	)
	s.dispatch(ctx, notify.EventAidDelivered, r, actor.ID, map[string]any{"realCost": d.RealCost.String()})
	return r, nil
}

// UpdateRequest edits a pending request. Only its requester may do so.
func (s *Service) UpdateRequest(ctx context.Context, in UpdateInput) (*models.AidRequest, error) {
	actor, err := authz.Require(ctx, authz.AidCreate)
	if err != nil {
		return nil, err
	}
	r, err := s.ownPending(ctx, actor, in.RequestID)
	if err != nil {
		return nil, err
	}

	draft := r.Draft()
	if in.Type != nil {
		draft.Type = models.Type(*in.Type)
	}
	if in.Priority != nil {
		draft.Priority = models.Priority(*in.Priority)
	}
	if in.Detail != nil {
		draft.Detail = *in.Detail
	}
	if in.EstimatedCost != nil {
		draft.EstimatedCost = in.EstimatedCost
	}
	if in.DocumentRef != nil {
		draft.DocumentRef = *in.DocumentRef
	}
	if draft, err = draft.Normalize(); err != nil {
		return nil, toValidation(err)
	}
	if draft.DocumentRef != r.DocumentRef {
		if _, err := s.resolveDocument(ctx, documents.KindAidSupport, nil, draft.DocumentRef, false); err != nil {
			return nil, err
		}
	}

	r.Apply(draft, requestcontext.Now(ctx))
	if err := s.requests.Update(ctx, r, []models.Status{models.StatusPending}); err != nil {
		return nil, s.translate(err, "update", "failed to update aid request")
	}
	s.logger.InfoContext(ctx, "aid request updated",
		"request_id", requestcontext.RequestID(ctx),
		"aid_request_id", r.ID,
	)
	return r, nil
}

// DeleteRequest removes a pending request. Only its requester may do so.
func (s *Service) DeleteRequest(ctx context.Context, requestID id.AidRequestID) error {
	actor, err := authz.Require(ctx, authz.AidCreate)
	if err != nil {
		return err
	}
	if _, err := s.ownPending(ctx, actor, requestID); err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, requestID, []models.Status{models.StatusPending}); err != nil {
		return s.translate(err, "delete", "failed to delete aid request")
	}
	s.logger.InfoContext(ctx, "aid request deleted",
		"request_id", requestcontext.RequestID(ctx),
		"aid_request_id", requestID,
		"deleted_by", actor.ID,
	)
	return nil
}

func (s *Service) Get(ctx context.Context, requestID id.AidRequestID) (*View, error) {
	if _, err := authz.Require(ctx, authz.AidRead); err != nil {
		return nil, err
	}
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.translate(err, "get", "failed to load aid request")
	}
	return s.view(ctx, r)
}

// ListByFilter lists requests by priority, then newest first.
func (s *Service) ListByFilter(ctx context.Context, q ListQuery) ([]*View, error) {
	if _, err := authz.Require(ctx, authz.AidRead); err != nil {
		return nil, err
	}
	f := store.Filter{BeneficiaryID: q.BeneficiaryID, RequestedBy: q.RequestedBy}
	if q.Status != "" {
		st, err := models.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		f.Status = st
	}
	if q.Type != "" {
		t, err := models.ParseType(q.Type)
		if err != nil {
			return nil, toValidation(err)
		}
		f.Type = t
	}
	return s.list(ctx, f)
}

// ListForBeneficiary lists the requests filed for one beneficiary. Staff who
// read aid requests may ask for any beneficiary; a BENEFICIARIO only for the
// one whose code its token holds.
func (s *Service) ListForBeneficiary(ctx context.Context, beneficiaryID id.BeneficiaryID) ([]*View, error) {
	actor, err := authz.ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.Role.Can(authz.AidRead):
	case actor.Role.Can(authz.AidReadOwn):
		if err := s.requireOwnBeneficiary(ctx, actor, beneficiaryID); err != nil {
			return nil, err
		}
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "role "+string(actor.Role)+" may not read aid requests")
	}
	return s.list(ctx, store.Filter{BeneficiaryID: beneficiaryID})
}

// requireOwnBeneficiary checks that beneficiaryID is the record bound to the
// actor's token. Unknown ids are refused the same way as foreign ones.
func (s *Service) requireOwnBeneficiary(ctx context.Context, actor authz.Actor, beneficiaryID id.BeneficiaryID) error {
	forbidden := dErrors.New(dErrors.CodeForbidden, "beneficiaries may only read their own aid requests")
	own, err := identifier.Normalize(identifier.KindBeneficiary, actor.BeneficiaryCode)
	if err != nil {
		return forbidden
	}
	b, err := s.beneficiaries.FindByID(ctx, beneficiaryID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return forbidden
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary")
	case b.Code != own:
		return forbidden
	}
	return nil
}

func (s *Service) list(ctx context.Context, f store.Filter) ([]*View, error) {
	list, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list aid requests")
	}
	out := make([]*View, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, r := range list {
		g.Go(func() error {
			v, err := s.view(gctx, r)
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

// SummaryStats counts requests per status and sums delivered costs,
// optionally for one requester.
func (s *Service) SummaryStats(ctx context.Context, requestedBy id.UserID) (*models.Summary, error) {
	if _, err := authz.Require(ctx, authz.AidRead); err != nil {
		return nil, err
	}
	t, err := s.requests.Totals(ctx, requestedBy)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to summarize aid requests")
	}
	out := &models.Summary{
		ByStatus:           make([]models.StatusCount, 0, len(models.AllStatuses)),
		EstimatedDelivered: t.EstimatedDelivered,
		RealDelivered:      t.RealDelivered,
	}
	for _, st := range models.AllStatuses {
		out.ByStatus = append(out.ByStatus, models.StatusCount{Status: st, Count: t.Counts[st]})
		out.Total += t.Counts[st]
	}
	return out, nil
}

func (s *Service) ownPending(ctx context.Context, actor authz.Actor, requestID id.AidRequestID) (*models.AidRequest, error) {
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, s.translate(err, "get", "failed to load aid request")
	}
	if r.RequestedBy != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the requester may change an aid request")
	}
	if r.Status != models.StatusPending {
		return nil, dErrors.New(dErrors.CodeConflict, "aid request can only change while PENDIENTE")
	}
	return r, nil
}

// resolveDocument stores the upload or checks that ref names a stored
// document. An empty ref is allowed unless required.
// discardUpload removes a document stored for a write that did not happen.
// References to documents stored earlier are left alone.
func (s *Service) discardUpload(ctx context.Context, upload *Upload, ref string) {
	if upload == nil || ref == "" {
		return
	}
	if err := s.documents.Delete(ctx, ref); err != nil {
		s.logger.WarnContext(ctx, "failed to remove unused document",
			"request_id", requestcontext.RequestID(ctx),
			"ref", ref,
			"error", err,
		)
	}
}

func (s *Service) resolveDocument(ctx context.Context, kind documents.Kind, upload *Upload, ref string, required bool) (string, error) {
	if upload != nil {
		doc, err := s.documents.Save(ctx, kind, upload.Filename, upload.Content)
		if err != nil {
			return "", err
		}
		return doc.Ref, nil
	}
	if ref == "" {
		if required {
			return "", dErrors.New(dErrors.CodeValidation, "a document is required")
		}
		return "", nil
	}
	ok, err := s.documents.Exists(ctx, ref)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check document")
	}
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "document reference does not name a stored document")
	}
	return ref, nil
}

func (s *Service) view(ctx context.Context, r *models.AidRequest) (*View, error) {
	v := &View{AidRequest: r}
	b, err := s.beneficiaries.FindByID(ctx, r.BeneficiaryID)
	switch {
	case err == nil:
		v.Beneficiary = b
		c, err := s.cases.FindByID(ctx, b.CaseID)
		switch {
		case err == nil:
			c.Age = c.AgeAt(requestcontext.Now(ctx))
			v.Case = c
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
		}
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load beneficiary")
	}
	if v.Requester, err = s.member(ctx, r.RequestedBy); err != nil {
		return nil, err
	}
	if !r.ReviewedBy.IsZero() {
		if v.Reviewer, err = s.member(ctx, r.ReviewedBy); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// member returns nil for accounts the directory no longer knows.
func (s *Service) member(ctx context.Context, memberID id.UserID) (*staff.Member, error) {
	m, err := s.staff.Get(ctx, memberID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (s *Service) dispatch(ctx context.Context, typ notify.EventType, r *models.AidRequest, actor id.UserID, extra map[string]any) {
	if s.notifier == nil {
		return
	}
	data := map[string]any{
		"aidRequestId":  int64(r.ID),
		"beneficiaryId": int64(r.BeneficiaryID),
		"requestedBy":   int64(r.RequestedBy),
		"status":        string(r.Status),
	}
	for k, v := range extra {
		data[k] = v
	}
	s.notifier.Dispatch(ctx, notify.NewEvent(ctx, typ, r.Code, actor, data))
}

func (s *Service) translate(err error, operation, internalMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "aid request not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		s.metrics.IncrementConflict(operation)
		return dErrors.New(dErrors.CodeConflict, "aid request status does not allow this change")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "aid request code already used")
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
