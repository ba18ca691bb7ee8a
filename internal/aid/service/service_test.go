package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	aidmetrics "oncofeliz/internal/aid/metrics"
	"oncofeliz/internal/aid/models"
	"oncofeliz/internal/aid/store"
	"oncofeliz/internal/authz"
	benmodels "oncofeliz/internal/beneficiary/models"
	benstore "oncofeliz/internal/beneficiary/store"
	casemodels "oncofeliz/internal/cases/models"
	casestore "oncofeliz/internal/cases/store"
	"oncofeliz/internal/documents"
	"oncofeliz/internal/identifier"
	"oncofeliz/internal/notify"
	"oncofeliz/internal/staff"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
	"oncofeliz/pkg/requestcontext"
	pkgtestutil "oncofeliz/pkg/testutil"
)

const (
	admin        id.UserID = 1
	socialWorker id.UserID = 10
	assistant    id.UserID = 30
)

var fixedNow = time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Dispatch(_ context.Context, e notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) last() notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

type ServiceSuite struct {
	suite.Suite
	requests      *store.InMemory
	beneficiaries *benstore.InMemory
	cases         *casestore.InMemory
	directory     *staff.Directory
	docs          *documents.LocalStore
	docsDir       string
	notifier      *recordingNotifier
	metrics       *aidmetrics.Metrics
	service       *Service

	active   id.BeneficiaryID
	inactive id.BeneficiaryID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	var err error
	s.requests = store.NewInMemory()
	s.beneficiaries = benstore.NewInMemory()
	s.docsDir = s.T().TempDir()
	s.docs, err = documents.NewLocalStore(s.docsDir, 0)
	s.Require().NoError(err)
	s.notifier = &recordingNotifier{}
	s.metrics = aidmetrics.New(prometheus.NewRegistry())

	s.cases = casestore.NewInMemory()
	s.directory = staff.NewDirectory(staff.NewInMemory(
		&staff.Member{ID: assistant, FullName: "Ana Quispe", Role: authz.RoleAssistant, Active: true},
		&staff.Member{ID: socialWorker, FullName: "Carla Rojas", Role: authz.RoleSocialWorker, Active: true},
		&staff.Member{ID: admin, FullName: "Directora", Role: authz.RoleAdmin, Active: true},
	))
	s.service = New(s.requests, s.beneficiaries, s.cases, s.directory,
		identifier.New(identifier.NewMemorySequence()),
		s.docs,
		&txcontext.LocalRunner{},
		WithMetrics(s.metrics),
		WithNotifier(s.notifier),
	)

	s.active = s.seedBeneficiary(s.cases, "B001", "5001")
	s.inactive = s.seedBeneficiary(s.cases, "B002", "5002")
	_, err = s.beneficiaries.SetStatus(context.Background(), s.inactive, benmodels.StatusInactive, fixedNow)
	s.Require().NoError(err)
}

func (s *ServiceSuite) seedBeneficiary(cases *casestore.InMemory, code, guardianCI string) id.BeneficiaryID {
	c, err := casemodels.NewCase(casemodels.Registration{
		ChildName: "Ana Mamani",
		BirthDate: time.Date(2018, 3, 3, 0, 0, 0, 0, time.UTC),
		Diagnosis: "Leucemia",
		Guardian: casemodels.Guardian{
			Name: "Eva Mamani", CI: guardianCI, Relationship: "Madre", Phone: "7222", Address: "Villa Fátima",
		},
	}, socialWorker, authz.RoleSocialWorker, fixedNow)
	s.Require().NoError(err)
	s.Require().NoError(cases.Create(context.Background(), c))
	b := benmodels.New(code, c.ID, assistant, admin, fixedNow)
	s.Require().NoError(s.beneficiaries.Create(context.Background(), b))
	return b.ID
}

func (s *ServiceSuite) as(user id.UserID, role authz.Role) context.Context {
	ctx := requestcontext.WithTime(context.Background(), fixedNow)
	return authz.WithActor(ctx, user, role)
}

func (s *ServiceSuite) pdf() *Upload {
	return &Upload{Filename: "doc.pdf", Content: bytes.NewReader(pkgtestutil.SamplePDF())}
}

func (s *ServiceSuite) create(priority string) *models.AidRequest {
	estimate := models.Cents(30000)
	r, err := s.service.CreateRequest(s.as(socialWorker, authz.RoleSocialWorker), CreateInput{
		BeneficiaryID: s.active,
		Draft: models.Draft{
			Type: "MEDICAMENTOS", Priority: models.Priority(priority), Detail: "Metotrexato", EstimatedCost: &estimate,
		},
	})
	s.Require().NoError(err)
	return r
}

func (s *ServiceSuite) approve(requestID id.AidRequestID) {
	_, err := s.service.Review(s.as(assistant, authz.RoleAssistant), ReviewInput{RequestID: requestID, Decision: DecisionApprove})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCreateRequest() {
	s.Run("pending with a fresh code", func() {
		r, err := s.service.CreateRequest(s.as(socialWorker, authz.RoleSocialWorker), CreateInput{
			BeneficiaryID: s.active,
			Draft:         models.Draft{Type: "alimentos", Detail: " Canasta familiar "},
			Document:      s.pdf(),
		})
		s.Require().NoError(err)
		s.Equal("SOL-001", r.Code)
		s.Equal(models.StatusPending, r.Status)
		s.Equal(models.PriorityMedium, r.Priority)
		s.Equal("Canasta familiar", r.Detail)
		s.Equal(socialWorker, r.RequestedBy)
		s.True(documents.ValidRef(r.DocumentRef))
		s.Equal(notify.EventAidCreated, s.notifier.last().Type)
		s.Equal("SOL-001", s.notifier.last().Key)

		r2 := s.create("ALTA")
		s.Equal("SOL-002", r2.Code)
	})

	s.Run("inactive beneficiary", func() {
		_, err := s.service.CreateRequest(s.as(socialWorker, authz.RoleSocialWorker), CreateInput{
			BeneficiaryID: s.inactive,
			Draft:         models.Draft{Type: "OTRO", Detail: "x"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodePrecondition))
	})

	s.Run("missing beneficiary", func() {
		_, err := s.service.CreateRequest(s.as(socialWorker, authz.RoleSocialWorker), CreateInput{
			BeneficiaryID: 99,
			Draft:         models.Draft{Type: "OTRO", Detail: "x"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("invalid draft", func() {
		for _, d := range []models.Draft{
			{Type: "JUGUETES", Detail: "x"},
			{Type: "OTRO", Detail: ""},
			{Type: "OTRO", Priority: "INMEDIATA", Detail: "x"},
		} {
			_, err := s.service.CreateRequest(s.as(socialWorker, authz.RoleSocialWorker), CreateInput{BeneficiaryID: s.active, Draft: d})
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "%+v", d)
		}
	})

	s.Run("unknown document ref", func() {
		_, err := s.service.CreateRequest(s.as(socialWorker, authz.RoleSocialWorker), CreateInput{
			BeneficiaryID: s.active,
			Draft:         models.Draft{Type: "OTRO", Detail: "x", DocumentRef: "solicitudes/nope.pdf"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("claimed requester must be the caller", func() {
		_, err := s.service.CreateRequest(s.as(socialWorker, authz.RoleSocialWorker), CreateInput{
			BeneficiaryID:    s.active,
			Draft:            models.Draft{Type: "OTRO", Detail: "x"},
			ClaimedRequester: assistant,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("beneficiaries cannot file requests", func() {
		_, err := s.service.CreateRequest(s.as(500, authz.RoleBeneficiary), CreateInput{
			BeneficiaryID: s.active,
			Draft:         models.Draft{Type: "OTRO", Detail: "x"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestReview() {
	s.Run("approve records the reviewer and instructions", func() {
		r := s.create("")
		got, err := s.service.Review(s.as(assistant, authz.RoleAssistant), ReviewInput{
			RequestID: r.ID, Decision: "Aprobar", Note: " Recoger el lunes ", ClaimedReviewer: assistant,
		})
		s.Require().NoError(err)
		s.Equal(models.StatusReceived, got.Status)
		s.Equal(assistant, got.ReviewedBy)
		s.Equal("Recoger el lunes", got.DeliveryInstructions)
		s.Equal(notify.EventAidApproved, s.notifier.last().Type)

		_, err = s.service.Review(s.as(admin, authz.RoleAdmin), ReviewInput{RequestID: r.ID, Decision: DecisionReject, Note: "tarde"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Conflicts.WithLabelValues("review")))
	})

	s.Run("reject requires a reason", func() {
		r := s.create("")
		_, err := s.service.Review(s.as(admin, authz.RoleAdmin), ReviewInput{RequestID: r.ID, Decision: DecisionReject, Note: "  "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		got, err := s.service.Review(s.as(admin, authz.RoleAdmin), ReviewInput{RequestID: r.ID, Decision: DecisionReject, Note: "Duplicada"})
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, got.Status)
		s.Equal("Duplicada", got.RejectionReason)

		_, err = s.service.MarkReadyForPickup(s.as(admin, authz.RoleAdmin), r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown decision", func() {
		r := s.create("")
		_, err := s.service.Review(s.as(admin, authz.RoleAdmin), ReviewInput{RequestID: r.ID, Decision: "APROBADA"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing request", func() {
		_, err := s.service.Review(s.as(admin, authz.RoleAdmin), ReviewInput{RequestID: 999, Decision: DecisionApprove})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("social workers do not review", func() {
		r := s.create("")
		_, err := s.service.Review(s.as(socialWorker, authz.RoleSocialWorker), ReviewInput{RequestID: r.ID, Decision: DecisionApprove})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestDeliver() {
	s.Run("real cost and invoice are required", func() {
		r := s.create("")
		s.approve(r.ID)

		_, err := s.service.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{RequestID: r.ID, RealCost: 0, Invoice: s.pdf()})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{RequestID: r.ID, RealCost: 35000})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.service.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{
			RequestID: r.ID, RealCost: 35000, InvoiceRef: "facturas/00000000-0000-0000-0000-000000000000.pdf",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), "ref must name a stored document")
	})

	s.Run("delivered requests are final", func() {
		r := s.create("")
		s.approve(r.ID)

		got, err := s.service.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{
			RequestID: r.ID, RealCost: 35000, Invoice: s.pdf(), Provider: " Farmacorp ",
		})
		s.Require().NoError(err)
		s.Equal(models.StatusDelivered, got.Status)
		s.Equal(models.Cents(35000), *got.RealCost)
		s.Equal("Farmacorp", got.Provider)
		s.True(documents.ValidRef(got.InvoiceRef))
		s.Require().NotNil(got.DeliveredAt)
		s.Equal(fixedNow, *got.DeliveredAt)
		s.Equal(notify.EventAidDelivered, s.notifier.last().Type)

		_, err = s.service.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{
			RequestID: r.ID, RealCost: 100, InvoiceRef: got.InvoiceRef,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		_, err = s.service.Review(s.as(admin, authz.RoleAdmin), ReviewInput{RequestID: r.ID, Decision: DecisionApprove})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		b, err := s.beneficiaries.FindByID(context.Background(), s.active)
		s.Require().NoError(err)
		s.Equal(benmodels.StatusActive, b.Status)
	})

	s.Run("from ready for pickup", func() {
		r := s.create("")
		s.approve(r.ID)
		ready, err := s.service.MarkReadyForPickup(s.as(assistant, authz.RoleAssistant), r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusReadyForPickup, ready.Status)

		doc, err := s.docs.Save(context.Background(), documents.KindInvoice, "f.pdf", bytes.NewReader(pkgtestutil.SamplePDF()))
		s.Require().NoError(err)
		got, err := s.service.Deliver(s.as(admin, authz.RoleAdmin), DeliveryInput{
			RequestID: r.ID, RealCost: 12050, InvoiceRef: doc.Ref, Instructions: "Entregado en domicilio",
		})
		s.Require().NoError(err)
		s.Equal(doc.Ref, got.InvoiceRef)
		s.Equal("Entregado en domicilio", got.DeliveryInstructions)
	})

	s.Run("pending requests cannot be delivered", func() {
		r := s.create("")
		_, err := s.service.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{RequestID: r.ID, RealCost: 100, Invoice: s.pdf()})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// lostRaceStore reports every delivery as overtaken by a concurrent write.
type lostRaceStore struct {
	*store.InMemory
}

func (l lostRaceStore) Transition(ctx context.Context, t store.Transition) (*models.AidRequest, error) {
	if t.To == models.StatusDelivered {
		return nil, sentinel.ErrInvalidState
	}
	return l.InMemory.Transition(ctx, t)
}

func (s *ServiceSuite) TestLostDeliveryKeepsNoUploadedInvoice() {
	svc := New(lostRaceStore{s.requests}, s.beneficiaries, s.cases, s.directory,
		identifier.New(identifier.NewMemorySequence()), s.docs, &txcontext.LocalRunner{})

	s.Run("uploaded invoice is removed", func() {
		r := s.create("")
		s.approve(r.ID)
		_, err := svc.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{RequestID: r.ID, RealCost: 100, Invoice: s.pdf()})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		entries, err := os.ReadDir(filepath.Join(s.docsDir, string(documents.KindInvoice)))
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("referenced invoice is kept", func() {
		r := s.create("")
		s.approve(r.ID)
		doc, err := s.docs.Save(context.Background(), documents.KindInvoice, "f.pdf", bytes.NewReader(pkgtestutil.SamplePDF()))
		s.Require().NoError(err)
		_, err = svc.Deliver(s.as(assistant, authz.RoleAssistant), DeliveryInput{RequestID: r.ID, RealCost: 100, InvoiceRef: doc.Ref})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		ok, err := s.docs.Exists(context.Background(), doc.Ref)
		s.Require().NoError(err)
		s.True(ok)
	})
}

func (s *ServiceSuite) TestConcurrentTransitionsHaveOneWinner() {
	r := s.create("")

	run := func(fn func() error) (ok, conflicts int) {
		const attempts = 6
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := fn()
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case dErrors.HasCode(err, dErrors.CodeConflict):
					conflicts++
				}
			}()
		}
		wg.Wait()
		return ok, conflicts
	}

	ok, conflicts := run(func() error {
		_, err := s.service.Review(s.as(admin, authz.RoleAdmin), ReviewInput{RequestID: r.ID, Decision: DecisionApprove})
		return err
	})
	s.Equal(1, ok)
	s.Equal(5, conflicts)

	doc, err := s.docs.Save(context.Background(), documents.KindInvoice, "f.pdf", bytes.NewReader(pkgtestutil.SamplePDF()))
	s.Require().NoError(err)
	ok, conflicts = run(func() error {
		_, err := s.service.Deliver(s.as(admin, authz.RoleAdmin), DeliveryInput{RequestID: r.ID, RealCost: 100, InvoiceRef: doc.Ref})
		return err
	})
	s.Equal(1, ok)
	s.Equal(5, conflicts)
}

func (s *ServiceSuite) TestUpdateAndDelete() {
	s.Run("requester edits while pending", func() {
		r := s.create("")
		detail, priority := "Metotrexato y ondansetrón", "urgente"
		got, err := s.service.UpdateRequest(s.as(socialWorker, authz.RoleSocialWorker), UpdateInput{
			RequestID: r.ID, Detail: &detail, Priority: &priority,
		})
		s.Require().NoError(err)
		s.Equal(detail, got.Detail)
		s.Equal(models.PriorityUrgent, got.Priority)
		s.Equal(models.TypeMedication, got.Type)
		s.Equal(models.Cents(30000), *got.EstimatedCost)
	})

	s.Run("another professional may not edit", func() {
		r := s.create("")
		detail := "x"
		_, err := s.service.UpdateRequest(s.as(assistant, authz.RoleAssistant), UpdateInput{RequestID: r.ID, Detail: &detail})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.True(dErrors.HasCode(s.service.DeleteRequest(s.as(assistant, authz.RoleAssistant), r.ID), dErrors.CodeForbidden))
	})

	s.Run("reviewed requests are locked", func() {
		r := s.create("")
		s.approve(r.ID)
		detail := "x"
		_, err := s.service.UpdateRequest(s.as(socialWorker, authz.RoleSocialWorker), UpdateInput{RequestID: r.ID, Detail: &detail})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.True(dErrors.HasCode(s.service.DeleteRequest(s.as(socialWorker, authz.RoleSocialWorker), r.ID), dErrors.CodeConflict))
	})

	s.Run("delete", func() {
		r := s.create("")
		s.Require().NoError(s.service.DeleteRequest(s.as(socialWorker, authz.RoleSocialWorker), r.ID))
		_, err := s.service.Get(s.as(admin, authz.RoleAdmin), r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestReads() {
	low := s.create("BAJA")
	urgent := s.create("URGENTE")
	s.approve(urgent.ID)

	v, err := s.service.Get(s.as(assistant, authz.RoleAssistant), urgent.ID)
	s.Require().NoError(err)
	s.Require().NotNil(v.Beneficiary)
	s.Equal("B001", v.Beneficiary.Code)
	s.Require().NotNil(v.Case)
	s.Equal(7, v.Case.Age)
	s.Require().NotNil(v.Requester)
	s.Equal("Carla Rojas", v.Requester.FullName)
	s.Require().NotNil(v.Reviewer)
	s.Equal("Ana Quispe", v.Reviewer.FullName)

	all, err := s.service.ListByFilter(s.as(admin, authz.RoleAdmin), ListQuery{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(urgent.ID, all[0].ID)
	s.Equal(low.ID, all[1].ID)

	approved, err := s.service.ListByFilter(s.as(admin, authz.RoleAdmin), ListQuery{Status: "APROBADA"})
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal(urgent.ID, approved[0].ID)

	_, err = s.service.ListByFilter(s.as(admin, authz.RoleAdmin), ListQuery{Type: "JUGUETES"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Deliver(s.as(admin, authz.RoleAdmin), DeliveryInput{RequestID: urgent.ID, RealCost: 34000, Invoice: s.pdf()})
	s.Require().NoError(err)

	sum, err := s.service.SummaryStats(s.as(admin, authz.RoleAdmin), 0)
	s.Require().NoError(err)
	s.Equal(2, sum.Total)
	s.Equal(models.Cents(30000), sum.EstimatedDelivered)
	s.Equal(models.Cents(34000), sum.RealDelivered)
	s.Equal(models.StatusCount{Status: models.StatusPending, Count: 1}, sum.ByStatus[0])

	mine, err := s.service.SummaryStats(s.as(admin, authz.RoleAdmin), assistant)
	s.Require().NoError(err)
	s.Equal(0, mine.Total)

	_, err = s.service.SummaryStats(s.as(500, authz.RoleBeneficiary), 0)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestListForBeneficiary() {
	r := s.create("")
	asBeneficiary := func(code string) context.Context {
		return requestcontext.WithBeneficiaryCode(s.as(500, authz.RoleBeneficiary), code)
	}

	s.Run("beneficiary reads its own requests", func() {
		list, err := s.service.ListForBeneficiary(asBeneficiary("B001"), s.active)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(r.Code, list[0].Code)
	})

	s.Run("another beneficiary's requests are forbidden", func() {
		_, err := s.service.ListForBeneficiary(asBeneficiary("B001"), s.inactive)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown beneficiary looks the same as a foreign one", func() {
		_, err := s.service.ListForBeneficiary(asBeneficiary("B001"), 999)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("token without a beneficiary code", func() {
		_, err := s.service.ListForBeneficiary(s.as(500, authz.RoleBeneficiary), s.active)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("staff read any beneficiary", func() {
		list, err := s.service.ListForBeneficiary(s.as(assistant, authz.RoleAssistant), s.active)
		s.Require().NoError(err)
		s.Len(list, 1)

		list, err = s.service.ListForBeneficiary(s.as(assistant, authz.RoleAssistant), s.inactive)
		s.Require().NoError(err)
		s.Empty(list)
	})
}
