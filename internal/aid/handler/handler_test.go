package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"oncofeliz/internal/aid/handler/mocks"
	"oncofeliz/internal/aid/models"
	"oncofeliz/internal/aid/service"
	"oncofeliz/internal/authz"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) TestCreate() {
	s.Run("json body", func() {
		s.service.EXPECT().CreateRequest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in service.CreateInput) (*models.AidRequest, error) {
				s.Equal(id.BeneficiaryID(4), in.BeneficiaryID)
				s.Equal(models.Type("MEDICAMENTOS"), in.Draft.Type)
				s.Equal("Quimioterapia oral", in.Draft.Detail)
				s.Require().NotNil(in.Draft.EstimatedCost)
				s.Equal(models.Cents(34050), *in.Draft.EstimatedCost)
				s.Nil(in.Document)
				return &models.AidRequest{ID: 1, Code: "SOL-001", Status: models.StatusPending}, nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/solicitudes-ayuda", map[string]any{
			"beneficiarioId": 4,
			"tipoAyuda":      "MEDICAMENTOS",
			"descripcion":    "Quimioterapia oral",
			"costoEstimado":  340.50,
		})
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, 10, authz.RoleSocialWorker))
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		env, res := testutil.DecodeData[map[string]any](s.T(), rr)
		s.Contains(env.Mensaje, "SOL-001")
		s.Equal("PENDIENTE", res["estado"])
	})

	s.Run("multipart with supporting document", func() {
		s.service.EXPECT().CreateRequest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in service.CreateInput) (*models.AidRequest, error) {
				s.Require().NotNil(in.Document)
				s.Equal("receta.pdf", in.Document.Filename)
				body, err := io.ReadAll(in.Document.Content)
				s.Require().NoError(err)
				s.Equal(testutil.SamplePDF(), body)
				s.Equal(models.Cents(12000), *in.Draft.EstimatedCost)
				s.Equal(id.UserID(10), in.ClaimedRequester)
				return &models.AidRequest{ID: 2, Code: "SOL-002", Status: models.StatusPending}, nil
			})

		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/solicitudes-ayuda", map[string]string{
			"beneficiarioId":   "4",
			"tipoAyuda":        "MEDICAMENTOS",
			"detalleSolicitud": "Antieméticos",
			"costoEstimado":    "120,00",
			"solicitadoPorId":  "10",
		}, "documentoRespaldo", "receta.pdf", testutil.SamplePDF())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	})

	s.Run("bad amount in form", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/solicitudes-ayuda", map[string]string{
			"beneficiarioId":   "4",
			"tipoAyuda":        "OTRO",
			"detalleSolicitud": "x",
			"costoEstimado":    "12.345",
		}, "documentoRespaldo", "r.pdf", testutil.SamplePDF())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing detail", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/solicitudes-ayuda", map[string]any{
			"beneficiarioId": 4, "tipoAyuda": "OTRO",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("inactive beneficiary", func() {
		s.service.EXPECT().CreateRequest(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodePrecondition, "beneficiary B001 is INACTIVO"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/solicitudes-ayuda", map[string]any{
			"beneficiarioId": 4, "tipoAyuda": "OTRO", "detalleSolicitud": "x",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "precondition_failed")
	})
}

func (s *HandlerSuite) TestReads() {
	s.Run("list passes filters", func() {
		s.service.EXPECT().ListByFilter(gomock.Any(), service.ListQuery{
			Status: "APROBADA", Type: "ALIMENTOS", BeneficiaryID: 4, RequestedBy: 10,
		}).Return([]*service.View{}, nil)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/solicitudes-ayuda?estado=APROBADA&tipo=ALIMENTOS&beneficiarioId=4&solicitadoPorId=10")
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))
	})

	s.Run("list rejects a bad beneficiary id", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/solicitudes-ayuda?beneficiarioId=x")
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest)
	})

	s.Run("stats route is not an id", func() {
		s.service.EXPECT().SummaryStats(gomock.Any(), id.UserID(10)).
			Return(&models.Summary{Total: 3, RealDelivered: 50000}, nil)
		req := testutil.NewRequest(s.T(), http.MethodGet, "/solicitudes-ayuda/stats/resumen?solicitadoPorId=10")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		_, res := testutil.DecodeData[map[string]any](s.T(), rr)
		s.Equal(3.0, res["total"])
		s.Equal(500.0, res["costoRealEntregado"])
	})

	s.Run("beneficiary lists its requests", func() {
		s.service.EXPECT().ListForBeneficiary(gomock.Any(), id.BeneficiaryID(4)).
			Return([]*service.View{{AidRequest: &models.AidRequest{ID: 1, Code: "SOL-001"}}}, nil)
		req := testutil.WithBeneficiary(testutil.NewRequest(s.T(), http.MethodGet, "/beneficiario-solicitudes/4"), 500, "B001")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		_, list := testutil.DecodeData[[]map[string]any](s.T(), rr)
		s.Require().Len(list, 1)
		s.Equal("SOL-001", list[0]["codigoSolicitud"])
	})

	s.Run("another beneficiary's requests are forbidden", func() {
		s.service.EXPECT().ListForBeneficiary(gomock.Any(), id.BeneficiaryID(5)).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "beneficiaries may only read their own aid requests"))
		req := testutil.WithBeneficiary(testutil.NewRequest(s.T(), http.MethodGet, "/beneficiario-solicitudes/5"), 500, "B001")
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusForbidden, "forbidden")
	})

	s.Run("beneficiary id must be numeric", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/beneficiario-solicitudes/B001")
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest)
	})

	s.Run("get unknown", func() {
		s.service.EXPECT().Get(gomock.Any(), id.AidRequestID(9)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "aid request not found"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/solicitudes-ayuda/9"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestReview() {
	s.Run("approve", func() {
		s.service.EXPECT().Review(gomock.Any(), service.ReviewInput{
			RequestID: 5, Decision: service.DecisionApprove, Note: "Recoger en farmacia", ClaimedReviewer: 30,
		}).Return(&models.AidRequest{ID: 5, Status: models.StatusReceived}, nil)
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/aprobar", map[string]any{
			"revisadoPorId": 30, "instruccionesEntrega": "Recoger en farmacia",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		_, res := testutil.DecodeData[map[string]any](s.T(), rr)
		s.Equal("RECEPCIONADO", res["estado"])
	})

	s.Run("reject needs a reason", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/rechazar", map[string]any{"revisadoPorId": 30})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("reject already reviewed", func() {
		s.service.EXPECT().Review(gomock.Any(), service.ReviewInput{
			RequestID: 5, Decision: service.DecisionReject, Note: "Duplicada",
		}).Return(nil, dErrors.New(dErrors.CodeConflict, "aid request status does not allow this change"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/rechazar", map[string]any{"motivoRechazo": "Duplicada"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("ready for pickup", func() {
		s.service.EXPECT().MarkReadyForPickup(gomock.Any(), id.AidRequestID(5)).
			Return(&models.AidRequest{ID: 5, Status: models.StatusReadyForPickup}, nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/lista-para-recoger"))
		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *HandlerSuite) TestDeliver() {
	s.Run("multipart invoice", func() {
		s.service.EXPECT().Deliver(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in service.DeliveryInput) (*models.AidRequest, error) {
				s.Equal(id.AidRequestID(5), in.RequestID)
				s.Equal(models.Cents(34000), in.RealCost)
				s.Equal("Farmacorp", in.Provider)
				s.Require().NotNil(in.Invoice)
				s.Equal("factura.pdf", in.Invoice.Filename)
				return &models.AidRequest{ID: 5, Status: models.StatusDelivered}, nil
			})
		req := testutil.NewMultipartRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/entregar", map[string]string{
			"costoReal": "340", "proveedor": "Farmacorp",
		}, "facturaPdf", "factura.pdf", testutil.SamplePDF())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		env, _ := testutil.DecodeData[map[string]any](s.T(), rr)
		s.Equal("Entrega registrada", env.Mensaje)
	})

	s.Run("multipart without invoice", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/entregar", map[string]string{
			"costoReal": "340",
		}, "otroArchivo", "x.pdf", testutil.SamplePDF())
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("zero real cost", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/entregar", map[string]any{
			"costoReal": 0, "facturaRef": "facturas/x.pdf",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("already delivered", func() {
		s.service.EXPECT().Deliver(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "aid request status does not allow this change"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5/entregar", map[string]any{
			"costoReal": "120.50", "facturaRef": "facturas/x.pdf",
		})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *HandlerSuite) TestUpdateAndDelete() {
	s.Run("partial update", func() {
		s.service.EXPECT().UpdateRequest(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, in service.UpdateInput) (*models.AidRequest, error) {
				s.Require().NotNil(in.Priority)
				s.Equal("URGENTE", *in.Priority)
				s.Nil(in.Detail)
				return &models.AidRequest{ID: 5, Priority: models.PriorityUrgent}, nil
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5", map[string]any{"prioridad": "URGENTE"})
		testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))
	})

	s.Run("empty update", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/solicitudes-ayuda/5", map[string]any{})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("delete by someone else", func() {
		s.service.EXPECT().DeleteRequest(gomock.Any(), id.AidRequestID(5)).
			Return(dErrors.New(dErrors.CodeForbidden, "only the requester may change an aid request"))
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/solicitudes-ayuda/5"))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})

	s.Run("delete", func() {
		s.service.EXPECT().DeleteRequest(gomock.Any(), id.AidRequestID(6)).Return(nil)
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, "/solicitudes-ayuda/6"))
		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *HandlerSuite) TestParseUploadRelease() {
	h := New(s.service, slog.New(slog.DiscardHandler))

	s.Run("file sent", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/solicitudes-ayuda", nil, invoiceField, "factura.pdf", testutil.SamplePDF())
		up, release, err := h.parseUpload(httptest.NewRecorder(), req, invoiceField)
		s.Require().NoError(err)
		s.Require().NotNil(up)
		content, err := io.ReadAll(up.Content)
		s.Require().NoError(err)
		s.Equal(testutil.SamplePDF(), content)
		s.NotPanics(release)
	})

	s.Run("no file", func() {
		req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/solicitudes-ayuda", map[string]string{"tipo": "MEDICAMENTOS"}, "", "", nil)
		up, release, err := h.parseUpload(httptest.NewRecorder(), req, invoiceField)
		s.Require().NoError(err)
		s.Nil(up)
		s.NotPanics(release)
	})

	s.Run("broken form", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/solicitudes-ayuda")
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		_, release, err := h.parseUpload(httptest.NewRecorder(), req, invoiceField)
		s.Error(err)
		s.NotPanics(release)
	})
}
