package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"oncofeliz/internal/authz"
	benmodels "oncofeliz/internal/beneficiary/models"
	casemodels "oncofeliz/internal/cases/models"
	"oncofeliz/internal/decision/handler/mocks"
	"oncofeliz/internal/decision/service"
	"oncofeliz/internal/staff"
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

func (s *HandlerSuite) TestAccept() {
	s.Run("returns the new beneficiary code", func() {
		s.service.EXPECT().
			Accept(gomock.Any(), id.CaseID(7), id.UserID(30), id.UserID(0)).
			Return(&service.Acceptance{
				Beneficiary: &benmodels.Beneficiary{ID: 1, Code: "B001", CaseID: 7, Status: benmodels.StatusActive},
				Case:        &casemodels.Case{ID: 7, Status: casemodels.StatusActiveBeneficiary},
			}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/aceptar-caso/7", map[string]any{"asignadoAId": 30})
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, 1, authz.RoleAdmin))
		testutil.AssertStatusOK(s.T(), rr)
		env, res := testutil.DecodeData[map[string]any](s.T(), rr)
		s.Contains(env.Mensaje, "B001")
		s.Contains(res, "beneficiario")
		s.Contains(res, "pacienteRegistro")
	})

	s.Run("assigned professional is required", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/aceptar-caso/7", map[string]any{"adminId": 1})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("invalid case id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/aceptar-caso/abc", map[string]any{"asignadoAId": 30})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("conflict when already decided", func() {
		s.service.EXPECT().Accept(gomock.Any(), id.CaseID(7), id.UserID(30), id.UserID(1)).
			Return(nil, dErrors.New(dErrors.CodeConflict, "case is not awaiting an administrator decision"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/aceptar-caso/7", map[string]any{"asignadoAId": 30, "adminId": 1})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("forbidden for other roles", func() {
		s.service.EXPECT().Accept(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "role ASISTENTE may not decide cases"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/aceptar-caso/7", map[string]any{"asignadoAId": 30})
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, 30, authz.RoleAssistant))
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})
}

func (s *HandlerSuite) TestReject() {
	s.Run("passes the reason through", func() {
		s.service.EXPECT().
			Reject(gomock.Any(), id.CaseID(3), "No cumple criterios", id.UserID(0)).
			Return(&casemodels.Case{ID: 3, Status: casemodels.StatusRejected, RejectionReason: "No cumple criterios"}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/rechazar-caso/3", map[string]any{"motivo": "No cumple criterios"})
		rr := testutil.DoRequest(s.router, testutil.WithActor(req, 1, authz.RoleAdmin))
		testutil.AssertStatusOK(s.T(), rr)
		_, res := testutil.DecodeData[map[string]any](s.T(), rr)
		s.Equal("CASO_RECHAZADO", res["estado"])
		s.Equal("No cumple criterios", res["motivoRechazo"])
	})

	s.Run("blank reason", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/rechazar-caso/3", map[string]any{"motivo": "  "})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("unknown case", func() {
		s.service.EXPECT().Reject(gomock.Any(), id.CaseID(99), "x", id.UserID(0)).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "case not found"))
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/rechazar-caso/99", map[string]any{"motivo": "x"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestListAssignees() {
	s.Run("lists active professionals", func() {
		s.service.EXPECT().ListAssignees(gomock.Any()).Return([]*staff.Member{
			{ID: 30, FullName: "Ana Quispe", Role: authz.RoleAssistant, Active: true},
		}, nil)
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/asistentes"), 1, authz.RoleAdmin)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		_, list := testutil.DecodeData[[]map[string]any](s.T(), rr)
		s.Require().Len(list, 1)
		s.Equal("Ana Quispe", list[0]["nombreCompleto"])
		s.Equal("ASISTENTE", list[0]["rol"])
	})

	s.Run("non administrators are refused", func() {
		s.service.EXPECT().ListAssignees(gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "role ASISTENTE may not case.decide"))
		req := testutil.WithActor(testutil.NewRequest(s.T(), http.MethodGet, "/asistentes"), 30, authz.RoleAssistant)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusForbidden, "forbidden")
	})
}
