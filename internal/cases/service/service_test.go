package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"oncofeliz/internal/authz"
	casemetrics "oncofeliz/internal/cases/metrics"
	"oncofeliz/internal/cases/models"
	"oncofeliz/internal/cases/store"
	evmodels "oncofeliz/internal/evaluation/models"
	evstore "oncofeliz/internal/evaluation/store"
	id "oncofeliz/pkg/domain"
	dErrors "oncofeliz/pkg/domain-errors"
	txcontext "oncofeliz/pkg/platform/tx"
	"oncofeliz/pkg/requestcontext"
)

const (
	socialWorker  id.UserID = 10
	otherWorker   id.UserID = 11
	psychologist  id.UserID = 20
	administrator id.UserID = 1
)

var fixedNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

type ServiceSuite struct {
	suite.Suite
	cases       *store.InMemory
	evaluations *evstore.InMemory
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.cases = store.NewInMemory()
	s.evaluations = evstore.NewInMemory()
	s.service = New(s.cases, s.evaluations, &txcontext.LocalRunner{},
		WithMetrics(casemetrics.New(prometheus.NewRegistry())))
}

func (s *ServiceSuite) as(user id.UserID, role authz.Role) context.Context {
	ctx := requestcontext.WithTime(context.Background(), fixedNow)
	return authz.WithActor(ctx, user, role)
}

func registration(guardianCI string) models.Registration {
	return models.Registration{
		ChildName: "Mateo Rojas",
		BirthDate: time.Date(2016, 3, 10, 0, 0, 0, 0, time.UTC),
		Diagnosis: "Tumor de Wilms",
		Guardian: models.Guardian{
			Name: "Elena Rojas", CI: guardianCI, Relationship: "Madre",
			Phone: "71234567", Address: "Zona Sur",
		},
	}
}

func (s *ServiceSuite) createCase(guardianCI string) *models.Case {
	c, err := s.service.CreateCase(s.as(socialWorker, authz.RoleSocialWorker), registration(guardianCI), 0)
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) attachSocial(caseID id.CaseID) {
	s.Require().NoError(s.evaluations.UpsertSocial(context.Background(), &evmodels.SocialEvaluation{
		CaseID: caseID, Scores: evmodels.Scores{Income: 10}, ReportRef: "social/r.pdf", EvaluatedBy: socialWorker,
	}))
}

func (s *ServiceSuite) TestCreateCase() {
	s.Run("social worker registers a case", func() {
		c := s.createCase("100")
		s.Equal(models.StatusInitialRegistration, c.Status)
		s.Equal(socialWorker, c.CreatedBy)
		s.Equal(authz.RoleSocialWorker, c.CreatedByRole)
		s.Equal(9, c.Age)
	})

	s.Run("other roles may not register", func() {
		_, err := s.service.CreateCase(s.as(psychologist, authz.RolePsychologist), registration("101"), 0)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("body creator must match token", func() {
		_, err := s.service.CreateCase(s.as(socialWorker, authz.RoleSocialWorker), registration("102"), otherWorker)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing fields are a validation error", func() {
		reg := registration("103")
		reg.ChildName = ""
		_, err := s.service.CreateCase(s.as(socialWorker, authz.RoleSocialWorker), reg, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate guardian CI conflicts", func() {
		_, err := s.service.CreateCase(s.as(socialWorker, authz.RoleSocialWorker), registration("100"), 0)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unauthenticated", func() {
		_, err := s.service.CreateCase(context.Background(), registration("104"), 0)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestUpdateCase() {
	c := s.createCase("200")

	s.Run("creator edits", func() {
		reg := registration("200")
		reg.Diagnosis = "Retinoblastoma"
		updated, err := s.service.UpdateCase(s.as(socialWorker, authz.RoleSocialWorker), c.ID, reg)
		s.Require().NoError(err)
		s.Equal("Retinoblastoma", updated.Diagnosis)
	})

	s.Run("another social worker may not edit", func() {
		_, err := s.service.UpdateCase(s.as(otherWorker, authz.RoleSocialWorker), c.ID, registration("200"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("not editable after submission", func() {
		s.attachSocial(c.ID)
		_, err := s.service.SubmitForReview(s.as(socialWorker, authz.RoleSocialWorker), c.ID)
		s.Require().NoError(err)

		_, err = s.service.UpdateCase(s.as(socialWorker, authz.RoleSocialWorker), c.ID, registration("200"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing case", func() {
		_, err := s.service.UpdateCase(s.as(socialWorker, authz.RoleSocialWorker), 999, registration("201"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("not editable while waiting for psychology", func() {
		pending := s.createCase("202")
		s.attachSocial(pending.ID)
		_, err := s.service.RequestPsychologicalEvaluation(s.as(socialWorker, authz.RoleSocialWorker), pending.ID)
		s.Require().NoError(err)

		reg := registration("202")
		reg.Diagnosis = "Otro"
		_, err = s.service.UpdateCase(s.as(socialWorker, authz.RoleSocialWorker), pending.ID, reg)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		got, err := s.cases.FindByID(context.Background(), pending.ID)
		s.Require().NoError(err)
		s.Equal("Tumor de Wilms", got.Diagnosis)
	})

	s.Run("same user under another role may not edit", func() {
		_, err := s.service.UpdateCase(s.as(socialWorker, authz.RoleAdmin), c.ID, registration("200"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestDeleteCase() {
	ctx := s.as(socialWorker, authz.RoleSocialWorker)

	s.Run("removes the case and its evaluations", func() {
		c := s.createCase("300")
		s.attachSocial(c.ID)

		s.Require().NoError(s.service.DeleteCase(ctx, c.ID))

		_, err := s.cases.FindByID(context.Background(), c.ID)
		s.Error(err)
		_, err = s.evaluations.FindSocial(context.Background(), c.ID)
		s.Error(err)
	})

	s.Run("another social worker may not delete", func() {
		c := s.createCase("301")
		err := s.service.DeleteCase(s.as(otherWorker, authz.RoleSocialWorker), c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = s.cases.FindByID(context.Background(), c.ID)
		s.NoError(err)
	})

	s.Run("psychologist may not delete", func() {
		c := s.createCase("302")
		err := s.service.DeleteCase(s.as(psychologist, authz.RolePsychologist), c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("submitted case keeps its evaluations", func() {
		c := s.createCase("303")
		s.attachSocial(c.ID)
		_, err := s.service.SubmitForReview(ctx, c.ID)
		s.Require().NoError(err)

		err = s.service.DeleteCase(ctx, c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		got, err := s.cases.FindByID(context.Background(), c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderAdministratorReview, got.Status)
		_, err = s.evaluations.FindSocial(context.Background(), c.ID)
		s.NoError(err)
	})

	s.Run("case waiting for psychology conflicts", func() {
		c := s.createCase("304")
		s.attachSocial(c.ID)
		_, err := s.service.RequestPsychologicalEvaluation(ctx, c.ID)
		s.Require().NoError(err)

		err = s.service.DeleteCase(ctx, c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing case", func() {
		err := s.service.DeleteCase(ctx, 999)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestSubmitForReview() {
	s.Run("requires social evaluation", func() {
		c := s.createCase("400")
		_, err := s.service.SubmitForReview(s.as(socialWorker, authz.RoleSocialWorker), c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePrecondition))
	})

	s.Run("moves to administrator review once", func() {
		c := s.createCase("401")
		s.attachSocial(c.ID)
		ctx := s.as(socialWorker, authz.RoleSocialWorker)

		got, err := s.service.SubmitForReview(ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderAdministratorReview, got.Status)

		_, err = s.service.SubmitForReview(ctx, c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("missing case", func() {
		_, err := s.service.SubmitForReview(s.as(socialWorker, authz.RoleSocialWorker), 999)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRequestPsychologicalEvaluation() {
	c := s.createCase("500")
	s.attachSocial(c.ID)

	got, err := s.service.RequestPsychologicalEvaluation(s.as(socialWorker, authz.RoleSocialWorker), c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingPsychEvaluation, got.Status)

	_, err = s.service.SubmitForReview(s.as(socialWorker, authz.RoleSocialWorker), c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "direct submission only from REGISTRO_INICIAL")
}

func (s *ServiceSuite) TestListPendingReviewIncludesEvaluations() {
	c := s.createCase("600")
	s.attachSocial(c.ID)
	_, err := s.service.SubmitForReview(s.as(socialWorker, authz.RoleSocialWorker), c.ID)
	s.Require().NoError(err)
	s.createCase("601")

	pending, err := s.service.ListPendingReview(s.as(administrator, authz.RoleAdmin))
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(c.ID, pending[0].ID)
	s.NotNil(pending[0].Social)
	s.Nil(pending[0].Psychological)

	_, err = s.service.ListPendingReview(s.as(99, authz.RoleBeneficiary))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestListPendingPsychological() {
	waiting := s.createCase("650")
	s.attachSocial(waiting.ID)
	_, err := s.service.RequestPsychologicalEvaluation(s.as(socialWorker, authz.RoleSocialWorker), waiting.ID)
	s.Require().NoError(err)

	submitted := s.createCase("651")
	s.attachSocial(submitted.ID)
	_, err = s.service.SubmitForReview(s.as(socialWorker, authz.RoleSocialWorker), submitted.ID)
	s.Require().NoError(err)
	s.createCase("652")

	s.Run("psychologist sees only cases waiting for them", func() {
		queue, err := s.service.ListPendingPsychological(s.as(psychologist, authz.RolePsychologist))
		s.Require().NoError(err)
		s.Require().Len(queue, 1)
		s.Equal(waiting.ID, queue[0].ID)
		s.Equal(models.StatusPendingPsychEvaluation, queue[0].Status)
		s.NotNil(queue[0].Social)
	})

	s.Run("social worker cannot read the queue", func() {
		_, err := s.service.ListPendingPsychological(s.as(socialWorker, authz.RoleSocialWorker))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("beneficiary cannot read the queue", func() {
		_, err := s.service.ListPendingPsychological(s.as(99, authz.RoleBeneficiary))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestListMineAndStats() {
	s.createCase("700")
	s.createCase("701")
	_, err := s.service.CreateCase(s.as(otherWorker, authz.RoleSocialWorker), registration("702"), 0)
	s.Require().NoError(err)

	mine, err := s.service.ListMine(s.as(socialWorker, authz.RoleSocialWorker), "registro_inicial")
	s.Require().NoError(err)
	s.Len(mine, 2)

	_, err = s.service.ListMine(s.as(socialWorker, authz.RoleSocialWorker), "ARCHIVADO")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	own, err := s.service.Stats(s.as(socialWorker, authz.RoleSocialWorker))
	s.Require().NoError(err)
	s.Equal(models.StatusCount{Status: models.StatusInitialRegistration, Count: 2}, own[0])

	all, err := s.service.Stats(s.as(administrator, authz.RoleAdmin))
	s.Require().NoError(err)
	s.Equal(3, all[0].Count)
	s.Len(all, len(models.AllStatuses))
}
