package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oncofeliz/internal/evaluation/models"
	"oncofeliz/pkg/platform/sentinel"
)

func TestInMemoryUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	require.NoError(t, s.UpsertSocial(ctx, &models.SocialEvaluation{CaseID: 1, Scores: models.Scores{Income: 5}, ReportRef: "a"}))
	require.NoError(t, s.UpsertSocial(ctx, &models.SocialEvaluation{CaseID: 1, Scores: models.Scores{Income: 9}, ReportRef: "b"}))

	ev, err := s.FindSocial(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, ev.Scores.Income)
	assert.Equal(t, "b", ev.ReportRef)

	require.NoError(t, s.DeleteForCase(ctx, 1))
	_, err = s.FindSocial(ctx, 1)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryProposalsExpire(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryProposals()
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	p := &models.ScoreProposal{ID: uuid.New(), CaseID: 3, Scores: models.Scores{Housing: 10}}
	require.NoError(t, s.Save(ctx, p, time.Hour))

	got, err := s.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Scores.Housing)

	clock = clock.Add(time.Hour)
	_, err = s.Find(ctx, p.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresFindSocial(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	proposal := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT case_id, income, .* FROM social_evaluations WHERE case_id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{
			"case_id", "income", "household_size", "housing", "parental_employment", "healthcare_access",
			"medical_expense", "observations", "report_ref", "proposal_id", "evaluated_by", "evaluated_at",
		}).AddRow(4, 20, 15, 15, 10, 5, 0, "familia numerosa", "social/x.pdf", proposal.String(), 9, now))

	ev, err := NewPostgres(db).FindSocial(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 65, ev.TotalScore())
	assert.Equal(t, models.LevelHigh, ev.VulnerabilityLevel())
	require.NotNil(t, ev.ProposalID)
	assert.Equal(t, proposal, *ev.ProposalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindPsychologicalNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM psychological_evaluations`).
		WillReturnRows(sqlmock.NewRows([]string{"case_id", "observations", "report_ref", "evaluated_by", "evaluated_at"}))

	_, err = NewPostgres(db).FindPsychological(context.Background(), 4)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresUpsertSocial(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO social_evaluations .* ON CONFLICT \(case_id\) DO UPDATE`).
		WithArgs(int64(4), 20, 15, 15, 10, 5, 0, "", "social/x.pdf", sqlmock.AnyArg(), int64(9), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgres(db).UpsertSocial(context.Background(), &models.SocialEvaluation{
		CaseID:      4,
		Scores:      models.Scores{Income: 20, HouseholdSize: 15, Housing: 15, ParentalEmployment: 10, HealthcareAccess: 5},
		ReportRef:   "social/x.pdf",
		EvaluatedBy: 9,
		EvaluatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
