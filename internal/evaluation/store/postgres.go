package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"oncofeliz/internal/evaluation/models"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
)

// PostgresStore persists evaluations keyed by case id. Rows are removed
// together with their case by ON DELETE CASCADE.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpsertSocial(ctx context.Context, ev *models.SocialEvaluation) error {
	var proposal uuid.NullUUID
	if ev.ProposalID != nil {
		proposal = uuid.NullUUID{UUID: *ev.ProposalID, Valid: true}
	}
	sc := ev.Scores
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO social_evaluations (case_id, income, household_size, housing, parental_employment,
			healthcare_access, medical_expense, observations, report_ref, proposal_id, evaluated_by, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (case_id) DO UPDATE SET
			income = EXCLUDED.income,
			household_size = EXCLUDED.household_size,
			housing = EXCLUDED.housing,
			parental_employment = EXCLUDED.parental_employment,
			healthcare_access = EXCLUDED.healthcare_access,
			medical_expense = EXCLUDED.medical_expense,
			observations = EXCLUDED.observations,
			report_ref = EXCLUDED.report_ref,
			proposal_id = EXCLUDED.proposal_id,
			evaluated_by = EXCLUDED.evaluated_by,
			evaluated_at = EXCLUDED.evaluated_at`,
		int64(ev.CaseID), sc.Income, sc.HouseholdSize, sc.Housing, sc.ParentalEmployment,
		sc.HealthcareAccess, sc.MedicalExpense, ev.Observations, ev.ReportRef, proposal,
		int64(ev.EvaluatedBy), ev.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert social evaluation: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertPsychological(ctx context.Context, ev *models.PsychologicalEvaluation) error {
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO psychological_evaluations (case_id, observations, report_ref, evaluated_by, evaluated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (case_id) DO UPDATE SET
			observations = EXCLUDED.observations,
			report_ref = EXCLUDED.report_ref,
			evaluated_by = EXCLUDED.evaluated_by,
			evaluated_at = EXCLUDED.evaluated_at`,
		int64(ev.CaseID), ev.Observations, sql.NullString{String: ev.ReportRef, Valid: ev.ReportRef != ""},
		int64(ev.EvaluatedBy), ev.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert psychological evaluation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSocial(ctx context.Context, caseID id.CaseID) (*models.SocialEvaluation, error) {
	var (
		ev        models.SocialEvaluation
		rawCase   int64
		evaluator int64
		proposal  uuid.NullUUID
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT case_id, income, household_size, housing, parental_employment, healthcare_access,
			medical_expense, observations, report_ref, proposal_id, evaluated_by, evaluated_at
		FROM social_evaluations WHERE case_id = $1`, int64(caseID),
	).Scan(&rawCase, &ev.Scores.Income, &ev.Scores.HouseholdSize, &ev.Scores.Housing,
		&ev.Scores.ParentalEmployment, &ev.Scores.HealthcareAccess, &ev.Scores.MedicalExpense,
		&ev.Observations, &ev.ReportRef, &proposal, &evaluator, &ev.EvaluatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find social evaluation: %w", err)
	}
	ev.CaseID = id.CaseID(rawCase)
	ev.EvaluatedBy = id.UserID(evaluator)
	if proposal.Valid {
		p := proposal.UUID
		ev.ProposalID = &p
	}
	return &ev, nil
}

func (s *PostgresStore) FindPsychological(ctx context.Context, caseID id.CaseID) (*models.PsychologicalEvaluation, error) {
	var (
		ev        models.PsychologicalEvaluation
		rawCase   int64
		evaluator int64
		reportRef sql.NullString
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT case_id, observations, report_ref, evaluated_by, evaluated_at
		FROM psychological_evaluations WHERE case_id = $1`, int64(caseID),
	).Scan(&rawCase, &ev.Observations, &reportRef, &evaluator, &ev.EvaluatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find psychological evaluation: %w", err)
	}
	ev.CaseID = id.CaseID(rawCase)
	ev.EvaluatedBy = id.UserID(evaluator)
	ev.ReportRef = reportRef.String
	return &ev, nil
}

// DeleteForCase is a no-op: the foreign keys cascade when the case row goes.
func (s *PostgresStore) DeleteForCase(context.Context, id.CaseID) error {
	return nil
}
