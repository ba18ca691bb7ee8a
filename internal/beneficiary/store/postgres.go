package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"oncofeliz/internal/beneficiary/models"
	"oncofeliz/internal/platform/postgres"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
)

// PostgresStore persists beneficiaries. Unique constraints on code and
// case_id back the one-beneficiary-per-case rule.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const beneficiaryColumns = `id, code, case_id, status, assigned_to, accepted_by, accepted_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, b *models.Beneficiary) error {
	var rawID int64
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO beneficiaries (code, case_id, status, assigned_to, accepted_by, accepted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		b.Code, int64(b.CaseID), string(b.Status), int64(b.AssignedTo), int64(b.AcceptedBy), b.AcceptedAt, b.UpdatedAt,
	).Scan(&rawID)
	if err != nil {
		if _, ok := postgres.UniqueViolation(err); ok {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert beneficiary: %w", err)
	}
	b.ID = id.BeneficiaryID(rawID)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, beneficiaryID id.BeneficiaryID) (*models.Beneficiary, error) {
	return s.findOne(ctx, `id = $1`, int64(beneficiaryID))
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Beneficiary, error) {
	return s.findOne(ctx, `code = $1`, code)
}

func (s *PostgresStore) FindByCaseID(ctx context.Context, caseID id.CaseID) (*models.Beneficiary, error) {
	return s.findOne(ctx, `case_id = $1`, int64(caseID))
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.Beneficiary, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries WHERE `+where, arg)
	b, err := scanBeneficiary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find beneficiary: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*models.Beneficiary, error) {
	where, args := f.sql()
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries`+where+` ORDER BY id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Beneficiary, 0)
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan beneficiary: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM beneficiaries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count beneficiaries: %w", err)
	}
	defer rows.Close()

	out := make(map[models.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[models.Status(status)] = n
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetStatus(ctx context.Context, beneficiaryID id.BeneficiaryID, status models.Status, at time.Time) (*models.Beneficiary, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE beneficiaries SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+beneficiaryColumns,
		int64(beneficiaryID), string(status), at,
	)
	b, err := scanBeneficiary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update beneficiary status: %w", err)
	}
	return b, nil
}

func (f Filter) sql() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.AssignedTo.IsZero() {
		args = append(args, int64(f.AssignedTo))
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(row scanner) (*models.Beneficiary, error) {
	var (
		b                                     models.Beneficiary
		rawID, caseID, assignedTo, acceptedBy int64
		status                                string
	)
	if err := row.Scan(&rawID, &b.Code, &caseID, &status, &assignedTo, &acceptedBy, &b.AcceptedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.ID = id.BeneficiaryID(rawID)
	b.CaseID = id.CaseID(caseID)
	b.Status = models.Status(status)
	b.AssignedTo = id.UserID(assignedTo)
	b.AcceptedBy = id.UserID(acceptedBy)
	return &b, nil
}
