package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lib/pq"

	"oncofeliz/internal/authz"
	"oncofeliz/internal/cases/models"
	"oncofeliz/internal/platform/postgres"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
)

// PostgresStore persists cases in the cases table. Partial unique indexes
// enforce CI uniqueness among non-rejected cases.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const caseColumns = `id, child_name, child_birth_date, child_ci, diagnosis,
	guardian_name, guardian_ci, guardian_relationship, guardian_phone, guardian_address, guardian_email,
	status, rejection_reason, created_by, created_by_role, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	var rawID int64
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO cases (child_name, child_birth_date, child_ci, diagnosis,
			guardian_name, guardian_ci, guardian_relationship, guardian_phone, guardian_address, guardian_email,
			status, created_by, created_by_role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		c.ChildName, c.BirthDate, nullString(c.ChildCI), c.Diagnosis,
		c.Guardian.Name, c.Guardian.CI, c.Guardian.Relationship, c.Guardian.Phone, c.Guardian.Address, nullString(c.Guardian.Email),
		string(c.Status), int64(c.CreatedBy), string(c.CreatedByRole), c.CreatedAt, c.UpdatedAt,
	).Scan(&rawID)
	if err != nil {
		if _, ok := postgres.UniqueViolation(err); ok {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert case: %w", err)
	}
	c.ID = id.CaseID(rawID)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id = $1`, int64(caseID))
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find case: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*models.Case, error) {
	where, args := f.sql()
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+caseColumns+` FROM cases`+where+` ORDER BY id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByStatus(ctx context.Context, createdBy id.UserID) (map[models.CaseStatus]int, error) {
	where, args := Filter{CreatedBy: createdBy}.sql()
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT status, count(*) FROM cases`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.CaseStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan case count: %w", err)
		}
		counts[models.CaseStatus(status)] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) UpdateRegistration(ctx context.Context, c *models.Case, from []models.CaseStatus) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE cases SET child_name = $2, child_birth_date = $3, child_ci = $4, diagnosis = $5,
			guardian_name = $6, guardian_ci = $7, guardian_relationship = $8, guardian_phone = $9,
			guardian_address = $10, guardian_email = $11, updated_at = $12
		WHERE id = $1 AND status = ANY($13)`,
		int64(c.ID), c.ChildName, c.BirthDate, nullString(c.ChildCI), c.Diagnosis,
		c.Guardian.Name, c.Guardian.CI, c.Guardian.Relationship, c.Guardian.Phone,
		c.Guardian.Address, nullString(c.Guardian.Email), c.UpdatedAt, statusArray(from),
	)
	if err != nil {
		if _, ok := postgres.UniqueViolation(err); ok {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("update case: %w", err)
	}
	return s.checkAffected(ctx, res, c.ID)
}

func (s *PostgresStore) Transition(ctx context.Context, t Transition) (*models.Case, error) {
	var reason sql.NullString
	if t.To == models.StatusRejected {
		reason = sql.NullString{String: t.RejectionReason, Valid: true}
	}
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		UPDATE cases SET status = $2, rejection_reason = COALESCE($3, rejection_reason), updated_at = $4
		WHERE id = $1 AND status = ANY($5)
		RETURNING `+caseColumns,
		int64(t.CaseID), string(t.To), reason, t.At, statusArray(t.sources()),
	)
	c, err := scanCase(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition case: %w", err)
	}
	return nil, s.missOrConflict(ctx, t.CaseID)
}

// LockStatus takes a row lock on the case for the rest of the transaction and
// checks that it is still in one of the allowed statuses.
func (s *PostgresStore) LockStatus(ctx context.Context, caseID id.CaseID, allowed []models.CaseStatus) error {
	var status string
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT status FROM cases WHERE id = $1 FOR UPDATE`, int64(caseID)).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return sentinel.ErrNotFound
	case err != nil:
		return fmt.Errorf("lock case: %w", err)
	case !slices.Contains(allowed, models.CaseStatus(status)):
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, caseID id.CaseID, from []models.CaseStatus) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM cases WHERE id = $1 AND status = ANY($2)`, int64(caseID), statusArray(from))
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	return s.checkAffected(ctx, res, caseID)
}

func (s *PostgresStore) checkAffected(ctx context.Context, res sql.Result, caseID id.CaseID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	return s.missOrConflict(ctx, caseID)
}

// missOrConflict tells apart a missing row from a failed status guard.
func (s *PostgresStore) missOrConflict(ctx context.Context, caseID id.CaseID) error {
	var status string
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT status FROM cases WHERE id = $1`, int64(caseID)).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return sentinel.ErrNotFound
	case err != nil:
		return fmt.Errorf("reload case status: %w", err)
	default:
		return sentinel.ErrInvalidState
	}
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
	if !f.CreatedBy.IsZero() {
		args = append(args, int64(f.CreatedBy))
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (*models.Case, error) {
	var (
		c                      models.Case
		rawID, createdBy       int64
		childCI, email, reason sql.NullString
		status, createdByRole  string
	)
	err := row.Scan(&rawID, &c.ChildName, &c.BirthDate, &childCI, &c.Diagnosis,
		&c.Guardian.Name, &c.Guardian.CI, &c.Guardian.Relationship, &c.Guardian.Phone, &c.Guardian.Address, &email,
		&status, &reason, &createdBy, &createdByRole, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ID = id.CaseID(rawID)
	c.ChildCI = childCI.String
	c.Guardian.Email = email.String
	c.Status = models.CaseStatus(status)
	c.RejectionReason = reason.String
	c.CreatedBy = id.UserID(createdBy)
	c.CreatedByRole = authz.Role(createdByRole)
	return &c, nil
}

func statusArray(statuses []models.CaseStatus) any {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return pq.Array(out)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
