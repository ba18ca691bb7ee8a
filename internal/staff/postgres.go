package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"oncofeliz/internal/authz"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
)

// PostgresStore reads the staff table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const memberColumns = `id, full_name, email, role, active, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, memberID id.UserID) (*Member, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM staff WHERE id = $1`, int64(memberID))
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find staff member: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListByRole(ctx context.Context, role authz.Role) ([]*Member, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+memberColumns+` FROM staff WHERE role = $1 AND active ORDER BY id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list staff by role: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*Member, error) {
	var (
		m      Member
		rawID  int64
		roleDB string
	)
	if err := row.Scan(&rawID, &m.FullName, &m.Email, &roleDB, &m.Active, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.ID = id.UserID(rawID)
	m.Role = authz.Role(roleDB)
	return &m, nil
}
