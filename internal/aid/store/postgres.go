package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"oncofeliz/internal/aid/models"
	"oncofeliz/internal/platform/postgres"
	id "oncofeliz/pkg/domain"
	"oncofeliz/pkg/platform/sentinel"
	txcontext "oncofeliz/pkg/platform/tx"
)

// PostgresStore persists aid requests. Each mutation is a single UPDATE or
// DELETE guarded by status = ANY(expected), so two concurrent reviewers or
// deliverers cannot both succeed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, code, beneficiary_id, requested_by, type, priority, detail,
	estimated_cost_cents, document_ref, status, reviewed_by, reviewed_at, delivery_instructions,
	rejection_reason, delivered_at, real_cost_cents, provider, invoice_ref, delivery_observations,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.AidRequest) error {
	var rawID int64
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO aid_requests (code, beneficiary_id, requested_by, type, priority, detail,
			estimated_cost_cents, document_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		r.Code, int64(r.BeneficiaryID), int64(r.RequestedBy), string(r.Type), string(r.Priority), r.Detail,
		nullCents(r.EstimatedCost), nullString(r.DocumentRef), string(r.Status), r.CreatedAt, r.UpdatedAt,
	).Scan(&rawID)
	if err != nil {
		if _, ok := postgres.UniqueViolation(err); ok {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert aid request: %w", err)
	}
	r.ID = id.AidRequestID(rawID)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.AidRequestID) (*models.AidRequest, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM aid_requests WHERE id = $1`, int64(requestID))
	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find aid request: %w", err)
	}
	return r, nil
}

// List orders by priority, then newest first.
func (s *PostgresStore) List(ctx context.Context, f Filter) ([]*models.AidRequest, error) {
	where, args := f.sql()
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+requestColumns+` FROM aid_requests`+where+`
		ORDER BY CASE priority WHEN 'URGENTE' THEN 4 WHEN 'ALTA' THEN 3 WHEN 'MEDIA' THEN 2 ELSE 1 END DESC,
			created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list aid requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AidRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan aid request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Totals(ctx context.Context, requestedBy id.UserID) (*Totals, error) {
	query := `SELECT status, COUNT(*), COALESCE(SUM(estimated_cost_cents), 0), COALESCE(SUM(real_cost_cents), 0)
		FROM aid_requests`
	var args []any
	if !requestedBy.IsZero() {
		query += ` WHERE requested_by = $1`
		args = append(args, int64(requestedBy))
	}
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, query+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("aid request totals: %w", err)
	}
	defer rows.Close()

	t := &Totals{Counts: make(map[models.Status]int)}
	for rows.Next() {
		var (
			status             string
			n                  int
			estimated, realSum int64
		)
		if err := rows.Scan(&status, &n, &estimated, &realSum); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		st := models.Status(status)
		t.Counts[st] = n
		if st == models.StatusDelivered {
			t.EstimatedDelivered = models.Cents(estimated)
			t.RealDelivered = models.Cents(realSum)
		}
	}
	return t, rows.Err()
}

func (s *PostgresStore) Transition(ctx context.Context, t Transition) (*models.AidRequest, error) {
	sets, args := t.sql()
	args = append(args, statusArray(t.From))
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`UPDATE aid_requests SET `+sets+`
		WHERE id = $1 AND status = ANY($`+fmt.Sprint(len(args))+`)
		RETURNING `+requestColumns, args...)
	r, err := scanRequest(row)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transition aid request: %w", err)
	}
	return nil, s.missOrConflict(ctx, t.RequestID)
}

func (s *PostgresStore) Update(ctx context.Context, r *models.AidRequest, from []models.Status) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE aid_requests SET type = $2, priority = $3, detail = $4, estimated_cost_cents = $5,
			document_ref = $6, updated_at = $7
		WHERE id = $1 AND status = ANY($8)`,
		int64(r.ID), string(r.Type), string(r.Priority), r.Detail, nullCents(r.EstimatedCost),
		nullString(r.DocumentRef), r.UpdatedAt, statusArray(from),
	)
	if err != nil {
		return fmt.Errorf("update aid request: %w", err)
	}
	return s.checkAffected(ctx, res, r.ID)
}

func (s *PostgresStore) Delete(ctx context.Context, requestID id.AidRequestID, from []models.Status) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM aid_requests WHERE id = $1 AND status = ANY($2)`, int64(requestID), statusArray(from))
	if err != nil {
		return fmt.Errorf("delete aid request: %w", err)
	}
	return s.checkAffected(ctx, res, requestID)
}

func (s *PostgresStore) checkAffected(ctx context.Context, res sql.Result, requestID id.AidRequestID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	return s.missOrConflict(ctx, requestID)
}

// missOrConflict tells apart a missing row from a failed status guard.
func (s *PostgresStore) missOrConflict(ctx context.Context, requestID id.AidRequestID) error {
	var status string
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT status FROM aid_requests WHERE id = $1`, int64(requestID)).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return sentinel.ErrNotFound
	case err != nil:
		return fmt.Errorf("reload aid request status: %w", err)
	default:
		return sentinel.ErrInvalidState
	}
}

// sql returns the SET clause for the target status. $1 is the request id;
// the caller appends the expected statuses last.
func (t Transition) sql() (string, []any) {
	args := []any{int64(t.RequestID), string(t.To), t.At}
	sets := []string{"status = $2", "updated_at = $3"}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	switch t.To {
	case models.StatusReceived:
		add("reviewed_by", int64(t.ReviewedBy))
		sets = append(sets, "reviewed_at = $3")
		add("delivery_instructions", nullString(t.DeliveryInstructions))
	case models.StatusRejected:
		add("reviewed_by", int64(t.ReviewedBy))
		sets = append(sets, "reviewed_at = $3")
		add("rejection_reason", t.RejectionReason)
	case models.StatusDelivered:
		if t.Delivery == nil {
			break
		}
		sets = append(sets, "delivered_at = $3")
		add("real_cost_cents", int64(t.Delivery.RealCost))
		add("invoice_ref", t.Delivery.InvoiceRef)
		add("provider", nullString(t.Delivery.Provider))
		add("delivery_observations", nullString(t.Delivery.Observations))
		args = append(args, nullString(t.Delivery.Instructions))
		sets = append(sets, fmt.Sprintf("delivery_instructions = COALESCE($%d, delivery_instructions)", len(args)))
	}
	return strings.Join(sets, ", "), args
}

func (f Filter) sql() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}
	if !f.BeneficiaryID.IsZero() {
		add("beneficiary_id", int64(f.BeneficiaryID))
	}
	if f.Type != "" {
		add("type", string(f.Type))
	}
	if !f.RequestedBy.IsZero() {
		add("requested_by", int64(f.RequestedBy))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.AidRequest, error) {
	var (
		r                                          models.AidRequest
		rawID, beneficiaryID, requestedBy          int64
		typ, priority, status                      string
		estimated, realCost, reviewedBy            sql.NullInt64
		reviewedAt, deliveredAt                    sql.NullTime
		documentRef, instructions, reason          sql.NullString
		provider, invoiceRef, deliveryObservations sql.NullString
	)
	err := row.Scan(&rawID, &r.Code, &beneficiaryID, &requestedBy, &typ, &priority, &r.Detail,
		&estimated, &documentRef, &status, &reviewedBy, &reviewedAt, &instructions,
		&reason, &deliveredAt, &realCost, &provider, &invoiceRef, &deliveryObservations,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ID = id.AidRequestID(rawID)
	r.BeneficiaryID = id.BeneficiaryID(beneficiaryID)
	r.RequestedBy = id.UserID(requestedBy)
	r.Type = models.Type(typ)
	r.Priority = models.Priority(priority)
	r.Status = models.Status(status)
	r.EstimatedCost = centsPtr(estimated)
	r.RealCost = centsPtr(realCost)
	r.ReviewedBy = id.UserID(reviewedBy.Int64)
	if reviewedAt.Valid {
		r.ReviewedAt = &reviewedAt.Time
	}
	if deliveredAt.Valid {
		r.DeliveredAt = &deliveredAt.Time
	}
	r.DocumentRef = documentRef.String
	r.DeliveryInstructions = instructions.String
	r.RejectionReason = reason.String
	r.Provider = provider.String
	r.InvoiceRef = invoiceRef.String
	r.DeliveryObservations = deliveryObservations.String
	return &r, nil
}

func statusArray(statuses []models.Status) any {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return pq.Array(out)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullCents(c *models.Cents) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

func centsPtr(v sql.NullInt64) *models.Cents {
	if !v.Valid {
		return nil
	}
	c := models.Cents(v.Int64)
	return &c
}
