package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// DBTX is the subset of *sql.DB and *sql.Tx the stores use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Executor returns the transaction carried by ctx, or db when there is none.
// Stores call it per statement so the same store joins a surrounding RunInTx.
func Executor(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// Runner executes fn inside a unit of work. Stores called with the ctx passed
// to fn take part in it.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LocalRunner serializes units of work in process. It backs the in-memory
// stores, which have no rollback, so fn must check before it writes.
type LocalRunner struct {
	mu sync.Mutex
}

func (r *LocalRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
