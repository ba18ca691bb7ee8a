package identifier

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	txcontext "oncofeliz/pkg/platform/tx"
)

var sequenceNames = map[Kind]string{
	KindBeneficiary: "beneficiary_code_seq",
	KindAidRequest:  "aid_request_code_seq",
}

// PostgresSequence draws from database sequences. Inside a transaction the
// value is taken on the same connection as the caller's writes.
type PostgresSequence struct {
	db *sql.DB
}

func NewPostgresSequence(db *sql.DB) *PostgresSequence {
	return &PostgresSequence{db: db}
}

func (s *PostgresSequence) NextValue(ctx context.Context, kind Kind) (int64, error) {
	name, ok := sequenceNames[kind]
	if !ok {
		return 0, fmt.Errorf("no sequence for kind %q", kind)
	}
	var n int64
	if err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT nextval($1::regclass)`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("nextval %s: %w", name, err)
	}
	return n, nil
}

// MemorySequence keeps one counter per kind.
type MemorySequence struct {
	mu       sync.Mutex
	counters map[Kind]*atomic.Int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{counters: make(map[Kind]*atomic.Int64)}
}

func (s *MemorySequence) NextValue(_ context.Context, kind Kind) (int64, error) {
	s.mu.Lock()
	c, ok := s.counters[kind]
	if !ok {
		c = new(atomic.Int64)
		s.counters[kind] = c
	}
	s.mu.Unlock()
	return c.Add(1), nil
}
