package tx

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("falls back to db without transaction", func(t *testing.T) {
		assert.Same(t, db, Executor(context.Background(), db))
	})

	t.Run("prefers transaction from context", func(t *testing.T) {
		mock.ExpectBegin()
		sqlTx, err := db.Begin()
		require.NoError(t, err)

		ctx := WithTx(context.Background(), sqlTx)
		assert.Same(t, sqlTx, Executor(ctx, db))

		mock.ExpectRollback()
		require.NoError(t, sqlTx.Rollback())
	})

	t.Run("nil transaction leaves context untouched", func(t *testing.T) {
		ctx := WithTx(context.Background(), nil)
		_, ok := From(ctx)
		assert.False(t, ok)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalRunner(t *testing.T) {
	var r LocalRunner

	t.Run("runs fn and returns its error", func(t *testing.T) {
		called := false
		err := r.RunInTx(context.Background(), func(ctx context.Context) error {
			called = true
			return assert.AnError
		})
		assert.True(t, called)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("skips fn on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := r.RunInTx(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
