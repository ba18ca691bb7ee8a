package identifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oncofeliz/pkg/domain-errors"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		kind Kind
		n    int64
		want string
	}{
		{KindBeneficiary, 1, "B001"},
		{KindBeneficiary, 42, "B042"},
		{KindBeneficiary, 1000, "B1000"},
		{KindAidRequest, 7, "SOL-007"},
		{KindAidRequest, 12345, "SOL-12345"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.kind, tc.n))
	}
}

func TestParse(t *testing.T) {
	t.Run("accepts canonical codes", func(t *testing.T) {
		n, err := Parse(KindBeneficiary, "B007")
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)

		n, err = Parse(KindAidRequest, " sol-1000 ")
		require.NoError(t, err)
		assert.Equal(t, int64(1000), n)
	})

	t.Run("rejects malformed codes", func(t *testing.T) {
		for _, code := range []string{"", "B", "B1", "B00", "X001", "SOL-001", "B-01", "B000", "Babc"} {
			_, err := Parse(KindBeneficiary, code)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "code %q", code)
		}
	})

	t.Run("normalizes case", func(t *testing.T) {
		code, err := Normalize(KindAidRequest, "sol-009")
		require.NoError(t, err)
		assert.Equal(t, "SOL-009", code)
	})
}

func TestGeneratorConcurrentCodesAreUnique(t *testing.T) {
	gen := New(NewMemorySequence())
	ctx := context.Background()

	const n = 200
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := gen.Next(ctx, KindAidRequest)
			assert.NoError(t, err)
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]struct{}, n)
	for c := range codes {
		_, dup := seen[c]
		require.False(t, dup, "duplicate code %s", c)
		seen[c] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestGeneratorKindsAreIndependent(t *testing.T) {
	gen := New(NewMemorySequence())
	ctx := context.Background()

	b, err := gen.Next(ctx, KindBeneficiary)
	require.NoError(t, err)
	a, err := gen.Next(ctx, KindAidRequest)
	require.NoError(t, err)

	assert.Equal(t, "B001", b)
	assert.Equal(t, "SOL-001", a)
}

func TestPostgresSequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT nextval\(\$1::regclass\)`).
		WithArgs("beneficiary_code_seq").
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(12)))

	code, err := New(NewPostgresSequence(db)).Next(context.Background(), KindBeneficiary)
	require.NoError(t, err)
	assert.Equal(t, "B012", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeneratorWrapsSequenceFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`nextval`).WillReturnError(errors.New("connection reset"))

	_, err = New(NewPostgresSequence(db)).Next(context.Background(), KindAidRequest)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
