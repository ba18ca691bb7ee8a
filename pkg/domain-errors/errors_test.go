package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	t.Run("wrapped error keeps outer code", func(t *testing.T) {
		cause := errors.New("db down")
		err := Wrap(cause, CodeInternal, "failed to load case")

		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, Is(err, cause))
		assert.Equal(t, "failed to load case: db down", err.Error())
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("accept: %w", New(CodeConflict, "case already decided"))
		assert.Equal(t, CodeConflict, GetCode(err))
	})

	t.Run("uncoded error reports internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, GetCode(errors.New("boom")))
		assert.False(t, HasCode(errors.New("boom"), CodeNotFound))
	})

	t.Run("wrap nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodePrecondition: http.StatusUnprocessableEntity,
		CodeConflict:     http.StatusConflict,
		CodeNotFound:     http.StatusNotFound,
		CodeForbidden:    http.StatusForbidden,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %s", code)
	}
}
