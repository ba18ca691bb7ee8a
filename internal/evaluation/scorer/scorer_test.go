package scorer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oncofeliz/pkg/platform/circuit"
	"oncofeliz/pkg/platform/sentinel"
)

func TestSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analizar", r.URL.Path)
		f, hdr, err := r.FormFile("informe")
		require.NoError(t, err)
		content, _ := io.ReadAll(f)
		assert.Equal(t, "informe.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(content))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ingresoFamiliar":        25,
			"numPersonasHogar":       12,
			"tipoVivienda":           10,
			"situacionLaboralPadres": 18,
			"accesoSalud":            9,
			"gastosMedicosMensuales": 14,
			"observaciones":          "Familia de cinco integrantes",
		})
	}))
	defer srv.Close()

	got, err := New(srv.URL, time.Second).Suggest(context.Background(), "informe.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, 25, got.Scores.Income, "raw value is returned unclamped")
	assert.Equal(t, "Familia de cinco integrantes", got.Observations)
}

func TestSuggestOpensBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second,
		WithBreaker(circuit.New("scorer-test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))))
	c.http.SetRetryCount(0)

	for i := 0; i < 2; i++ {
		_, err := c.Suggest(context.Background(), "a.pdf", []byte("%PDF-"))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	}
	_, err := c.Suggest(context.Background(), "a.pdf", []byte("%PDF-"))
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits the third call")
}

func TestNewWithoutURL(t *testing.T) {
	assert.Nil(t, New("", time.Second))
}
