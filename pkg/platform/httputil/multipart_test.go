package httputil

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oncofeliz/pkg/domain-errors"
)

func multipartRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("informe", "informe.pdf")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestMultipartHelpers(t *testing.T) {
	t.Run("reads file and fields", func(t *testing.T) {
		r := multipartRequest(t, map[string]string{"pacienteRegistroId": "7"}, []byte("%PDF-1.4"))
		require.True(t, IsMultipart(r))
		require.NoError(t, ParseMultipart(httptest.NewRecorder(), r))

		v, err := FormInt(r, "pacienteRegistroId")
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)

		f, hdr, err := FormFile(r, "informe")
		require.NoError(t, err)
		require.NotNil(t, f)
		content, _ := io.ReadAll(f)
		assert.Equal(t, "%PDF-1.4", string(content))
		assert.Equal(t, "informe.pdf", hdr.Filename)
	})

	t.Run("missing file is nil", func(t *testing.T) {
		r := multipartRequest(t, map[string]string{"observaciones": "x"}, nil)
		require.NoError(t, ParseMultipart(httptest.NewRecorder(), r))
		f, _, err := FormFile(r, "informe")
		require.NoError(t, err)
		assert.Nil(t, f)
	})

	t.Run("bad integer is a validation error", func(t *testing.T) {
		r := multipartRequest(t, map[string]string{"pacienteRegistroId": "abc"}, nil)
		require.NoError(t, ParseMultipart(httptest.NewRecorder(), r))
		_, err := FormInt(r, "pacienteRegistroId")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("json is not multipart", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Content-Type", "application/json")
		assert.False(t, IsMultipart(r))
	})
}
