package httputil

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	dErrors "oncofeliz/pkg/domain-errors"
)

// MaxUploadBody caps multipart request bodies. It leaves room for form
// fields next to a document at the documents size limit.
const MaxUploadBody = 11 << 20

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// ParseMultipart reads the multipart form of r. Oversized bodies are a
// validation error.
func ParseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBody)
	if err := r.ParseMultipartForm(MaxUploadBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.New(dErrors.CodeValidation, "upload exceeds the size limit")
		}
		return dErrors.New(dErrors.CodeBadRequest, "invalid multipart form")
	}
	return nil
}

// FormFile returns the named file of a parsed multipart form, or nil when
// the field is absent.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "invalid file field "+field)
	}
	return f, hdr, nil
}

// FormInt parses an optional integer form field. Missing or blank fields
// yield zero.
func FormInt(r *http.Request, field string) (int64, error) {
	v, err := FormIntPtr(r, field)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

// FormIntPtr parses an integer form field, returning nil when it is missing
// or blank.
func FormIntPtr(r *http.Request, field string) (*int64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be an integer")
	}
	return &v, nil
}
