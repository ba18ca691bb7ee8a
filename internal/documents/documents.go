// Package documents stores the PDF reports and invoices attached to cases and
// aid requests. Callers keep only the opaque reference.
package documents

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "oncofeliz/pkg/domain-errors"
)

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes int64 = 10 << 20

// Kind groups documents by purpose; it becomes the first path segment of a ref.
type Kind string

const (
	KindSocialReport        Kind = "informes-sociales"
	KindPsychologicalReport Kind = "informes-psicologicos"
	KindAidSupport          Kind = "solicitudes"
	KindInvoice             Kind = "facturas"
)

var pdfMagic = []byte("%PDF-")

var refPattern = regexp.MustCompile(`^[a-z-]+/[0-9a-f-]{36}\.pdf$`)

// Document describes a stored file.
type Document struct {
	Ref              string `json:"ref"`
	OriginalFilename string `json:"nombreOriginal"`
	Size             int64  `json:"tamano"`
	Checksum         string `json:"sha256"`
}

// LocalStore writes documents below a root directory.
type LocalStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

// Save validates that r holds a PDF no larger than the limit and stores it
// under a fresh ref. Nothing is left on disk when validation fails.
func (s *LocalStore) Save(ctx context.Context, kind Kind, filename string, r io.Reader) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	br := bufio.NewReader(r)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload")
	}
	if len(head) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "document is empty")
	}
	if !bytes.HasPrefix(head, pdfMagic) || http.DetectContentType(head) != "application/pdf" {
		return nil, dErrors.New(dErrors.CodeValidation, "only PDF documents are accepted")
	}

	ref := string(kind) + "/" + uuid.NewString() + ".pdf"
	path := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to prepare document directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), io.LimitReader(br, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(path)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write document")
	case n > s.maxBytes:
		_ = os.Remove(path)
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document exceeds %d MiB", s.maxBytes>>20))
	case closeErr != nil:
		_ = os.Remove(path)
		return nil, dErrors.Wrap(closeErr, dErrors.CodeInternal, "failed to write document")
	}

	return &Document{
		Ref:              ref,
		OriginalFilename: filepath.Base(strings.TrimSpace(filename)),
		Size:             n,
		Checksum:         hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Open returns the content behind ref.
func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if !ValidRef(ref) {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid document reference")
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open document")
	}
	return f, nil
}

// Exists reports whether ref names a stored document.
func (s *LocalStore) Exists(_ context.Context, ref string) (bool, error) {
	if !ValidRef(ref) {
		return false, nil
	}
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(ref)))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Delete removes the document behind ref. Deleting a missing document is not
// an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if !ValidRef(ref) {
		return dErrors.New(dErrors.CodeValidation, "invalid document reference")
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(ref)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
	}
	return nil
}

// ValidRef reports whether ref has the shape produced by Save.
func ValidRef(ref string) bool {
	return refPattern.MatchString(ref)
}
