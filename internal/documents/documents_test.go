package documents

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oncofeliz/pkg/domain-errors"
)

func samplePDF() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
}

func TestSaveAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := store.Save(ctx, KindSocialReport, "../../informe.pdf", bytes.NewReader(samplePDF()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc.Ref, "informes-sociales/"))
	assert.True(t, ValidRef(doc.Ref))
	assert.Equal(t, "informe.pdf", doc.OriginalFilename)
	assert.Equal(t, int64(len(samplePDF())), doc.Size)
	assert.Len(t, doc.Checksum, 64)

	rc, err := store.Open(ctx, doc.Ref)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, samplePDF(), content)

	ok, err := store.Exists(ctx, doc.Ref)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveRejectsNonPDF(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, 0)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), KindInvoice, "foto.png", bytes.NewReader([]byte("\x89PNG\r\n\x1a\n....")))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = store.Save(context.Background(), KindInvoice, "vacio.pdf", bytes.NewReader(nil))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSaveEnforcesSizeLimit(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, 1<<20)
	require.NoError(t, err)

	big := append(samplePDF(), bytes.Repeat([]byte("x"), 1<<20)...)
	_, err = store.Save(context.Background(), KindInvoice, "grande.pdf", bytes.NewReader(big))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	entries, err := os.ReadDir(filepath.Join(root, string(KindInvoice)))
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized upload must not be kept")
}

func TestOpenRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "../etc/passwd")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	ok, err := store.Exists(context.Background(), "facturas/../../x.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), 0)
	require.NoError(t, err)
	ctx := context.Background()

	doc, err := store.Save(ctx, KindInvoice, "factura.pdf", bytes.NewReader(samplePDF()))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, doc.Ref))

	ok, err := store.Exists(ctx, doc.Ref)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Delete(ctx, doc.Ref), "already gone")
	assert.True(t, dErrors.HasCode(store.Delete(ctx, "../x.pdf"), dErrors.CodeValidation))
}
