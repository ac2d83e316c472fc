package extract

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/store"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
)

func TestExtractBytesDispatch(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		data        []byte
		want        string
	}{
		{"plain text", "text/plain", []byte("hello notice"), "hello notice"},
		{"charset parameter stripped", "text/plain; charset=utf-8", []byte("with params"), "with params"},
		{"unrecognized type decodes as text", "application/x-whatever", []byte("raw body"), "raw body"},
		{"invalid utf8 replaced", "text/plain", []byte{0x68, 0x69, 0xff}, "hi�"},
		{"malformed pdf falls back to text", "application/pdf", []byte("not a pdf at all"), "not a pdf at all"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractBytes(tc.data, tc.contentType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func newGatewayEnv(t *testing.T) (*Gateway, docModel.DocumentStore, blob.Storage) {
	t.Helper()
	documents := store.NewInMemoryDocumentStore()
	blobs, err := blob.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewGateway(documents, blobs), documents, blobs
}

func TestExtractDocumentPersistsCompletion(t *testing.T) {
	gateway, documents, blobs := newGatewayEnv(t)
	ctx := context.Background()

	require.NoError(t, blobs.Upload(ctx, "docs/n1.txt", bytes.NewReader([]byte("the proffered position"))))
	doc := docModel.SourceDocument{
		Id: "doc-1", TenantId: "tenant-1", CaseId: "case-1",
		ContentType: "text/plain", BlobKey: "docs/n1.txt",
		Status: docModel.DocStatusPending,
	}
	require.NoError(t, documents.SaveDocument(ctx, doc))

	text, err := gateway.ExtractDocument(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "the proffered position", text)

	saved, ok := documents.GetDocument(ctx, "tenant-1", "doc-1")
	require.True(t, ok)
	assert.Equal(t, docModel.DocStatusCompleted, saved.Status)
	assert.Equal(t, "the proffered position", saved.ExtractedText)
	assert.Empty(t, saved.FailureMessage)
}

func TestExtractDocumentPersistsFailure(t *testing.T) {
	gateway, documents, _ := newGatewayEnv(t)
	ctx := context.Background()

	doc := docModel.SourceDocument{
		Id: "doc-missing", TenantId: "tenant-1", CaseId: "case-1",
		ContentType: "text/plain", BlobKey: "docs/absent.txt",
		Status: docModel.DocStatusPending,
	}
	require.NoError(t, documents.SaveDocument(ctx, doc))

	_, err := gateway.ExtractDocument(ctx, doc)
	require.Error(t, err)
	var failure *errs.ExtractionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "doc-missing", failure.DocumentId)

	saved, ok := documents.GetDocument(ctx, "tenant-1", "doc-missing")
	require.True(t, ok)
	assert.Equal(t, docModel.DocStatusFailed, saved.Status)
	assert.NotEmpty(t, saved.FailureMessage)
	assert.False(t, saved.FailedAt.IsZero())
}
