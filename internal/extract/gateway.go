// Package extract is the gateway that turns uploaded document bytes into
// plain text. Strategy is picked from the declared content type; anything
// unrecognized is decoded as plain text rather than rejected.
package extract

import (
	"context"
	"strings"
	"time"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText = "text/plain"
)

type Gateway struct {
	documents docModel.DocumentStore
	blobs     blob.Storage
	logger    *logger_i.Logger
}

func NewGateway(documents docModel.DocumentStore, blobs blob.Storage) *Gateway {
	return &Gateway{
		documents: documents,
		blobs:     blobs,
		logger:    logger_i.NewLogger("Extraction Gateway"),
	}
}

// ExtractDocument pulls the document bytes from blob storage, extracts plain
// text and persists the outcome. On success the extracted text and completed
// status are saved exactly once; on failure the document is marked failed
// with message and timestamp and the error still propagates so the caller
// decides whether to continue with other documents.
func (g *Gateway) ExtractDocument(ctx context.Context, doc docModel.SourceDocument) (string, error) {
	log := g.logger.With("documentId", doc.Id, "contentType", doc.ContentType)
	log.Debug("Extracting document text")

	data, err := g.blobs.Download(ctx, doc.BlobKey)
	if err != nil {
		return "", g.fail(ctx, doc, "could not read document bytes", err)
	}

	text, err := ExtractBytes(data, doc.ContentType)
	if err != nil {
		return "", g.fail(ctx, doc, err.Error(), err)
	}

	doc.ExtractedText = text
	doc.Status = docModel.DocStatusCompleted
	doc.FailureMessage = ""
	if err := g.documents.SaveDocument(ctx, doc); err != nil {
		return "", g.fail(ctx, doc, "could not persist extracted text", err)
	}
	log.Debug("Extraction complete", "chars", len(text))
	return text, nil
}

func (g *Gateway) fail(ctx context.Context, doc docModel.SourceDocument, msg string, cause error) error {
	g.logger.Error("Extraction failed", "documentId", doc.Id, "error", cause)

	doc.Status = docModel.DocStatusFailed
	doc.FailureMessage = msg
	doc.FailedAt = time.Now()
	if saveErr := g.documents.SaveDocument(ctx, doc); saveErr != nil {
		g.logger.Error("Could not persist failure record", "documentId", doc.Id, "error", saveErr)
	}

	return &errs.ExtractionFailure{
		DocumentId: doc.Id,
		Msg:        msg,
		FailedAt:   doc.FailedAt,
		Err:        cause,
	}
}

// ExtractBytes dispatches on the declared content type. Used directly by the
// knowledge pipeline when a knowledge document carries a file body instead of
// structured content.
func ExtractBytes(data []byte, contentType string) (string, error) {
	switch normalizeContentType(contentType) {
	case ContentTypePDF:
		return extractPDF(data)
	case ContentTypeDocx:
		return extractWordArchive(data)
	default:
		// plain text and everything unrecognized
		return decodePlainText(data), nil
	}
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

func decodePlainText(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
