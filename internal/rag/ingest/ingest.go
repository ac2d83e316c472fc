// Package ingest turns documents into indexed vectors: chunk, embed, replace.
// It feeds both the knowledge collection and the per-case notice collection.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/extract"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/metrics"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/chunker"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/embedding"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

type Pipeline struct {
	embedder embedding.Embedder
	vectors  vectorDB.Store
	blobs    blob.Storage
	logger   *logger_i.Logger
}

func NewPipeline(embedder embedding.Embedder, vectors vectorDB.Store, blobs blob.Storage) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		vectors:  vectors,
		blobs:    blobs,
		logger:   logger_i.NewLogger("Ingest Pipeline"),
	}
}

// IngestKnowledgeDocument indexes one knowledge document. Inline Content wins;
// otherwise the stored blob is downloaded and run through text extraction.
// A document with no extractable text is a no-op, not an error. Returns the
// number of chunks indexed.
func (p *Pipeline) IngestKnowledgeDocument(ctx context.Context, doc docModel.KnowledgeDocument) (int, error) {
	log := p.logger.With("documentId", doc.Id)

	text := doc.Content
	if strings.TrimSpace(text) == "" && doc.BlobKey != "" {
		data, err := p.blobs.Download(ctx, doc.BlobKey)
		if err != nil {
			return 0, fmt.Errorf("download knowledge blob %s: %w", doc.BlobKey, err)
		}
		text, err = extract.ExtractBytes(data, doc.ContentType)
		if err != nil {
			return 0, fmt.Errorf("extract knowledge document %s: %w", doc.Id, err)
		}
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("no text to index, skipping")
		return 0, nil
	}

	meta := docModel.ChunkMetadata{
		DocType:  doc.DocType,
		VisaType: doc.VisaType,
		Category: doc.Category,
		Title:    doc.Title,
	}
	return p.index(ctx, config.KnowledgeCollection, doc.TenantId, doc.Id, text, meta)
}

// IndexCaseNotice indexes the extracted RFE notice text of one case into the
// case-notice collection so other cases can discover it as a precedent. The
// case id doubles as the document id: re-indexing replaces the previous set.
func (p *Pipeline) IndexCaseNotice(ctx context.Context, tenantId string, caseId string, visaType string, noticeText string) (int, error) {
	if strings.TrimSpace(noticeText) == "" {
		return 0, nil
	}
	meta := docModel.ChunkMetadata{
		VisaType: visaType,
		CaseId:   caseId,
	}
	return p.index(ctx, config.CaseNoticeCollection, tenantId, caseId, noticeText, meta)
}

// RemoveDocument drops every vector stored for the document.
func (p *Pipeline) RemoveDocument(ctx context.Context, collection string, documentId string) error {
	return p.vectors.DeleteDocument(ctx, collection, documentId)
}

func (p *Pipeline) index(ctx context.Context, collection string, tenantId string, documentId string, text string, meta docModel.ChunkMetadata) (int, error) {
	log := p.logger.With("documentId", documentId)

	if err := p.vectors.EnsureCollection(ctx, collection); err != nil {
		return 0, err
	}

	pieces := chunker.Split(text)
	chunks := make([]docModel.Chunk, 0, len(pieces))
	vectors := make([][]float32, 0, len(pieces))
	for i, piece := range pieces {
		start := time.Now()
		vec, err := p.embedder.GetEmbedding(ctx, embedding.Truncate(piece))
		metrics.CaptureExecutionMetrics("embedding", time.Since(start))
		if err != nil {
			// Partial coverage beats a dead index: skip the chunk, keep going.
			log.Error("embedding failed, skipping chunk", "chunkIndex", i, "error", err.Error())
			continue
		}
		chunks = append(chunks, docModel.Chunk{
			Id:         chunkId(documentId, i),
			DocumentId: documentId,
			TenantId:   tenantId,
			Content:    piece,
			ChunkIndex: i,
			Metadata:   meta,
		})
		vectors = append(vectors, vec)
	}
	if len(chunks) == 0 {
		log.Warn("no chunks embedded, index unchanged")
		return 0, nil
	}

	if err := p.vectors.ReplaceDocument(ctx, collection, documentId, chunks, vectors); err != nil {
		return 0, err
	}
	log.Info("document indexed", "collection", collection, "chunks", len(chunks))
	return len(chunks), nil
}

// chunkId is a UUIDv5 of document id and position. Deterministic ids make
// re-ingestion idempotent in every backend, and Qdrant only accepts UUID
// point ids.
func chunkId(documentId string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s:%d", documentId, index))).String()
}
