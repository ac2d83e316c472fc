package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB/memoryDB"
)

type stubEmbedder struct {
	failOn map[string]bool
}

func (s *stubEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.failOn != nil {
		for marker := range s.failOn {
			if strings.Contains(text, marker) {
				return nil, errors.New("embedding backend unavailable")
			}
		}
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := s.GetEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word" + string(rune('a'+i%26))
	}
	return strings.Join(parts, " ")
}

func queryAll(t *testing.T, store vectorDB.Store, collection string, tenantId string) []vectorDB.Match {
	t.Helper()
	matches, err := store.Query(context.Background(), collection, []float32{1, 0, 0}, vectorDB.Filter{TenantId: tenantId}, 100)
	require.NoError(t, err)
	return matches
}

func TestIngestKnowledgeDocumentChunksAndTags(t *testing.T) {
	store := memoryDB.NewStore()
	pipeline := NewPipeline(&stubEmbedder{}, store, nil)

	doc := docModel.KnowledgeDocument{
		Id:       "kd-1",
		TenantId: "tenant-1",
		Title:    "Specialty Occupation Memo",
		DocType:  "policy_memo",
		VisaType: "H-1B",
		Category: "regulation",
		Content:  words(2000),
	}
	count, err := pipeline.IngestKnowledgeDocument(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, 4, count)

	matches := queryAll(t, store, config.KnowledgeCollection, "tenant-1")
	require.Len(t, matches, 4)
	for _, m := range matches {
		assert.Equal(t, "kd-1", m.Chunk.DocumentId)
		assert.Equal(t, "H-1B", m.Chunk.Metadata.VisaType)
		assert.Equal(t, "regulation", m.Chunk.Metadata.Category)
		assert.Equal(t, "Specialty Occupation Memo", m.Chunk.Metadata.Title)
		assert.Empty(t, m.Chunk.Metadata.CaseId)
	}
}

func TestIngestEmptyDocumentIsNoOp(t *testing.T) {
	store := memoryDB.NewStore()
	pipeline := NewPipeline(&stubEmbedder{}, store, nil)

	count, err := pipeline.IngestKnowledgeDocument(context.Background(), docModel.KnowledgeDocument{
		Id:       "kd-empty",
		TenantId: "tenant-1",
		Content:  "   \n\t ",
	})

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, queryAll(t, store, config.KnowledgeCollection, "tenant-1"))
}

func TestIngestSkipsChunksThatFailToEmbed(t *testing.T) {
	store := memoryDB.NewStore()
	// Single-chunk documents embed their full text, so poison one document.
	pipeline := NewPipeline(&stubEmbedder{failOn: map[string]bool{"poison": true}}, store, nil)

	count, err := pipeline.IngestKnowledgeDocument(context.Background(), docModel.KnowledgeDocument{
		Id:       "kd-good",
		TenantId: "tenant-1",
		Content:  "clean text about wage levels",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = pipeline.IngestKnowledgeDocument(context.Background(), docModel.KnowledgeDocument{
		Id:       "kd-bad",
		TenantId: "tenant-1",
		Content:  "poison text",
	})
	require.NoError(t, err)
	assert.Zero(t, count)

	matches := queryAll(t, store, config.KnowledgeCollection, "tenant-1")
	require.Len(t, matches, 1)
	assert.Equal(t, "kd-good", matches[0].Chunk.DocumentId)
}

func TestReingestReplacesPreviousChunks(t *testing.T) {
	store := memoryDB.NewStore()
	pipeline := NewPipeline(&stubEmbedder{}, store, nil)

	doc := docModel.KnowledgeDocument{Id: "kd-1", TenantId: "tenant-1", Content: words(2000)}
	_, err := pipeline.IngestKnowledgeDocument(context.Background(), doc)
	require.NoError(t, err)

	doc.Content = "short replacement"
	count, err := pipeline.IngestKnowledgeDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches := queryAll(t, store, config.KnowledgeCollection, "tenant-1")
	require.Len(t, matches, 1)
	assert.Equal(t, "short replacement", matches[0].Chunk.Content)
}

func TestIndexCaseNoticeCarriesCaseId(t *testing.T) {
	store := memoryDB.NewStore()
	pipeline := NewPipeline(&stubEmbedder{}, store, nil)

	count, err := pipeline.IndexCaseNotice(context.Background(), "tenant-1", "case-9", "H-1B", "the petitioner has not established that the proffered position qualifies")

	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches := queryAll(t, store, config.CaseNoticeCollection, "tenant-1")
	require.Len(t, matches, 1)
	assert.Equal(t, "case-9", matches[0].Chunk.Metadata.CaseId)
	assert.Equal(t, "H-1B", matches[0].Chunk.Metadata.VisaType)
}
