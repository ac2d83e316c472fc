package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
)

type mockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
	calls          int
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	return m.OnGetEmbedding(ctx, text)
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.OnGetEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type mockVectorStore struct {
	OnQuery func(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error)
}

func (m *mockVectorStore) EnsureCollection(ctx context.Context, collection string) error {
	return nil
}

func (m *mockVectorStore) ReplaceDocument(ctx context.Context, collection string, documentId string, chunks []docModel.Chunk, vectors [][]float32) error {
	return nil
}

func (m *mockVectorStore) DeleteDocument(ctx context.Context, collection string, documentId string) error {
	return nil
}

func (m *mockVectorStore) Query(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
	return m.OnQuery(ctx, collection, vector, f, limit)
}

type mockKnowledgeStore struct {
	docs map[string]docModel.KnowledgeDocument
}

func (m *mockKnowledgeStore) GetKnowledgeDocument(ctx context.Context, tenantId string, docId string) (docModel.KnowledgeDocument, bool) {
	doc, ok := m.docs[docId]
	return doc, ok
}

func (m *mockKnowledgeStore) SaveKnowledgeDocument(ctx context.Context, doc docModel.KnowledgeDocument) error {
	m.docs[doc.Id] = doc
	return nil
}

func fixedEmbedder(vec []float32) *mockEmbedder {
	return &mockEmbedder{
		OnGetEmbedding: func(ctx context.Context, text string) ([]float32, error) {
			return vec, nil
		},
	}
}

func chunkFor(caseId string, content string) docModel.Chunk {
	return docModel.Chunk{
		Id:      content,
		Content: content,
		Metadata: docModel.ChunkMetadata{
			CaseId: caseId,
		},
	}
}

func TestSearchEmptyQuerySkipsEmbedding(t *testing.T) {
	embedder := fixedEmbedder([]float32{1, 0})
	engine := NewEngine(embedder, &mockVectorStore{}, &mockKnowledgeStore{}, 0)

	results, err := engine.Search(context.Background(), "tenant-1", "   ", Filters{}, 10)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, embedder.calls)
}

func TestSearchRoundsSimilarity(t *testing.T) {
	store := &mockVectorStore{
		OnQuery: func(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
			return []vectorDB.Match{
				{Chunk: docModel.Chunk{Id: "a"}, Distance: 0.12344},
				{Chunk: docModel.Chunk{Id: "b"}, Distance: 0.5},
			}, nil
		},
	}
	engine := NewEngine(fixedEmbedder([]float32{1, 0}), store, &mockKnowledgeStore{}, 0)

	results, err := engine.Search(context.Background(), "tenant-1", "specialty occupation", Filters{}, 10)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0.8766, results[0].Similarity)
	assert.Equal(t, 0.5, results[1].Similarity)
}

func TestSearchPassesTenantAndFilters(t *testing.T) {
	var captured vectorDB.Filter
	var capturedCollection string
	store := &mockVectorStore{
		OnQuery: func(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
			captured = f
			capturedCollection = collection
			return nil, nil
		},
	}
	engine := NewEngine(fixedEmbedder([]float32{1, 0}), store, &mockKnowledgeStore{}, 0)

	_, err := engine.Search(context.Background(), "tenant-1", "wage level", Filters{VisaType: "H-1B", Category: "regulation"}, 10)

	require.NoError(t, err)
	assert.Equal(t, config.KnowledgeCollection, capturedCollection)
	assert.Equal(t, "tenant-1", captured.TenantId)
	assert.Equal(t, "H-1B", captured.VisaType)
	assert.Equal(t, "regulation", captured.Category)
}

func TestKnowledgeSearchResolvesDocuments(t *testing.T) {
	store := &mockVectorStore{
		OnQuery: func(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
			return []vectorDB.Match{
				{Chunk: docModel.Chunk{Id: "c1", DocumentId: "doc-1"}, Distance: 0.1},
				{Chunk: docModel.Chunk{Id: "c2", DocumentId: "doc-missing"}, Distance: 0.2},
			}, nil
		},
	}
	knowledge := &mockKnowledgeStore{docs: map[string]docModel.KnowledgeDocument{
		"doc-1": {Id: "doc-1", Title: "Specialty Occupation Criteria"},
	}}
	engine := NewEngine(fixedEmbedder([]float32{1, 0}), store, knowledge, 0)

	hits, err := engine.KnowledgeSearch(context.Background(), "tenant-1", "criteria", Filters{}, 10)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.NotNil(t, hits[0].Document)
	assert.Equal(t, "Specialty Occupation Criteria", hits[0].Document.Title)
	assert.Nil(t, hits[1].Document)
}

func TestSimilarCasesDedupesAndExcludesSelf(t *testing.T) {
	var capturedLimit uint64
	var capturedCollection string
	store := &mockVectorStore{
		OnQuery: func(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
			capturedLimit = limit
			capturedCollection = collection
			return []vectorDB.Match{
				{Chunk: chunkFor("case-self", "self best"), Distance: 0.01},
				{Chunk: chunkFor("case-a", "a best"), Distance: 0.05},
				{Chunk: chunkFor("case-a", "a worse"), Distance: 0.30},
				{Chunk: chunkFor("case-b", "b best"), Distance: 0.10},
				{Chunk: chunkFor("", "untagged"), Distance: 0.02},
				{Chunk: chunkFor("case-c", "c best"), Distance: 0.20},
			}, nil
		},
	}
	engine := NewEngine(fixedEmbedder([]float32{1, 0}), store, &mockKnowledgeStore{}, 3)

	cases, err := engine.SimilarCases(context.Background(), "tenant-1", "case-self", "notice text", 2)

	require.NoError(t, err)
	assert.Equal(t, config.CaseNoticeCollection, capturedCollection)
	assert.Equal(t, uint64(6), capturedLimit)
	require.Len(t, cases, 2)
	assert.Equal(t, "case-a", cases[0].CaseId)
	assert.Equal(t, "a best", cases[0].Chunk.Content)
	assert.Equal(t, "case-b", cases[1].CaseId)
}

func TestSimilarCasesShortResultWhenFewDistinctCases(t *testing.T) {
	store := &mockVectorStore{
		OnQuery: func(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
			return []vectorDB.Match{
				{Chunk: chunkFor("case-a", "a1"), Distance: 0.05},
				{Chunk: chunkFor("case-a", "a2"), Distance: 0.06},
				{Chunk: chunkFor("case-a", "a3"), Distance: 0.07},
			}, nil
		},
	}
	engine := NewEngine(fixedEmbedder([]float32{1, 0}), store, &mockKnowledgeStore{}, 3)

	cases, err := engine.SimilarCases(context.Background(), "tenant-1", "case-x", "notice", 5)

	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "case-a", cases[0].CaseId)
}

func TestContextForDraftingUsesDraftLimit(t *testing.T) {
	var capturedLimit uint64
	store := &mockVectorStore{
		OnQuery: func(ctx context.Context, collection string, vector []float32, f vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
			capturedLimit = limit
			return nil, nil
		},
	}
	engine := NewEngine(fixedEmbedder([]float32{1, 0}), store, &mockKnowledgeStore{}, 0)

	_, err := engine.ContextForDrafting(context.Background(), "tenant-1", "issue summary", "H-1B")

	require.NoError(t, err)
	assert.Equal(t, uint64(config.DraftContextLimit), capturedLimit)
}
