package memoryDB

import (
	"context"
	"testing"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(id, docId, tenant, visa string) docModel.Chunk {
	return docModel.Chunk{
		Id:         id,
		DocumentId: docId,
		TenantId:   tenant,
		Content:    "content " + id,
		Metadata:   docModel.ChunkMetadata{VisaType: visa},
	}
}

func TestQuery_RanksByCosineDistance(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	chunks := []docModel.Chunk{
		chunk("c1", "d1", "t1", ""),
		chunk("c2", "d1", "t1", ""),
		chunk("c3", "d1", "t1", ""),
	}
	vectors := [][]float32{
		{1, 0},     // identical to query
		{0.5, 0.5}, // 45 degrees off
		{0, 1},     // orthogonal
	}
	require.NoError(t, s.ReplaceDocument(ctx, "kb", "d1", chunks, vectors))

	matches, err := s.Query(ctx, "kb", []float32{1, 0}, vectorDB.Filter{TenantId: "t1"}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "c1", matches[0].Chunk.Id)
	assert.Equal(t, "c2", matches[1].Chunk.Id)
	assert.Equal(t, "c3", matches[2].Chunk.Id)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	assert.InDelta(t, 1, matches[2].Distance, 1e-6)
}

func TestQuery_FilterSemantics(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	chunks := []docModel.Chunk{
		chunk("h1b", "d1", "t1", "H-1B"),
		chunk("o1", "d1", "t1", "O-1"),
		chunk("untagged", "d1", "t1", ""),
		chunk("other-tenant", "d1", "t2", "H-1B"),
	}
	vec := []float32{1, 0}
	require.NoError(t, s.ReplaceDocument(ctx, "kb", "d1", chunks, [][]float32{vec, vec, vec, vec}))

	t.Run("visa filter keeps matching and untagged chunks", func(t *testing.T) {
		matches, err := s.Query(ctx, "kb", vec, vectorDB.Filter{TenantId: "t1", VisaType: "H-1B"}, 10)
		require.NoError(t, err)

		var ids []string
		for _, m := range matches {
			ids = append(ids, m.Chunk.Id)
		}
		assert.ElementsMatch(t, []string{"h1b", "untagged"}, ids)
	})

	t.Run("tenant scope is strict", func(t *testing.T) {
		matches, err := s.Query(ctx, "kb", vec, vectorDB.Filter{TenantId: "t2"}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "other-tenant", matches[0].Chunk.Id)
	})

	t.Run("no filter returns all tenant chunks", func(t *testing.T) {
		matches, err := s.Query(ctx, "kb", vec, vectorDB.Filter{TenantId: "t1"}, 10)
		require.NoError(t, err)
		assert.Len(t, matches, 3)
	})
}

func TestReplaceDocument_DeletesThenInserts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	vec := []float32{1, 0}

	require.NoError(t, s.ReplaceDocument(ctx, "kb", "d1",
		[]docModel.Chunk{chunk("old1", "d1", "t1", ""), chunk("old2", "d1", "t1", "")},
		[][]float32{vec, vec}))
	require.NoError(t, s.ReplaceDocument(ctx, "kb", "d2",
		[]docModel.Chunk{chunk("keep", "d2", "t1", "")},
		[][]float32{vec}))

	// re-embed d1 with a different chunk set
	require.NoError(t, s.ReplaceDocument(ctx, "kb", "d1",
		[]docModel.Chunk{chunk("new1", "d1", "t1", "")},
		[][]float32{vec}))

	matches, err := s.Query(ctx, "kb", vec, vectorDB.Filter{TenantId: "t1"}, 10)
	require.NoError(t, err)

	var ids []string
	for _, m := range matches {
		ids = append(ids, m.Chunk.Id)
	}
	assert.ElementsMatch(t, []string{"new1", "keep"}, ids)
}

func TestReplaceDocument_LengthMismatch(t *testing.T) {
	s := NewStore()
	err := s.ReplaceDocument(context.Background(), "kb", "d1",
		[]docModel.Chunk{chunk("c1", "d1", "t1", "")}, nil)
	assert.Error(t, err)
}
