// Package memoryDB is the brute-force cosine backend for small corpora.
package memoryDB

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
)

type entry struct {
	chunk  docModel.Chunk
	vector []float32
}

type Store struct {
	mu          sync.RWMutex
	collections map[string][]entry
}

func NewStore() *Store {
	return &Store{collections: make(map[string][]entry)}
}

func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	if collection == "" {
		return errors.New("empty collection name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection]; !ok {
		s.collections[collection] = nil
	}
	return nil
}

func (s *Store) ReplaceDocument(ctx context.Context, collection string, documentId string, chunks []docModel.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.withoutDocument(collection, documentId)
	for i := range chunks {
		kept = append(kept, entry{chunk: chunks[i], vector: vectors[i]})
	}
	s.collections[collection] = kept
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, collection string, documentId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = s.withoutDocument(collection, documentId)
	return nil
}

// caller holds the write lock
func (s *Store) withoutDocument(collection string, documentId string) []entry {
	var kept []entry
	for _, e := range s.collections[collection] {
		if e.chunk.DocumentId != documentId {
			kept = append(kept, e)
		}
	}
	return kept
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, filter vectorDB.Filter, limit uint64) ([]vectorDB.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []vectorDB.Match
	for _, e := range s.collections[collection] {
		if !filter.Matches(e.chunk) {
			continue
		}
		matches = append(matches, vectorDB.Match{
			Chunk:    e.chunk,
			Distance: cosineDistance(vector, e.vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if uint64(len(matches)) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func cosineDistance(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
