// Package vectorDB defines the pluggable vector index. The retrieval engine
// never assumes a particular backend: small deployments run the in-memory
// brute-force scan, larger ones point at Qdrant or pgvector.
package vectorDB

import (
	"context"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/docModel"
)

// Filter narrows a nearest-neighbour query. TenantId is mandatory. VisaType
// and Category match when equal OR when the stored chunk is untagged -
// untagged material is always eligible, filters narrow but never require
// tagging.
type Filter struct {
	TenantId string
	VisaType string
	Category string
}

// Match is one neighbour with its cosine distance (0 = identical).
type Match struct {
	Chunk    docModel.Chunk
	Distance float32
}

type Store interface {
	EnsureCollection(ctx context.Context, collection string) error

	// ReplaceDocument atomically deletes all stored chunks for documentId and
	// inserts the new set - never a partial overwrite.
	ReplaceDocument(ctx context.Context, collection string, documentId string, chunks []docModel.Chunk, vectors [][]float32) error

	DeleteDocument(ctx context.Context, collection string, documentId string) error

	Query(ctx context.Context, collection string, vector []float32, filter Filter, limit uint64) ([]Match, error)
}

// Matches reports whether chunk metadata passes the filter. Shared by the
// in-memory backend and tests; the remote backends express the same
// semantics in their native filter languages.
func (f Filter) Matches(c docModel.Chunk) bool {
	if c.TenantId != f.TenantId {
		return false
	}
	if f.VisaType != "" && c.Metadata.VisaType != "" && c.Metadata.VisaType != f.VisaType {
		return false
	}
	if f.Category != "" && c.Metadata.Category != "" && c.Metadata.Category != f.Category {
		return false
	}
	return true
}
