package embedding

import (
	"context"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
)

type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Truncate bounds embedding input to the service character ceiling. Applied
// before every call so oversize chunks degrade instead of erroring.
func Truncate(text string) string {
	if len(text) <= config.EmbeddingInputCharLimit {
		return text
	}
	return text[:config.EmbeddingInputCharLimit]
}
