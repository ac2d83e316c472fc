package openaiEmbedding

import (
	"context"
	"errors"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/customHttpClient"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/embedding"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
}

func GetOpenAIEmbeddingClient(modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		if apikey == "" {
			logger.Error("Missing OpenAI API key")
			return
		}
		embeddingClient = &client{
			api: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithHTTPClient(customHttpClient.Pooled()),
			),
			model: modelName,
		}
		logger.Info("OpenAI Embedding client created", "model", modelName)
	})

	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, 0, len(texts))
	for _, t := range texts {
		inputs = append(inputs, embedding.Truncate(t))
	}

	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		logger.Error("Error getting embeddings from OpenAI", "error", err, "batch", len(texts))
		return nil, &errs.ExternalServiceError{Service: "embedding", Err: err}
	}
	if len(res.Data) != len(inputs) {
		return nil, &errs.ExternalServiceError{Service: "embedding", Err: errors.New("embedding count mismatch")}
	}

	vectors := make([][]float32, 0, len(res.Data))
	for _, d := range res.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
