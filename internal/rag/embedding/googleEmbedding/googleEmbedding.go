package googleEmbedding

import (
	"context"
	"errors"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/embedding"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
	"google.golang.org/genai"
)

var errEmptyResponse = errors.New("embedding response contained no vectors")

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

type client struct {
	genAi *genai.Client
	model string
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return
	}
	embeddingClient = &client{
		genAi: c,
		model: modelName,
	}
	logger.Info("Google Embedding client created", "model", modelName)
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	//if init failed
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	result, err := c.doCall(ctx, genai.Text(embedding.Truncate(text)))
	if err != nil {
		logger.Error("Error getting embedding from Google", "error", err)
		return nil, &errs.ExternalServiceError{Service: "embedding", Err: err}
	}
	if len(result.Embeddings) == 0 {
		return nil, &errs.ExternalServiceError{Service: "embedding", Err: errEmptyResponse}
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	content := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		content = append(content, genai.Text(embedding.Truncate(t))...)
	}

	result, err := c.doCall(ctx, content)
	if err != nil {
		logger.Error("Error getting batch embeddings from Google", "error", err, "batch", len(texts))
		return nil, &errs.ExternalServiceError{Service: "embedding", Err: err}
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, r := range result.Embeddings {
		vectors = append(vectors, r.Values)
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
}
