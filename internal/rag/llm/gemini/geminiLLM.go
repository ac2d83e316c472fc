package gemini

import (
	"context"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
}

func (c *llmClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	temperature := req.Temperature
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		},
		Temperature:     &temperature,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.ResponseFormat == llm.FormatJSON {
		contentConfig.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(req.UserPrompt),
		contentConfig,
	)
	if err != nil {
		logger.Error("Gemini completion failed", "error", err)
		return "", &errs.ExternalServiceError{Service: "completion", Err: err}
	}
	return result.Text(), nil
}
