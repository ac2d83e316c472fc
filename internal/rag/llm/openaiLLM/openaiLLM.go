package openaiLLM

import (
	"context"
	"errors"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/customHttpClient"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/errs"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

type llmClient struct {
	api   openai.Client
	model string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

func GetOpenAIClient(modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		if apikey == "" {
			logger.Error("Missing OpenAI API key")
			return
		}
		openaiClient = &llmClient{
			api: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithHTTPClient(customHttpClient.Pooled()),
			),
			model: modelName,
		}
		logger.Info("OpenAI completion client created", "model", modelName)
	})

	if openaiClient == nil {
		return nil
	}
	return openaiClient
}

func (c *llmClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(float64(req.Temperature)),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}
	if req.ResponseFormat == llm.FormatJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("OpenAI completion failed", "error", err)
		return "", &errs.ExternalServiceError{Service: "completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &errs.ExternalServiceError{Service: "completion", Err: errors.New("empty completion response")}
	}
	return resp.Choices[0].Message.Content, nil
}
