package llm

import "context"

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Request is one completion call: a fixed system instruction, the assembled
// user prompt, and generation knobs.
type Request struct {
	SystemPrompt   string
	UserPrompt     string
	ResponseFormat Format
	Temperature    float32
	MaxTokens      int32
}

type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
