package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sells-group/health-score/internal/resilience"
)

// OpenAICompleter serves requests with OpenAI-compatible chat models.
type OpenAICompleter struct {
	client    *openai.Client
	cheap     string
	strong    string
	maxTokens int64
}

// NewOpenAI creates a Completer for the given key. An empty baseURL uses the
// public OpenAI endpoint.
func NewOpenAI(apiKey, baseURL, cheapModel, strongModel string, maxTokens int64) *OpenAICompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client:    openai.NewClientWithConfig(cfg),
		cheap:     cheapModel,
		strong:    strongModel,
		maxTokens: maxTokens,
	}
}

// Complete implements Completer.
func (o *OpenAICompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	mdl := o.cheap
	if req.Tier == TierStrong {
		mdl = o.strong
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = o.maxTokens
	}

	creq := openai.ChatCompletionRequest{
		Model:     mdl,
		MaxTokens: int(maxTokens),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSON {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, classifyOpenAI(err, req.Tier)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, ErrEmptyCompletion
	}
	return &Response{
		Text:         text,
		Model:        mdl,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

func classifyOpenAI(err error, tier Tier) error {
	wrapped := eris.Wrapf(err, "llm: openai %s", tier)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.HTTPStatusCode) {
		return resilience.NewTransientError(wrapped, apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && resilience.IsTransientHTTPStatus(reqErr.HTTPStatusCode) {
		return resilience.NewTransientError(wrapped, reqErr.HTTPStatusCode)
	}
	return wrapped
}
