package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/health-score/pkg/anthropic"
)

const jsonOnlySuffix = "\n\nRespond with a single JSON object and nothing else."

// AnthropicCompleter serves requests with Claude models.
type AnthropicCompleter struct {
	client    anthropic.Client
	cheap     string
	strong    string
	maxTokens int64
}

// NewAnthropic creates a Completer backed by an Anthropic client.
func NewAnthropic(client anthropic.Client, cheapModel, strongModel string, maxTokens int64) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, cheap: cheapModel, strong: strongModel, maxTokens: maxTokens}
}

// Complete implements Completer.
func (a *AnthropicCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	mdl := a.cheap
	if req.Tier == TierStrong {
		mdl = a.strong
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTokens
	}
	system := req.System
	if req.JSON {
		system += jsonOnlySuffix
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     mdl,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: req.User}},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "llm: anthropic %s", req.Tier)
	}
	resp.Usage.LogCost(mdl, req.Tier.String())

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyCompletion
	}
	return &Response{
		Text:         text,
		Model:        mdl,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
