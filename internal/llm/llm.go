// Package llm abstracts chat-completion providers behind a single Completer
// so agents can request either a cheap summarization call or a stronger
// classification call without knowing which backend serves it.
package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/health-score/internal/resilience"
)

// Tier selects the model class for a request.
type Tier int

const (
	// TierCheap is used for high-volume summarization.
	TierCheap Tier = iota
	// TierStrong is used for the final classification and diagnosis calls.
	TierStrong
)

func (t Tier) String() string {
	if t == TierStrong {
		return "strong"
	}
	return "cheap"
}

// Request is a single system+user completion.
type Request struct {
	Tier      Tier
	System    string
	User      string
	MaxTokens int64
	// JSON asks the backend for a strict JSON object when it supports it.
	JSON bool
}

// Response is the text returned by a completion plus its token usage.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Tokens returns total tokens consumed by the call.
func (r *Response) Tokens() int {
	if r == nil {
		return 0
	}
	return int(r.InputTokens + r.OutputTokens)
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// ErrEmptyCompletion is returned when a backend answers with no text.
var ErrEmptyCompletion = eris.New("llm: empty completion")

// bounded decorates a Completer with a per-attempt timeout and retries of
// transient failures.
type bounded struct {
	next    Completer
	timeout time.Duration
	retry   resilience.RetryConfig
}

// Bounded wraps c so every attempt is limited to timeout and transient
// errors are retried according to retry.
func Bounded(c Completer, timeout time.Duration, retry resilience.RetryConfig) Completer {
	if c == nil {
		return nil
	}
	return &bounded{next: c, timeout: timeout, retry: retry}
}

func (b *bounded) Complete(ctx context.Context, req Request) (*Response, error) {
	return resilience.DoVal(ctx, b.retry, func(ctx context.Context) (*Response, error) {
		if b.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return b.next.Complete(ctx, req)
	})
}
