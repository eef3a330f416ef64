package agent

import (
	"context"
	"sync"

	"github.com/sells-group/health-score/internal/llm"
)

// scriptedCompleter answers each request through respond and records calls.
type scriptedCompleter struct {
	mu      sync.Mutex
	calls   []llm.Request
	respond func(req llm.Request) (*llm.Response, error)
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.respond(req)
}

func (s *scriptedCompleter) callsFor(tier llm.Tier) []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []llm.Request
	for _, c := range s.calls {
		if c.Tier == tier {
			out = append(out, c)
		}
	}
	return out
}
