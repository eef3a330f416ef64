package llm

import (
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/sells-group/health-score/internal/config"
	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/resilience"
	"github.com/sells-group/health-score/pkg/anthropic"
)

// Factory builds per-agency Completers. Agency keys take precedence over the
// keys in the application config.
type Factory struct {
	cfg          *config.Config
	newAnthropic func(key string) anthropic.Client
}

// NewFactory returns a Factory for cfg.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		cfg:          cfg,
		newAnthropic: func(key string) anthropic.Client { return anthropic.NewClient(key, option.WithMaxRetries(0)) },
	}
}

// For returns a bounded Completer for the agency, or nil when no LLM
// credential is available.
func (f *Factory) For(creds *model.AgencyCredentials) Completer {
	provider := f.cfg.LLM.Provider
	key := ""
	if creds != nil {
		if creds.LLMProvider != "" {
			provider = creds.LLMProvider
		}
		key = creds.LLMKey
	}

	var c Completer
	switch provider {
	case "openai":
		if key == "" {
			key = f.cfg.OpenAI.Key
		}
		if key == "" {
			return nil
		}
		c = NewOpenAI(key, f.cfg.OpenAI.BaseURL, f.cfg.OpenAI.CheapModel, f.cfg.OpenAI.StrongModel, f.cfg.LLM.MaxTokens)
	default:
		if key == "" {
			key = f.cfg.Anthropic.Key
		}
		if key == "" {
			return nil
		}
		c = NewAnthropic(f.newAnthropic(key), f.cfg.Anthropic.HaikuModel, f.cfg.Anthropic.SonnetModel, f.cfg.LLM.MaxTokens)
	}

	zap.L().Debug("llm: completer ready", zap.String("provider", provider))

	retry := resilience.FromSettings(f.cfg.Retry.MaxAttempts, f.cfg.Retry.InitialBackoffMs, f.cfg.Retry.MaxBackoffMs)
	retry.OnRetry = resilience.RetryLogger("llm", provider)
	return Bounded(c, time.Duration(f.cfg.LLM.TimeoutSecs)*time.Second, retry)
}
