package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/health-score/internal/agent"
	"github.com/sells-group/health-score/internal/analysis"
	"github.com/sells-group/health-score/internal/cost"
	"github.com/sells-group/health-score/internal/fetcher"
	"github.com/sells-group/health-score/internal/llm"
	"github.com/sells-group/health-score/internal/notify"
	"github.com/sells-group/health-score/internal/resilience"
	"github.com/sells-group/health-score/internal/scorer"
	"github.com/sells-group/health-score/internal/store"
	"github.com/sells-group/health-score/pkg/asaas"
	"github.com/sells-group/health-score/pkg/contaazul"
	"github.com/sells-group/health-score/pkg/stripe"
	"github.com/sells-group/health-score/pkg/whatsapp"
)

// analysisEnv holds everything a command needs to run analyses.
type analysisEnv struct {
	Store        store.Store
	Notifier     notify.Notifier
	Orchestrator *analysis.Orchestrator
}

// Close releases the notifier and the store.
func (e *analysisEnv) Close() {
	if e.Notifier != nil {
		if err := e.Notifier.Close(); err != nil {
			zap.L().Warn("close notifier", zap.Error(err))
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "health.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initNotifier builds the configured alert sinks. With none configured alerts
// are only stored.
func initNotifier() (notify.Notifier, error) {
	var sinks []notify.Notifier
	if len(cfg.Notify.KafkaBrokers) > 0 {
		k, err := notify.NewKafka(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		if err != nil {
			return nil, eris.Wrap(err, "init kafka notifier")
		}
		sinks = append(sinks, k)
	}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Notify.WebhookURL, nil))
	}
	return notify.NewMulti(sinks...), nil
}

func initPaymentFetcher(retry resilience.RetryConfig, timeout time.Duration) *fetcher.PaymentFetcher {
	p := cfg.Providers
	return fetcher.NewPaymentFetcher(cfg.Analysis.PaymentWindowDays, timeout, retry,
		fetcher.NewAsaasSource(func(apiKey string) asaas.Client {
			return asaas.NewClient(apiKey,
				asaas.WithBaseURL(p.Asaas.BaseURL),
				asaas.WithRateLimit(p.Asaas.RequestsPerSec),
			)
		}),
		fetcher.NewContaAzulSource(func(token string) contaazul.Client {
			return contaazul.NewClient(token,
				contaazul.WithBaseURL(p.ContaAzul.BaseURL),
				contaazul.WithRateLimit(p.ContaAzul.RequestsPerSec),
			)
		}),
		fetcher.NewStripeSource(func(key string) stripe.Client {
			return stripe.NewClient(key)
		}),
	)
}

func initMessageCollector(st store.Store, retry resilience.RetryConfig, timeout time.Duration) *fetcher.MessageCollector {
	wa := cfg.Providers.WhatsApp
	var live fetcher.MessageSource
	if wa.BaseURL != "" {
		live = fetcher.NewWhatsAppSource(func(token string) whatsapp.Client {
			return whatsapp.NewClient(wa.BaseURL, token, whatsapp.WithRateLimit(wa.RequestsPerSec))
		})
	} else {
		zap.L().Info("whatsapp base url not configured, messages are read from cache only")
	}
	return fetcher.NewMessageCollector(st, live, cfg.Analysis.MessageWindowDays, cfg.Analysis.MaxMessages, timeout, retry)
}

// initAnalysis validates config for mode and wires the orchestrator.
func initAnalysis(ctx context.Context, mode string) (*analysisEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	catalog, err := analysis.LoadCatalog(cfg.Analysis.AlertCatalogPath)
	if err != nil {
		return nil, eris.Wrap(err, "load alert catalog")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}

	notifier, err := initNotifier()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	retry := resilience.FromSettings(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)
	fetchTimeout := time.Duration(cfg.Analysis.FetchTimeoutSecs) * time.Second

	messaging := agent.NewMessagingAgent(agent.MessagingSettings{
		MinClientMessages:  cfg.Messaging.MinClientMessages,
		MaxPerWeek:         cfg.Messaging.MaxPerWeek,
		MaxCharsPerMessage: cfg.Messaging.MaxCharsPerMessage,
		WeeklyConcurrency:  cfg.Messaging.WeeklyConcurrency,
		ResponseLocale:     cfg.LLM.ResponseLocale,
	}, agent.NewKeywordMatcher(catalog.CancellationKeywords))

	orch := analysis.New(analysis.Deps{
		Store:     st,
		Payments:  initPaymentFetcher(retry, fetchTimeout),
		Messages:  initMessageCollector(st, retry, fetchTimeout),
		LLM:       llm.NewFactory(cfg),
		Messaging: messaging,
		Diagnosis: agent.NewDiagnosisAgent(cfg.LLM.ResponseLocale, cfg.Analysis.DiagnosisExcerptSize),
		Weighter:  scorer.NewWeighter(cfg.Scoring),
		Catalog:   catalog,
		Notifier:  notifier,
		Cost: cost.NewCalculator(cost.Rates{
			USDPerMTok: cfg.Pricing.LLMUSDPerMTok,
			USDBRL:     cfg.Pricing.USDBRL,
		}),
	}, analysis.SettingsFromConfig(cfg.Analysis))

	return &analysisEnv{Store: st, Notifier: notifier, Orchestrator: orch}, nil
}
