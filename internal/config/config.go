package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Messaging MessagingConfig `yaml:"messaging" mapstructure:"messaging"`
	Providers ProvidersConfig `yaml:"providers" mapstructure:"providers"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the trigger server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// BatchConfig configures scheduled batch runs.
type BatchConfig struct {
	MaxConcurrentClients int `yaml:"max_concurrent_clients" mapstructure:"max_concurrent_clients"`
}

// AnthropicConfig holds Anthropic API settings. Key is the fallback used when
// an agency has no key of its own.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	CheapModel  string `yaml:"cheap_model" mapstructure:"cheap_model"`
	StrongModel string `yaml:"strong_model" mapstructure:"strong_model"`
}

// LLMConfig selects the LLM backend and bounds each call.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // anthropic | openai
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxTokens      int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	ResponseLocale string `yaml:"response_locale" mapstructure:"response_locale"`
}

// ScoringConfig holds pillar weights and churn thresholds.
type ScoringConfig struct {
	FinancialWeight float64 `yaml:"financial_weight" mapstructure:"financial_weight"`
	ProximityWeight float64 `yaml:"proximity_weight" mapstructure:"proximity_weight"`
	OutcomeWeight   float64 `yaml:"outcome_weight" mapstructure:"outcome_weight"`
	NPSWeight       float64 `yaml:"nps_weight" mapstructure:"nps_weight"`
	LowRiskMin      int     `yaml:"low_risk_min" mapstructure:"low_risk_min"`
	MediumRiskMin   int     `yaml:"medium_risk_min" mapstructure:"medium_risk_min"`
}

// AnalysisConfig configures the orchestrator.
type AnalysisConfig struct {
	ObservationDays      int    `yaml:"observation_days" mapstructure:"observation_days"`
	LockWindowSecs       int    `yaml:"lock_window_secs" mapstructure:"lock_window_secs"`
	PaymentWindowDays    int    `yaml:"payment_window_days" mapstructure:"payment_window_days"`
	SurveyWindowDays     int    `yaml:"survey_window_days" mapstructure:"survey_window_days"`
	MessageWindowDays    int    `yaml:"message_window_days" mapstructure:"message_window_days"`
	MaxMessages          int    `yaml:"max_messages" mapstructure:"max_messages"`
	FetchTimeoutSecs     int    `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	AlertCatalogPath     string `yaml:"alert_catalog_path" mapstructure:"alert_catalog_path"`
	NotifyTimeoutSecs    int    `yaml:"notify_timeout_secs" mapstructure:"notify_timeout_secs"`
	DiagnosisExcerptSize int    `yaml:"diagnosis_excerpt_size" mapstructure:"diagnosis_excerpt_size"`
}

// MessagingConfig configures the messaging agent's summarization pipeline.
type MessagingConfig struct {
	MinClientMessages  int `yaml:"min_client_messages" mapstructure:"min_client_messages"`
	MaxPerWeek         int `yaml:"max_per_week" mapstructure:"max_per_week"`
	MaxCharsPerMessage int `yaml:"max_chars_per_message" mapstructure:"max_chars_per_message"`
	WeeklyConcurrency  int `yaml:"weekly_concurrency" mapstructure:"weekly_concurrency"`
}

// ProvidersConfig holds payment and messaging provider endpoints.
type ProvidersConfig struct {
	Asaas     ProviderEndpoint `yaml:"asaas" mapstructure:"asaas"`
	ContaAzul ProviderEndpoint `yaml:"contaazul" mapstructure:"contaazul"`
	WhatsApp  ProviderEndpoint `yaml:"whatsapp" mapstructure:"whatsapp"`
}

// ProviderEndpoint configures one HTTP provider client.
type ProviderEndpoint struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// NotifyConfig configures alert notification sinks.
type NotifyConfig struct {
	KafkaBrokers []string `yaml:"kafka_brokers" mapstructure:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic" mapstructure:"kafka_topic"`
	WebhookURL   string   `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// PricingConfig holds the blended LLM rate and the currency conversion used
// for cost estimation.
type PricingConfig struct {
	LLMUSDPerMTok float64 `yaml:"llm_usd_per_mtok" mapstructure:"llm_usd_per_mtok"`
	USDBRL        float64 `yaml:"usd_brl" mapstructure:"usd_brl"`
}

// RetryConfig controls retries of external calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("batch.max_concurrent_clients", 4)

	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("openai.cheap_model", "gpt-4o-mini")
	v.SetDefault("openai.strong_model", "gpt-4o")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.timeout_secs", 45)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.response_locale", "pt-BR")

	v.SetDefault("scoring.financial_weight", 0.35)
	v.SetDefault("scoring.proximity_weight", 0.30)
	v.SetDefault("scoring.outcome_weight", 0.25)
	v.SetDefault("scoring.nps_weight", 0.10)
	v.SetDefault("scoring.low_risk_min", 70)
	v.SetDefault("scoring.medium_risk_min", 40)

	v.SetDefault("analysis.observation_days", 60)
	v.SetDefault("analysis.lock_window_secs", 300)
	v.SetDefault("analysis.payment_window_days", 60)
	v.SetDefault("analysis.survey_window_days", 90)
	v.SetDefault("analysis.message_window_days", 60)
	v.SetDefault("analysis.max_messages", 1000)
	v.SetDefault("analysis.fetch_timeout_secs", 20)
	v.SetDefault("analysis.notify_timeout_secs", 10)
	v.SetDefault("analysis.diagnosis_excerpt_size", 600)

	v.SetDefault("messaging.min_client_messages", 5)
	v.SetDefault("messaging.max_per_week", 50)
	v.SetDefault("messaging.max_chars_per_message", 200)
	v.SetDefault("messaging.weekly_concurrency", 1)

	v.SetDefault("providers.asaas.base_url", "https://api.asaas.com/v3")
	v.SetDefault("providers.asaas.requests_per_sec", 5)
	v.SetDefault("providers.contaazul.base_url", "https://api-v2.contaazul.com/v1")
	v.SetDefault("providers.contaazul.requests_per_sec", 2)
	v.SetDefault("providers.whatsapp.requests_per_sec", 5)

	v.SetDefault("notify.kafka_topic", "client-health-alerts")

	v.SetDefault("pricing.llm_usd_per_mtok", 3.00)
	v.SetDefault("pricing.usd_brl", 5.50)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
}

// Validate checks that the configuration is usable for the given mode
// ("analyze", "batch", "serve", "report").
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for the postgres driver")
	}
	if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
		errs = append(errs, fmt.Sprintf("store.driver must be postgres or sqlite, got %q", c.Store.Driver))
	}
	if c.LLM.Provider != "anthropic" && c.LLM.Provider != "openai" {
		errs = append(errs, fmt.Sprintf("llm.provider must be anthropic or openai, got %q", c.LLM.Provider))
	}
	if err := c.Scoring.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Analysis.LockWindowSecs <= 0 {
		errs = append(errs, "analysis.lock_window_secs must be > 0")
	}
	if c.Analysis.ObservationDays < 0 {
		errs = append(errs, "analysis.observation_days must be >= 0")
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
	case "batch":
		if c.Batch.MaxConcurrentClients <= 0 {
			errs = append(errs, "batch.max_concurrent_clients must be > 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks that weights are non-negative and sum to 1, and that the
// churn thresholds are ordered.
func (s ScoringConfig) Validate() error {
	var errs []string
	weights := map[string]float64{
		"financial_weight": s.FinancialWeight,
		"proximity_weight": s.ProximityWeight,
		"outcome_weight":   s.OutcomeWeight,
		"nps_weight":       s.NPSWeight,
	}
	var sum float64
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("scoring.%s must be >= 0", name))
		}
		sum += w
	}
	if math.Abs(sum-1) > 0.001 {
		errs = append(errs, fmt.Sprintf("scoring weights should sum to 1, got %.3f", sum))
	}
	if s.LowRiskMin <= s.MediumRiskMin {
		errs = append(errs, "scoring.low_risk_min must be > scoring.medium_risk_min")
	}
	if s.MediumRiskMin < 0 || s.LowRiskMin > 100 {
		errs = append(errs, "scoring thresholds must be within 0-100")
	}
	if len(errs) > 0 {
		return eris.Errorf("scoring: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
