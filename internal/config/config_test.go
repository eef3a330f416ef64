package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentClients)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.HaikuModel)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.SonnetModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.CheapModel)
	assert.InDelta(t, 0.35, cfg.Scoring.FinancialWeight, 0.0001)
	assert.InDelta(t, 0.30, cfg.Scoring.ProximityWeight, 0.0001)
	assert.InDelta(t, 0.25, cfg.Scoring.OutcomeWeight, 0.0001)
	assert.InDelta(t, 0.10, cfg.Scoring.NPSWeight, 0.0001)
	assert.Equal(t, 70, cfg.Scoring.LowRiskMin)
	assert.Equal(t, 40, cfg.Scoring.MediumRiskMin)
	assert.Equal(t, 60, cfg.Analysis.ObservationDays)
	assert.Equal(t, 300, cfg.Analysis.LockWindowSecs)
	assert.Equal(t, 60, cfg.Analysis.PaymentWindowDays)
	assert.Equal(t, 90, cfg.Analysis.SurveyWindowDays)
	assert.Equal(t, 5, cfg.Messaging.MinClientMessages)
	assert.Equal(t, 50, cfg.Messaging.MaxPerWeek)
	assert.Equal(t, 200, cfg.Messaging.MaxCharsPerMessage)
	assert.Equal(t, 1, cfg.Messaging.WeeklyConcurrency)
	assert.Equal(t, "https://api.asaas.com/v3", cfg.Providers.Asaas.BaseURL)
	assert.Equal(t, "client-health-alerts", cfg.Notify.KafkaTopic)
	assert.InDelta(t, 5.50, cfg.Pricing.USDBRL, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
analysis:
  observation_days: 30
messaging:
  weekly_concurrency: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 30, cfg.Analysis.ObservationDays)
	assert.Equal(t, 3, cfg.Messaging.WeeklyConcurrency)
	// Defaults still apply for unset values
	assert.Equal(t, 300, cfg.Analysis.LockWindowSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("HEALTH_STORE_DRIVER", "postgres")
	t.Setenv("HEALTH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HEALTH_ANALYSIS_OBSERVATION_DAYS", "15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Analysis.ObservationDays)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.LLM.Provider = "anthropic"
	cfg.Scoring = ScoringConfig{
		FinancialWeight: 0.35,
		ProximityWeight: 0.30,
		OutcomeWeight:   0.25,
		NPSWeight:       0.10,
		LowRiskMin:      70,
		MediumRiskMin:   40,
	}
	cfg.Analysis.LockWindowSecs = 300
	cfg.Analysis.ObservationDays = 60
	cfg.Server.Port = 8080
	cfg.Batch.MaxConcurrentClients = 4
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("analyze"))
	assert.NoError(t, cfg.Validate("serve"))
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/health"
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidate_UnknownDrivers(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.LLM.Provider = "gemini"

	err := cfg.Validate("analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestValidate_ServeInvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_BatchConcurrency(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.MaxConcurrentClients = 0

	err := cfg.Validate("batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_clients")
}

func TestScoringValidate_WeightSum(t *testing.T) {
	s := validDefaults().Scoring
	s.NPSWeight = 0.5

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "should sum to 1")
}

func TestScoringValidate_NegativeWeight(t *testing.T) {
	s := validDefaults().Scoring
	s.FinancialWeight = -0.35
	s.ProximityWeight = 1.0

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "financial_weight must be >= 0")
}

func TestScoringValidate_ThresholdOrder(t *testing.T) {
	s := validDefaults().Scoring
	s.LowRiskMin = 40
	s.MediumRiskMin = 70

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low_risk_min must be >")
}
