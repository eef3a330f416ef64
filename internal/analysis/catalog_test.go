package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-score/internal/agent"
	"github.com/sells-group/health-score/internal/model"
)

func TestDefaultCatalog_UnmappedFlags(t *testing.T) {
	cat := DefaultCatalog()

	_, ok := cat.Lookup(agent.FlagNoPaymentData)
	assert.False(t, ok)
	_, ok = cat.Lookup(agent.FlagNoWhatsAppData)
	assert.False(t, ok)

	def, ok := cat.Lookup(agent.FlagChargeback)
	require.True(t, ok)
	assert.Equal(t, model.SeverityHigh, def.Severity)
	assert.NotEmpty(t, cat.CancellationKeywords)
}

func TestCatalog_MappedFlags(t *testing.T) {
	cat := DefaultCatalog()
	got := cat.MappedFlags([]string{
		agent.FlagSilence,
		agent.FlagNoPaymentData,
		agent.FlagChargeback,
		agent.FlagSilence,
		"unknown",
	})
	assert.Equal(t, []string{agent.FlagChargeback, agent.FlagSilence}, got)
	assert.Empty(t, cat.MappedFlags(nil))
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alerts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadCatalog_EmptyPathReturnsDefaults(t *testing.T) {
	cat, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), cat)
}

func TestLoadCatalog_Overlay(t *testing.T) {
	path := writeCatalog(t, `
alerts:
  silence:
    severity: high
    message: Client went quiet.
  no_payment_data:
    severity: low
    message: No billing integration.
cancellation_keywords:
  - cancelar
`)

	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	def, ok := cat.Lookup(agent.FlagSilence)
	require.True(t, ok)
	assert.Equal(t, model.SeverityHigh, def.Severity)
	assert.Equal(t, "Client went quiet.", def.Message)

	_, ok = cat.Lookup(agent.FlagNoPaymentData)
	assert.True(t, ok)
	_, ok = cat.Lookup(agent.FlagChargeback)
	assert.True(t, ok)
	assert.Equal(t, []string{"cancelar"}, cat.CancellationKeywords)
}

func TestLoadCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad severity", "alerts:\n  silence:\n    severity: urgent\n    message: x\n", "invalid severity"},
		{"missing message", "alerts:\n  silence:\n    severity: low\n", "has no message"},
		{"bad yaml", "alerts: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
