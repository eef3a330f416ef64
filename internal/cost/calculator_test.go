package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateBRL(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{USDPerMTok: 3.00, USDBRL: 5.00})

	tests := []struct {
		name   string
		tokens int
		want   float64
	}{
		{"zero", 0, 0},
		{"negative", -10, 0},
		{"one million", 1_000_000, 15.00},
		{"typical run", 2_300, 0.0345},
		{"rounded", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.EstimateBRL(tt.tokens), 1e-9)
		})
	}
}

func TestEstimateUSD(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{USDPerMTok: 2.00, USDBRL: 5.00})
	assert.InDelta(t, 0.002, calc.EstimateUSD(1000), 1e-12)
}

func TestNewCalculator_Defaults(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{})
	assert.Equal(t, DefaultRates(), calc.rates)
	assert.InDelta(t, 16.5, calc.EstimateBRL(1_000_000), 1e-9)
}
