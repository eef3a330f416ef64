// Package cost converts LLM token usage into an estimated cost in BRL.
package cost

import "math"

// Rates holds the blended LLM price and the currency conversion.
type Rates struct {
	USDPerMTok float64 `yaml:"llm_usd_per_mtok" mapstructure:"llm_usd_per_mtok"`
	USDBRL     float64 `yaml:"usd_brl" mapstructure:"usd_brl"`
}

// Calculator computes costs for LLM usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. Zero rates fall
// back to DefaultRates.
func NewCalculator(rates Rates) *Calculator {
	def := DefaultRates()
	if rates.USDPerMTok <= 0 {
		rates.USDPerMTok = def.USDPerMTok
	}
	if rates.USDBRL <= 0 {
		rates.USDBRL = def.USDBRL
	}
	return &Calculator{rates: rates}
}

// EstimateUSD returns the USD cost of the given token count.
func (c *Calculator) EstimateUSD(tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1e6 * c.rates.USDPerMTok
}

// EstimateBRL returns the BRL cost of the given token count, rounded to
// four decimal places.
func (c *Calculator) EstimateBRL(tokens int) float64 {
	brl := c.EstimateUSD(tokens) * c.rates.USDBRL
	return math.Round(brl*1e4) / 1e4
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		USDPerMTok: 3.00,
		USDBRL:     5.50,
	}
}
