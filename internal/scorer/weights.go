// Package scorer combines pillar scores into a total health score and maps
// the total onto a churn-risk band.
package scorer

import (
	"math"

	"github.com/sells-group/health-score/internal/config"
	"github.com/sells-group/health-score/internal/model"
)

// NeutralScore is returned when no pillar produced a score.
const NeutralScore = 50

// DefaultScoringConfig returns the standard pillar weights (sum = 1) and
// churn thresholds.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		FinancialWeight: 0.35,
		ProximityWeight: 0.30,
		OutcomeWeight:   0.25,
		NPSWeight:       0.10,
		LowRiskMin:      70,
		MediumRiskMin:   40,
	}
}

// Pillars holds the four optional pillar scores.
type Pillars struct {
	Financial *int
	Proximity *int
	Outcome   *int
	NPS       *int
}

// weightScale converts fractional weights to basis points so combining is
// exact integer arithmetic.
const weightScale = 10000

// Weighter combines pillar scores with configured weights.
type Weighter struct {
	cfg config.ScoringConfig
	bps [4]int64 // financial, proximity, outcome, nps
}

// NewWeighter creates a Weighter. A zero config falls back to the defaults.
func NewWeighter(cfg config.ScoringConfig) *Weighter {
	if cfg == (config.ScoringConfig{}) {
		cfg = DefaultScoringConfig()
	}
	return &Weighter{
		cfg: cfg,
		bps: [4]int64{
			basisPoints(cfg.FinancialWeight),
			basisPoints(cfg.ProximityWeight),
			basisPoints(cfg.OutcomeWeight),
			basisPoints(cfg.NPSWeight),
		},
	}
}

func basisPoints(w float64) int64 {
	if w <= 0 {
		return 0
	}
	return int64(math.Round(w * weightScale))
}

// Combine returns the weighted average of the present pillars, rounded half
// up to the nearest integer. Absent pillars are excluded from both numerator
// and denominator; with no pillars present the neutral score is returned.
func (w *Weighter) Combine(p Pillars) int {
	scores := [4]*int{p.Financial, p.Proximity, p.Outcome, p.NPS}

	var num, den int64
	for i, s := range scores {
		if s == nil {
			continue
		}
		num += int64(clamp(*s, 0, 100)) * w.bps[i]
		den += w.bps[i]
	}
	if den == 0 {
		return NeutralScore
	}
	return clamp(int((2*num+den)/(2*den)), 0, 100)
}

// ChurnRisk maps a total score onto low, medium or high risk.
func (w *Weighter) ChurnRisk(score int) model.ChurnRisk {
	switch {
	case score >= w.cfg.LowRiskMin:
		return model.ChurnLow
	case score >= w.cfg.MediumRiskMin:
		return model.ChurnMedium
	default:
		return model.ChurnHigh
	}
}

var defaultWeighter = NewWeighter(DefaultScoringConfig())

// CalcWeightedScore combines pillar scores with the default weights
// 0.35/0.30/0.25/0.10.
func CalcWeightedScore(financial, proximity, outcome, nps *int) int {
	return defaultWeighter.Combine(Pillars{
		Financial: financial,
		Proximity: proximity,
		Outcome:   outcome,
		NPS:       nps,
	})
}

// CalcChurnRisk classifies a score with the default thresholds:
// >=70 low, 40-69 medium, <40 high.
func CalcChurnRisk(score int) model.ChurnRisk {
	return defaultWeighter.ChurnRisk(score)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
