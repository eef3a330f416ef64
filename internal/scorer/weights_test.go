package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/health-score/internal/config"
	"github.com/sells-group/health-score/internal/model"
)

func ip(v int) *int { return &v }

func TestCalcWeightedScore_AllNil(t *testing.T) {
	assert.Equal(t, 50, CalcWeightedScore(nil, nil, nil, nil))
}

func TestCalcWeightedScore_AllPresent(t *testing.T) {
	// 80*0.35 + 60*0.30 + 72*0.25 + 50*0.10 = 28 + 18 + 18 + 5 = 69
	assert.Equal(t, 69, CalcWeightedScore(ip(80), ip(60), ip(72), ip(50)))
}

func TestCalcWeightedScore_SinglePillar(t *testing.T) {
	assert.Equal(t, 37, CalcWeightedScore(nil, nil, nil, ip(37)))
	assert.Equal(t, 100, CalcWeightedScore(ip(100), nil, nil, nil))
	assert.Equal(t, 0, CalcWeightedScore(nil, ip(0), nil, nil))
}

func TestCalcWeightedScore_RenormalizesMissing(t *testing.T) {
	// (90*0.35 + 30*0.10) / 0.45 = (31.5 + 3) / 0.45 = 76.67 -> 77
	assert.Equal(t, 77, CalcWeightedScore(ip(90), nil, nil, ip(30)))
}

func TestCalcWeightedScore_PropertyRange(t *testing.T) {
	weights := []int{3500, 3000, 2500, 1000}
	values := make([]int, 0, 101)
	for v := 0; v <= 100; v++ {
		values = append(values, v)
	}

	for _, a := range values {
		for _, b := range values {
			for mask := 1; mask < 16; mask++ {
				in := make([]*int, 4)
				var num, den int
				for i := 0; i < 4; i++ {
					if mask&(1<<i) == 0 {
						continue
					}
					v := a
					if i%2 == 1 {
						v = b
					}
					in[i] = ip(v)
					num += v * weights[i]
					den += weights[i]
				}
				got := CalcWeightedScore(in[0], in[1], in[2], in[3])
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, 100)
				// Exact round-half-up of num/den.
				want := (2*num + den) / (2 * den)
				if got != want {
					t.Fatalf("mask=%04b a=%d b=%d: want %d got %d", mask, a, b, want, got)
				}
			}
		}
	}
}

func TestCalcWeightedScore_ExactHalvesRoundUp(t *testing.T) {
	// (2*0.30 + 0*0.10) / 0.40 = 1.5
	assert.Equal(t, 2, CalcWeightedScore(nil, ip(2), nil, ip(0)))
	// (0*0.30 + 86*0.10) / 0.40 = 21.5
	assert.Equal(t, 22, CalcWeightedScore(nil, ip(0), nil, ip(86)))
	// (0*0.35 + 1*0.25) / 0.60 = 0.41 stays down.
	assert.Equal(t, 0, CalcWeightedScore(ip(0), nil, ip(1), nil))
}

func TestCalcChurnRisk_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  model.ChurnRisk
	}{
		{100, model.ChurnLow},
		{70, model.ChurnLow},
		{69, model.ChurnMedium},
		{40, model.ChurnMedium},
		{39, model.ChurnHigh},
		{0, model.ChurnHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalcChurnRisk(tt.score), "score %d", tt.score)
	}
}

func TestWeighter_CustomConfig(t *testing.T) {
	w := NewWeighter(config.ScoringConfig{
		FinancialWeight: 0.5,
		ProximityWeight: 0.5,
		LowRiskMin:      80,
		MediumRiskMin:   50,
	})

	assert.Equal(t, 60, w.Combine(Pillars{Financial: ip(40), Proximity: ip(80)}))
	// Pillars with zero weight do not move the score.
	assert.Equal(t, 60, w.Combine(Pillars{Financial: ip(40), Proximity: ip(80), NPS: ip(0)}))
	assert.Equal(t, model.ChurnMedium, w.ChurnRisk(79))
	assert.Equal(t, model.ChurnLow, w.ChurnRisk(80))
	assert.Equal(t, model.ChurnHigh, w.ChurnRisk(49))
}

func TestWeighter_ZeroConfigUsesDefaults(t *testing.T) {
	w := NewWeighter(config.ScoringConfig{})
	assert.Equal(t, CalcWeightedScore(ip(80), ip(60), nil, nil), w.Combine(Pillars{Financial: ip(80), Proximity: ip(60)}))
	assert.NoError(t, DefaultScoringConfig().Validate())
}
