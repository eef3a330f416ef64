package agent

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/health-score/internal/model"
)

// Survey flags.
const (
	FlagNoFormResponse    = "no_form_response"
	FlagNPSDetractor      = "nps_detractor"
	FlagNPSConsecutiveLow = "nps_consecutive_low"
	FlagFormSilence       = "form_silence"
)

const (
	surveyWindowDays   = 90
	recentWindowDays   = 30
	noRecentPenalty    = 10
	detractorThreshold = 6
)

// SurveyResults holds the two pillars derived from survey submissions.
type SurveyResults struct {
	Outcome model.AgentResult
	NPS     model.AgentResult
}

// ScoreSurveys scores the Outcome and NPS pillars from the client's form
// submissions as of now.
func ScoreSurveys(subs []model.SurveySubmission, now time.Time) SurveyResults {
	start := time.Now()

	var window []model.SurveySubmission
	recent := 0
	for _, s := range subs {
		days := int(now.Sub(s.SubmittedAt).Hours() / 24)
		if days > surveyWindowDays {
			continue
		}
		window = append(window, s)
		if days <= recentWindowDays {
			recent++
		}
	}

	if len(window) == 0 {
		skipped := func(name string) model.AgentResult {
			return model.AgentResult{
				AgentName:  name,
				Flags:      []string{FlagNoFormResponse},
				Details:    map[string]any{"responses_90d": 0, "responses_total": len(subs)},
				Status:     model.ExecSkipped,
				DurationMs: time.Since(start).Milliseconds(),
			}
		}
		return SurveyResults{Outcome: skipped(model.AgentOutcome), NPS: skipped(model.AgentNPS)}
	}

	// Most recent first.
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].SubmittedAt.After(window[j].SubmittedAt)
	})

	noRecent := recent == 0
	build := func(name string, rating func(model.SurveySubmission) int) model.AgentResult {
		sum := 0
		for _, s := range window {
			sum += rating(s)
		}
		avg := float64(sum) / float64(len(window))
		score := int(math.Round(avg * 10))
		if noRecent {
			score -= noRecentPenalty
		}
		return model.AgentResult{
			AgentName: name,
			Score:     model.IntPtr(clampScore(score)),
			Flags:     []string{},
			Details: map[string]any{
				"responses_90d":           len(window),
				"responses_30d":           recent,
				"average":                 avg,
				"last_rating":             rating(window[0]),
				"last_response_at":        window[0].SubmittedAt,
				"penaltyNoRecentResponse": noRecent,
			},
			Status:     model.ExecSuccess,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	outcome := build(model.AgentOutcome, func(s model.SurveySubmission) int { return s.OutcomeScore })
	nps := build(model.AgentNPS, func(s model.SurveySubmission) int { return s.NPSScore })

	detractor := window[0].NPSScore <= detractorThreshold
	if detractor {
		nps.Flags = append(nps.Flags, FlagNPSDetractor)
	}
	if len(window) >= 2 && detractor && window[1].NPSScore <= detractorThreshold {
		nps.Flags = append(nps.Flags, FlagNPSConsecutiveLow)
	}
	if detractor && noRecent {
		nps.Flags = append(nps.Flags, FlagFormSilence)
	}

	return SurveyResults{Outcome: outcome, NPS: nps}
}
