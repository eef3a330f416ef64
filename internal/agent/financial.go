// Package agent implements the pillar scoring agents. Each agent is a pure
// function of its input that returns a model.AgentResult; none of them
// depends on the orchestrator or on a sibling agent.
package agent

import (
	"sort"
	"time"

	"github.com/sells-group/health-score/internal/model"
)

// Financial flags.
const (
	FlagNoPaymentData      = "no_payment_data"
	FlagChargeback         = "chargeback"
	FlagLongOverdue        = "long_overdue"
	FlagConsecutiveOverdue = "consecutive_overdue"
)

const (
	chargebackPenalty  = 40
	overduePenaltyCap  = 50
	consecutivePenalty = 15
	recentIssueDays    = 7
)

// overduePenalty returns the penalty for one overdue payment and whether it
// counts as long overdue.
func overduePenalty(daysLate int) (int, bool) {
	switch {
	case daysLate <= 7:
		return 10, false
	case daysLate <= 30:
		return 20, false
	default:
		return 35, true
	}
}

// ScoreFinancial scores the merged payments of one client as of now.
func ScoreFinancial(payments []model.NormalizedPayment, now time.Time) model.AgentResult {
	start := time.Now()
	if len(payments) == 0 {
		return model.AgentResult{
			AgentName:  model.AgentFinancial,
			Flags:      []string{FlagNoPaymentData},
			Details:    map[string]any{"payments": 0},
			Status:     model.ExecSkipped,
			DurationMs: time.Since(start).Milliseconds(),
		}
	}

	today := dayOf(now)
	recentCutoff := today.AddDate(0, 0, -recentIssueDays)
	counts := map[model.PaymentStatus]int{}
	sums := map[model.PaymentStatus]float64{}
	perSource := map[string]int{}

	var flags []string
	var hasChargeback, hasLong, recentIssue bool
	overdueTotal := 0

	for _, p := range payments {
		counts[p.Status]++
		sums[p.Status] += p.GrossValue
		perSource[string(p.SourceProvider)]++

		switch p.Status {
		case model.PaymentChargeback:
			hasChargeback = true
		case model.PaymentOverdue:
			days := int(today.Sub(dayOf(p.DueDate)).Hours() / 24)
			if days < 1 {
				days = 1
			}
			pen, long := overduePenalty(days)
			overdueTotal += pen
			hasLong = hasLong || long
		}

		if p.Status == model.PaymentChargeback || p.Status == model.PaymentOverdue {
			if !dayOf(p.DueDate).Before(recentCutoff) {
				recentIssue = true
			}
		}
	}

	score := 100
	if hasChargeback {
		score -= chargebackPenalty
		flags = append(flags, FlagChargeback)
	}
	if overdueTotal > overduePenaltyCap {
		overdueTotal = overduePenaltyCap
	}
	score -= overdueTotal
	if hasLong {
		flags = append(flags, FlagLongOverdue)
	}

	streak := maxOverdueStreak(payments)
	if streak >= 2 {
		score -= consecutivePenalty
		flags = append(flags, FlagConsecutiveOverdue)
	}
	preClamp := score
	score = clampScore(score)

	if flags == nil {
		flags = []string{}
	}
	return model.AgentResult{
		AgentName: model.AgentFinancial,
		Score:     model.IntPtr(score),
		Flags:     flags,
		Details: map[string]any{
			"received_count":   counts[model.PaymentPaid],
			"received_sum":     sums[model.PaymentPaid],
			"pending_count":    counts[model.PaymentPending],
			"pending_sum":      sums[model.PaymentPending],
			"overdue_count":    counts[model.PaymentOverdue],
			"overdue_sum":      sums[model.PaymentOverdue],
			"chargeback_count": counts[model.PaymentChargeback],
			"chargeback_sum":   sums[model.PaymentChargeback],
			"per_source":       perSource,
			"recent_issue":     recentIssue,
			"max_streak":       streak,
			"overdue_penalty":  overdueTotal,
			"pre_clamp_score":  preClamp,
		},
		Status:     model.ExecSuccess,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// maxOverdueStreak walks payments by due date. Overdue extends the streak,
// paid resets it, pending and chargeback leave it unchanged.
func maxOverdueStreak(payments []model.NormalizedPayment) int {
	sorted := make([]model.NormalizedPayment, len(payments))
	copy(sorted, payments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DueDate.Before(sorted[j].DueDate)
	})

	streak, best := 0, 0
	for _, p := range sorted {
		switch p.Status {
		case model.PaymentOverdue:
			streak++
			if streak > best {
				best = streak
			}
		case model.PaymentPaid:
			streak = 0
		}
	}
	return best
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
