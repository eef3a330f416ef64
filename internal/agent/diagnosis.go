package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/health-score/internal/llm"
	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/scorer"
)

const (
	diagnosisMaxTokens  = 900
	maxActionPlanItems  = 5
	defaultExcerptRunes = 600
)

// DiagnosisInput is the context handed to the diagnosis agent.
type DiagnosisInput struct {
	Client     model.ClientAccount
	Now        time.Time
	Pillars    scorer.Pillars
	ScoreTotal int
	ChurnRisk  model.ChurnRisk
	Results    []model.AgentResult
}

// Diagnosis is the narrative and action plan for one run.
type Diagnosis struct {
	Text       string   `json:"diagnosis"`
	ActionPlan []string `json:"action_plan"`
	TokensUsed int      `json:"tokens_used"`
	Fallback   bool     `json:"fallback"`
}

// DiagnosisAgent turns pillar results into a narrative diagnosis.
type DiagnosisAgent struct {
	locale      string
	excerptSize int
}

// NewDiagnosisAgent creates a diagnosis agent. excerptSize bounds the
// per-agent details excerpt embedded in the prompt.
func NewDiagnosisAgent(locale string, excerptSize int) *DiagnosisAgent {
	if locale == "" {
		locale = defaultResponseLang
	}
	if excerptSize <= 0 {
		excerptSize = defaultExcerptRunes
	}
	return &DiagnosisAgent{locale: locale, excerptSize: excerptSize}
}

// Diagnose makes a single strong-tier call. Malformed output is an error;
// callers substitute FallbackDiagnosis.
func (d *DiagnosisAgent) Diagnose(ctx context.Context, c llm.Completer, in DiagnosisInput) (*Diagnosis, error) {
	if c == nil {
		return nil, eris.New("diagnosis: no llm completer")
	}
	resp, err := c.Complete(ctx, llm.Request{
		Tier:      llm.TierStrong,
		System:    diagnosisSystem(d.locale),
		User:      d.buildPrompt(in),
		MaxTokens: diagnosisMaxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, eris.Wrap(err, "diagnosis: complete")
	}

	diag, err := parseDiagnosis(resp.Text)
	if err != nil {
		return nil, err
	}
	diag.TokensUsed = resp.Tokens()
	return diag, nil
}

func (d *DiagnosisAgent) buildPrompt(in DiagnosisInput) string {
	var b strings.Builder
	c := in.Client
	fmt.Fprintf(&b, "Client: %s\n", c.Name)
	if c.Segment != "" {
		fmt.Fprintf(&b, "Segment: %s\n", c.Segment)
	}
	fmt.Fprintf(&b, "Tenure: %d days\n", c.TenureDays(in.Now))
	if c.ContractType != "" {
		fmt.Fprintf(&b, "Contract: %s, value %.2f\n", c.ContractType, c.ContractValue)
	}
	fmt.Fprintf(&b, "\nHealth score: %d/100\nChurn risk: %s\n\n", in.ScoreTotal, in.ChurnRisk)

	b.WriteString("Pillar scores:\n")
	fmt.Fprintf(&b, "- Financial: %s\n", scoreText(in.Pillars.Financial))
	fmt.Fprintf(&b, "- Proximity (messaging): %s\n", scoreText(in.Pillars.Proximity))
	fmt.Fprintf(&b, "- Outcome: %s\n", scoreText(in.Pillars.Outcome))
	fmt.Fprintf(&b, "- NPS: %s\n", scoreText(in.Pillars.NPS))

	flags := UnionFlags(in.Results)
	if len(flags) == 0 {
		b.WriteString("\nFlags: none\n")
	} else {
		fmt.Fprintf(&b, "\nFlags: %s\n", strings.Join(flags, ", "))
	}

	b.WriteString("\nAgent details:\n")
	for _, r := range in.Results {
		excerpt := "{}"
		if len(r.Details) > 0 {
			if raw, err := json.Marshal(r.Details); err == nil {
				excerpt = truncateRunes(string(raw), d.excerptSize)
			}
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.AgentName, r.Status, excerpt)
	}
	return b.String()
}

func scoreText(v *int) string {
	if v == nil {
		return "no data"
	}
	return fmt.Sprintf("%d/100", *v)
}

func parseDiagnosis(text string) (*Diagnosis, error) {
	var raw struct {
		Diagnosis  *string          `json:"diagnosis"`
		ActionPlan *json.RawMessage `json:"actionPlan"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, eris.Wrap(err, "diagnosis: parse response")
	}
	if raw.Diagnosis == nil || strings.TrimSpace(*raw.Diagnosis) == "" {
		return nil, eris.New("diagnosis: response missing diagnosis")
	}
	if raw.ActionPlan == nil {
		return nil, eris.New("diagnosis: response missing actionPlan")
	}

	var items []string
	if err := json.Unmarshal(*raw.ActionPlan, &items); err != nil {
		return nil, eris.Wrap(err, "diagnosis: actionPlan is not a list of strings")
	}
	plan := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			plan = append(plan, it)
		}
	}
	if len(plan) == 0 {
		return nil, eris.New("diagnosis: actionPlan is empty")
	}
	if len(plan) > maxActionPlanItems {
		plan = plan[:maxActionPlanItems]
	}
	return &Diagnosis{Text: strings.TrimSpace(*raw.Diagnosis), ActionPlan: plan}, nil
}

var fallbackPlans = map[model.ChurnRisk][]string{
	model.ChurnHigh: {
		"Schedule an urgent call with the client decision maker",
		"Review overdue payments and agree on a settlement plan",
		"Present a recovery plan with quick wins for the next 30 days",
	},
	model.ChurnMedium: {
		"Schedule a check-in meeting to review results",
		"Send the latest satisfaction survey and follow up on answers",
		"Share a report highlighting recent deliverables",
	},
	model.ChurnLow: {
		"Keep the regular reporting cadence",
		"Explore upsell opportunities aligned with client goals",
		"Ask for a testimonial or referral",
	},
}

// FallbackDiagnosis returns the deterministic diagnosis used when the LLM is
// unavailable or its output is unusable.
func FallbackDiagnosis(score int, risk model.ChurnRisk) Diagnosis {
	plan, ok := fallbackPlans[risk]
	if !ok {
		plan = fallbackPlans[model.ChurnMedium]
	}
	return Diagnosis{
		Text:       fmt.Sprintf("Health score %d/100 with %s churn risk. Automated diagnosis unavailable; review pillar scores and flags.", score, risk),
		ActionPlan: append([]string(nil), plan...),
		Fallback:   true,
	}
}

// UnionFlags returns the distinct flags across results, sorted.
func UnionFlags(results []model.AgentResult) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, r := range results {
		for _, f := range r.Flags {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out
}
