package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-score/internal/llm"
	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/scorer"
)

func diagnosisInput() DiagnosisInput {
	return DiagnosisInput{
		Client: model.ClientAccount{
			ID:            "c-1",
			Name:          "Padaria Central",
			Segment:       "food",
			ContractStart: refNow.AddDate(0, -6, 0),
			ContractType:  "monthly",
			ContractValue: 3500,
		},
		Now:        refNow,
		Pillars:    scorer.Pillars{Financial: model.IntPtr(60), Outcome: model.IntPtr(80)},
		ScoreTotal: 68,
		ChurnRisk:  model.ChurnMedium,
		Results: []model.AgentResult{
			{AgentName: model.AgentFinancial, Score: model.IntPtr(60), Flags: []string{FlagChargeback}, Status: model.ExecSuccess, Details: map[string]any{"chargeback_count": 1}},
			{AgentName: model.AgentMessaging, Flags: []string{FlagNoWhatsAppData}, Status: model.ExecSkipped},
		},
	}
}

func TestDiagnose_Success(t *testing.T) {
	fc := &scriptedCompleter{respond: func(req llm.Request) (*llm.Response, error) {
		return &llm.Response{
			Text:         "```json\n{\"diagnosis\": \"Client had a chargeback.\", \"actionPlan\": [\"Call the client\", \" \", \"Review billing\", \"Send report\"]}\n```",
			InputTokens:  400,
			OutputTokens: 120,
		}, nil
	}}

	d, err := NewDiagnosisAgent("en", 0).Diagnose(context.Background(), fc, diagnosisInput())
	require.NoError(t, err)
	assert.Equal(t, "Client had a chargeback.", d.Text)
	assert.Equal(t, []string{"Call the client", "Review billing", "Send report"}, d.ActionPlan)
	assert.Equal(t, 520, d.TokensUsed)
	assert.False(t, d.Fallback)

	require.Len(t, fc.calls, 1)
	req := fc.calls[0]
	assert.Equal(t, llm.TierStrong, req.Tier)
	assert.True(t, req.JSON)
	assert.Contains(t, req.User, "Churn risk: medium")
	assert.Contains(t, req.User, "Proximity (messaging): no data")
	assert.Contains(t, req.User, "Financial: 60/100")
	assert.Contains(t, req.User, "Flags: chargeback, no_whatsapp_data")
	assert.Contains(t, req.User, "Tenure: ")
	assert.Contains(t, req.User, `"chargeback_count":1`)
}

func TestDiagnose_TruncatesLongPlan(t *testing.T) {
	fc := &scriptedCompleter{respond: func(llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: `{"diagnosis":"d","actionPlan":["1","2","3","4","5","6","7"]}`}, nil
	}}
	d, err := NewDiagnosisAgent("en", 0).Diagnose(context.Background(), fc, diagnosisInput())
	require.NoError(t, err)
	assert.Len(t, d.ActionPlan, 5)
}

func TestDiagnose_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"not json", "Sorry, I cannot help.", "parse response"},
		{"missing diagnosis", `{"actionPlan":["a"]}`, "missing diagnosis"},
		{"missing plan", `{"diagnosis":"d"}`, "missing actionPlan"},
		{"plan not strings", `{"diagnosis":"d","actionPlan":[1,2]}`, "not a list of strings"},
		{"plan is object", `{"diagnosis":"d","actionPlan":{"a":"b"}}`, "not a list of strings"},
		{"empty plan", `{"diagnosis":"d","actionPlan":[]}`, "actionPlan is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &scriptedCompleter{respond: func(llm.Request) (*llm.Response, error) {
				return &llm.Response{Text: tt.text}, nil
			}}
			_, err := NewDiagnosisAgent("en", 0).Diagnose(context.Background(), fc, diagnosisInput())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDiagnose_CompleterError(t *testing.T) {
	fc := &scriptedCompleter{respond: func(llm.Request) (*llm.Response, error) {
		return nil, errors.New("timeout")
	}}
	_, err := NewDiagnosisAgent("en", 0).Diagnose(context.Background(), fc, diagnosisInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diagnosis: complete")
}

func TestDiagnose_NilCompleter(t *testing.T) {
	_, err := NewDiagnosisAgent("en", 0).Diagnose(context.Background(), nil, diagnosisInput())
	require.Error(t, err)
}

func TestDiagnose_ExcerptBounded(t *testing.T) {
	in := diagnosisInput()
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	in.Results[0].Details = map[string]any{"blob": string(long)}

	a := NewDiagnosisAgent("en", 50)
	prompt := a.buildPrompt(in)
	assert.NotContains(t, prompt, string(long[:100]))
}

func TestFallbackDiagnosis(t *testing.T) {
	d := FallbackDiagnosis(50, model.ChurnMedium)
	assert.True(t, d.Fallback)
	assert.Contains(t, d.Text, "50/100")
	assert.Contains(t, d.Text, "medium")
	assert.Len(t, d.ActionPlan, 3)

	assert.Equal(t, d, FallbackDiagnosis(50, model.ChurnMedium))
	assert.NotEqual(t, d.ActionPlan, FallbackDiagnosis(20, model.ChurnHigh).ActionPlan)
	assert.Equal(t, d.ActionPlan, FallbackDiagnosis(50, "unknown").ActionPlan)
}

func TestUnionFlags(t *testing.T) {
	flags := UnionFlags([]model.AgentResult{
		{Flags: []string{FlagNoFormResponse}},
		{Flags: []string{FlagNoFormResponse, FlagNPSDetractor}},
		{Flags: nil},
		{Flags: []string{FlagChargeback}},
	})
	assert.Equal(t, []string{FlagChargeback, FlagNoFormResponse, FlagNPSDetractor}, flags)
	assert.Equal(t, []string{}, UnionFlags(nil))
}

func TestDiagnosisTenureUsesNow(t *testing.T) {
	in := diagnosisInput()
	in.Now = in.Client.ContractStart.Add(10 * 24 * time.Hour)
	assert.Contains(t, NewDiagnosisAgent("en", 0).buildPrompt(in), "Tenure: 10 days")
}
