package model

import "time"

// ChurnRisk is the coarse classification derived from a total score.
type ChurnRisk string

const (
	ChurnLow    ChurnRisk = "low"
	ChurnMedium ChurnRisk = "medium"
	ChurnHigh   ChurnRisk = "high"
)

// TriggeredBy records what started an analysis.
type TriggeredBy string

const (
	TriggerScheduled TriggeredBy = "scheduled"
	TriggerManual    TriggeredBy = "manual"
)

// LogStatus is the lifecycle state of an AnalysisLog.
type LogStatus string

const (
	LogRunning   LogStatus = "running"
	LogCompleted LogStatus = "completed"
	LogFailed    LogStatus = "failed"
	LogSkipped   LogStatus = "skipped"
)

// AnalysisRun is the persisted health score of one successful run.
type AnalysisRun struct {
	ID               string      `json:"id"`
	ClientID         string      `json:"client_id"`
	AgencyID         string      `json:"agency_id"`
	ScoreTotal       int         `json:"score_total"`
	ScoreFinancial   *int        `json:"score_financial"`
	ScoreProximity   *int        `json:"score_proximity"`
	ScoreOutcome     *int        `json:"score_outcome"`
	ScoreNPS         *int        `json:"score_nps"`
	ChurnRisk        ChurnRisk   `json:"churn_risk"`
	Diagnosis        string      `json:"diagnosis"`
	ActionPlan       []string    `json:"action_plan"`
	Flags            []string    `json:"flags"`
	TriggeredBy      TriggeredBy `json:"triggered_by"`
	TokensUsed       int         `json:"tokens_used"`
	EstimatedCostBRL float64     `json:"estimated_cost_brl"`
	CreatedAt        time.Time   `json:"created_at"`
}

// ActionPlanItem is one ordered step of a run's action plan.
type ActionPlanItem struct {
	ID            string    `json:"id"`
	AnalysisRunID string    `json:"analysis_run_id"`
	ClientID      string    `json:"client_id"`
	Position      int       `json:"position"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

// AnalysisLog tracks a single orchestrator invocation. A running log also
// acts as the advisory per-client lock marker.
type AnalysisLog struct {
	ID            string         `json:"id"`
	ClientID      string         `json:"client_id"`
	AgencyID      string         `json:"agency_id"`
	Status        LogStatus      `json:"status"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	AgentsLog     map[string]any `json:"agents_log,omitempty"`
	HealthScoreID *string        `json:"health_score_id,omitempty"`
	TokensUsed    int            `json:"tokens_used"`
}

// LogUpdate carries the single end-of-run mutation of an AnalysisLog.
type LogUpdate struct {
	Status        LogStatus
	ErrorMessage  string
	AgentsLog     map[string]any
	HealthScoreID *string
	TokensUsed    int
	FinishedAt    time.Time
}
