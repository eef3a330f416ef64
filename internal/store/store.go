// Package store persists clients, analysis logs, health scores and alerts.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/health-score/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing analysis runs.
type RunFilter struct {
	AgencyID string    `json:"agency_id,omitempty"`
	ClientID string    `json:"client_id,omitempty"`
	Since    time.Time `json:"since,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// Store defines the persistence interface for health-score analyses.
type Store interface {
	// Analysis logs
	CreateAnalysisLog(ctx context.Context, log *model.AnalysisLog) error
	FindRunningLog(ctx context.Context, clientID string, since time.Time, excludeID string) (*model.AnalysisLog, error)
	FinishAnalysisLog(ctx context.Context, id string, upd model.LogUpdate) error
	GetAnalysisLog(ctx context.Context, id string) (*model.AnalysisLog, error)

	// Clients and agencies
	GetClient(ctx context.Context, clientID string) (*model.ClientAccount, error)
	ListActiveClients(ctx context.Context, agencyID string) ([]model.ClientAccount, error)
	GetAgencyCredentials(ctx context.Context, agencyID string) (*model.AgencyCredentials, error)

	// Surveys
	ListSurveySubmissions(ctx context.Context, clientID string, since time.Time) ([]model.SurveySubmission, error)

	// Message cache
	GetCachedMessages(ctx context.Context, groupID string, since time.Time, limit int) ([]model.ChatMessage, error)
	CacheMessages(ctx context.Context, groupID string, msgs []model.ChatMessage) error

	// Health scores
	CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error
	CreateActionPlanItems(ctx context.Context, runID, clientID string, steps []string) error
	ListAnalysisRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error)
	ListActionPlanItems(ctx context.Context, runID string) ([]model.ActionPlanItem, error)

	// Alerts
	HasUnreadAlert(ctx context.Context, clientID, alertType string) (bool, error)
	CreateAlert(ctx context.Context, alert *model.Alert) error
	ListUnreadAlerts(ctx context.Context, agencyID string) ([]model.Alert, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// messageKey derives a stable identity for a cached message so re-caching
// the same provider page is idempotent.
func messageKey(groupID string, m model.ChatMessage) string {
	return uuid.NewSHA1(messageNamespace, []byte(fmt.Sprintf("%s|%d|%s|%s", groupID, m.TimestampUnix, m.SenderIdentifier, m.Content))).String()
}

var messageNamespace = uuid.MustParse("6f1c2b8e-4d4a-5b7e-9c3d-2a1e0f9b8c7d")

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

const (
	logColumns    = `id, client_id, agency_id, status, started_at, finished_at, error_message, agents_log, health_score_id, tokens_used`
	clientColumns = `id, agency_id, name, segment, contract_start, contract_type, contract_value, messaging_channel_id`
	runColumns    = `id, client_id, agency_id, score_total, score_financial, score_proximity, score_outcome, score_nps, churn_risk, diagnosis, action_plan, flags, triggered_by, tokens_used, estimated_cost_brl, created_at`
	alertColumns  = `id, client_id, agency_id, type, severity, message, is_read, created_at`
)

type scannable interface {
	Scan(dest ...any) error
}

func scanLog(row scannable) (*model.AnalysisLog, error) {
	var l model.AnalysisLog
	var errMsg *string
	var agentsJSON []byte
	if err := row.Scan(&l.ID, &l.ClientID, &l.AgencyID, &l.Status, &l.StartedAt, &l.FinishedAt,
		&errMsg, &agentsJSON, &l.HealthScoreID, &l.TokensUsed); err != nil {
		return nil, err
	}
	if errMsg != nil {
		l.ErrorMessage = *errMsg
	}
	if len(agentsJSON) > 0 {
		if err := json.Unmarshal(agentsJSON, &l.AgentsLog); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal agents log")
		}
	}
	return &l, nil
}

func scanClient(row scannable) (*model.ClientAccount, error) {
	var c model.ClientAccount
	if err := row.Scan(&c.ID, &c.AgencyID, &c.Name, &c.Segment, &c.ContractStart,
		&c.ContractType, &c.ContractValue, &c.MessagingChannelID); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanRun(row scannable) (*model.AnalysisRun, error) {
	var r model.AnalysisRun
	var planJSON, flagsJSON []byte
	if err := row.Scan(&r.ID, &r.ClientID, &r.AgencyID, &r.ScoreTotal, &r.ScoreFinancial, &r.ScoreProximity,
		&r.ScoreOutcome, &r.ScoreNPS, &r.ChurnRisk, &r.Diagnosis, &planJSON, &flagsJSON, &r.TriggeredBy,
		&r.TokensUsed, &r.EstimatedCostBRL, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalList(planJSON, &r.ActionPlan); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal action plan")
	}
	if err := unmarshalList(flagsJSON, &r.Flags); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal flags")
	}
	return &r, nil
}

func scanAlert(row scannable) (*model.Alert, error) {
	var a model.Alert
	if err := row.Scan(&a.ID, &a.ClientID, &a.AgencyID, &a.Type, &a.Severity, &a.Message, &a.IsRead, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func unmarshalList(data []byte, dst *[]string) error {
	*dst = []string{}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func marshalList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

// marshalAgentsLog returns nil for an empty snapshot so the column stays NULL.
func marshalAgentsLog(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
