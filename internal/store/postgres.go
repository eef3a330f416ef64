package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/health-score/internal/db"
	"github.com/sells-group/health-score/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := poolConfig(connString, poolCfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// poolConfig parses connString and applies pool sizing. Statement caching is
// left to pgx's default exec mode.
func poolConfig(connString string, poolCfg *PoolConfig) (*pgxpool.Config, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	return pgxCfg, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS agency_credentials (
	agency_id        TEXT PRIMARY KEY,
	llm_provider     TEXT,
	llm_key          TEXT,
	asaas_key        TEXT,
	contaazul_token  TEXT,
	stripe_key       TEXT,
	messaging_token  TEXT,
	team_identifiers JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS client_accounts (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	agency_id            TEXT NOT NULL,
	name                 TEXT NOT NULL,
	segment              TEXT NOT NULL DEFAULT '',
	contract_start       TIMESTAMPTZ NOT NULL,
	contract_type        TEXT NOT NULL DEFAULT '',
	contract_value       DOUBLE PRECISION NOT NULL DEFAULT 0,
	messaging_channel_id TEXT,
	active               BOOLEAN NOT NULL DEFAULT true,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_client_accounts_agency ON client_accounts(agency_id) WHERE active;

CREATE TABLE IF NOT EXISTS client_integrations (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id            TEXT NOT NULL REFERENCES client_accounts(id) ON DELETE CASCADE,
	provider             TEXT NOT NULL,
	external_customer_id TEXT NOT NULL DEFAULT '',
	tax_id               TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_client_integrations_client ON client_integrations(client_id);

CREATE TABLE IF NOT EXISTS survey_submissions (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id     TEXT NOT NULL REFERENCES client_accounts(id) ON DELETE CASCADE,
	submitted_at  TIMESTAMPTZ NOT NULL,
	nps_score     INTEGER NOT NULL CHECK (nps_score BETWEEN 0 AND 10),
	outcome_score INTEGER NOT NULL CHECK (outcome_score BETWEEN 0 AND 10),
	comment       TEXT
);

CREATE INDEX IF NOT EXISTS idx_survey_submissions_client ON survey_submissions(client_id, submitted_at);

CREATE TABLE IF NOT EXISTS message_cache (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	group_id            TEXT NOT NULL,
	message_key         TEXT NOT NULL,
	content             TEXT NOT NULL,
	sender_display_name TEXT NOT NULL DEFAULT '',
	sender_identifier   TEXT NOT NULL DEFAULT '',
	timestamp_unix      BIGINT NOT NULL,
	is_from_agency      BOOLEAN NOT NULL DEFAULT false,
	cached_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (group_id, message_key)
);

CREATE INDEX IF NOT EXISTS idx_message_cache_group_ts ON message_cache(group_id, timestamp_unix);

CREATE TABLE IF NOT EXISTS analysis_logs (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL,
	agency_id       TEXT NOT NULL,
	status          TEXT NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ,
	error_message   TEXT,
	agents_log      JSONB,
	health_score_id TEXT,
	tokens_used     INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_analysis_logs_running ON analysis_logs(client_id, started_at) WHERE status = 'running';

CREATE TABLE IF NOT EXISTS analysis_runs (
	id                 TEXT PRIMARY KEY,
	client_id          TEXT NOT NULL,
	agency_id          TEXT NOT NULL,
	score_total        INTEGER NOT NULL,
	score_financial    INTEGER,
	score_proximity    INTEGER,
	score_outcome      INTEGER,
	score_nps          INTEGER,
	churn_risk         TEXT NOT NULL,
	diagnosis          TEXT NOT NULL,
	action_plan        JSONB NOT NULL DEFAULT '[]',
	flags              JSONB NOT NULL DEFAULT '[]',
	triggered_by       TEXT NOT NULL,
	tokens_used        INTEGER NOT NULL DEFAULT 0,
	estimated_cost_brl DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_client ON analysis_runs(client_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_agency ON analysis_runs(agency_id, created_at DESC);

CREATE TABLE IF NOT EXISTS action_plan_items (
	id              TEXT PRIMARY KEY,
	analysis_run_id TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
	client_id       TEXT NOT NULL,
	position        INTEGER NOT NULL,
	description     TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_action_plan_items_run ON action_plan_items(analysis_run_id, position);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	agency_id  TEXT NOT NULL,
	type       TEXT NOT NULL,
	severity   TEXT NOT NULL,
	message    TEXT NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_alerts_unread ON alerts(client_id, type) WHERE NOT is_read;
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateAnalysisLog(ctx context.Context, log *model.AnalysisLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now().UTC()
	}
	if log.Status == "" {
		log.Status = model.LogRunning
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_logs (id, client_id, agency_id, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		log.ID, log.ClientID, log.AgencyID, string(log.Status), log.StartedAt,
	)
	return eris.Wrap(err, "postgres: insert analysis log")
}

func (s *PostgresStore) FindRunningLog(ctx context.Context, clientID string, since time.Time, excludeID string) (*model.AnalysisLog, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+logColumns+` FROM analysis_logs
		 WHERE client_id = $1 AND status = 'running' AND started_at >= $2 AND id <> $3
		 ORDER BY started_at DESC LIMIT 1`,
		clientID, since, excludeID,
	)
	l, err := scanLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find running log for client %s", clientID)
	}
	return l, nil
}

func (s *PostgresStore) FinishAnalysisLog(ctx context.Context, id string, upd model.LogUpdate) error {
	agentsJSON, err := marshalAgentsLog(upd.AgentsLog)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal agents log")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analysis_logs
		 SET status = $1, finished_at = $2, error_message = $3, agents_log = $4, health_score_id = $5, tokens_used = $6
		 WHERE id = $7`,
		string(upd.Status), upd.FinishedAt, nullIfEmpty(upd.ErrorMessage), agentsJSON, upd.HealthScoreID, upd.TokensUsed, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish analysis log %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "analysis log %s", id)
	}
	return nil
}

func (s *PostgresStore) GetAnalysisLog(ctx context.Context, id string) (*model.AnalysisLog, error) {
	l, err := scanLog(s.pool.QueryRow(ctx, `SELECT `+logColumns+` FROM analysis_logs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "analysis log %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis log %s", id)
	}
	return l, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, clientID string) (*model.ClientAccount, error) {
	c, err := scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM client_accounts WHERE id = $1`, clientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "client %s", clientID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get client %s", clientID)
	}

	integrations, err := s.integrations(ctx, []string{clientID})
	if err != nil {
		return nil, err
	}
	c.Integrations = integrations[clientID]
	return c, nil
}

func (s *PostgresStore) ListActiveClients(ctx context.Context, agencyID string) ([]model.ClientAccount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM client_accounts
		 WHERE active AND ($1 = '' OR agency_id = $1)
		 ORDER BY agency_id, name`,
		agencyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list active clients")
	}
	defer rows.Close()

	var clients []model.ClientAccount
	var ids []string
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan client")
		}
		clients = append(clients, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate clients")
	}
	if len(ids) == 0 {
		return clients, nil
	}

	integrations, err := s.integrations(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].Integrations = integrations[clients[i].ID]
	}
	return clients, nil
}

func (s *PostgresStore) integrations(ctx context.Context, clientIDs []string) (map[string][]model.ClientIntegration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT client_id, provider, external_customer_id, tax_id FROM client_integrations
		 WHERE client_id = ANY($1) ORDER BY client_id, provider`,
		clientIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list integrations")
	}
	defer rows.Close()

	out := make(map[string][]model.ClientIntegration, len(clientIDs))
	for rows.Next() {
		var clientID string
		var in model.ClientIntegration
		if err := rows.Scan(&clientID, &in.Provider, &in.ExternalCustomerID, &in.TaxID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan integration")
		}
		out[clientID] = append(out[clientID], in)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate integrations")
}

func (s *PostgresStore) GetAgencyCredentials(ctx context.Context, agencyID string) (*model.AgencyCredentials, error) {
	var creds model.AgencyCredentials
	var provider, llmKey, asaasKey, contaAzul, stripeKey, messaging *string
	var teamJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT agency_id, llm_provider, llm_key, asaas_key, contaazul_token, stripe_key, messaging_token, team_identifiers
		 FROM agency_credentials WHERE agency_id = $1`,
		agencyID,
	).Scan(&creds.AgencyID, &provider, &llmKey, &asaasKey, &contaAzul, &stripeKey, &messaging, &teamJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "agency credentials %s", agencyID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get agency credentials %s", agencyID)
	}

	creds.LLMProvider = deref(provider)
	creds.LLMKey = deref(llmKey)
	creds.AsaasKey = deref(asaasKey)
	creds.ContaAzulToken = deref(contaAzul)
	creds.StripeKey = deref(stripeKey)
	creds.MessagingToken = deref(messaging)
	if err := unmarshalList(teamJSON, &creds.TeamIdentifiers); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal team identifiers")
	}
	return &creds, nil
}

func (s *PostgresStore) ListSurveySubmissions(ctx context.Context, clientID string, since time.Time) ([]model.SurveySubmission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, submitted_at, nps_score, outcome_score, comment FROM survey_submissions
		 WHERE client_id = $1 AND submitted_at >= $2 ORDER BY submitted_at`,
		clientID, since,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list survey submissions for client %s", clientID)
	}
	defer rows.Close()

	var subs []model.SurveySubmission
	for rows.Next() {
		var sub model.SurveySubmission
		if err := rows.Scan(&sub.ID, &sub.ClientID, &sub.SubmittedAt, &sub.NPSScore, &sub.OutcomeScore, &sub.Comment); err != nil {
			return nil, eris.Wrap(err, "postgres: scan survey submission")
		}
		subs = append(subs, sub)
	}
	return subs, eris.Wrap(rows.Err(), "postgres: iterate survey submissions")
}

func (s *PostgresStore) GetCachedMessages(ctx context.Context, groupID string, since time.Time, limit int) ([]model.ChatMessage, error) {
	// Newest first so the limit keeps the most recent messages.
	rows, err := s.pool.Query(ctx,
		`SELECT content, sender_display_name, sender_identifier, timestamp_unix, is_from_agency FROM message_cache
		 WHERE group_id = $1 AND timestamp_unix >= $2
		 ORDER BY timestamp_unix DESC LIMIT $3`,
		groupID, since.Unix(), normalizeLimit(limit, 1000),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get cached messages for group %s", groupID)
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.Content, &m.SenderDisplayName, &m.SenderIdentifier, &m.TimestampUnix, &m.IsFromAgencyAccount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cached message")
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate cached messages")
	}
	slices.Reverse(msgs)
	return msgs, nil
}

var messageCacheUpsert = db.UpsertConfig{
	Table:        "message_cache",
	Columns:      []string{"id", "group_id", "message_key", "content", "sender_display_name", "sender_identifier", "timestamp_unix", "is_from_agency", "cached_at"},
	ConflictKeys: []string{"group_id", "message_key"},
	UpdateCols:   []string{"cached_at"},
}

func (s *PostgresStore) CacheMessages(ctx context.Context, groupID string, msgs []model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	seen := make(map[string]bool, len(msgs))
	rows := make([][]any, 0, len(msgs))
	for _, m := range msgs {
		key := messageKey(groupID, m)
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, []any{uuid.New().String(), groupID, key, m.Content, m.SenderDisplayName,
			m.SenderIdentifier, m.TimestampUnix, m.IsFromAgencyAccount, now})
	}
	_, err := db.BulkUpsert(ctx, s.pool, messageCacheUpsert, rows)
	return eris.Wrapf(err, "postgres: cache messages for group %s", groupID)
}

func (s *PostgresStore) CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	planJSON, err := marshalList(run.ActionPlan)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal action plan")
	}
	flagsJSON, err := marshalList(run.Flags)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal flags")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO analysis_runs (`+runColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		run.ID, run.ClientID, run.AgencyID, run.ScoreTotal, run.ScoreFinancial, run.ScoreProximity,
		run.ScoreOutcome, run.ScoreNPS, string(run.ChurnRisk), run.Diagnosis, planJSON, flagsJSON,
		string(run.TriggeredBy), run.TokensUsed, run.EstimatedCostBRL, run.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert analysis run for client %s", run.ClientID)
}

func (s *PostgresStore) CreateActionPlanItems(ctx context.Context, runID, clientID string, steps []string) error {
	now := time.Now().UTC()
	rows := make([][]any, len(steps))
	for i, step := range steps {
		rows[i] = []any{uuid.New().String(), runID, clientID, i + 1, step, now}
	}
	_, err := db.CopyFrom(ctx, s.pool, "action_plan_items",
		[]string{"id", "analysis_run_id", "client_id", "position", "description", "created_at"}, rows)
	return eris.Wrapf(err, "postgres: insert action plan items for run %s", runID)
}

func (s *PostgresStore) ListActionPlanItems(ctx context.Context, runID string) ([]model.ActionPlanItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, analysis_run_id, client_id, position, description, created_at FROM action_plan_items
		 WHERE analysis_run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list action plan items for run %s", runID)
	}
	defer rows.Close()

	var items []model.ActionPlanItem
	for rows.Next() {
		var it model.ActionPlanItem
		if err := rows.Scan(&it.ID, &it.AnalysisRunID, &it.ClientID, &it.Position, &it.Description, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan action plan item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: iterate action plan items")
}

func (s *PostgresStore) ListAnalysisRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM analysis_runs
		 WHERE ($1 = '' OR agency_id = $1) AND ($2 = '' OR client_id = $2) AND created_at >= $3
		 ORDER BY created_at DESC LIMIT $4`,
		filter.AgencyID, filter.ClientID, filter.Since, normalizeLimit(filter.Limit, 100),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analysis runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate analysis runs")
}

func (s *PostgresStore) HasUnreadAlert(ctx context.Context, clientID, alertType string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM alerts WHERE client_id = $1 AND type = $2 AND is_read = false)`,
		clientID, alertType,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: check unread alert %s for client %s", alertType, clientID)
	}
	return exists, nil
}

func (s *PostgresStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (`+alertColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		alert.ID, alert.ClientID, alert.AgencyID, alert.Type, string(alert.Severity), alert.Message, alert.IsRead, alert.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert alert %s", alert.Type)
}

func (s *PostgresStore) ListUnreadAlerts(ctx context.Context, agencyID string) ([]model.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts
		 WHERE is_read = false AND ($1 = '' OR agency_id = $1)
		 ORDER BY created_at DESC`,
		agencyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unread alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert")
		}
		alerts = append(alerts, *a)
	}
	return alerts, eris.Wrap(rows.Err(), "postgres: iterate alerts")
}
