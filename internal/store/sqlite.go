package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/health-score/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local runs
// and tests; production uses PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection serializes writers from concurrent batch runs.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS agency_credentials (
	agency_id        TEXT PRIMARY KEY,
	llm_provider     TEXT,
	llm_key          TEXT,
	asaas_key        TEXT,
	contaazul_token  TEXT,
	stripe_key       TEXT,
	messaging_token  TEXT,
	team_identifiers TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS client_accounts (
	id                   TEXT PRIMARY KEY,
	agency_id            TEXT NOT NULL,
	name                 TEXT NOT NULL,
	segment              TEXT NOT NULL DEFAULT '',
	contract_start       DATETIME NOT NULL,
	contract_type        TEXT NOT NULL DEFAULT '',
	contract_value       REAL NOT NULL DEFAULT 0,
	messaging_channel_id TEXT,
	active               BOOLEAN NOT NULL DEFAULT 1,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS client_integrations (
	id                   TEXT PRIMARY KEY,
	client_id            TEXT NOT NULL REFERENCES client_accounts(id) ON DELETE CASCADE,
	provider             TEXT NOT NULL,
	external_customer_id TEXT NOT NULL DEFAULT '',
	tax_id               TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS survey_submissions (
	id            TEXT PRIMARY KEY,
	client_id     TEXT NOT NULL REFERENCES client_accounts(id) ON DELETE CASCADE,
	submitted_at  DATETIME NOT NULL,
	nps_score     INTEGER NOT NULL,
	outcome_score INTEGER NOT NULL,
	comment       TEXT
);

CREATE TABLE IF NOT EXISTS message_cache (
	id                  TEXT PRIMARY KEY,
	group_id            TEXT NOT NULL,
	message_key         TEXT NOT NULL,
	content             TEXT NOT NULL,
	sender_display_name TEXT NOT NULL DEFAULT '',
	sender_identifier   TEXT NOT NULL DEFAULT '',
	timestamp_unix      INTEGER NOT NULL,
	is_from_agency      BOOLEAN NOT NULL DEFAULT 0,
	cached_at           DATETIME NOT NULL,
	UNIQUE (group_id, message_key)
);

CREATE TABLE IF NOT EXISTS analysis_logs (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL,
	agency_id       TEXT NOT NULL,
	status          TEXT NOT NULL,
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME,
	error_message   TEXT,
	agents_log      TEXT,
	health_score_id TEXT,
	tokens_used     INTEGER NOT NULL DEFAULT 0
);

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
	action_plan        TEXT NOT NULL DEFAULT '[]',
	flags              TEXT NOT NULL DEFAULT '[]',
	triggered_by       TEXT NOT NULL,
	tokens_used        INTEGER NOT NULL DEFAULT 0,
	estimated_cost_brl REAL NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS action_plan_items (
	id              TEXT PRIMARY KEY,
	analysis_run_id TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
	client_id       TEXT NOT NULL,
	position        INTEGER NOT NULL,
	description     TEXT NOT NULL,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	agency_id  TEXT NOT NULL,
	type       TEXT NOT NULL,
	severity   TEXT NOT NULL,
	message    TEXT NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_client_accounts_agency ON client_accounts(agency_id);
CREATE INDEX IF NOT EXISTS idx_client_integrations_client ON client_integrations(client_id);
CREATE INDEX IF NOT EXISTS idx_survey_submissions_client ON survey_submissions(client_id);
CREATE INDEX IF NOT EXISTS idx_message_cache_group_ts ON message_cache(group_id, timestamp_unix);
CREATE INDEX IF NOT EXISTS idx_analysis_logs_client_status ON analysis_logs(client_id, status);
CREATE INDEX IF NOT EXISTS idx_analysis_runs_client ON analysis_runs(client_id);
CREATE INDEX IF NOT EXISTS idx_action_plan_items_run ON action_plan_items(analysis_run_id);
CREATE INDEX IF NOT EXISTS idx_alerts_client_type ON alerts(client_id, type, is_read);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAnalysisLog(ctx context.Context, log *model.AnalysisLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now().UTC()
	}
	if log.Status == "" {
		log.Status = model.LogRunning
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_logs (id, client_id, agency_id, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		log.ID, log.ClientID, log.AgencyID, string(log.Status), log.StartedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert analysis log")
}

// FindRunningLog compares started_at in Go; SQLite stores the timestamps as
// text and cannot order mixed precision values reliably.
func (s *SQLiteStore) FindRunningLog(ctx context.Context, clientID string, since time.Time, excludeID string) (*model.AnalysisLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+logColumns+` FROM analysis_logs WHERE client_id = ? AND status = 'running' AND id <> ?`,
		clientID, excludeID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find running log for client %s", clientID)
	}
	defer rows.Close()

	var latest *model.AnalysisLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis log")
		}
		if l.StartedAt.Before(since) {
			continue
		}
		if latest == nil || l.StartedAt.After(latest.StartedAt) {
			latest = l
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate analysis logs")
	}
	return latest, nil
}

func (s *SQLiteStore) FinishAnalysisLog(ctx context.Context, id string, upd model.LogUpdate) error {
	agentsJSON, err := marshalAgentsLog(upd.AgentsLog)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal agents log")
	}
	var agents any
	if agentsJSON != nil {
		agents = string(agentsJSON)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_logs
		 SET status = ?, finished_at = ?, error_message = ?, agents_log = ?, health_score_id = ?, tokens_used = ?
		 WHERE id = ?`,
		string(upd.Status), upd.FinishedAt.UTC(), nullIfEmpty(upd.ErrorMessage), agents, upd.HealthScoreID, upd.TokensUsed, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish analysis log %s", id)
	}
	return checkRowsAffected(res, "analysis log", id)
}

func (s *SQLiteStore) GetAnalysisLog(ctx context.Context, id string) (*model.AnalysisLog, error) {
	l, err := scanLog(s.db.QueryRowContext(ctx, `SELECT `+logColumns+` FROM analysis_logs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "analysis log %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis log %s", id)
	}
	return l, nil
}

func (s *SQLiteStore) GetClient(ctx context.Context, clientID string) (*model.ClientAccount, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM client_accounts WHERE id = ?`, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "client %s", clientID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get client %s", clientID)
	}
	if c.Integrations, err = s.integrations(ctx, clientID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) ListActiveClients(ctx context.Context, agencyID string) ([]model.ClientAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM client_accounts
		 WHERE active = 1 AND (?1 = '' OR agency_id = ?1)
		 ORDER BY agency_id, name`,
		agencyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list active clients")
	}

	var clients []model.ClientAccount
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan client")
		}
		clients = append(clients, *c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate clients")
	}

	// Integrations are loaded after the client cursor is closed; the store
	// holds a single connection.
	for i := range clients {
		if clients[i].Integrations, err = s.integrations(ctx, clients[i].ID); err != nil {
			return nil, err
		}
	}
	return clients, nil
}

func (s *SQLiteStore) integrations(ctx context.Context, clientID string) ([]model.ClientIntegration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, external_customer_id, tax_id FROM client_integrations WHERE client_id = ? ORDER BY provider`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list integrations for client %s", clientID)
	}
	defer rows.Close()

	var out []model.ClientIntegration
	for rows.Next() {
		var in model.ClientIntegration
		if err := rows.Scan(&in.Provider, &in.ExternalCustomerID, &in.TaxID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan integration")
		}
		out = append(out, in)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate integrations")
}

func (s *SQLiteStore) GetAgencyCredentials(ctx context.Context, agencyID string) (*model.AgencyCredentials, error) {
	var creds model.AgencyCredentials
	var provider, llmKey, asaasKey, contaAzul, stripeKey, messaging sql.NullString
	var teamJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT agency_id, llm_provider, llm_key, asaas_key, contaazul_token, stripe_key, messaging_token, team_identifiers
		 FROM agency_credentials WHERE agency_id = ?`,
		agencyID,
	).Scan(&creds.AgencyID, &provider, &llmKey, &asaasKey, &contaAzul, &stripeKey, &messaging, &teamJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "agency credentials %s", agencyID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get agency credentials %s", agencyID)
	}

	creds.LLMProvider = provider.String
	creds.LLMKey = llmKey.String
	creds.AsaasKey = asaasKey.String
	creds.ContaAzulToken = contaAzul.String
	creds.StripeKey = stripeKey.String
	creds.MessagingToken = messaging.String
	if err := unmarshalList([]byte(teamJSON), &creds.TeamIdentifiers); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal team identifiers")
	}
	return &creds, nil
}

func (s *SQLiteStore) ListSurveySubmissions(ctx context.Context, clientID string, since time.Time) ([]model.SurveySubmission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, submitted_at, nps_score, outcome_score, comment FROM survey_submissions WHERE client_id = ?`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list survey submissions for client %s", clientID)
	}
	defer rows.Close()

	var subs []model.SurveySubmission
	for rows.Next() {
		var sub model.SurveySubmission
		var comment sql.NullString
		if err := rows.Scan(&sub.ID, &sub.ClientID, &sub.SubmittedAt, &sub.NPSScore, &sub.OutcomeScore, &comment); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan survey submission")
		}
		if sub.SubmittedAt.Before(since) {
			continue
		}
		if comment.Valid {
			sub.Comment = &comment.String
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate survey submissions")
	}
	slices.SortStableFunc(subs, func(a, b model.SurveySubmission) int {
		return a.SubmittedAt.Compare(b.SubmittedAt)
	})
	return subs, nil
}

func (s *SQLiteStore) GetCachedMessages(ctx context.Context, groupID string, since time.Time, limit int) ([]model.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content, sender_display_name, sender_identifier, timestamp_unix, is_from_agency FROM message_cache
		 WHERE group_id = ? AND timestamp_unix >= ?
		 ORDER BY timestamp_unix DESC LIMIT ?`,
		groupID, since.Unix(), normalizeLimit(limit, 1000),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get cached messages for group %s", groupID)
	}
	defer rows.Close()

	var msgs []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.Content, &m.SenderDisplayName, &m.SenderIdentifier, &m.TimestampUnix, &m.IsFromAgencyAccount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cached message")
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate cached messages")
	}
	slices.Reverse(msgs)
	return msgs, nil
}

func (s *SQLiteStore) CacheMessages(ctx context.Context, groupID string, msgs []model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin cache tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO message_cache (id, group_id, message_key, content, sender_display_name, sender_identifier, timestamp_unix, is_from_agency, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, message_key) DO UPDATE SET cached_at = excluded.cached_at`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare cache insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), groupID, messageKey(groupID, m), m.Content,
			m.SenderDisplayName, m.SenderIdentifier, m.TimestampUnix, m.IsFromAgencyAccount, now); err != nil {
			return eris.Wrapf(err, "sqlite: cache message for group %s", groupID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit cache tx")
}

func (s *SQLiteStore) CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	planJSON, err := marshalList(run.ActionPlan)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal action plan")
	}
	flagsJSON, err := marshalList(run.Flags)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal flags")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ClientID, run.AgencyID, run.ScoreTotal, run.ScoreFinancial, run.ScoreProximity,
		run.ScoreOutcome, run.ScoreNPS, string(run.ChurnRisk), run.Diagnosis, string(planJSON), string(flagsJSON),
		string(run.TriggeredBy), run.TokensUsed, run.EstimatedCostBRL, run.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert analysis run for client %s", run.ClientID)
}

func (s *SQLiteStore) CreateActionPlanItems(ctx context.Context, runID, clientID string, steps []string) error {
	if len(steps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin action plan tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for i, step := range steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO action_plan_items (id, analysis_run_id, client_id, position, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, clientID, i+1, step, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert action plan item %d for run %s", i+1, runID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit action plan tx")
}

func (s *SQLiteStore) ListActionPlanItems(ctx context.Context, runID string) ([]model.ActionPlanItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_run_id, client_id, position, description, created_at FROM action_plan_items
		 WHERE analysis_run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list action plan items for run %s", runID)
	}
	defer rows.Close()

	var items []model.ActionPlanItem
	for rows.Next() {
		var it model.ActionPlanItem
		if err := rows.Scan(&it.ID, &it.AnalysisRunID, &it.ClientID, &it.Position, &it.Description, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan action plan item")
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: iterate action plan items")
}

func (s *SQLiteStore) ListAnalysisRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE (?1 = '' OR agency_id = ?1) AND (?2 = '' OR client_id = ?2)`,
		filter.AgencyID, filter.ClientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analysis runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis run")
		}
		if r.CreatedAt.Before(filter.Since) {
			continue
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate analysis runs")
	}

	slices.SortStableFunc(runs, func(a, b model.AnalysisRun) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit := normalizeLimit(filter.Limit, 100); len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *SQLiteStore) HasUnreadAlert(ctx context.Context, clientID, alertType string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM alerts WHERE client_id = ? AND type = ? AND is_read = 0)`,
		clientID, alertType,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: check unread alert %s for client %s", alertType, clientID)
	}
	return exists, nil
}

func (s *SQLiteStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.ClientID, alert.AgencyID, alert.Type, string(alert.Severity), alert.Message, alert.IsRead, alert.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert alert %s", alert.Type)
}

func (s *SQLiteStore) ListUnreadAlerts(ctx context.Context, agencyID string) ([]model.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE is_read = 0 AND (?1 = '' OR agency_id = ?1)`,
		agencyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unread alerts")
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert")
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate alerts")
	}
	slices.SortStableFunc(alerts, func(a, b model.Alert) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return alerts, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
