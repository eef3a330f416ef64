// Package analysis runs one health-score analysis per client: lock check,
// data collection, concurrent pillar scoring, weighting, diagnosis,
// persistence and alerting.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/health-score/internal/agent"
	"github.com/sells-group/health-score/internal/config"
	"github.com/sells-group/health-score/internal/cost"
	"github.com/sells-group/health-score/internal/fetcher"
	"github.com/sells-group/health-score/internal/llm"
	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/notify"
	"github.com/sells-group/health-score/internal/scorer"
	"github.com/sells-group/health-score/internal/store"
)

// SkipAlreadyRunning is the skip reason when another run holds the client.
const SkipAlreadyRunning = "already running"

// Store is the persistence the orchestrator needs. store.Store satisfies it.
type Store interface {
	CreateAnalysisLog(ctx context.Context, log *model.AnalysisLog) error
	FindRunningLog(ctx context.Context, clientID string, since time.Time, excludeID string) (*model.AnalysisLog, error)
	FinishAnalysisLog(ctx context.Context, id string, upd model.LogUpdate) error
	GetClient(ctx context.Context, clientID string) (*model.ClientAccount, error)
	GetAgencyCredentials(ctx context.Context, agencyID string) (*model.AgencyCredentials, error)
	ListSurveySubmissions(ctx context.Context, clientID string, since time.Time) ([]model.SurveySubmission, error)
	CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error
	CreateActionPlanItems(ctx context.Context, runID, clientID string, steps []string) error
	HasUnreadAlert(ctx context.Context, clientID, alertType string) (bool, error)
	CreateAlert(ctx context.Context, alert *model.Alert) error
}

// PaymentFetcher collects a client's normalized payments.
type PaymentFetcher interface {
	FetchPayments(ctx context.Context, client model.ClientAccount, creds *model.AgencyCredentials, now time.Time) []model.NormalizedPayment
}

// MessageCollector collects a client's group messages and names the source.
type MessageCollector interface {
	Collect(ctx context.Context, groupID *string, creds *model.AgencyCredentials, now time.Time) ([]model.ChatMessage, string)
}

// CompleterFactory resolves the LLM completer for an agency. A nil completer
// means no credential is configured.
type CompleterFactory interface {
	For(creds *model.AgencyCredentials) llm.Completer
}

// MessagingScorer scores the Proximity pillar.
type MessagingScorer interface {
	Score(ctx context.Context, in agent.MessagingInput) model.AgentResult
}

// Diagnoser produces the narrative diagnosis.
type Diagnoser interface {
	Diagnose(ctx context.Context, c llm.Completer, in agent.DiagnosisInput) (*agent.Diagnosis, error)
}

// Deps are the orchestrator's collaborators. Store, Payments and Messages are
// required; the rest have defaults.
type Deps struct {
	Store     Store
	Payments  PaymentFetcher
	Messages  MessageCollector
	LLM       CompleterFactory
	Messaging MessagingScorer
	Diagnosis Diagnoser
	Weighter  *scorer.Weighter
	Catalog   *Catalog
	Notifier  notify.Notifier
	Cost      *cost.Calculator
	Now       func() time.Time
}

// Settings bounds one analysis.
type Settings struct {
	ObservationDays  int
	LockWindow       time.Duration
	SurveyWindowDays int
	NotifyTimeout    time.Duration
}

// SettingsFromConfig maps the analysis config section.
func SettingsFromConfig(cfg config.AnalysisConfig) Settings {
	return Settings{
		ObservationDays:  cfg.ObservationDays,
		LockWindow:       time.Duration(cfg.LockWindowSecs) * time.Second,
		SurveyWindowDays: cfg.SurveyWindowDays,
		NotifyTimeout:    time.Duration(cfg.NotifyTimeoutSecs) * time.Second,
	}
}

func (s Settings) withDefaults() Settings {
	if s.ObservationDays <= 0 {
		s.ObservationDays = 60
	}
	if s.LockWindow <= 0 {
		s.LockWindow = 5 * time.Minute
	}
	if s.SurveyWindowDays <= 0 {
		s.SurveyWindowDays = 90
	}
	if s.NotifyTimeout <= 0 {
		s.NotifyTimeout = 10 * time.Second
	}
	return s
}

// Request identifies the client to analyze.
type Request struct {
	ClientID    string            `json:"client_id"`
	AgencyID    string            `json:"agency_id"`
	TriggeredBy model.TriggeredBy `json:"triggered_by"`
}

// Result is everything a successful run computed.
type Result struct {
	Run               model.AnalysisRun   `json:"run"`
	Agents            []model.AgentResult `json:"agents"`
	DiagnosisFallback bool                `json:"diagnosis_fallback"`
	MessageSource     string              `json:"message_source"`
	AlertsCreated     []model.Alert       `json:"alerts_created"`
}

// Response is the structured outcome of RunAnalysis. Skipped runs are
// successful; Error is set only for failed runs.
type Response struct {
	Success    bool    `json:"success"`
	AnalysisID string  `json:"analysis_id,omitempty"`
	Result     *Result `json:"result,omitempty"`
	Skipped    bool    `json:"skipped,omitempty"`
	SkipReason string  `json:"skip_reason,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Orchestrator runs analyses.
type Orchestrator struct {
	deps     Deps
	settings Settings
}

// New creates an Orchestrator, filling optional dependencies with defaults.
func New(deps Deps, settings Settings) *Orchestrator {
	if deps.Catalog == nil {
		deps.Catalog = DefaultCatalog()
	}
	if deps.Messaging == nil {
		deps.Messaging = agent.NewMessagingAgent(agent.MessagingSettings{}, agent.NewKeywordMatcher(deps.Catalog.CancellationKeywords))
	}
	if deps.Diagnosis == nil {
		deps.Diagnosis = agent.NewDiagnosisAgent("", 0)
	}
	if deps.Weighter == nil {
		deps.Weighter = scorer.NewWeighter(scorer.DefaultScoringConfig())
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Cost == nil {
		deps.Cost = cost.NewCalculator(cost.DefaultRates())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps, settings: settings.withDefaults()}
}

// run carries the state of one analysis.
type run struct {
	req   Request
	log   *model.AnalysisLog
	now   time.Time
	zlog  *zap.Logger
	start time.Time

	// Set once the health score row is written; from then on the run counts
	// as completed even if alerting fails.
	done  *Result
	final model.LogUpdate
}

// RunAnalysis analyzes one client. It never panics and never returns a Go
// error; failures are reported in the Response and on the AnalysisLog.
func (o *Orchestrator) RunAnalysis(ctx context.Context, req Request) (resp Response) {
	if req.TriggeredBy == "" {
		req.TriggeredBy = model.TriggerManual
	}
	now := o.deps.Now().UTC()
	zlog := zap.L().With(zap.String("client_id", req.ClientID), zap.String("agency_id", req.AgencyID))

	log := &model.AnalysisLog{
		ClientID:  req.ClientID,
		AgencyID:  req.AgencyID,
		Status:    model.LogRunning,
		StartedAt: now,
	}
	if err := o.deps.Store.CreateAnalysisLog(ctx, log); err != nil {
		zlog.Error("analysis: create log failed", zap.Error(err))
		return Response{Error: eris.Wrap(err, "analysis: create log").Error()}
	}

	r := &run{
		req:   req,
		log:   log,
		now:   now,
		zlog:  zlog.With(zap.String("analysis_log_id", log.ID)),
		start: time.Now(),
	}

	defer func() {
		if p := recover(); p != nil {
			if r.done != nil {
				r.zlog.Error("analysis: panic after persistence", zap.Any("panic", p))
				o.finish(ctx, r, r.final)
				resp = Response{Success: true, AnalysisID: r.log.ID, Result: r.done}
				return
			}
			resp = o.fail(ctx, r, eris.Errorf("analysis: panic: %v", p))
		}
	}()

	return o.execute(ctx, r)
}

func (o *Orchestrator) execute(ctx context.Context, r *run) Response {
	// Lock check runs before anything else so a concurrent run is reported
	// as such even for clients still inside their observation period.
	other, err := o.deps.Store.FindRunningLog(ctx, r.req.ClientID, r.now.Add(-o.settings.LockWindow), r.log.ID)
	if err != nil {
		return o.fail(ctx, r, eris.Wrap(err, "analysis: lock check"))
	}
	if other != nil {
		r.zlog.Info("analysis: skipped, another run in progress", zap.String("running_log_id", other.ID))
		return o.skip(ctx, r, SkipAlreadyRunning)
	}

	client, err := o.deps.Store.GetClient(ctx, r.req.ClientID)
	if err != nil {
		return o.fail(ctx, r, eris.Wrapf(err, "analysis: load client %s", r.req.ClientID))
	}
	if r.req.AgencyID != "" && client.AgencyID != r.req.AgencyID {
		return o.fail(ctx, r, eris.Errorf("analysis: client %s does not belong to agency %s", client.ID, r.req.AgencyID))
	}

	if tenure := client.TenureDays(r.now); tenure < o.settings.ObservationDays {
		reason := fmt.Sprintf("observation period: %d of %d days", tenure, o.settings.ObservationDays)
		r.zlog.Info("analysis: skipped, client in observation period", zap.Int("tenure_days", tenure))
		return o.skip(ctx, r, reason)
	}

	creds, err := o.credentials(ctx, client.AgencyID)
	if err != nil {
		return o.fail(ctx, r, err)
	}

	// Data collection.
	subs, err := o.deps.Store.ListSurveySubmissions(ctx, client.ID, r.now.AddDate(0, 0, -o.settings.SurveyWindowDays))
	if err != nil {
		return o.fail(ctx, r, eris.Wrap(err, "analysis: list survey submissions"))
	}
	payments := o.deps.Payments.FetchPayments(ctx, *client, creds, r.now)
	msgs, msgSource := o.deps.Messages.Collect(ctx, client.MessagingChannelID, creds, r.now)
	r.zlog.Info("analysis: data collected",
		zap.Int("payments", len(payments)),
		zap.Int("surveys", len(subs)),
		zap.Int("messages", len(msgs)),
		zap.String("message_source", msgSource),
	)

	var completer llm.Completer
	if o.deps.LLM != nil {
		completer = o.deps.LLM.For(creds)
	}

	// Agent execution.
	var financial, messaging model.AgentResult
	var surveys agent.SurveyResults
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		defer recoverAgent(model.AgentFinancial, &err)
		financial = agent.ScoreFinancial(payments, r.now)
		return nil
	})
	g.Go(func() (err error) {
		defer recoverAgent("survey", &err)
		surveys = agent.ScoreSurveys(subs, r.now)
		return nil
	})
	g.Go(func() error {
		if msgSource == fetcher.SourceUnavailable {
			messaging = messagesUnavailable(msgSource)
			return nil
		}
		messaging = o.scoreMessaging(ctx, r, agent.MessagingInput{
			GroupID:         client.MessagingChannelID,
			Messages:        msgs,
			TeamIdentifiers: creds.TeamIdentifiers,
			Completer:       completer,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return o.fail(ctx, r, err)
	}
	results := []model.AgentResult{financial, messaging, surveys.Outcome, surveys.NPS}
	for _, res := range results {
		r.zlog.Info("analysis: agent finished",
			zap.String("agent", res.AgentName),
			zap.String("status", string(res.Status)),
			zap.Int64("duration_ms", res.DurationMs),
		)
	}

	// Score combination.
	pillars := scorer.Pillars{
		Financial: financial.Score,
		Proximity: messaging.Score,
		Outcome:   surveys.Outcome.Score,
		NPS:       surveys.NPS.Score,
	}
	total := o.deps.Weighter.Combine(pillars)
	risk := o.deps.Weighter.ChurnRisk(total)

	diag := o.diagnose(ctx, r, completer, agent.DiagnosisInput{
		Client:     *client,
		Now:        r.now,
		Pillars:    pillars,
		ScoreTotal: total,
		ChurnRisk:  risk,
		Results:    results,
	})

	tokens := diag.TokensUsed
	for _, res := range results {
		tokens += res.TokensUsed
	}

	// Persistence.
	hs := model.AnalysisRun{
		ClientID:         client.ID,
		AgencyID:         client.AgencyID,
		ScoreTotal:       total,
		ScoreFinancial:   pillars.Financial,
		ScoreProximity:   pillars.Proximity,
		ScoreOutcome:     pillars.Outcome,
		ScoreNPS:         pillars.NPS,
		ChurnRisk:        risk,
		Diagnosis:        diag.Text,
		ActionPlan:       diag.ActionPlan,
		Flags:            agent.UnionFlags(results),
		TriggeredBy:      r.req.TriggeredBy,
		TokensUsed:       tokens,
		EstimatedCostBRL: o.deps.Cost.EstimateBRL(tokens),
		CreatedAt:        r.now,
	}
	if err := o.deps.Store.CreateAnalysisRun(ctx, &hs); err != nil {
		return o.fail(ctx, r, eris.Wrap(err, "analysis: persist health score"))
	}
	if err := o.deps.Store.CreateActionPlanItems(ctx, hs.ID, client.ID, hs.ActionPlan); err != nil {
		return o.fail(ctx, r, eris.Wrap(err, "analysis: persist action plan"))
	}

	r.done = &Result{
		Run:               hs,
		Agents:            results,
		DiagnosisFallback: diag.Fallback,
		MessageSource:     msgSource,
		AlertsCreated:     []model.Alert{},
	}
	r.final = model.LogUpdate{
		Status:        model.LogCompleted,
		AgentsLog:     agentsSnapshot(results, diag, len(payments), len(subs), len(msgs), msgSource),
		HealthScoreID: &hs.ID,
		TokensUsed:    tokens,
	}

	r.done.AlertsCreated = o.raiseAlerts(ctx, r, client, hs.Flags)

	o.finish(ctx, r, r.final)
	r.zlog.Info("analysis: completed",
		zap.Int("score_total", total),
		zap.String("churn_risk", string(risk)),
		zap.Int("tokens_used", tokens),
		zap.Int("alerts_created", len(r.done.AlertsCreated)),
		zap.Int64("duration_ms", time.Since(r.start).Milliseconds()),
	)

	return Response{Success: true, AnalysisID: r.log.ID, Result: r.done}
}

// credentials loads the agency's credentials. An agency without a row runs
// with empty credentials.
func (o *Orchestrator) credentials(ctx context.Context, agencyID string) (*model.AgencyCredentials, error) {
	creds, err := o.deps.Store.GetAgencyCredentials(ctx, agencyID)
	if eris.Is(err, store.ErrNotFound) {
		return &model.AgencyCredentials{AgencyID: agencyID}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "analysis: load agency credentials")
	}
	return creds, nil
}

// scoreMessaging isolates the messaging agent: a panic becomes an error
// result for that pillar only.
func (o *Orchestrator) scoreMessaging(ctx context.Context, r *run, in agent.MessagingInput) (res model.AgentResult) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprintf("messaging agent panicked: %v", p)
			r.zlog.Error("analysis: messaging agent panicked", zap.Any("panic", p))
			res = model.AgentResult{
				AgentName:    model.AgentMessaging,
				Flags:        []string{},
				Details:      map[string]any{"error": msg},
				Status:       model.ExecError,
				ErrorMessage: msg,
				DurationMs:   time.Since(start).Milliseconds(),
			}
		}
	}()
	return o.deps.Messaging.Score(ctx, in)
}

// messagesUnavailable is the proximity result when the message source could
// not be read. It carries no score so the pillar drops out of the weighting
// instead of reading as silence.
func messagesUnavailable(source string) model.AgentResult {
	return model.AgentResult{
		AgentName:    model.AgentMessaging,
		Flags:        []string{},
		Details:      map[string]any{"reason": "messages unavailable", "source": source},
		Status:       model.ExecError,
		ErrorMessage: "messages unavailable",
	}
}

func recoverAgent(name string, err *error) {
	if p := recover(); p != nil {
		*err = eris.Errorf("analysis: %s agent panicked: %v", name, p)
	}
}

// diagnose never fails: without a completer, or on any error, it returns the
// deterministic fallback.
func (o *Orchestrator) diagnose(ctx context.Context, r *run, c llm.Completer, in agent.DiagnosisInput) agent.Diagnosis {
	if c == nil {
		return agent.FallbackDiagnosis(in.ScoreTotal, in.ChurnRisk)
	}
	diag, err := o.deps.Diagnosis.Diagnose(ctx, c, in)
	if err != nil || diag == nil {
		r.zlog.Warn("analysis: diagnosis failed, using fallback", zap.Error(err))
		fb := agent.FallbackDiagnosis(in.ScoreTotal, in.ChurnRisk)
		if diag != nil {
			fb.TokensUsed = diag.TokensUsed
		}
		return fb
	}
	return *diag
}

// raiseAlerts inserts one alert per mapped flag unless an unread alert of the
// same type exists, then notifies the sinks. Failures are logged only.
func (o *Orchestrator) raiseAlerts(ctx context.Context, r *run, client *model.ClientAccount, flags []string) []model.Alert {
	created := []model.Alert{}
	for _, flag := range o.deps.Catalog.MappedFlags(flags) {
		exists, err := o.deps.Store.HasUnreadAlert(ctx, client.ID, flag)
		if err != nil {
			r.zlog.Warn("analysis: alert dedup check failed", zap.String("type", flag), zap.Error(err))
			continue
		}
		if exists {
			continue
		}
		def, _ := o.deps.Catalog.Lookup(flag)
		alert := model.Alert{
			ClientID:  client.ID,
			AgencyID:  client.AgencyID,
			Type:      flag,
			Severity:  def.Severity,
			Message:   def.Message,
			CreatedAt: r.now,
		}
		if err := o.deps.Store.CreateAlert(ctx, &alert); err != nil {
			r.zlog.Warn("analysis: create alert failed", zap.String("type", flag), zap.Error(err))
			continue
		}
		created = append(created, alert)
	}

	if len(created) > 0 {
		nctx, cancel := context.WithTimeout(ctx, o.settings.NotifyTimeout)
		defer cancel()
		if err := o.deps.Notifier.Notify(nctx, created); err != nil {
			r.zlog.Warn("analysis: alert notification failed", zap.Int("alerts", len(created)), zap.Error(err))
		}
	}
	return created
}

func (o *Orchestrator) skip(ctx context.Context, r *run, reason string) Response {
	o.finish(ctx, r, model.LogUpdate{Status: model.LogSkipped, ErrorMessage: reason})
	return Response{Success: true, AnalysisID: r.log.ID, Skipped: true, SkipReason: reason}
}

func (o *Orchestrator) fail(ctx context.Context, r *run, err error) Response {
	r.zlog.Error("analysis: failed", zap.Error(err))
	o.finish(ctx, r, model.LogUpdate{Status: model.LogFailed, ErrorMessage: err.Error()})
	return Response{AnalysisID: r.log.ID, Error: err.Error()}
}

// finish writes the single end-of-run log update. It survives caller
// cancellation so abandoned runs are still closed out.
func (o *Orchestrator) finish(ctx context.Context, r *run, upd model.LogUpdate) {
	upd.FinishedAt = o.deps.Now().UTC()
	if err := o.deps.Store.FinishAnalysisLog(context.WithoutCancel(ctx), r.log.ID, upd); err != nil {
		r.zlog.Warn("analysis: finalize log failed", zap.String("status", string(upd.Status)), zap.Error(err))
	}
}

func agentsSnapshot(results []model.AgentResult, diag agent.Diagnosis, payments, surveys, messages int, msgSource string) map[string]any {
	snap := make(map[string]any, len(results)+2)
	for _, res := range results {
		entry := map[string]any{
			"status":      res.Status,
			"score":       res.Score,
			"flags":       res.Flags,
			"duration_ms": res.DurationMs,
			"tokens_used": res.TokensUsed,
			"details":     res.Details,
		}
		if res.ErrorMessage != "" {
			entry["error"] = res.ErrorMessage
		}
		snap[res.AgentName] = entry
	}
	snap[model.AgentDiagnosis] = map[string]any{
		"fallback":    diag.Fallback,
		"tokens_used": diag.TokensUsed,
	}
	snap["data"] = map[string]any{
		"payments":       payments,
		"surveys":        surveys,
		"messages":       messages,
		"message_source": msgSource,
	}
	return snap
}
