package analysis

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/health-score/internal/agent"
	"github.com/sells-group/health-score/internal/llm"
	"github.com/sells-group/health-score/internal/model"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateAnalysisLog(ctx context.Context, log *model.AnalysisLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *mockStore) FindRunningLog(ctx context.Context, clientID string, since time.Time, excludeID string) (*model.AnalysisLog, error) {
	args := m.Called(ctx, clientID, since, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisLog), args.Error(1)
}

func (m *mockStore) FinishAnalysisLog(ctx context.Context, id string, upd model.LogUpdate) error {
	args := m.Called(ctx, id, upd)
	return args.Error(0)
}

func (m *mockStore) GetClient(ctx context.Context, clientID string) (*model.ClientAccount, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClientAccount), args.Error(1)
}

func (m *mockStore) GetAgencyCredentials(ctx context.Context, agencyID string) (*model.AgencyCredentials, error) {
	args := m.Called(ctx, agencyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AgencyCredentials), args.Error(1)
}

func (m *mockStore) ListSurveySubmissions(ctx context.Context, clientID string, since time.Time) ([]model.SurveySubmission, error) {
	args := m.Called(ctx, clientID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SurveySubmission), args.Error(1)
}

func (m *mockStore) CreateAnalysisRun(ctx context.Context, run *model.AnalysisRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockStore) CreateActionPlanItems(ctx context.Context, runID, clientID string, steps []string) error {
	args := m.Called(ctx, runID, clientID, steps)
	return args.Error(0)
}

func (m *mockStore) HasUnreadAlert(ctx context.Context, clientID, alertType string) (bool, error) {
	args := m.Called(ctx, clientID, alertType)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// --- Fetcher Mocks ---

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) FetchPayments(ctx context.Context, client model.ClientAccount, creds *model.AgencyCredentials, now time.Time) []model.NormalizedPayment {
	args := m.Called(ctx, client, creds, now)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.NormalizedPayment)
}

type mockMessages struct {
	mock.Mock
}

func (m *mockMessages) Collect(ctx context.Context, groupID *string, creds *model.AgencyCredentials, now time.Time) ([]model.ChatMessage, string) {
	args := m.Called(ctx, groupID, creds, now)
	if args.Get(0) == nil {
		return nil, args.String(1)
	}
	return args.Get(0).([]model.ChatMessage), args.String(1)
}

// --- Agent Mocks ---

type mockCompleters struct {
	mock.Mock
}

func (m *mockCompleters) For(creds *model.AgencyCredentials) llm.Completer {
	args := m.Called(creds)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(llm.Completer)
}

type mockDiagnoser struct {
	mock.Mock
}

func (m *mockDiagnoser) Diagnose(ctx context.Context, c llm.Completer, in agent.DiagnosisInput) (*agent.Diagnosis, error) {
	args := m.Called(ctx, c, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agent.Diagnosis), args.Error(1)
}

type stubCompleter struct{}

func (stubCompleter) Complete(context.Context, llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: "{}"}, nil
}

// panickingScorer stands in for a messaging agent that crashes.
type panickingScorer struct{}

func (panickingScorer) Score(context.Context, agent.MessagingInput) model.AgentResult {
	panic("boom")
}

type fixedScorer struct {
	result model.AgentResult
}

func (f fixedScorer) Score(context.Context, agent.MessagingInput) model.AgentResult {
	return f.result
}

// recordingNotifier captures notified alerts.
type recordingNotifier struct {
	alerts []model.Alert
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, alerts []model.Alert) error {
	r.alerts = append(r.alerts, alerts...)
	return r.err
}

func (r *recordingNotifier) Close() error { return nil }

// panickingNotifier panics on every delivery.
type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, []model.Alert) error { panic("sink exploded") }

func (panickingNotifier) Close() error { return nil }
