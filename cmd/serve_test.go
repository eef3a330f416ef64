package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-score/internal/analysis"
	"github.com/sells-group/health-score/internal/model"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func postAnalysis(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyses", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	h := newRouter(&fakeRunner{}, fakePinger{}, []string{"*"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthEndpoint_StoreDown(t *testing.T) {
	h := newRouter(&fakeRunner{}, fakePinger{err: errors.New("connection refused")}, []string{"*"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAnalysesEndpoint_Success(t *testing.T) {
	runner := &fakeRunner{respond: func(req analysis.Request) analysis.Response {
		return analysis.Response{Success: true, AnalysisID: "log-1"}
	}}
	h := newRouter(runner, nil, []string{"*"})

	rr := postAnalysis(t, h, `{"clientId":"client-1","agencyId":"agency-1"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp analysis.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "log-1", resp.AnalysisID)

	require.Len(t, runner.requests, 1)
	assert.Equal(t, analysis.Request{ClientID: "client-1", AgencyID: "agency-1", TriggeredBy: model.TriggerManual}, runner.requests[0])
}

func TestAnalysesEndpoint_Skipped(t *testing.T) {
	runner := &fakeRunner{respond: func(analysis.Request) analysis.Response {
		return analysis.Response{Success: true, Skipped: true, SkipReason: analysis.SkipAlreadyRunning}
	}}
	h := newRouter(runner, nil, []string{"*"})

	rr := postAnalysis(t, h, `{"clientId":"client-1"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"skipped":true`)
}

func TestAnalysesEndpoint_Failure(t *testing.T) {
	runner := &fakeRunner{respond: func(analysis.Request) analysis.Response {
		return analysis.Response{AnalysisID: "log-2", Error: "analysis: load client client-1: store: not found"}
	}}
	h := newRouter(runner, nil, []string{"*"})

	rr := postAnalysis(t, h, `{"clientId":"client-1"}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "not found")
}

func TestAnalysesEndpoint_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", "not json", "invalid request body"},
		{"missing client", `{"agencyId":"agency-1"}`, "clientId is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			rr := postAnalysis(t, newRouter(runner, nil, []string{"*"}), tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
			assert.Empty(t, runner.requests)
		})
	}
}

func TestAnalysesEndpoint_CORSPreflight(t *testing.T) {
	h := newRouter(&fakeRunner{}, nil, []string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/analyses", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	h := newRouter(&fakeRunner{}, nil, []string{"*"})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/analyses", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
