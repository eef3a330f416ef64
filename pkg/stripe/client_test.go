package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-score/internal/resilience"
)

func TestListInvoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoices", r.URL.Path)
		assert.Equal(t, "cus_abc", r.URL.Query().Get("customer"))
		assert.NotEmpty(t, r.URL.Query().Get("created[gte]"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object":   "list",
			"url":      "/v1/invoices",
			"has_more": false,
			"data": []map[string]any{
				{
					"id":                 "in_paid",
					"object":             "invoice",
					"status":             "paid",
					"created":            1746057600,
					"due_date":           1746662400,
					"total":              250000,
					"amount_paid":        250000,
					"currency":           "brl",
					"status_transitions": map[string]any{"paid_at": 1746500000},
					"charge":             map[string]any{"id": "ch_1", "object": "charge", "disputed": false},
				},
				{
					"id":       "in_disputed",
					"object":   "invoice",
					"status":   "paid",
					"created":  1747000000,
					"total":    100000,
					"currency": "brl",
					"charge":   map[string]any{"id": "ch_2", "object": "charge", "disputed": true},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("sk_test_123", WithBackendURL(srv.URL))
	from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	invs, err := c.ListInvoices(context.Background(), "cus_abc", from, from.AddDate(0, 2, 0))
	require.NoError(t, err)
	require.Len(t, invs, 2)

	assert.Equal(t, "in_paid", invs[0].ID)
	assert.Equal(t, "paid", invs[0].Status)
	require.NotNil(t, invs[0].DueDate)
	assert.Equal(t, int64(1746662400), invs[0].DueDate.Unix())
	require.NotNil(t, invs[0].PaidAt)
	assert.Equal(t, int64(250000), invs[0].Total)
	assert.False(t, invs[0].Disputed)

	assert.Nil(t, invs[1].DueDate)
	assert.True(t, invs[1].Disputed)
}

func TestListInvoices_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"unavailable"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("sk_test_123", WithBackendURL(srv.URL)).ListInvoices(context.Background(), "cus_abc", time.Now().AddDate(0, -2, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe: list invoices")
	assert.True(t, resilience.IsTransient(err))
}
