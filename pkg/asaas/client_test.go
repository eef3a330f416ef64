package asaas

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

var (
	from = time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
)

func TestListPayments_Paginates(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("access_token"))
		assert.Equal(t, "cus_001", r.URL.Query().Get("customer"))
		assert.Equal(t, "2025-04-16", r.URL.Query().Get("dueDate[ge]"))
		assert.Equal(t, "2025-06-15", r.URL.Query().Get("dueDate[le]"))
		offsets = append(offsets, r.URL.Query().Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "0" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"hasMore": true,
				"data": []map[string]any{
					{"id": "pay_1", "customer": "cus_001", "status": "RECEIVED", "dueDate": "2025-05-10", "paymentDate": "2025-05-09", "value": 1500.0, "netValue": 1455.0},
					{"id": "pay_2", "customer": "cus_001", "status": "OVERDUE", "dueDate": "2025-06-10", "value": 1500.0},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hasMore": false,
			"data": []map[string]any{
				{"id": "pay_3", "customer": "cus_001", "status": "PENDING", "dueDate": "2025-06-20", "value": 1500.0},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("key-123", WithBaseURL(srv.URL), WithRateLimit(0))
	payments, err := c.ListPayments(context.Background(), "cus_001", from, to)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.Equal(t, []string{"0", "2"}, offsets)

	assert.Equal(t, "pay_1", payments[0].ID)
	require.NotNil(t, payments[0].PaymentDate)
	assert.Equal(t, "2025-05-09", *payments[0].PaymentDate)
	require.NotNil(t, payments[0].NetValue)
	assert.Equal(t, 1455.0, *payments[0].NetValue)
	assert.Nil(t, payments[1].NetValue)
	assert.Nil(t, payments[1].PaymentDate)
}

func TestListPayments_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       string
		wantTransient bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errors":[{"code":"invalid_access_token"}]}`, "unexpected status 401", false},
		{"rate limited", http.StatusTooManyRequests, `{}`, "unexpected status 429", true},
		{"server error", http.StatusBadGateway, `oops`, "unexpected status 502", true},
		{"malformed", http.StatusOK, `{not json`, "unmarshal response", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient("key", WithBaseURL(srv.URL), WithRateLimit(0))
			_, err := c.ListPayments(context.Background(), "cus_001", from, to)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
		})
	}
}

func TestListPayments_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("key", WithBaseURL("http://127.0.0.1:1"), WithRateLimit(1))
	_, err := c.ListPayments(ctx, "cus_001", from, to)
	require.Error(t, err)
}
