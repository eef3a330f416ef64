package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupMessages(t *testing.T) {
	since := time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/120363@g.us/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		assert.Equal(t, "1744761600", r.URL.Query().Get("since"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[
			{"id":"m1","body":"Bom dia!","fromMe":true,"senderName":"Agência","sender":"5511000","timestamp":1746000000},
			{"id":"m2","body":"Oi, tudo bem?","fromMe":false,"senderName":"Maria","sender":"5511999","timestamp":1746000100}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wa-token", WithRateLimit(0))
	msgs, err := c.GroupMessages(context.Background(), "120363@g.us", since, 500)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].FromMe)
	assert.Equal(t, "Maria", msgs[1].SenderName)
	assert.Equal(t, int64(1746000100), msgs[1].Timestamp)
}

func TestGroupMessages_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "t", WithRateLimit(0)).GroupMessages(context.Background(), "g", time.Now(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	_, err = NewClient("", "t").GroupMessages(context.Background(), "g", time.Now(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url not configured")
}
