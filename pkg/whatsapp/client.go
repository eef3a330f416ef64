// Package whatsapp reads group messages from a WhatsApp gateway API.
package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/health-score/internal/resilience"
)

// Client reads messages of a group.
type Client interface {
	GroupMessages(ctx context.Context, groupID string, since time.Time, limit int) ([]Message, error)
}

// Message is a group message as returned by the gateway.
type Message struct {
	ID         string `json:"id"`
	Body       string `json:"body"`
	FromMe     bool   `json:"fromMe"`
	SenderName string `json:"senderName"`
	Sender     string `json:"sender"`
	Timestamp  int64  `json:"timestamp"`
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles requests to rps. Zero disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a gateway client for baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) GroupMessages(ctx context.Context, groupID string, since time.Time, limit int) ([]Message, error) {
	if c.baseURL == "" {
		return nil, eris.New("whatsapp: base url not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "whatsapp: rate limit")
		}
	}

	q := url.Values{}
	q.Set("since", strconv.FormatInt(since.Unix(), 10))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := c.baseURL + "/groups/" + url.PathEscape(groupID) + "/messages?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "whatsapp: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "whatsapp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "whatsapp: read response")
	}
	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("whatsapp: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var out messagesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "whatsapp: unmarshal response")
	}
	return out.Messages, nil
}
