// Package asaas is a minimal client for the Asaas payments API.
package asaas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/health-score/internal/resilience"
)

const (
	defaultBaseURL  = "https://api.asaas.com/v3"
	defaultPageSize = 100
	dateLayout      = "2006-01-02"
)

// Client lists payments of one Asaas customer.
type Client interface {
	ListPayments(ctx context.Context, customerID string, from, to time.Time) ([]Payment, error)
}

// Payment is a payment record as returned by GET /payments.
type Payment struct {
	ID          string   `json:"id"`
	Customer    string   `json:"customer"`
	Status      string   `json:"status"`
	DueDate     string   `json:"dueDate"`
	PaymentDate *string  `json:"paymentDate"`
	Value       float64  `json:"value"`
	NetValue    *float64 `json:"netValue"`
	BillingType string   `json:"billingType,omitempty"`
}

type listResponse struct {
	HasMore    bool      `json:"hasMore"`
	TotalCount int       `json:"totalCount"`
	Offset     int       `json:"offset"`
	Data       []Payment `json:"data"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

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
	apiKey   string
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates an Asaas client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		pageSize: defaultPageSize,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ListPayments(ctx context.Context, customerID string, from, to time.Time) ([]Payment, error) {
	var all []Payment
	offset := 0
	for {
		page, err := c.listPage(ctx, customerID, from, to, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		if !page.HasMore || len(page.Data) == 0 {
			return all, nil
		}
		offset += len(page.Data)
	}
}

func (c *httpClient) listPage(ctx context.Context, customerID string, from, to time.Time, offset int) (*listResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "asaas: rate limit")
		}
	}

	q := url.Values{}
	q.Set("customer", customerID)
	q.Set("dueDate[ge]", from.Format(dateLayout))
	q.Set("dueDate[le]", to.Format(dateLayout))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "asaas: create request")
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "asaas: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "asaas: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("asaas: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, eris.Wrap(err, "asaas: unmarshal response")
	}
	return &page, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return fmt.Sprintf("%s...", b[:n])
}
