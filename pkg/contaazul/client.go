// Package contaazul is a minimal client for the Conta Azul receivables API.
// The API has no customer filter, so callers filter receivables by the
// customer's document.
package contaazul

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

const (
	defaultBaseURL  = "https://api-v2.contaazul.com/v1"
	defaultPageSize = 100
	receivablesPath = "/financeiro/eventos-financeiros/contas-a-receber/buscar"
	dateLayout      = "2006-01-02"
)

// Client lists an agency's receivables.
type Client interface {
	ListReceivables(ctx context.Context, from, to time.Time) ([]Receivable, error)
}

// Receivable is one installment receivable.
type Receivable struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"`
	DueDate     string   `json:"data_vencimento"`
	PaymentDate *string  `json:"data_pagamento"`
	Total       float64  `json:"total"`
	NetValue    *float64 `json:"valor_liquido"`
	Customer    Customer `json:"cliente"`
}

// Customer identifies who owes a receivable.
type Customer struct {
	ID       string `json:"id"`
	Name     string `json:"nome"`
	Document string `json:"documento"`
}

type listResponse struct {
	Items      []Receivable `json:"itens"`
	TotalItems int          `json:"itens_totais"`
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

// WithPageSize overrides the page size used when listing.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

type httpClient struct {
	token    string
	baseURL  string
	pageSize int
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a Conta Azul client using an OAuth bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:    token,
		baseURL:  defaultBaseURL,
		pageSize: defaultPageSize,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(2, 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ListReceivables(ctx context.Context, from, to time.Time) ([]Receivable, error) {
	var all []Receivable
	for page := 1; ; page++ {
		resp, err := c.listPage(ctx, from, to, page)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Items...)
		if len(resp.Items) < c.pageSize || (resp.TotalItems > 0 && len(all) >= resp.TotalItems) {
			return all, nil
		}
	}
}

func (c *httpClient) listPage(ctx context.Context, from, to time.Time, page int) (*listResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "contaazul: rate limit")
		}
	}

	q := url.Values{}
	q.Set("data_vencimento_de", from.Format(dateLayout))
	q.Set("data_vencimento_ate", to.Format(dateLayout))
	q.Set("pagina", strconv.Itoa(page))
	q.Set("tamanho_pagina", strconv.Itoa(c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+receivablesPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "contaazul: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "contaazul: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "contaazul: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("contaazul: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var out listResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "contaazul: unmarshal response")
	}
	return &out, nil
}
