// Package stripe lists a customer's invoices through stripe-go.
package stripe

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/sells-group/health-score/internal/resilience"
)

// Client lists invoices of one Stripe customer.
type Client interface {
	ListInvoices(ctx context.Context, customerID string, from, to time.Time) ([]Invoice, error)
}

// Invoice is the subset of a Stripe invoice needed for scoring. Amounts are
// in the currency's minor unit.
type Invoice struct {
	ID         string
	Status     string
	Created    time.Time
	DueDate    *time.Time
	PaidAt     *time.Time
	Total      int64
	AmountPaid int64
	Currency   string
	Disputed   bool
}

// Option configures the client.
type Option func(*options)

type options struct {
	backendURL string
}

// WithBackendURL points the client at a different API host.
func WithBackendURL(u string) Option {
	return func(o *options) {
		o.backendURL = u
	}
}

type sdkClient struct {
	api *client.API
}

// NewClient creates a Stripe client for the given secret key.
func NewClient(key string, opts ...Option) Client {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	var backends *stripego.Backends
	if o.backendURL != "" {
		retries := int64(0)
		b := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
			URL:               stripego.String(o.backendURL),
			MaxNetworkRetries: &retries,
			LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
		})
		backends = &stripego.Backends{API: b, Connect: b, Uploads: b}
	}
	return &sdkClient{api: client.New(key, backends)}
}

func (c *sdkClient) ListInvoices(ctx context.Context, customerID string, from, to time.Time) ([]Invoice, error) {
	params := &stripego.InvoiceListParams{
		Customer: stripego.String(customerID),
		CreatedRange: &stripego.RangeQueryParams{
			GreaterThanOrEqual: from.Unix(),
			LesserThanOrEqual:  to.Unix(),
		},
	}
	params.Context = ctx
	params.AddExpand("data.charge")

	var out []Invoice
	it := c.api.Invoices.List(params)
	for it.Next() {
		out = append(out, fromSDKInvoice(it.Invoice()))
	}
	if err := it.Err(); err != nil {
		wrapped := eris.Wrap(err, "stripe: list invoices")
		var serr *stripego.Error
		if errors.As(err, &serr) && resilience.IsTransientHTTPStatus(serr.HTTPStatusCode) {
			return nil, resilience.NewTransientError(wrapped, serr.HTTPStatusCode)
		}
		return nil, wrapped
	}
	return out, nil
}

func fromSDKInvoice(inv *stripego.Invoice) Invoice {
	out := Invoice{
		ID:         inv.ID,
		Status:     string(inv.Status),
		Created:    time.Unix(inv.Created, 0).UTC(),
		Total:      inv.Total,
		AmountPaid: inv.AmountPaid,
		Currency:   string(inv.Currency),
	}
	if inv.DueDate > 0 {
		d := time.Unix(inv.DueDate, 0).UTC()
		out.DueDate = &d
	}
	if inv.StatusTransitions != nil && inv.StatusTransitions.PaidAt > 0 {
		p := time.Unix(inv.StatusTransitions.PaidAt, 0).UTC()
		out.PaidAt = &p
	}
	if inv.Charge != nil {
		out.Disputed = inv.Charge.Disputed
	}
	return out
}
