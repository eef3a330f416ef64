// Package fetcher collects a client's payments and chat messages from the
// agency's providers and normalizes them into the shared model types.
package fetcher

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/resilience"
	"github.com/sells-group/health-score/pkg/asaas"
	"github.com/sells-group/health-score/pkg/contaazul"
	"github.com/sells-group/health-score/pkg/stripe"
)

// ErrMissingCredential is returned by a source when the agency has no
// credential for its provider.
var ErrMissingCredential = eris.New("fetcher: missing provider credential")

// PaymentSource fetches normalized payments of one client integration from
// one provider.
type PaymentSource interface {
	Provider() model.Provider
	Fetch(ctx context.Context, integ model.ClientIntegration, creds *model.AgencyCredentials, from, to time.Time) ([]model.NormalizedPayment, error)
}

// AsaasSource reads payments by Asaas customer id.
type AsaasSource struct {
	newClient func(apiKey string) asaas.Client
}

// NewAsaasSource creates an Asaas payment source.
func NewAsaasSource(newClient func(apiKey string) asaas.Client) *AsaasSource {
	return &AsaasSource{newClient: newClient}
}

// Provider implements PaymentSource.
func (s *AsaasSource) Provider() model.Provider { return model.ProviderAsaas }

// Fetch implements PaymentSource.
func (s *AsaasSource) Fetch(ctx context.Context, integ model.ClientIntegration, creds *model.AgencyCredentials, from, to time.Time) ([]model.NormalizedPayment, error) {
	if creds == nil || creds.AsaasKey == "" {
		return nil, ErrMissingCredential
	}
	if integ.ExternalCustomerID == "" {
		return nil, eris.New("fetcher: asaas integration has no customer id")
	}
	raw, err := s.newClient(creds.AsaasKey).ListPayments(ctx, integ.ExternalCustomerID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]model.NormalizedPayment, 0, len(raw))
	for _, p := range raw {
		if np, ok := NormalizeAsaas(p); ok {
			out = append(out, np)
		}
	}
	return out, nil
}

// ContaAzulSource reads the agency's receivables and keeps those whose
// customer document matches the integration tax id.
type ContaAzulSource struct {
	newClient func(token string) contaazul.Client
}

// NewContaAzulSource creates a Conta Azul payment source.
func NewContaAzulSource(newClient func(token string) contaazul.Client) *ContaAzulSource {
	return &ContaAzulSource{newClient: newClient}
}

// Provider implements PaymentSource.
func (s *ContaAzulSource) Provider() model.Provider { return model.ProviderContaAzul }

// Fetch implements PaymentSource.
func (s *ContaAzulSource) Fetch(ctx context.Context, integ model.ClientIntegration, creds *model.AgencyCredentials, from, to time.Time) ([]model.NormalizedPayment, error) {
	if creds == nil || creds.ContaAzulToken == "" {
		return nil, ErrMissingCredential
	}
	taxID := NormalizeTaxID(integ.TaxID)
	if taxID == "" {
		return nil, eris.New("fetcher: contaazul integration has no tax id")
	}
	raw, err := s.newClient(creds.ContaAzulToken).ListReceivables(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var out []model.NormalizedPayment
	for _, r := range raw {
		if NormalizeTaxID(r.Customer.Document) != taxID {
			continue
		}
		if np, ok := NormalizeContaAzul(r, to); ok {
			out = append(out, np)
		}
	}
	return out, nil
}

// StripeSource reads invoices by Stripe customer id.
type StripeSource struct {
	newClient func(key string) stripe.Client
}

// NewStripeSource creates a Stripe payment source.
func NewStripeSource(newClient func(key string) stripe.Client) *StripeSource {
	return &StripeSource{newClient: newClient}
}

// Provider implements PaymentSource.
func (s *StripeSource) Provider() model.Provider { return model.ProviderStripe }

// Fetch implements PaymentSource.
func (s *StripeSource) Fetch(ctx context.Context, integ model.ClientIntegration, creds *model.AgencyCredentials, from, to time.Time) ([]model.NormalizedPayment, error) {
	if creds == nil || creds.StripeKey == "" {
		return nil, ErrMissingCredential
	}
	if integ.ExternalCustomerID == "" {
		return nil, eris.New("fetcher: stripe integration has no customer id")
	}
	raw, err := s.newClient(creds.StripeKey).ListInvoices(ctx, integ.ExternalCustomerID, from, to)
	if err != nil {
		return nil, err
	}
	var out []model.NormalizedPayment
	for _, inv := range raw {
		if np, ok := NormalizeStripe(inv, to); ok {
			out = append(out, np)
		}
	}
	return out, nil
}

// PaymentFetcher merges payments from every integration of a client.
type PaymentFetcher struct {
	sources    map[model.Provider]PaymentSource
	windowDays int
	timeout    time.Duration
	retry      resilience.RetryConfig
}

// NewPaymentFetcher creates a fetcher over the given sources. Each provider
// call is bounded by timeout and retried on transient errors.
func NewPaymentFetcher(windowDays int, timeout time.Duration, retry resilience.RetryConfig, sources ...PaymentSource) *PaymentFetcher {
	m := make(map[model.Provider]PaymentSource, len(sources))
	for _, s := range sources {
		m[s.Provider()] = s
	}
	if windowDays <= 0 {
		windowDays = 60
	}
	return &PaymentFetcher{sources: m, windowDays: windowDays, timeout: timeout, retry: retry}
}

// FetchPayments returns the client's payments of the last window days,
// sorted by due date. A failing provider contributes no payments; this
// method never fails.
func (f *PaymentFetcher) FetchPayments(ctx context.Context, client model.ClientAccount, creds *model.AgencyCredentials, now time.Time) []model.NormalizedPayment {
	from := now.AddDate(0, 0, -f.windowDays)
	perIntegration := make([][]model.NormalizedPayment, len(client.Integrations))

	var g errgroup.Group
	for i, integ := range client.Integrations {
		g.Go(func() error {
			log := zap.L().With(
				zap.String("client_id", client.ID),
				zap.String("provider", string(integ.Provider)),
			)
			src, ok := f.sources[integ.Provider]
			if !ok {
				log.Warn("fetcher: no payment source for provider")
				return nil
			}

			start := time.Now()
			payments, err := f.fetchOne(ctx, src, integ, creds, from, now)
			if err != nil {
				log.Warn("fetcher: provider unavailable, continuing without its payments",
					zap.String("error_type", resilience.ClassifyError(err)),
					zap.Error(err),
				)
				return nil
			}
			log.Debug("fetcher: payments fetched",
				zap.Int("count", len(payments)),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
			perIntegration[i] = payments
			return nil
		})
	}
	_ = g.Wait()

	var merged []model.NormalizedPayment
	for _, ps := range perIntegration {
		merged = append(merged, ps...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DueDate.Before(merged[j].DueDate)
	})
	return merged
}

func (f *PaymentFetcher) fetchOne(ctx context.Context, src PaymentSource, integ model.ClientIntegration, creds *model.AgencyCredentials, from, to time.Time) ([]model.NormalizedPayment, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	retry := f.retry
	retry.ShouldRetry = func(err error) bool {
		return !eris.Is(err, ErrMissingCredential) && resilience.IsTransient(err)
	}
	return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]model.NormalizedPayment, error) {
		return src.Fetch(ctx, integ, creds, from, to)
	})
}
