package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/internal/resilience"
	"github.com/sells-group/health-score/pkg/asaas"
	"github.com/sells-group/health-score/pkg/contaazul"
)

type fakeSource struct {
	provider model.Provider
	calls    atomic.Int32
	fetch    func(ctx context.Context) ([]model.NormalizedPayment, error)
}

func (f *fakeSource) Provider() model.Provider { return f.provider }

func (f *fakeSource) Fetch(ctx context.Context, _ model.ClientIntegration, _ *model.AgencyCredentials, _, _ time.Time) ([]model.NormalizedPayment, error) {
	f.calls.Add(1)
	return f.fetch(ctx)
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestFetchPayments_MergesAndDegrades(t *testing.T) {
	asaasSrc := &fakeSource{provider: model.ProviderAsaas, fetch: func(context.Context) ([]model.NormalizedPayment, error) {
		return []model.NormalizedPayment{
			{ID: "a2", Status: model.PaymentPaid, DueDate: refNow.AddDate(0, 0, -5), SourceProvider: model.ProviderAsaas},
			{ID: "a1", Status: model.PaymentOverdue, DueDate: refNow.AddDate(0, 0, -20), SourceProvider: model.ProviderAsaas},
		}, nil
	}}
	stripeSrc := &fakeSource{provider: model.ProviderStripe, fetch: func(context.Context) ([]model.NormalizedPayment, error) {
		return nil, errors.New("stripe: list invoices: invalid api key")
	}}
	caSrc := &fakeSource{provider: model.ProviderContaAzul, fetch: func(context.Context) ([]model.NormalizedPayment, error) {
		return []model.NormalizedPayment{
			{ID: "c1", Status: model.PaymentPending, DueDate: refNow.AddDate(0, 0, -10), SourceProvider: model.ProviderContaAzul},
		}, nil
	}}

	f := NewPaymentFetcher(60, time.Second, fastRetry(), asaasSrc, stripeSrc, caSrc)
	client := model.ClientAccount{ID: "c-1", Integrations: []model.ClientIntegration{
		{Provider: model.ProviderAsaas, ExternalCustomerID: "cus_1"},
		{Provider: model.ProviderStripe, ExternalCustomerID: "cus_2"},
		{Provider: model.ProviderContaAzul, TaxID: "123"},
		{Provider: "boleto-simples"},
	}}

	payments := f.FetchPayments(context.Background(), client, &model.AgencyCredentials{}, refNow)
	require.Len(t, payments, 3)
	assert.Equal(t, []string{"a1", "c1", "a2"}, []string{payments[0].ID, payments[1].ID, payments[2].ID})
	assert.Equal(t, int32(1), stripeSrc.calls.Load(), "permanent error is not retried")
}

func TestFetchPayments_RetriesTransient(t *testing.T) {
	src := &fakeSource{provider: model.ProviderAsaas}
	src.fetch = func(context.Context) ([]model.NormalizedPayment, error) {
		if src.calls.Load() == 1 {
			return nil, resilience.NewTransientError(errors.New("503"), 503)
		}
		return []model.NormalizedPayment{{ID: "a1"}}, nil
	}
	f := NewPaymentFetcher(60, time.Second, fastRetry(), src)
	client := model.ClientAccount{ID: "c-1", Integrations: []model.ClientIntegration{{Provider: model.ProviderAsaas}}}

	payments := f.FetchPayments(context.Background(), client, nil, refNow)
	assert.Len(t, payments, 1)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestFetchPayments_Timeout(t *testing.T) {
	src := &fakeSource{provider: model.ProviderAsaas, fetch: func(ctx context.Context) ([]model.NormalizedPayment, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	f := NewPaymentFetcher(60, 20*time.Millisecond, fastRetry(), src)
	client := model.ClientAccount{ID: "c-1", Integrations: []model.ClientIntegration{{Provider: model.ProviderAsaas}}}

	start := time.Now()
	payments := f.FetchPayments(context.Background(), client, nil, refNow)
	assert.Empty(t, payments)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchPayments_NoIntegrations(t *testing.T) {
	f := NewPaymentFetcher(60, time.Second, fastRetry())
	assert.Empty(t, f.FetchPayments(context.Background(), model.ClientAccount{ID: "c-1"}, nil, refNow))
}

func TestAsaasSource_MissingCredential(t *testing.T) {
	src := NewAsaasSource(func(string) asaas.Client { t.Fatal("client must not be built"); return nil })
	_, err := src.Fetch(context.Background(), model.ClientIntegration{ExternalCustomerID: "cus_1"}, &model.AgencyCredentials{}, refNow, refNow)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestAsaasSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cus_9", r.URL.Query().Get("customer"))
		assert.Equal(t, "2025-04-16", r.URL.Query().Get("dueDate[ge]"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hasMore": false,
			"data": []map[string]any{
				{"id": "pay_1", "status": "RECEIVED", "dueDate": "2025-05-10", "value": 100.0},
				{"id": "pay_2", "status": "MYSTERY", "dueDate": "2025-05-11", "value": 100.0},
			},
		})
	}))
	defer srv.Close()

	src := NewAsaasSource(func(key string) asaas.Client {
		assert.Equal(t, "asaas-key", key)
		return asaas.NewClient(key, asaas.WithBaseURL(srv.URL), asaas.WithRateLimit(0))
	})
	f := NewPaymentFetcher(60, time.Second, fastRetry(), src)
	client := model.ClientAccount{ID: "c-1", Integrations: []model.ClientIntegration{{Provider: model.ProviderAsaas, ExternalCustomerID: "cus_9"}}}

	payments := f.FetchPayments(context.Background(), client, &model.AgencyCredentials{AsaasKey: "asaas-key"}, refNow)
	require.Len(t, payments, 1)
	assert.Equal(t, "pay_1", payments[0].ID)
	assert.Equal(t, model.PaymentPaid, payments[0].Status)
}

func TestContaAzulSource_FiltersByTaxID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"itens": []map[string]any{
				{"id": "r1", "status": "ACQUITTED", "data_vencimento": "2025-05-01", "total": 500.0, "cliente": map[string]any{"documento": "12.345.678/0001-90"}},
				{"id": "r2", "status": "PENDING", "data_vencimento": "2025-06-01", "total": 500.0, "cliente": map[string]any{"documento": "12345678000190"}},
				{"id": "r3", "status": "ACQUITTED", "data_vencimento": "2025-05-01", "total": 900.0, "cliente": map[string]any{"documento": "98.765.432/0001-10"}},
			},
			"itens_totais": 3,
		})
	}))
	defer srv.Close()

	src := NewContaAzulSource(func(token string) contaazul.Client {
		return contaazul.NewClient(token, contaazul.WithBaseURL(srv.URL), contaazul.WithRateLimit(0))
	})
	out, err := src.Fetch(context.Background(),
		model.ClientIntegration{Provider: model.ProviderContaAzul, TaxID: "12345678000190"},
		&model.AgencyCredentials{ContaAzulToken: "tok"},
		refNow.AddDate(0, 0, -60), refNow)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "r1", out[0].ID)
	assert.Equal(t, model.PaymentOverdue, out[1].Status, "pending past due is overdue")
}

func TestContaAzulSource_NoTaxID(t *testing.T) {
	src := NewContaAzulSource(func(string) contaazul.Client { return nil })
	_, err := src.Fetch(context.Background(), model.ClientIntegration{TaxID: "--"}, &model.AgencyCredentials{ContaAzulToken: "tok"}, refNow, refNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tax id")
}

func TestStripeSource_MissingCredential(t *testing.T) {
	src := NewStripeSource(nil)
	_, err := src.Fetch(context.Background(), model.ClientIntegration{ExternalCustomerID: "cus"}, nil, refNow, refNow)
	assert.ErrorIs(t, err, ErrMissingCredential)
}
