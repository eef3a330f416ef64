package model

import "time"

// Provider identifies a payment provider integration.
type Provider string

const (
	ProviderAsaas     Provider = "asaas"
	ProviderContaAzul Provider = "contaazul"
	ProviderStripe    Provider = "stripe"
)

// ClientAccount is an agency's customer whose health is being scored.
type ClientAccount struct {
	ID                 string              `json:"id"`
	AgencyID           string              `json:"agency_id"`
	Name               string              `json:"name"`
	Segment            string              `json:"segment"`
	ContractStart      time.Time           `json:"contract_start"`
	ContractType       string              `json:"contract_type"`
	ContractValue      float64             `json:"contract_value"`
	MessagingChannelID *string             `json:"messaging_channel_id,omitempty"`
	Integrations       []ClientIntegration `json:"integrations,omitempty"`
}

// TenureDays returns the number of whole days since the contract started.
func (c ClientAccount) TenureDays(now time.Time) int {
	if c.ContractStart.IsZero() {
		return 0
	}
	return int(now.Sub(c.ContractStart).Hours() / 24)
}

// ClientIntegration links a client to a customer record at a payment provider.
type ClientIntegration struct {
	Provider           Provider `json:"provider"`
	ExternalCustomerID string   `json:"external_customer_id,omitempty"`
	TaxID              string   `json:"tax_id,omitempty"` // CPF/CNPJ, may contain punctuation
}

// AgencyCredentials holds the per-agency keys used during a run. Read-only
// for the duration of a run.
type AgencyCredentials struct {
	AgencyID        string   `json:"agency_id"`
	LLMProvider     string   `json:"llm_provider,omitempty"`
	LLMKey          string   `json:"-"`
	AsaasKey        string   `json:"-"`
	ContaAzulToken  string   `json:"-"`
	StripeKey       string   `json:"-"`
	MessagingToken  string   `json:"-"`
	TeamIdentifiers []string `json:"team_identifiers,omitempty"`
}
