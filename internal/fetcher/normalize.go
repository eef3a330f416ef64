package fetcher

import (
	"strings"
	"time"

	"github.com/sells-group/health-score/internal/model"
	"github.com/sells-group/health-score/pkg/asaas"
	"github.com/sells-group/health-score/pkg/contaazul"
	"github.com/sells-group/health-score/pkg/stripe"
	"github.com/sells-group/health-score/pkg/whatsapp"
)

const dateLayout = "2006-01-02"

var asaasStatuses = map[string]model.PaymentStatus{
	"RECEIVED":                     model.PaymentPaid,
	"CONFIRMED":                    model.PaymentPaid,
	"RECEIVED_IN_CASH":             model.PaymentPaid,
	"DUNNING_RECEIVED":             model.PaymentPaid,
	"PENDING":                      model.PaymentPending,
	"AWAITING_RISK_ANALYSIS":       model.PaymentPending,
	"OVERDUE":                      model.PaymentOverdue,
	"DUNNING_REQUESTED":            model.PaymentOverdue,
	"REFUNDED":                     model.PaymentChargeback,
	"REFUND_REQUESTED":             model.PaymentChargeback,
	"CHARGEBACK_REQUESTED":         model.PaymentChargeback,
	"CHARGEBACK_DISPUTE":           model.PaymentChargeback,
	"AWAITING_CHARGEBACK_REVERSAL": model.PaymentChargeback,
}

var contaAzulStatuses = map[string]model.PaymentStatus{
	"ACQUITTED":           model.PaymentPaid,
	"PAID":                model.PaymentPaid,
	"PENDING":             model.PaymentPending,
	"OPEN":                model.PaymentPending,
	"OVERDUE":             model.PaymentOverdue,
	"LATE":                model.PaymentOverdue,
	"CANCELED_CHARGEBACK": model.PaymentChargeback,
	"CHARGEBACK":          model.PaymentChargeback,
}

// NormalizeAsaas maps an Asaas payment. ok is false for unknown statuses
// and unparseable due dates.
func NormalizeAsaas(p asaas.Payment) (model.NormalizedPayment, bool) {
	status, ok := asaasStatuses[strings.ToUpper(p.Status)]
	if !ok {
		return model.NormalizedPayment{}, false
	}
	due, ok := parseDate(p.DueDate)
	if !ok {
		return model.NormalizedPayment{}, false
	}
	return model.NormalizedPayment{
		ID:             p.ID,
		Status:         status,
		DueDate:        due,
		PaymentDate:    parseDatePtr(p.PaymentDate),
		GrossValue:     p.Value,
		NetValue:       netOrGross(p.NetValue, p.Value),
		SourceProvider: model.ProviderAsaas,
	}, true
}

// NormalizeContaAzul maps a Conta Azul receivable. A pending receivable
// whose due date is before now is reported as overdue.
func NormalizeContaAzul(r contaazul.Receivable, now time.Time) (model.NormalizedPayment, bool) {
	status, ok := contaAzulStatuses[strings.ToUpper(r.Status)]
	if !ok {
		return model.NormalizedPayment{}, false
	}
	due, ok := parseDate(r.DueDate)
	if !ok {
		return model.NormalizedPayment{}, false
	}
	if status == model.PaymentPending && due.Before(dayStart(now)) {
		status = model.PaymentOverdue
	}
	return model.NormalizedPayment{
		ID:             r.ID,
		Status:         status,
		DueDate:        due,
		PaymentDate:    parseDatePtr(r.PaymentDate),
		GrossValue:     r.Total,
		NetValue:       netOrGross(r.NetValue, r.Total),
		SourceProvider: model.ProviderContaAzul,
	}, true
}

// NormalizeStripe maps a Stripe invoice. Drafts, voids and unknown statuses
// are skipped. A disputed charge takes precedence over the invoice status.
func NormalizeStripe(inv stripe.Invoice, now time.Time) (model.NormalizedPayment, bool) {
	due := inv.Created
	if inv.DueDate != nil {
		due = *inv.DueDate
	}

	var status model.PaymentStatus
	switch {
	case inv.Status == "draft" || inv.Status == "void":
		return model.NormalizedPayment{}, false
	case inv.Disputed:
		status = model.PaymentChargeback
	case inv.Status == "paid":
		status = model.PaymentPaid
	case inv.Status == "uncollectible":
		status = model.PaymentOverdue
	case inv.Status == "open":
		status = model.PaymentPending
		if due.Before(dayStart(now)) {
			status = model.PaymentOverdue
		}
	default:
		return model.NormalizedPayment{}, false
	}

	gross := minorToMajor(inv.Total)
	return model.NormalizedPayment{
		ID:             inv.ID,
		Status:         status,
		DueDate:        dayStart(due),
		PaymentDate:    inv.PaidAt,
		GrossValue:     gross,
		NetValue:       gross,
		SourceProvider: model.ProviderStripe,
	}, true
}

// NormalizeWhatsApp maps a gateway message into a ChatMessage.
func NormalizeWhatsApp(m whatsapp.Message) model.ChatMessage {
	return model.ChatMessage{
		Content:             m.Body,
		SenderDisplayName:   m.SenderName,
		SenderIdentifier:    m.Sender,
		TimestampUnix:       m.Timestamp,
		IsFromAgencyAccount: m.FromMe,
	}
}

// NormalizeTaxID keeps only the digits of a CPF/CNPJ.
func NormalizeTaxID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseDate(s string) (time.Time, bool) {
	if len(s) >= len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func parseDatePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, ok := parseDate(*s)
	if !ok {
		return nil
	}
	return &t
}

func netOrGross(net *float64, gross float64) float64 {
	if net == nil {
		return gross
	}
	return *net
}

func minorToMajor(v int64) float64 {
	return float64(v) / 100
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
