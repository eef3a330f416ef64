package model

import "time"

// PaymentStatus is the shared four-state payment vocabulary.
type PaymentStatus string

const (
	PaymentPaid       PaymentStatus = "paid"
	PaymentPending    PaymentStatus = "pending"
	PaymentOverdue    PaymentStatus = "overdue"
	PaymentChargeback PaymentStatus = "chargeback"
)

// NormalizedPayment is a provider payment mapped into the shared shape.
type NormalizedPayment struct {
	ID             string        `json:"id"`
	Status         PaymentStatus `json:"status"`
	DueDate        time.Time     `json:"due_date"`
	PaymentDate    *time.Time    `json:"payment_date,omitempty"`
	GrossValue     float64       `json:"gross_value"`
	NetValue       float64       `json:"net_value"`
	SourceProvider Provider      `json:"source_provider"`
}
