package model

import "time"

// Severity grades an alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alert is raised on the first unread occurrence of a mapped flag.
type Alert struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	AgencyID  string    `json:"agency_id"`
	Type      string    `json:"type"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
