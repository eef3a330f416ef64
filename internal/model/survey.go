package model

import "time"

// SurveySubmission is one satisfaction-form response from a client.
type SurveySubmission struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"client_id,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at"`
	NPSScore     int       `json:"nps_score"`     // 0-10
	OutcomeScore int       `json:"outcome_score"` // 0-10
	Comment      *string   `json:"comment,omitempty"`
}
