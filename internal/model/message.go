package model

import "time"

// ChatMessage is one message from a client's messaging group.
type ChatMessage struct {
	Content             string `json:"content"`
	SenderDisplayName   string `json:"sender_display_name"`
	SenderIdentifier    string `json:"sender_identifier,omitempty"`
	TimestampUnix       int64  `json:"timestamp_unix"`
	IsFromAgencyAccount bool   `json:"is_from_agency_account"`
}

// Time returns the message timestamp in UTC.
func (m ChatMessage) Time() time.Time {
	return time.Unix(m.TimestampUnix, 0).UTC()
}
