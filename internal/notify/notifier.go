// Package notify fans newly created alerts out to external sinks. Delivery is
// best-effort: callers log failures and never fail an analysis over them.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/health-score/internal/model"
)

// Notifier delivers alerts to an external sink.
type Notifier interface {
	Notify(ctx context.Context, alerts []model.Alert) error
	Close() error
}

// Event is the wire payload for one alert.
type Event struct {
	AlertID   string         `json:"alert_id"`
	ClientID  string         `json:"client_id"`
	AgencyID  string         `json:"agency_id"`
	Type      string         `json:"type"`
	Severity  model.Severity `json:"severity"`
	Message   string         `json:"message"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewEvent builds the wire payload for an alert.
func NewEvent(a model.Alert) Event {
	return Event{
		AlertID:   a.ID,
		ClientID:  a.ClientID,
		AgencyID:  a.AgencyID,
		Type:      a.Type,
		Severity:  a.Severity,
		Message:   a.Message,
		CreatedAt: a.CreatedAt,
	}
}

// Nop discards alerts.
type Nop struct{}

func (Nop) Notify(context.Context, []model.Alert) error { return nil }
func (Nop) Close() error { return nil }

// Multi delivers to every sink and joins their errors.
type Multi []Notifier

// NewMulti drops nil sinks. It returns Nop when none remain.
func NewMulti(sinks ...Notifier) Notifier {
	var m Multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}

func (m Multi) Notify(ctx context.Context, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if err := n.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
