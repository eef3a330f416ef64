package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/health-score/internal/model"
)

// WebhookNotifier posts each alert as JSON to a URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhook creates a WebhookNotifier. A nil client gets a 10s timeout.
func NewWebhook(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookNotifier{url: url, client: client}
}

// Notify sends every alert and reports the last failure; one bad delivery does
// not stop the rest.
func (w *WebhookNotifier) Notify(ctx context.Context, alerts []model.Alert) error {
	var lastErr error
	sent := 0
	for _, a := range alerts {
		if err := w.send(ctx, a); err != nil {
			zap.L().Warn("notify: webhook delivery failed",
				zap.String("client_id", a.ClientID),
				zap.String("type", a.Type),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		sent++
	}
	if lastErr != nil {
		return eris.Wrapf(lastErr, "notify: webhook delivered %d of %d alerts", sent, len(alerts))
	}
	return nil
}

func (w *WebhookNotifier) send(ctx context.Context, a model.Alert) error {
	payload, err := json.Marshal(NewEvent(a))
	if err != nil {
		return eris.Wrap(err, "notify: marshal webhook event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *WebhookNotifier) Close() error { return nil }
