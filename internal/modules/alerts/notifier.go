package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers alerts to an external channel. The production deployment
// forwards high-severity alerts to the messaging gateway that reaches
// supervisors; tests use a fake.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// WebhookNotifier POSTs alerts as JSON to a configured webhook URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookNotifier creates a webhook notifier. An empty URL produces a
// disabled notifier whose Send is a logged no-op.
func NewWebhookNotifier(url string, log zerolog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With().Str("component", "alert_notifier").Logger(),
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

// Send posts one alert. Non-2xx responses are errors so the caller can log
// delivery failures; delivery is best-effort and never blocks a rebuild.
func (n *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	if !n.Enabled() {
		n.log.Debug().Str("emp_code", alert.EmpCode).Msg("Alert webhook not configured, skipping send")
		return nil
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// SendHighSeverity delivers only the high-severity subset of a batch,
// logging per-alert failures without aborting the rest.
func (n *WebhookNotifier) SendHighSeverity(ctx context.Context, batch []Alert) {
	for _, a := range batch {
		if a.Severity != SeverityHigh {
			continue
		}
		if err := n.Send(ctx, a); err != nil {
			n.log.Error().Err(err).
				Str("emp_code", a.EmpCode).
				Float64("efficiency", a.Efficiency).
				Msg("Failed to deliver high-severity alert")
		}
	}
}
