package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// WebhookSource tags payloads posted to the webhook.
const WebhookSource = "fitness-questionnaire"

// ErrWebhookNotConfigured is reported when no webhook URL is set.
var ErrWebhookNotConfigured = errors.New("notify: webhook URL is not configured")

type webhookPayload struct {
	funnel.SubmissionRecord
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// WebhookSubmitter posts the raw record as JSON to a site webhook instead of
// emailing it.
type WebhookSubmitter struct {
	url    string
	client Doer
	clock  func() time.Time
	logger *logging.Logger
}

// NewWebhookSubmitter creates a webhook submitter. client may be nil.
func NewWebhookSubmitter(url string, client Doer, logger *logging.Logger) *WebhookSubmitter {
	if logger == nil {
		logger = logging.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WebhookSubmitter{url: url, client: client, clock: time.Now, logger: logger}
}

// Send posts rec to the webhook.
func (w *WebhookSubmitter) Send(ctx context.Context, rec funnel.SubmissionRecord) funnel.Outcome {
	if w.url == "" {
		w.logger.Error("webhook send skipped", "error", ErrWebhookNotConfigured, "submission_id", rec.ID)
		return funnel.Failed(funnel.FailureInternal, "WordPress webhook URL is not configured")
	}

	body, err := json.Marshal(webhookPayload{
		SubmissionRecord: rec,
		Timestamp:        w.clock().UTC().Format(time.RFC3339Nano),
		Source:           WebhookSource,
	})
	if err != nil {
		return funnel.Failed(funnel.FailureInternal, fmt.Sprintf("webhook payload: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return funnel.Failed(funnel.FailureInternal, fmt.Sprintf("webhook request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("webhook send failed", "error", err, "submission_id", rec.ID)
		return funnel.Failed(funnel.FailureTransport, MsgNetwork)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8192))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.logger.Error("webhook returned error status", "status", resp.StatusCode, "submission_id", rec.ID)
		return funnel.Failed(funnel.FailureRejected, fmt.Sprintf("Webhook failed with status: %d", resp.StatusCode))
	}
	w.logger.Info("webhook delivered", "submission_id", rec.ID)
	return funnel.Succeeded()
}

var _ funnel.Submitter = (*WebhookSubmitter)(nil)
