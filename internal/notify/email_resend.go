package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// DefaultResendURL is Resend's send-email endpoint.
const DefaultResendURL = "https://api.resend.com/emails"

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResendProvider sends emails through the Resend REST API.
type ResendProvider struct {
	apiKey   string
	endpoint string
	client   Doer
	logger   *logging.Logger
}

// ResendConfig holds configuration for Resend.
type ResendConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// NewResendProvider creates a Resend provider. Returns nil without an API key.
// client may be nil, in which case an *http.Client with cfg.Timeout is used.
func NewResendProvider(cfg ResendConfig, client Doer, logger *logging.Logger) *ResendProvider {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultResendURL
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ResendProvider{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		client:   client,
		logger:   logger,
	}
}

func (r *ResendProvider) Name() string { return "resend" }

// Send posts the email to Resend and returns the message id.
func (r *ResendProvider) Send(ctx context.Context, msg Email) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("notify: marshal resend payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("notify: build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("resend send failed", "error", err, "to", msg.To)
		return "", fmt.Errorf("notify: resend send failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Error("resend returned error status", "status", resp.StatusCode, "body", string(respBody), "to", msg.To)
		return "", &RejectedError{
			Provider: r.Name(),
			Status:   resp.StatusCode,
			Message:  errorReason(respBody),
		}
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("notify: decode resend response: %w", err)
	}
	r.logger.Info("email sent via resend", "to", msg.To, "subject", msg.Subject, "message_id", parsed.ID)
	return parsed.ID, nil
}

// errorReason pulls a human message out of a JSON error body, falling back
// to the raw text.
func errorReason(body []byte) string {
	var parsed struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if len(parsed.Error) > 0 {
			var s string
			if json.Unmarshal(parsed.Error, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(parsed.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}
	reason := strings.TrimSpace(string(body))
	if reason == "" {
		return "no response body"
	}
	return reason
}

var _ Provider = (*ResendProvider)(nil)
