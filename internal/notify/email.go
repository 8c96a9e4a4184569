package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdmail "net/mail"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// Provider delivers a relay email. Implementations can be swapped (Resend,
// SendGrid, SES) without changing callers.
type Provider interface {
	Name() string
	// Send returns the provider message id. A *RejectedError means the
	// provider refused the message; any other error is a local failure.
	Send(ctx context.Context, msg Email) (string, error)
}

// Email is one outbound message as the relay receives it.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

// RejectedError reports a provider refusing a message (bad address,
// unverified sender, quota).
type RejectedError struct {
	Provider string
	Status   int
	Message  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("notify: %s rejected message (status %d): %s", e.Provider, e.Status, e.Message)
}

// IsRejected reports whether err is a provider rejection.
func IsRejected(err error) bool {
	var rej *RejectedError
	return errors.As(err, &rej)
}

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridProvider sends emails via SendGrid API.
type SendGridProvider struct {
	client sendGridClient
	logger *logging.Logger
}

// NewSendGridProvider creates a SendGrid provider. Returns nil without an API key.
func NewSendGridProvider(apiKey string, logger *logging.Logger) *SendGridProvider {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridProvider{
		client: sendgrid.NewSendClient(apiKey),
		logger: logger,
	}
}

func (s *SendGridProvider) Name() string { return "sendgrid" }

// Send sends an email via SendGrid.
func (s *SendGridProvider) Send(ctx context.Context, msg Email) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("notify: sendgrid client not configured")
	}

	fromName, fromAddr := splitAddress(msg.From)
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(fromName, fromAddr))
	message.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, to := range msg.To {
		name, addr := splitAddress(to)
		p.AddTos(mail.NewEmail(name, addr))
	}
	message.AddPersonalizations(p)

	if msg.Text != "" {
		message.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		message.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return "", fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return "", &RejectedError{
			Provider: s.Name(),
			Status:   response.StatusCode,
			Message:  sendGridErrorMessage(response.Body),
		}
	}

	id := firstHeader(response.Headers, "X-Message-Id")
	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode, "message_id", id)
	return id, nil
}

func sendGridErrorMessage(body string) string {
	var parsed struct {
		Errors []struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || len(parsed.Errors) == 0 {
		return strings.TrimSpace(body)
	}
	msgs := make([]string, 0, len(parsed.Errors))
	for _, e := range parsed.Errors {
		if e.Field != "" {
			msgs = append(msgs, e.Field+": "+e.Message)
			continue
		}
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func firstHeader(headers map[string][]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// splitAddress accepts "Name <addr>" or a bare address.
func splitAddress(raw string) (name, addr string) {
	parsed, err := stdmail.ParseAddress(raw)
	if err != nil {
		return "", strings.TrimSpace(raw)
	}
	return parsed.Name, parsed.Address
}

// StubProvider is a no-op provider for local runs and tests.
type StubProvider struct {
	logger *logging.Logger
}

// NewStubProvider creates a provider that logs but doesn't send.
func NewStubProvider(logger *logging.Logger) *StubProvider {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubProvider{logger: logger}
}

func (s *StubProvider) Name() string { return "stub" }

// Send logs the email but doesn't actually send it.
func (s *StubProvider) Send(ctx context.Context, msg Email) (string, error) {
	s.logger.Info("stub provider: would send email", "to", msg.To, "subject", msg.Subject)
	return "stub-" + strings.ReplaceAll(strings.ToLower(msg.Subject), " ", "-"), nil
}

var (
	_ Provider = (*SendGridProvider)(nil)
	_ Provider = (*StubProvider)(nil)
)
