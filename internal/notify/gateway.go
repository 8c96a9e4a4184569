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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

var gatewayTracer = otel.Tracer("fitfunnel.internal.notify.gateway")

// Mode selects whether the gateway really sends.
type Mode string

const (
	ModeLive      Mode = "live"
	ModeSimulated Mode = "simulated"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLive:
		return ModeLive, nil
	case ModeSimulated, "":
		return ModeSimulated, nil
	default:
		return "", fmt.Errorf("notify: unknown submission mode %q", s)
	}
}

// Outcome messages shown to the visitor.
const (
	MsgNetwork     = "Network error - please check your internet connection and try again"
	MsgAuth        = "delivery rejected: invalid API key - please check the email service credentials"
	MsgValidation  = "delivery rejected: email validation failed - check sender/recipient addresses"
	MsgRateLimited = "delivery rejected: rate limit exceeded - please try again later"
)

// DefaultSubject is the notification subject line.
const DefaultSubject = "New Fitness Questionnaire Submission"

// GatewayConfig is fixed at startup.
type GatewayConfig struct {
	Mode Mode
	// Endpoint is the relay (or provider) URL used in live mode.
	Endpoint string
	// APIKey is sent as a bearer token when set.
	APIKey         string
	From           string
	To             []string
	Subject        string
	SimulatedDelay time.Duration
	Timeout        time.Duration
}

// Gateway turns a SubmissionRecord into one notification email. It never
// retries and never returns an error: every result is a funnel.Outcome.
type Gateway struct {
	cfg     GatewayConfig
	format  Formatter
	client  Doer
	logger  *logging.Logger
	metrics *metrics.GatewayMetrics
}

// NewGateway builds a gateway. client may be nil; live mode then uses an
// *http.Client with cfg.Timeout. Simulated mode never uses the client.
func NewGateway(cfg GatewayConfig, format Formatter, client Doer, logger *logging.Logger, m *metrics.GatewayMetrics) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSimulated
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Gateway{
		cfg:     cfg,
		format:  format,
		client:  client,
		logger:  logger,
		metrics: m,
	}
}

// Mode reports how the gateway was configured.
func (g *Gateway) Mode() Mode { return g.cfg.Mode }

// Message renders the email the gateway would send for rec.
func (g *Gateway) Message(rec funnel.SubmissionRecord) Email {
	to := make([]string, len(g.cfg.To))
	copy(to, g.cfg.To)
	return Email{
		From:    g.cfg.From,
		To:      to,
		Subject: g.cfg.Subject,
		Text:    g.format.FormatText(rec),
		HTML:    g.format.FormatHTML(rec),
	}
}

// Send delivers rec and reports the outcome.
func (g *Gateway) Send(ctx context.Context, rec funnel.SubmissionRecord) funnel.Outcome {
	ctx, span := gatewayTracer.Start(ctx, "notify.gateway.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("fitfunnel.submission_id", rec.ID),
		attribute.String("fitfunnel.gateway.mode", string(g.cfg.Mode)),
	)

	start := time.Now()
	var out funnel.Outcome
	if g.cfg.Mode == ModeSimulated {
		out = g.simulate(ctx, rec)
	} else {
		out = g.deliver(ctx, rec)
	}

	result := "success"
	if !out.Success {
		result = string(out.Failure)
		span.SetStatus(codes.Error, out.Error)
	}
	g.metrics.ObserveSubmission(string(g.cfg.Mode), result, time.Since(start).Seconds())
	return out
}

func (g *Gateway) simulate(ctx context.Context, rec funnel.SubmissionRecord) funnel.Outcome {
	msg := g.Message(rec)
	g.logger.Info("simulated send: email would be sent",
		"submission_id", rec.ID,
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"message", msg.Text,
	)
	if g.cfg.SimulatedDelay > 0 {
		timer := time.NewTimer(g.cfg.SimulatedDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	g.logger.Info("simulated send complete", "submission_id", rec.ID)
	return funnel.Succeeded()
}

func (g *Gateway) deliver(ctx context.Context, rec funnel.SubmissionRecord) funnel.Outcome {
	body, err := json.Marshal(g.Message(rec))
	if err != nil {
		g.logger.Error("gateway: marshal payload failed", "error", err, "submission_id", rec.ID)
		return funnel.Failed(funnel.FailureInternal, "Failed to prepare email: "+err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		g.logger.Error("gateway: build request failed", "error", err, "submission_id", rec.ID)
		return funnel.Failed(funnel.FailureInternal, "Failed to prepare email: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("gateway: transport failure", "error", err, "submission_id", rec.ID, "endpoint", g.cfg.Endpoint)
		return funnel.Failed(funnel.FailureTransport, MsgNetwork)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		g.logger.Info("gateway: email sent", "submission_id", rec.ID, "status", resp.StatusCode)
		return funnel.Succeeded()
	}

	out := classifyStatus(resp.StatusCode, respBody)
	g.logger.Error("gateway: delivery rejected",
		"submission_id", rec.ID,
		"status", resp.StatusCode,
		"failure", out.Failure,
		"body", string(respBody),
	)
	return out
}

func classifyStatus(status int, body []byte) funnel.Outcome {
	switch status {
	case http.StatusUnauthorized:
		return funnel.Failed(funnel.FailureAuth, MsgAuth)
	case http.StatusUnprocessableEntity:
		return funnel.Failed(funnel.FailureValidation, MsgValidation)
	case http.StatusTooManyRequests:
		return funnel.Failed(funnel.FailureRateLimited, MsgRateLimited)
	default:
		return funnel.Failed(funnel.FailureRejected,
			fmt.Sprintf("delivery rejected: email service error %d: %s", status, errorReason(body)))
	}
}

var _ funnel.Submitter = (*Gateway)(nil)
