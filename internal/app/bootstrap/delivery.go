package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/fitness-funnel/internal/config"
	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/internal/notify"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// Submission targets for the funnel.
const (
	TargetRelay   = "relay"
	TargetWebhook = "webhook"
)

// BuildProvider returns the relay's delivery provider. The config must
// already have passed ValidateRelay.
func BuildProvider(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if err := cfg.ValidateRelay(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.DeliveryProvider {
	case appconfig.ProviderSendGrid:
		logger.Info("relay provider selected", "provider", "sendgrid")
		return notify.NewSendGridProvider(cfg.SendGridAPIKey, logger), nil
	case appconfig.ProviderSES:
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		logger.Info("relay provider selected", "provider", "ses", "region", cfg.AWSRegion)
		return notify.NewSESProvider(sesv2.NewFromConfig(awsCfg), logger), nil
	default:
		logger.Info("relay provider selected", "provider", "resend")
		return notify.NewResendProvider(notify.ResendConfig{
			APIKey:   cfg.ResendAPIKey,
			Endpoint: cfg.ResendAPIURL,
			Timeout:  cfg.HTTPTimeout,
		}, nil, logger), nil
	}
}

// BuildSubmitter returns what the funnel hands finished bookings to: the
// email gateway (live or simulated) or the webhook.
func BuildSubmitter(cfg *appconfig.Config, logger *logging.Logger, m *metrics.GatewayMetrics) (funnel.Submitter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.SubmissionTarget)) {
	case TargetWebhook:
		if strings.TrimSpace(cfg.WebhookURL) == "" {
			return nil, notify.ErrWebhookNotConfigured
		}
		logger.Info("submission target selected", "target", TargetWebhook)
		return notify.NewWebhookSubmitter(cfg.WebhookURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger), nil
	case TargetRelay, "":
	default:
		return nil, fmt.Errorf("bootstrap: unknown submission target %q", cfg.SubmissionTarget)
	}

	mode, err := notify.ParseMode(cfg.SubmissionMode)
	if err != nil {
		return nil, err
	}
	format := notify.NewFormatter(cfg.WhatsAppNumber, cfg.UPIID, cfg.DisplayLocation())
	gw := notify.NewGateway(notify.GatewayConfig{
		Mode:           mode,
		Endpoint:       cfg.RelayURL,
		APIKey:         cfg.GatewayAPIKey,
		From:           cfg.FromEmail,
		To:             []string{cfg.AdminEmail},
		Subject:        cfg.EmailSubject,
		SimulatedDelay: cfg.SimulatedDelay,
		Timeout:        cfg.HTTPTimeout,
	}, format, nil, logger, m)
	logger.Info("submission target selected", "target", TargetRelay, "mode", gw.Mode(), "endpoint", cfg.RelayURL)
	return gw, nil
}

// WizardOptions maps config onto wizard options.
func WizardOptions(cfg *appconfig.Config, observer funnel.TransitionObserver) funnel.Options {
	opts := funnel.Options{Observer: observer}
	if cfg != nil {
		opts.RequireMultiSelect = cfg.RequireMultiPick
	}
	return opts
}
