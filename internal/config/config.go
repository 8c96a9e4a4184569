package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Delivery providers understood by the relay.
const (
	ProviderResend   = "resend"
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
)

// ErrMissingCredential is returned when the relay has no delivery secret.
var ErrMissingCredential = errors.New("config: delivery provider credential is missing")

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Relay
	DeliveryProvider     string
	ResendAPIKey         string
	ResendAPIURL         string
	SendGridAPIKey       string
	RelayMaxSendsPerHour int

	// Funnel / gateway
	AdminEmail       string
	FromEmail        string
	EmailSubject     string
	WhatsAppNumber   string
	UPIID            string
	SubmissionMode   string
	SubmissionTarget string
	RelayURL         string
	GatewayAPIKey    string
	SimulatedDelay   time.Duration
	WebhookURL       string
	HTTPTimeout      time.Duration
	RequireMultiPick bool
	DisplayTimezone  string

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	MaxUploadBytes     int64
	SessionIdleTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	ScreenshotBucket    string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment values
// win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "3000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DeliveryProvider:     strings.ToLower(strings.TrimSpace(getEnv("DELIVERY_PROVIDER", ProviderResend))),
		ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
		ResendAPIURL:         getEnv("RESEND_API_URL", "https://api.resend.com/emails"),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		RelayMaxSendsPerHour: getEnvAsInt("RELAY_MAX_SENDS_PER_HOUR", 20),

		AdminEmail:       getEnv("ADMIN_EMAIL", "awesomegymholic786@gmail.com"),
		FromEmail:        getEnv("FROM_EMAIL", "Fitness Questionnaire <onboarding@resend.dev>"),
		EmailSubject:     getEnv("EMAIL_SUBJECT", "New Fitness Questionnaire Submission"),
		WhatsAppNumber:   getEnv("WHATSAPP_NUMBER", "919876543210"),
		UPIID:            getEnv("UPI_ID", "fitness@paytm"),
		SubmissionMode:   strings.ToLower(strings.TrimSpace(getEnv("SUBMISSION_MODE", "simulated"))),
		SubmissionTarget: strings.ToLower(strings.TrimSpace(getEnv("SUBMISSION_TARGET", "relay"))),
		RelayURL:         getEnv("RELAY_URL", "http://localhost:3000/submit-email"),
		GatewayAPIKey:    getEnv("GATEWAY_API_KEY", ""),
		SimulatedDelay:   getEnvAsDuration("SIMULATED_DELAY", 1500*time.Millisecond),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		HTTPTimeout:      getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
		RequireMultiPick: getEnvAsBool("REQUIRE_MULTI_SELECT", false),
		DisplayTimezone:  getEnv("DISPLAY_TIMEZONE", "Asia/Kolkata"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		MaxUploadBytes:     int64(getEnvAsInt("MAX_UPLOAD_BYTES", 5<<20)),
		SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ScreenshotBucket:    getEnv("SCREENSHOT_BUCKET", ""),
	}
}

// RelayCredential returns the secret the selected provider authenticates
// with. SES relies on the AWS credential chain, so the access key id stands
// in for it.
func (c *Config) RelayCredential() string {
	switch c.DeliveryProvider {
	case ProviderSendGrid:
		return strings.TrimSpace(c.SendGridAPIKey)
	case ProviderSES:
		return strings.TrimSpace(c.AWSAccessKeyID)
	default:
		return strings.TrimSpace(c.ResendAPIKey)
	}
}

// ValidateRelay checks what the relay needs before it may start.
func (c *Config) ValidateRelay() error {
	switch c.DeliveryProvider {
	case ProviderResend, ProviderSendGrid, ProviderSES:
	default:
		return fmt.Errorf("config: unknown delivery provider %q", c.DeliveryProvider)
	}
	if c.RelayCredential() == "" {
		return fmt.Errorf("%w (provider %s)", ErrMissingCredential, c.DeliveryProvider)
	}
	return nil
}

// DisplayLocation resolves DisplayTimezone, falling back to UTC when the
// zone database does not know it.
func (c *Config) DisplayLocation() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.DisplayTimezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
