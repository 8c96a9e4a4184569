package relay

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/fitness-funnel/internal/http/middleware"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// RouterConfig holds relay router configuration.
type RouterConfig struct {
	Logger             *logging.Logger
	Handler            *Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// RateLimiter is optional per-IP request smoothing in front of the
	// Redis send throttle.
	RateLimiter *httpmiddleware.RateLimiter
}

// NewRouter creates the relay's chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", cfg.Handler.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(send chi.Router) {
		if cfg.RateLimiter != nil {
			send.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		send.Post("/submit-email", cfg.Handler.SubmitEmail)
		// Path used by earlier funnel builds.
		send.Post("/api/send-email", cfg.Handler.SubmitEmail)
	})

	return r
}
