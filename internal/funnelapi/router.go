package funnelapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/fitness-funnel/internal/http/middleware"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// RouterConfig holds funnel API router configuration.
type RouterConfig struct {
	Logger             *logging.Logger
	Handler            *Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// NewRouter creates the funnel API router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))

	h := cfg.Handler
	r.Get("/health", h.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.Get("/catalog", h.Catalog)
		api.Get("/stats", h.Stats)
		api.Post("/sessions", h.CreateSession)
		api.Route("/sessions/{id}", func(s chi.Router) {
			s.Get("/", h.GetSession)
			s.Post("/start", h.Start)
			s.Post("/answers", h.Answer)
			s.Post("/next", h.Next)
			s.Post("/previous", h.Previous)
			s.Post("/plan", h.SelectPlan)
			s.Post("/back", h.Back)
			s.Post("/appointment", h.SubmitAppointment)
			s.Post("/restart", h.Restart)
		})
	})

	return r
}
