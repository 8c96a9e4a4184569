package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/fitness-funnel/internal/app/bootstrap"
	appconfig "github.com/wolfman30/fitness-funnel/internal/config"
	httpmiddleware "github.com/wolfman30/fitness-funnel/internal/http/middleware"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/internal/relay"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting notification relay",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider", cfg.DeliveryProvider,
	)

	// Refuse to start rather than fail every request later.
	if err := cfg.ValidateRelay(); err != nil {
		logger.Error("relay configuration invalid", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	provider, err := bootstrap.BuildProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build delivery provider", "error", err)
		os.Exit(1)
	}

	reg, metricsHandler := setupMetrics()
	relayMetrics := metrics.NewRelayMetrics(reg)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	throttle := relay.NewThrottle(redisClient, cfg.RelayMaxSendsPerHour, time.Hour, logger)

	handler, err := relay.NewHandler(provider, throttle, logger, relayMetrics)
	if err != nil {
		logger.Error("failed to build relay handler", "error", err)
		os.Exit(1)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	r := relay.NewRouter(relay.RouterConfig{
		Logger:             logger,
		Handler:            handler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (*prometheus.Registry, http.Handler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
