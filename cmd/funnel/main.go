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
	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/internal/funnelapi"
	httpmiddleware "github.com/wolfman30/fitness-funnel/internal/http/middleware"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting fitness funnel API",
		"env", cfg.Env,
		"port", cfg.Port,
		"submission_mode", cfg.SubmissionMode,
		"submission_target", cfg.SubmissionTarget,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	reg, metricsHandler := setupMetrics()
	gatewayMetrics := metrics.NewGatewayMetrics(reg)
	wizardMetrics := metrics.NewWizardMetrics(reg)

	submitter, err := bootstrap.BuildSubmitter(cfg, logger, gatewayMetrics)
	if err != nil {
		logger.Error("failed to build submitter", "error", err)
		os.Exit(1)
	}

	store, err := bootstrap.BuildScreenshotStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build screenshot store", "error", err)
		os.Exit(1)
	}
	if !store.Enabled() {
		logger.Info("screenshot storage disabled, only filenames are recorded")
	}

	opts := bootstrap.WizardOptions(cfg, wizardMetrics)
	registry := funnelapi.NewRegistry(func() *funnel.Wizard {
		return funnel.NewWizard(submitter, opts, logger)
	}, cfg.SessionIdleTimeout, wizardMetrics, logger)
	go registry.Run(ctx, time.Minute)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	handler := funnelapi.NewHandler(funnelapi.HandlerConfig{
		Registry:       registry,
		Uploads:        store,
		Gatherer:       reg,
		WhatsAppNumber: cfg.WhatsAppNumber,
		UPIID:          cfg.UPIID,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})
	r := funnelapi.NewRouter(funnelapi.RouterConfig{
		Logger:             logger,
		Handler:            handler,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let dispatched submissions land before exiting.
	done := make(chan struct{})
	go func() {
		registry.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("submissions still in flight at exit")
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
