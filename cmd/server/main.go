package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-dashboard-api/internal/app"
	"retail-dashboard-api/internal/config"
	"retail-dashboard-api/internal/handlers"
	"retail-dashboard-api/internal/telemetry"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg := config.LoadConfig()

	slog.Info("Starting Retail Dashboard API", "version", handlers.Version)

	// The meter provider must be global before the API telemetry is created
	ctx := context.Background()
	otelTelemetry := telemetry.InitMetrics(ctx, cfg.MetricsExporter, cfg.MetricsAddr)
	slog.Info("OpenTelemetry telemetry initialized", "exporter", cfg.MetricsExporter)

	dashboard, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize dashboard", "error", err)
		otelTelemetry.Close(ctx)
		os.Exit(1)
	}

	slog.Debug("Available endpoints",
		"v1_endpoints", []string{
			"GET /v1/navigation",
			"GET /v1/orders, /v1/orders/{id}",
			"POST /v1/orders/{id}/split-drafts (split workflow under /v1/split-drafts/{draftId})",
			"POST /v1/orders/merge/preview, /v1/orders/merge",
			"GET /v1/products, /v1/inventory, /v1/customers, /v1/channels, /v1/incentives",
			"POST /v1/inventory/{id}/adjustments, /v1/inventory/{id}/transfers",
			"POST /v1/channels/{id}/sync, GET|DELETE /v1/sync-jobs/{jobId}",
			"GET /v1/dashboard?days=<n>",
			"GET|PUT /v1/preferences, GET /v1/i18n, /v1/i18n/translate?key=",
			"GET /v1/events?offset=<n>&limit=<n>&wait=<seconds>",
		},
		"system_endpoints", []string{
			"GET /health",
		})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           dashboard.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server ready to accept connections", "address", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Give outstanding requests, long polls included, a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := dashboard.Close(); err != nil {
		slog.Error("Error closing dashboard", "error", err)
	}

	otelTelemetry.Close(shutdownCtx)
	slog.Info("Telemetry shutdown completed")

	slog.Info("Server exited")
}
