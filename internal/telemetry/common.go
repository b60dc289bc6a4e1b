package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Exporter names accepted in METRICS_EXPORTER. Anything else selects OTLP
// over gRPC.
const (
	ExporterScraper = "scraper"
	ExporterNone    = "none"
)

// Telemetry owns the meter provider and, for the scraper exporter, the
// metrics HTTP server
type Telemetry struct {
	server   *http.Server          // If type of metrics collection == "scraper".
	Provider *metric.MeterProvider // nil when metrics are disabled
}

// InitMetrics installs a global meter provider for the configured exporter.
// Export failures are logged and leave metrics disabled.
func InitMetrics(ctx context.Context, exporter, addr string) *Telemetry {
	t := &Telemetry{}
	switch exporter {
	case ExporterNone:
		slog.Info("Metrics export disabled")
	case ExporterScraper:
		slog.Info("Starting metrics with scraper exporter", "addr", addr)
		t.initScrapeMetrics(addr)
	default:
		slog.Info("Starting metrics with grpc exporter")
		t.initGRPCMetrics(ctx)
	}
	return t
}

// Sends data to localhost:4317 or whatever OTEL_EXPORTER_OTLP_METRICS_ENDPOINT is set to.
func (t *Telemetry) initGRPCMetrics(ctx context.Context) {
	exporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		slog.Error("Creating GRPC exporter", "error", err)
		return
	}

	t.Provider = metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exporter)))
	otel.SetMeterProvider(t.Provider)
}

func (t *Telemetry) initScrapeMetrics(addr string) {
	// The exporter is both a Reader and a prometheus.Collector on the
	// default registry, which promhttp serves.
	exporter, err := prometheus.New()
	if err != nil {
		slog.Error("Creating HTML scrape exporter", "error", err)
		return
	}

	t.Provider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(t.Provider)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	t.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Serving metrics", "addr", addr, "path", "/metrics")
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ListenAndServe exited with", "error", err)
		}
	}()
}

// Close flushes pending measurements and stops the metrics server
func (t *Telemetry) Close(ctx context.Context) {
	if t.server != nil {
		if err := t.server.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown failed", "error", err)
		}
		slog.Info("Shutting down metrics server")
	}
	if t.Provider != nil {
		if err := t.Provider.Shutdown(ctx); err != nil {
			slog.Warn("Meter provider shutdown failed", "error", err)
		}
	}
}
