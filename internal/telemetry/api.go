package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "retail-dashboard-api"

// DashboardApiTelemetry records HTTP request metrics and the dashboard's
// domain counters
type DashboardApiTelemetry struct {
	provider metric.MeterProvider
	meter    metric.Meter

	requestCounter    metric.Int64Counter
	errorCounter      metric.Int64Counter
	durationHistogram metric.Float64Histogram

	ordersSplitCounter         metric.Int64Counter
	ordersMergedCounter        metric.Int64Counter
	inventoryAdjustedCounter   metric.Int64Counter
	inventoryTransferCounter   metric.Int64Counter
	channelSyncsStartedCounter metric.Int64Counter
}

// DashboardApiMetrics contains the telemetry data for one request
type DashboardApiMetrics struct {
	Method     string
	Endpoint   string
	StatusCode int
	Duration   time.Duration
	// Normalized client IP type: internal, localhost, external or unknown
	ClientIPType string
	Locale       string
}

// NewDashboardApiTelemetry creates the telemetry on provider. A nil provider
// means the global one.
func NewDashboardApiTelemetry(provider metric.MeterProvider) *DashboardApiTelemetry {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	return &DashboardApiTelemetry{provider: provider}
}

// InitializeTelemetry creates every instrument
func (t *DashboardApiTelemetry) InitializeTelemetry(_ context.Context) error {
	t.meter = t.provider.Meter(meterName)

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
	}{
		{&t.requestCounter, "dashboard_api_requests_total", "Total number of dashboard API requests"},
		{&t.errorCounter, "dashboard_api_errors_total", "Total number of dashboard API requests answered with an error status"},
		{&t.ordersSplitCounter, "dashboard_orders_split_total", "Orders created by committed splits"},
		{&t.ordersMergedCounter, "dashboard_orders_merged_total", "Source orders folded into merged orders"},
		{&t.inventoryAdjustedCounter, "dashboard_inventory_adjustments_total", "Applied stock adjustments"},
		{&t.inventoryTransferCounter, "dashboard_inventory_transfers_total", "Applied stock transfers"},
		{&t.channelSyncsStartedCounter, "dashboard_channel_syncs_started_total", "Channel sync jobs started"},
	}
	for _, c := range counters {
		counter, err := t.meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			slog.Error("Failed to create counter", "name", c.name, "error", err)
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	t.durationHistogram, err = t.meter.Float64Histogram(
		"dashboard_api_request_duration_seconds",
		metric.WithDescription("Duration of dashboard API requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Error("Failed to create duration histogram", "error", err)
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	slog.Info("Dashboard API telemetry initialized")
	return nil
}

func (m DashboardApiMetrics) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("method", m.Method),
		attribute.String("endpoint", m.Endpoint),
		attribute.Int("status_code", m.StatusCode),
	}
	if m.ClientIPType != "" {
		attrs = append(attrs, attribute.String("client_ip_type", m.ClientIPType))
	}
	if m.Locale != "" {
		attrs = append(attrs, attribute.String("locale", m.Locale))
	}
	return attrs
}

// RegisterRequest records one finished request: the request or error
// counter, and always the duration
func (t *DashboardApiTelemetry) RegisterRequest(ctx context.Context, m DashboardApiMetrics) {
	if t.requestCounter == nil {
		slog.Warn("Request telemetry not initialized")
		return
	}

	attrs := m.attributes()
	if m.StatusCode >= http.StatusBadRequest {
		t.errorCounter.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("error_type", categorizeStatus(m.StatusCode)))...))
		slog.Debug("Recorded API request error",
			"method", m.Method,
			"endpoint", m.Endpoint,
			"status_code", m.StatusCode)
	} else {
		t.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	t.durationHistogram.Record(ctx, m.Duration.Seconds(), metric.WithAttributes(attrs...))
}

func (t *DashboardApiTelemetry) RecordOrdersSplit(ctx context.Context, parts int) {
	if t.ordersSplitCounter != nil {
		t.ordersSplitCounter.Add(ctx, int64(parts))
	}
}

func (t *DashboardApiTelemetry) RecordOrdersMerged(ctx context.Context, sources int) {
	if t.ordersMergedCounter != nil {
		t.ordersMergedCounter.Add(ctx, int64(sources))
	}
}

func (t *DashboardApiTelemetry) RecordInventoryAdjusted(ctx context.Context) {
	if t.inventoryAdjustedCounter != nil {
		t.inventoryAdjustedCounter.Add(ctx, 1)
	}
}

func (t *DashboardApiTelemetry) RecordInventoryTransferred(ctx context.Context) {
	if t.inventoryTransferCounter != nil {
		t.inventoryTransferCounter.Add(ctx, 1)
	}
}

// RecordChannelSyncStarted counts a started sync; channel types are a
// closed set, so they are safe as an attribute
func (t *DashboardApiTelemetry) RecordChannelSyncStarted(ctx context.Context, channelType string) {
	if t.channelSyncsStartedCounter != nil {
		t.channelSyncsStartedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("channel_type", channelType)))
	}
}

// categorizeStatus groups error statuses to keep cardinality low
func categorizeStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation"
	}
	if status >= http.StatusInternalServerError {
		return "internal_error"
	}
	return "other"
}

var privateNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"fc00::/7",
	"fe80::/10",
)

func mustParseCIDRs(ranges ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(ranges))
	for _, r := range ranges {
		_, network, err := net.ParseCIDR(r)
		if err != nil {
			panic(err)
		}
		out = append(out, network)
	}
	return out
}

// NormalizeClientIP categorizes client IPs to control cardinality
func NormalizeClientIP(clientIP string) string {
	if clientIP == "" {
		return "unknown"
	}
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return "invalid"
	}
	if ip.IsLoopback() {
		return "localhost"
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return "internal"
		}
	}
	return "external"
}
