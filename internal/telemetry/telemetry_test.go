package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestTelemetry(t *testing.T) (*DashboardApiTelemetry, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tel := NewDashboardApiTelemetry(provider)
	require.NoError(t, tel.InitializeTelemetry(context.Background()))
	return tel, reader
}

// sumPoints returns the data points of an int64 counter keyed by the value of attr
func sumPoints(t *testing.T, reader *sdkmetric.ManualReader, name string, attr attribute.Key) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				key := ""
				if v, ok := dp.Attributes.Value(attr); ok {
					key = v.Emit()
				}
				out[key] += dp.Value
			}
		}
	}
	return out
}

func TestTelemetryMiddleware_UsesRouteTemplates(t *testing.T) {
	// Arrange
	tel, reader := newTestTelemetry(t)
	router := mux.NewRouter()
	router.Use(NewTelemetryMiddleware(tel).Middleware)
	router.HandleFunc("/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Language", "en")
		if mux.Vars(r)["id"] == "ORD-404" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}).Methods(http.MethodGet)

	// Act
	for _, path := range []string{"/v1/orders/ORD-1001", "/v1/orders/ORD-1002", "/v1/orders/ORD-404"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	// Assert
	requests := sumPoints(t, reader, "dashboard_api_requests_total", "endpoint")
	assert.Equal(t, map[string]int64{"/v1/orders/{id}": 2}, requests)
	errorsByType := sumPoints(t, reader, "dashboard_api_errors_total", "error_type")
	assert.Equal(t, map[string]int64{"not_found": 1}, errorsByType)
	locales := sumPoints(t, reader, "dashboard_api_requests_total", "locale")
	assert.Equal(t, map[string]int64{"en": 2}, locales)
}

func TestTelemetry_DomainCounters(t *testing.T) {
	tel, reader := newTestTelemetry(t)
	ctx := context.Background()

	tel.RecordOrdersSplit(ctx, 3)
	tel.RecordOrdersMerged(ctx, 2)
	tel.RecordInventoryAdjusted(ctx)
	tel.RecordInventoryTransferred(ctx)
	tel.RecordChannelSyncStarted(ctx, "taobao")
	tel.RecordChannelSyncStarted(ctx, "taobao")

	assert.Equal(t, map[string]int64{"": 3}, sumPoints(t, reader, "dashboard_orders_split_total", "none"))
	assert.Equal(t, map[string]int64{"": 2}, sumPoints(t, reader, "dashboard_orders_merged_total", "none"))
	assert.Equal(t, map[string]int64{"": 1}, sumPoints(t, reader, "dashboard_inventory_transfers_total", "none"))
	assert.Equal(t, map[string]int64{"taobao": 2}, sumPoints(t, reader, "dashboard_channel_syncs_started_total", "channel_type"))
}

func TestTelemetry_UninitializedIsSafe(t *testing.T) {
	tel := NewDashboardApiTelemetry(nil)

	assert.NotPanics(t, func() {
		tel.RecordOrdersSplit(context.Background(), 2)
		tel.RegisterRequest(context.Background(), DashboardApiMetrics{Method: http.MethodGet})
	})
}

func TestEndpointTemplate_Unmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)

	assert.Equal(t, UnmatchedEndpoint, EndpointTemplate(req))
}

func TestNormalizeClientIP(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"not-an-ip", "invalid"},
		{"127.0.0.1", "localhost"},
		{"::1", "localhost"},
		{"10.1.2.3", "internal"},
		{"192.168.0.20", "internal"},
		{"8.8.8.8", "external"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeClientIP(tc.input))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:51234"
	assert.Equal(t, "192.168.1.9", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientIP(req))
}
