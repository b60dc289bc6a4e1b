package telemetry

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// UnmatchedEndpoint labels requests that matched no route
const UnmatchedEndpoint = "unmatched"

// TelemetryMiddleware wraps HTTP handlers to collect request telemetry
type TelemetryMiddleware struct {
	telemetry *DashboardApiTelemetry
}

func NewTelemetryMiddleware(telemetry *DashboardApiTelemetry) *TelemetryMiddleware {
	return &TelemetryMiddleware{telemetry: telemetry}
}

// Middleware returns the HTTP middleware function. It must be installed
// with Router.Use so the matched route template is available.
func (tm *TelemetryMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		tm.telemetry.RegisterRequest(r.Context(), DashboardApiMetrics{
			Method:       r.Method,
			Endpoint:     EndpointTemplate(r),
			StatusCode:   wrapper.statusCode,
			Duration:     time.Since(start),
			ClientIPType: NormalizeClientIP(getClientIP(r)),
			Locale:       wrapper.Header().Get("Content-Language"),
		})
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	wrote      bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wrote {
		w.statusCode = statusCode
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(data)
}

// Flush lets long-poll handlers push partial responses
func (w *responseWriterWrapper) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// EndpointTemplate returns the route template of the matched route, such as
// /v1/orders/{id}, so path parameters never become metric attributes
func EndpointTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return UnmatchedEndpoint
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return UnmatchedEndpoint
	}
	return tpl
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
