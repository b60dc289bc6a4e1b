package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ClientCookie names the cookie that scopes a browser's preferences
	ClientCookie = "dashboard_client"
	// ClientHeader lets non-browser clients pick their scope explicitly
	ClientHeader = "X-Dashboard-Client"

	clientCookieMaxAge = 365 * 24 * time.Hour
)

type clientKey struct{}

// ClientMiddleware identifies the caller by the X-Dashboard-Client header or
// the dashboard_client cookie. A missing or malformed id is replaced by a new
// UUID, which is handed back as a cookie.
func ClientMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := validClientID(r.Header.Get(ClientHeader))
		if clientID == "" {
			if c, err := r.Cookie(ClientCookie); err == nil {
				clientID = validClientID(c.Value)
			}
		}

		if clientID == "" {
			clientID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    clientID,
				Path:     "/",
				MaxAge:   int(clientCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			slog.Debug("Issued client id", "client_id", clientID, "remote_addr", r.RemoteAddr)
		}

		next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), clientID)))
	})
}

func validClientID(raw string) string {
	raw = strings.TrimSpace(raw)
	if _, err := uuid.Parse(raw); err != nil {
		return ""
	}
	return raw
}

// WithClientID stores the client id in ctx
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientKey{}, clientID)
}

// ClientID returns the caller's client id, or "" outside ClientMiddleware
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientKey{}).(string)
	return id
}
