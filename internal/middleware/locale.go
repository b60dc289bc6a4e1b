package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/preferences"
)

// ColorSchemeHeader carries the client platform's preferred color scheme
const ColorSchemeHeader = "Sec-CH-Prefers-Color-Scheme"

type providerKey struct{}

// Locale loads the caller's locale and theme preferences for every request.
// It must run after ClientMiddleware.
type Locale struct {
	bundle        *i18n.Bundle
	store         preferences.Store
	defaultLocale string
}

func NewLocale(bundle *i18n.Bundle, store preferences.Store, defaultLocale string) *Locale {
	return &Locale{bundle: bundle, store: store, defaultLocale: defaultLocale}
}

// Middleware puts the client's i18n.Provider and the active translator on
// the request context. A ?lang= parameter overrides the locale for this
// request only; it is never persisted.
func (l *Locale) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		provider, err := i18n.NewProvider(ctx, l.bundle, l.store, i18n.ProviderOptions{
			Scope:         ClientID(ctx),
			DefaultLocale: l.defaultLocale,
			SystemTheme:   strings.Trim(r.Header.Get(ColorSchemeHeader), `"`),
		})
		if err != nil {
			slog.Error("Failed to load client preferences", "client_id", ClientID(ctx), "error", err)
			tr := l.bundle.Translator(l.defaultLocale)
			writeErrorResponse(w, http.StatusInternalServerError, "internal_error", tr.T("error.internal"))
			return
		}

		tr := provider.Translator()
		if raw := r.URL.Query().Get("lang"); raw != "" {
			if locale, ok := i18n.MatchLocale(raw); ok {
				tr = l.bundle.Translator(locale)
			} else {
				slog.Debug("Ignoring unsupported lang parameter", "lang", raw)
			}
		}

		w.Header().Set("Content-Language", tr.Locale())
		w.Header().Set("Accept-CH", ColorSchemeHeader)
		w.Header().Add("Vary", ColorSchemeHeader)

		ctx = context.WithValue(ctx, providerKey{}, provider)
		ctx = i18n.WithTranslator(ctx, tr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ProviderFromContext returns the provider installed by Locale.Middleware
func ProviderFromContext(ctx context.Context) (*i18n.Provider, bool) {
	p, ok := ctx.Value(providerKey{}).(*i18n.Provider)
	return p, ok
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{Code: code, Message: message})
}
