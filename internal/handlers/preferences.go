package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/middleware"
	"retail-dashboard-api/internal/validation"
)

// Preferences is the locale and theme of the calling client
type Preferences struct {
	ClientID string   `json:"clientId"`
	Locale   string   `json:"locale"`
	Theme    string   `json:"theme"`
	Locales  []string `json:"locales"`
}

// PreferencesUpdate changes either preference; omitted fields are kept
type PreferencesUpdate struct {
	Locale *string `json:"locale,omitempty"`
	Theme  *string `json:"theme,omitempty"`
}

// PreferencesHandler serves the client's preferences and the label tables
type PreferencesHandler struct {
	bundle *i18n.Bundle
}

func NewPreferencesHandler(bundle *i18n.Bundle) *PreferencesHandler {
	return &PreferencesHandler{bundle: bundle}
}

// GetPreferences handles GET /v1/preferences
func (h *PreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	provider, ok := middleware.ProviderFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, errNoProvider, "")
		return
	}
	writeJSONResponse(w, http.StatusOK, h.preferences(r, provider))
}

// UpdatePreferences handles PUT /v1/preferences. The change is persisted
// before the response is written, so the next request already sees it.
func (h *PreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	provider, ok := middleware.ProviderFromContext(r.Context())
	if !ok {
		writeServiceError(w, r, errNoProvider, "")
		return
	}

	var req PreferencesUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	verr := &validation.Error{}
	if req.Locale != nil && !i18n.ValidLocale(strings.TrimSpace(*req.Locale)) {
		verr.Add("locale", "validation.enum")
	}
	if req.Theme != nil && !i18n.ValidTheme(strings.TrimSpace(*req.Theme)) {
		verr.Add("theme", "validation.enum")
	}
	if err := verr.OrNil(); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	ctx := r.Context()
	if req.Locale != nil {
		if err := provider.SetLocale(ctx, strings.TrimSpace(*req.Locale)); err != nil {
			writeServiceError(w, r, err, "")
			return
		}
	}
	if req.Theme != nil {
		if err := provider.SetTheme(ctx, strings.TrimSpace(*req.Theme)); err != nil {
			writeServiceError(w, r, err, "")
			return
		}
	}

	slog.Info("Preferences updated",
		"client_id", middleware.ClientID(ctx),
		"locale", provider.Locale(),
		"theme", provider.Theme())
	w.Header().Set("Content-Language", provider.Locale())
	writeJSONResponse(w, http.StatusOK, h.preferences(r, provider))
}

func (h *PreferencesHandler) preferences(r *http.Request, provider *i18n.Provider) Preferences {
	return Preferences{
		ClientID: middleware.ClientID(r.Context()),
		Locale:   provider.Locale(),
		Theme:    provider.Theme(),
		Locales:  h.bundle.Locales(),
	}
}

// GetTable handles GET /v1/i18n: the whole label table of the active locale
func (h *PreferencesHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	tr := i18n.FromContext(r.Context())
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"locale":   tr.Locale(),
		"messages": h.bundle.Table(tr.Locale()),
	})
}

// Translate handles GET /v1/i18n/translate?key=. Unknown keys come back
// unchanged.
func (h *PreferencesHandler) Translate(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if strings.TrimSpace(key) == "" {
		writeServiceError(w, r, validation.New("key", "validation.required"), "")
		return
	}
	tr := i18n.FromContext(r.Context())
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"key":    key,
		"locale": tr.Locale(),
		"text":   tr.T(key),
	})
}
