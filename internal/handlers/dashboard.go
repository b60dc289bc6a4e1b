package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/middleware"
	"retail-dashboard-api/internal/services"
	"retail-dashboard-api/internal/validation"
)

// NavEntry is one localized link of the navigation menu
type NavEntry struct {
	Key   string `json:"key"`
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Navigation is the localized shell of the dashboard
type Navigation struct {
	Title   string     `json:"title"`
	Home    string     `json:"home"`
	Locale  string     `json:"locale"`
	Theme   string     `json:"theme"`
	Entries []NavEntry `json:"entries"`
}

var navEntries = []struct{ key, path string }{
	{"orders", "/v1/orders"},
	{"products", "/v1/products"},
	{"inventory", "/v1/inventory"},
	{"dashboard", "/v1/dashboard"},
	{"customers", "/v1/customers"},
	{"channels", "/v1/channels"},
	{"incentives", "/v1/incentives"},
}

// DashboardHandler serves the landing navigation and the analytics summary
type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetNavigation handles GET /v1/navigation
func (h *DashboardHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	tr := i18n.FromContext(r.Context())
	nav := Navigation{
		Title:   tr.T("app.title"),
		Home:    tr.T("home"),
		Locale:  tr.Locale(),
		Theme:   i18n.ThemeLight,
		Entries: make([]NavEntry, 0, len(navEntries)),
	}
	if p, ok := middleware.ProviderFromContext(r.Context()); ok {
		nav.Theme = p.Theme()
	}
	for _, e := range navEntries {
		nav.Entries = append(nav.Entries, NavEntry{Key: e.key, Path: e.path, Label: tr.T("nav." + e.key)})
	}
	writeJSONResponse(w, http.StatusOK, nav)
}

// GetSummary handles GET /v1/dashboard?days=N
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeServiceError(w, r, validation.New("days", "validation.number"), "/v1/navigation")
			return
		}
		days = parsed
	}

	summary, err := h.dashboard.Summary(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, err, "/v1/navigation")
		return
	}
	writeJSONResponse(w, http.StatusOK, summary)
}
