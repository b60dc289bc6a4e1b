package handlers

import (
	"net/http"
	"time"

	"retail-dashboard-api/internal/channels"
	"retail-dashboard-api/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthStatus is the body of GET /health
type HealthStatus struct {
	Status      string              `json:"status"`
	Version     string              `json:"version"`
	Uptime      string              `json:"uptime"`
	EventOffset int64               `json:"eventOffset"`
	Sync        channels.SyncStatus `json:"sync"`

	SplitDrafts    services.DraftStats `json:"splitDrafts"`
	InventoryLocks services.LockStats  `json:"inventoryLocks"`
}

type syncStatusSource interface {
	SyncStatus() channels.SyncStatus
}

type offsetSource interface {
	GetCurrentOffset() int64
}

type draftStatsSource interface {
	DraftStats() services.DraftStats
}

type lockStatsSource interface {
	LockStats() services.LockStats
}

// HealthSources supplies the runtime figures reported by /health. Nil
// sources are left out.
type HealthSources struct {
	Sync      syncStatusSource
	Events    offsetSource
	Drafts    draftStatsSource
	Inventory lockStatsSource
}

// HealthHandler handles health check requests
type HealthHandler struct {
	started time.Time
	sources HealthSources
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sources HealthSources) *HealthHandler {
	return &HealthHandler{started: time.Now(), sources: sources}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:  "healthy",
		Version: Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	}
	if h.sources.Sync != nil {
		status.Sync = h.sources.Sync.SyncStatus()
	}
	if h.sources.Events != nil {
		status.EventOffset = h.sources.Events.GetCurrentOffset()
	}
	if h.sources.Drafts != nil {
		status.SplitDrafts = h.sources.Drafts.DraftStats()
	}
	if h.sources.Inventory != nil {
		status.InventoryLocks = h.sources.Inventory.LockStats()
	}
	writeJSONResponse(w, http.StatusOK, status)
}
