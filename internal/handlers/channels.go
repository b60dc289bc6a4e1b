package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"retail-dashboard-api/internal/channels"
	"retail-dashboard-api/internal/services"
)

const channelsBack = "/v1/channels"

// ChannelHandler serves sales channels and their sync jobs
type ChannelHandler struct {
	channels *services.ChannelService
}

func NewChannelHandler(channels *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

// ListChannels handles GET /v1/channels
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.channels.Schema())
	if err != nil {
		writeServiceError(w, r, err, channelsBack)
		return
	}
	resp, err := h.channels.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, channelsBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// GetChannel handles GET /v1/channels/{id}
func (h *ChannelHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := h.channels.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, channelsBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, channel)
}

// StartSync handles POST /v1/channels/{id}/sync. The body, if any, holds
// the sync options; an empty body syncs everything.
func (h *ChannelHandler) StartSync(w http.ResponseWriter, r *http.Request) {
	req := channels.SyncRequest{ChannelID: mux.Vars(r)["id"]}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req.Options); err != nil {
			slog.Warn("Invalid JSON in sync request", "error", err, "remote_addr", r.RemoteAddr)
			writeServiceError(w, r, err, channelsBack)
			return
		}
	}

	job, err := h.channels.StartSync(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, channelsBack)
		return
	}
	w.Header().Set("Location", "/v1/sync-jobs/"+job.ID)
	writeJSONResponse(w, http.StatusAccepted, job)
}

// GetJob handles GET /v1/sync-jobs/{jobId}
func (h *ChannelHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.channels.GetJob(r.Context(), mux.Vars(r)["jobId"])
	if err != nil {
		writeServiceError(w, r, err, channelsBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, job)
}

// CancelJob handles DELETE /v1/sync-jobs/{jobId}. Cancelling a finished job
// returns it unchanged.
func (h *ChannelHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.channels.CancelJob(r.Context(), mux.Vars(r)["jobId"])
	if err != nil {
		writeServiceError(w, r, err, channelsBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, job)
}
