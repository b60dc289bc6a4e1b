package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"retail-dashboard-api/internal/events"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/validation"
)

const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
	maxEventsWait      = 60
)

// EventsHandler serves the activity feed
type EventsHandler struct {
	eventQueue *events.EventQueue
	logger     *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventQueue *events.EventQueue, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		eventQueue: eventQueue,
		logger:     logger,
	}
}

type eventsParams struct {
	offset int64
	limit  int
	wait   time.Duration
}

// parseEventsParams reads offset, limit and wait. offset defaults to the
// start of the feed; limit and wait are clamped to their maximums.
func parseEventsParams(r *http.Request) (eventsParams, error) {
	query := r.URL.Query()
	p := eventsParams{limit: defaultEventsLimit}
	verr := &validation.Error{}

	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || offset < 0 {
			verr.Add("offset", "validation.number")
		} else {
			p.offset = offset
		}
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			verr.Add("limit", "validation.number")
		} else {
			p.limit = min(limit, maxEventsLimit)
		}
	}

	if raw := strings.TrimSpace(query.Get("wait")); raw != "" {
		wait, err := strconv.Atoi(raw)
		if err != nil || wait < 0 {
			verr.Add("wait", "validation.number")
		} else {
			p.wait = time.Duration(min(wait, maxEventsWait)) * time.Second
		}
	}

	return p, verr.OrNil()
}

// GetEvents handles GET /v1/events. With wait > 0 and nothing new past
// offset, the request blocks until an event arrives or wait elapses.
func (h *EventsHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	p, err := parseEventsParams(r)
	if err != nil {
		writeServiceError(w, r, err, "/v1/navigation")
		return
	}

	h.logger.Debug("Events request received",
		"offset", p.offset,
		"limit", p.limit,
		"wait", p.wait,
		"remote_addr", r.RemoteAddr,
	)

	evts, nextOffset, hasMore := h.eventQueue.GetEvents(p.offset, p.limit)

	if len(evts) == 0 && p.wait > 0 {
		select {
		case <-h.eventQueue.WaitForEvents(p.offset, p.wait):
			evts, nextOffset, hasMore = h.eventQueue.GetEvents(p.offset, p.limit)
		case <-r.Context().Done():
			h.logger.Debug("Client disconnected during long polling", "offset", p.offset)
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, models.EventsResponse{
		Events:     evts,
		NextOffset: nextOffset,
		HasMore:    hasMore,
		Count:      len(evts),
	})
}
