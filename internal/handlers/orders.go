package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/merge"
	"retail-dashboard-api/internal/services"
	"retail-dashboard-api/internal/split"
)

const ordersBack = "/v1/orders"

// OrderHandler serves the order list, order detail, and the split and merge
// workflows
type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListOrders handles GET /v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.orders.Schema())
	if err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	resp, err := h.orders.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// GetOrder handles GET /v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, order)
}

// StartSplit handles POST /v1/orders/{id}/split-drafts
func (h *OrderHandler) StartSplit(w http.ResponseWriter, r *http.Request) {
	draft, err := h.orders.StartSplit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	w.Header().Set("Location", "/v1/split-drafts/"+draft.ID)
	writeJSONResponse(w, http.StatusCreated, draft)
}

// GetDraft handles GET /v1/split-drafts/{draftId}
func (h *OrderHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	h.respondDraft(w, r)(h.orders.GetDraft(r.Context(), mux.Vars(r)["draftId"]))
}

// DiscardDraft handles DELETE /v1/split-drafts/{draftId}
func (h *OrderHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DiscardDraft(r.Context(), mux.Vars(r)["draftId"]); err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddBucket handles POST /v1/split-drafts/{draftId}/buckets
func (h *OrderHandler) AddBucket(w http.ResponseWriter, r *http.Request) {
	h.respondDraft(w, r)(h.orders.AddBucket(r.Context(), mux.Vars(r)["draftId"]))
}

// DeleteBucket handles DELETE /v1/split-drafts/{draftId}/buckets/{bucketId}
func (h *OrderHandler) DeleteBucket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.respondDraft(w, r)(h.orders.DeleteBucket(r.Context(), vars["draftId"], vars["bucketId"]))
}

// MoveRequest moves one line into a bucket
type MoveRequest struct {
	LineID   string `json:"lineId"`
	BucketID string `json:"bucketId"`
}

// MoveItem handles POST /v1/split-drafts/{draftId}/moves
func (h *OrderHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Invalid JSON in move request", "error", err, "remote_addr", r.RemoteAddr)
		writeServiceError(w, r, err, ordersBack)
		return
	}
	h.respondDraft(w, r)(h.orders.MoveItem(r.Context(), mux.Vars(r)["draftId"], req.LineID, req.BucketID))
}

// RemoveItem handles DELETE /v1/split-drafts/{draftId}/buckets/{bucketId}/items/{lineId}
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.respondDraft(w, r)(h.orders.RemoveItem(r.Context(), vars["draftId"], vars["lineId"], vars["bucketId"]))
}

// AutoAssign handles POST /v1/split-drafts/{draftId}/auto-assign
func (h *OrderHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	h.respondDraft(w, r)(h.orders.AutoAssign(r.Context(), mux.Vars(r)["draftId"]))
}

// CommitSplit handles POST /v1/split-drafts/{draftId}/commit
func (h *OrderHandler) CommitSplit(w http.ResponseWriter, r *http.Request) {
	created, err := h.orders.CommitSplit(r.Context(), mux.Vars(r)["draftId"])
	if err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"orders": created})
}

// mergePreviewResponse adds the translated warnings to a preview
type mergePreviewResponse struct {
	merge.Preview
	WarningMessages []string `json:"warningMessages"`
}

// PreviewMerge handles POST /v1/orders/merge/preview
func (h *OrderHandler) PreviewMerge(w http.ResponseWriter, r *http.Request) {
	var req services.MergeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	preview, err := h.orders.PreviewMerge(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	tr := i18n.FromContext(r.Context())
	messages := make([]string, 0, len(preview.Warnings))
	for _, warning := range preview.Warnings {
		messages = append(messages, tr.T(warning.Key))
	}
	writeJSONResponse(w, http.StatusOK, mergePreviewResponse{Preview: preview, WarningMessages: messages})
}

// Merge handles POST /v1/orders/merge
func (h *OrderHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req services.MergeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	merged, err := h.orders.Merge(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, ordersBack)
		return
	}
	w.Header().Set("Location", "/v1/orders/"+merged.ID)
	writeJSONResponse(w, http.StatusCreated, merged)
}

// respondDraft writes a draft view or the error that replaced it
func (h *OrderHandler) respondDraft(w http.ResponseWriter, r *http.Request) func(split.View, error) {
	return func(view split.View, err error) {
		if err != nil {
			writeServiceError(w, r, err, ordersBack)
			return
		}
		writeJSONResponse(w, http.StatusOK, view)
	}
}
