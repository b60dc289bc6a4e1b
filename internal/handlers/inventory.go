package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"retail-dashboard-api/internal/services"
)

const inventoryBack = "/v1/inventory"

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	inventoryService *services.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// ListInventory handles GET /v1/inventory
func (h *InventoryHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.inventoryService.Schema())
	if err != nil {
		writeServiceError(w, r, err, inventoryBack)
		return
	}

	resp, err := h.inventoryService.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, inventoryBack)
		return
	}

	slog.Debug("Successfully returned inventory",
		"returned_count", len(resp.Items),
		"total_count", resp.Pagination.TotalItems,
		"page", resp.Pagination.Page)
	writeJSONResponse(w, http.StatusOK, resp)
}

// GetItem handles GET /v1/inventory/{id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventoryService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, inventoryBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, item)
}

// AdjustStock handles POST /v1/inventory/{id}/adjustments
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req services.AdjustRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Invalid JSON in adjustment request", "error", err, "remote_addr", r.RemoteAddr)
		writeServiceError(w, r, err, inventoryBack)
		return
	}
	req.ItemID = mux.Vars(r)["id"]

	slog.Info("Processing stock adjustment",
		"item_id", req.ItemID,
		"location_id", req.LocationID,
		"delta", req.Delta,
		"remote_addr", r.RemoteAddr)

	item, err := h.inventoryService.Adjust(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, inventoryBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, item)
}

// TransferStock handles POST /v1/inventory/{id}/transfers
func (h *InventoryHandler) TransferStock(w http.ResponseWriter, r *http.Request) {
	var req services.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		slog.Warn("Invalid JSON in transfer request", "error", err, "remote_addr", r.RemoteAddr)
		writeServiceError(w, r, err, inventoryBack)
		return
	}
	req.ItemID = mux.Vars(r)["id"]

	slog.Info("Processing stock transfer",
		"item_id", req.ItemID,
		"from_location", req.FromLocation,
		"to_location", req.ToLocation,
		"quantity", req.Quantity,
		"remote_addr", r.RemoteAddr)

	item, err := h.inventoryService.Transfer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, inventoryBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, item)
}
