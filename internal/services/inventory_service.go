package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/validation"
)

// AdjustRequest changes the stock of one item by Delta. When LocationID is
// set that location's stock changes by the same amount.
type AdjustRequest struct {
	ItemID     string `json:"itemId"`
	LocationID string `json:"locationId,omitempty"`
	Delta      int    `json:"delta"`
	Reason     string `json:"reason"`
	Notes      string `json:"notes,omitempty"`
}

// TransferRequest moves stock between two locations of one item
type TransferRequest struct {
	ItemID       string `json:"itemId"`
	FromLocation string `json:"fromLocation"`
	ToLocation   string `json:"toLocation"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes,omitempty"`
}

// InventoryService handles inventory business logic
type InventoryService struct {
	items     repository.Repository[models.InventoryItem]
	publisher Publisher
	metrics   Metrics
	schema    *listing.Schema[models.InventoryView]
	itemLocks *KeyLockManager
	now       func() time.Time
}

// NewInventoryService creates a new inventory service instance
func NewInventoryService(items repository.Repository[models.InventoryItem], publisher Publisher, pageSize int, metrics Metrics) *InventoryService {
	return &InventoryService{
		items:     items,
		publisher: publisher,
		metrics:   metricsOrNoop(metrics),
		schema:    InventorySchema(pageSize),
		itemLocks: NewKeyLockManager("inventory-item"),
		now:       time.Now,
	}
}

// InventorySchema registers the filterable and sortable inventory fields
func InventorySchema(pageSize int) *listing.Schema[models.InventoryView] {
	return listing.NewSchema[models.InventoryView](pageSize).
		String("name", func(v models.InventoryView) string { return v.Name }).
		String("sku", func(v models.InventoryView) string { return v.SKU }).
		EnumSet("locationKind", func(v models.InventoryView) []string {
			kinds := make([]string, 0, len(v.Locations))
			for _, loc := range v.Locations {
				kinds = append(kinds, loc.Kind)
			}
			return kinds
		}).
		Enum("lowStock", func(v models.InventoryView) string { return strconv.FormatBool(v.LowStock) }).
		Number("totalStock", func(v models.InventoryView) float64 { return float64(v.TotalStock) }).
		Number("availableStock", func(v models.InventoryView) float64 { return float64(v.AvailableStock) }).
		Number("reservedStock", func(v models.InventoryView) float64 { return float64(v.ReservedStock) })
}

func (s *InventoryService) Schema() *listing.Schema[models.InventoryView] {
	return s.schema
}

// List returns one page of inventory items matching q
func (s *InventoryService) List(ctx context.Context, q listing.Query) (models.ListResponse[models.InventoryView], error) {
	all, err := s.items.List(ctx, nil)
	if err != nil {
		return models.ListResponse[models.InventoryView]{}, err
	}

	views := make([]models.InventoryView, len(all))
	for i, item := range all {
		views[i] = inventoryView(item)
	}

	result, err := listing.Apply(s.schema, views, q)
	if err != nil {
		return models.ListResponse[models.InventoryView]{}, err
	}
	return models.ListResponse[models.InventoryView]{Items: result.Items, Pagination: result.Pagination()}, nil
}

// Get retrieves an inventory item by its ID using an item-level read lock
func (s *InventoryService) Get(ctx context.Context, id string) (models.InventoryView, error) {
	slog.Debug("Retrieving inventory item", "item_id", id)

	// Unknown ids never get a lock entry
	if _, err := s.items.Get(ctx, id); err != nil {
		return models.InventoryView{}, fmt.Errorf("inventory item %s: %w", id, err)
	}

	var view models.InventoryView
	err := s.itemLocks.WithReadLock(id, func() error {
		item, err := s.items.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("inventory item %s: %w", id, err)
		}
		view = inventoryView(item)
		return nil
	})
	return view, err
}

// Adjust applies a stock correction. Available and total stock move
// together, so reserved stock is unchanged.
func (s *InventoryService) Adjust(ctx context.Context, req AdjustRequest) (models.InventoryView, error) {
	req.Reason = strings.TrimSpace(req.Reason)

	updated, err := s.update(ctx, req.ItemID, func(item *models.InventoryItem) error {
		verr := &validation.Error{}
		if req.Reason == "" {
			verr.Add("reason", "validation.required")
		}
		if req.Delta == 0 {
			verr.Add("delta", "validation.nonzero")
		}

		locIdx := -1
		if req.LocationID != "" {
			loc, idx, ok := item.Location(req.LocationID)
			switch {
			case !ok:
				verr.Add("locationId", "validation.unknown_location")
			case loc.Stock+req.Delta < 0:
				verr.Add("delta", "validation.negative_stock")
			default:
				locIdx = idx
			}
		}
		if !verr.Has("delta") && (item.AvailableStock+req.Delta < 0 || item.TotalStock+req.Delta < 0) {
			verr.Add("delta", "validation.negative_stock")
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		item.TotalStock += req.Delta
		item.AvailableStock += req.Delta
		if locIdx >= 0 {
			item.Locations[locIdx].Stock += req.Delta
		}
		return nil
	})
	if err != nil {
		slog.Warn("Inventory adjustment rejected", "item_id", req.ItemID, "delta", req.Delta, "error", err)
		return models.InventoryView{}, err
	}

	s.publisher.Publish(models.EventTypeInventoryAdjusted, models.EntityInventory, updated.ID, map[string]string{
		"delta":      strconv.Itoa(req.Delta),
		"reason":     req.Reason,
		"locationId": req.LocationID,
	})
	s.metrics.RecordInventoryAdjusted(ctx)

	slog.Info("Inventory adjusted",
		"item_id", updated.ID,
		"delta", req.Delta,
		"reason", req.Reason,
		"available", updated.AvailableStock,
		"total", updated.TotalStock)
	return inventoryView(updated), nil
}

// Transfer moves stock between two locations. Total and available stock
// are unchanged.
func (s *InventoryService) Transfer(ctx context.Context, req TransferRequest) (models.InventoryView, error) {
	updated, err := s.update(ctx, req.ItemID, func(item *models.InventoryItem) error {
		verr := &validation.Error{}

		from, fromIdx, fromOK := item.Location(req.FromLocation)
		_, toIdx, toOK := item.Location(req.ToLocation)

		switch {
		case req.FromLocation == "":
			verr.Add("fromLocation", "validation.required")
		case !fromOK:
			verr.Add("fromLocation", "validation.unknown_location")
		}
		switch {
		case req.ToLocation == "":
			verr.Add("toLocation", "validation.required")
		case req.ToLocation == req.FromLocation:
			verr.Add("toLocation", "validation.same_location")
		case !toOK:
			verr.Add("toLocation", "validation.unknown_location")
		}
		switch {
		case req.Quantity <= 0:
			verr.Add("quantity", "validation.positive")
		case fromOK && req.Quantity > from.Stock, req.Quantity > item.AvailableStock:
			verr.Add("quantity", "validation.insufficient_stock")
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		item.Locations[fromIdx].Stock -= req.Quantity
		item.Locations[toIdx].Stock += req.Quantity
		return nil
	})
	if err != nil {
		slog.Warn("Inventory transfer rejected", "item_id", req.ItemID, "quantity", req.Quantity, "error", err)
		return models.InventoryView{}, err
	}

	s.publisher.Publish(models.EventTypeInventoryTransferred, models.EntityInventory, updated.ID, map[string]string{
		"from":     req.FromLocation,
		"to":       req.ToLocation,
		"quantity": strconv.Itoa(req.Quantity),
	})
	s.metrics.RecordInventoryTransferred(ctx)

	slog.Info("Inventory transferred",
		"item_id", updated.ID,
		"from", req.FromLocation,
		"to", req.ToLocation,
		"quantity", req.Quantity)
	return inventoryView(updated), nil
}

// LockStats reports how many items hold a lock entry
func (s *InventoryService) LockStats() LockStats {
	return s.itemLocks.Stats()
}

// LowStockCount counts items whose available stock is below their threshold
func (s *InventoryService) LowStockCount(ctx context.Context) (int, error) {
	low, err := s.items.List(ctx, func(item models.InventoryItem) bool {
		return item.AvailableStock < item.LowStockThreshold
	})
	if err != nil {
		return 0, err
	}
	return len(low), nil
}

// update runs fn on an item under its write lock and stamps LastUpdated.
// Nothing is stored when fn fails.
func (s *InventoryService) update(ctx context.Context, id string, fn func(*models.InventoryItem) error) (models.InventoryItem, error) {
	if _, err := s.items.Get(ctx, id); err != nil {
		return models.InventoryItem{}, fmt.Errorf("inventory item %s: %w", id, err)
	}

	var updated models.InventoryItem
	err := s.itemLocks.WithWriteLock(id, func() error {
		item, err := s.items.Update(ctx, id, func(item *models.InventoryItem) error {
			if err := fn(item); err != nil {
				return err
			}
			item.ReservedStock = item.TotalStock - item.AvailableStock
			item.LastUpdated = s.now().UTC()
			return nil
		})
		if err != nil {
			if _, ok := validation.As(err); ok {
				return err
			}
			return fmt.Errorf("inventory item %s: %w", id, err)
		}
		updated = item
		return nil
	})
	return updated, err
}
