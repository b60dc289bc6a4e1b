// Package services holds the dashboard's business operations over the
// in-memory repositories.
package services

import (
	"context"
	"errors"

	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/money"
)

var ErrDraftNotFound = errors.New("split draft not found")

// Publisher appends entries to the activity feed
type Publisher interface {
	Publish(eventType, entityType, entityID string, attrs map[string]string) models.Event
}

// Metrics receives domain counters
type Metrics interface {
	RecordOrdersSplit(ctx context.Context, parts int)
	RecordOrdersMerged(ctx context.Context, sources int)
	RecordInventoryAdjusted(ctx context.Context)
	RecordInventoryTransferred(ctx context.Context)
	RecordChannelSyncStarted(ctx context.Context, channelType string)
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordOrdersSplit(context.Context, int)           {}
func (NoopMetrics) RecordOrdersMerged(context.Context, int)          {}
func (NoopMetrics) RecordInventoryAdjusted(context.Context)          {}
func (NoopMetrics) RecordInventoryTransferred(context.Context)       {}
func (NoopMetrics) RecordChannelSyncStarted(context.Context, string) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return NoopMetrics{}
	}
	return m
}

// orderView decorates an order with labels and amounts for the request locale
func orderView(ctx context.Context, o models.Order) models.OrderView {
	tr := i18n.FromContext(ctx)
	f := money.NewFormatter(tr.Tag())
	return models.OrderView{
		Order:           o,
		ItemCount:       o.ItemQuantity(),
		StatusLabel:     tr.T("order.status." + o.Status),
		ChannelLabel:    tr.T("channel." + o.Channel),
		SubtotalDisplay: f.Format(o.Subtotal),
		ShippingDisplay: f.Format(o.ShippingFee),
		TaxDisplay:      f.Format(o.Tax),
		TotalDisplay:    f.Format(o.Total),
	}
}

func inventoryView(item models.InventoryItem) models.InventoryView {
	sum := item.LocationSum()
	return models.InventoryView{
		InventoryItem: item,
		LowStock:      item.AvailableStock < item.LowStockThreshold,
		LocationSum:   sum,
		LocationDrift: item.TotalStock - sum,
	}
}
