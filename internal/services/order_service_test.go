package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-dashboard-api/internal/events"
	"retail-dashboard-api/internal/fixtures"
	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/merge"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/split"
	"retail-dashboard-api/internal/validation"
)

// testEnv holds repositories filled from the embedded seed
type testEnv struct {
	orders     *repository.MemoryRepository[models.Order]
	products   *repository.MemoryRepository[models.Product]
	inventory  *repository.MemoryRepository[models.InventoryItem]
	channels   *repository.MemoryRepository[models.Channel]
	customers  *repository.MemoryRepository[models.Customer]
	incentives *repository.MemoryRepository[models.IncentivePlan]
	queue      *events.EventQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	seed, err := fixtures.Load("")
	require.NoError(t, err)

	return &testEnv{
		orders:     repository.NewMemoryRepository(seed.Orders),
		products:   repository.NewMemoryRepository(seed.Products),
		inventory:  repository.NewMemoryRepository(seed.Inventory),
		channels:   repository.NewMemoryRepository(seed.Channels),
		customers:  repository.NewMemoryRepository(seed.Customers),
		incentives: repository.NewMemoryRepository(seed.Incentives),
		queue:      events.NewEventQueue(events.EventQueueConfig{MaxEvents: 100}),
	}
}

// englishContext returns a context carrying the English translator
func englishContext(t *testing.T) context.Context {
	t.Helper()
	bundle, err := i18n.LoadBundle()
	require.NoError(t, err)
	return i18n.WithTranslator(context.Background(), bundle.Translator(i18n.LocaleEN))
}

// countingMetrics records domain counters for assertions
type countingMetrics struct {
	split, merged, adjusted, transferred, syncs int
}

func (m *countingMetrics) RecordOrdersSplit(_ context.Context, parts int)    { m.split += parts }
func (m *countingMetrics) RecordOrdersMerged(_ context.Context, sources int) { m.merged += sources }
func (m *countingMetrics) RecordInventoryAdjusted(context.Context)           { m.adjusted++ }
func (m *countingMetrics) RecordInventoryTransferred(context.Context)        { m.transferred++ }
func (m *countingMetrics) RecordChannelSyncStarted(context.Context, string)  { m.syncs++ }

func newOrderService(t *testing.T, env *testEnv, metrics Metrics) *OrderService {
	t.Helper()
	s := NewOrderService(env.orders, env.queue, OrderServiceConfig{
		PageSize:        10,
		DraftTTL:        time.Minute,
		CleanupInterval: time.Minute,
		Metrics:         metrics,
	})
	t.Cleanup(s.Close)
	return s
}

func TestOrderService_List(t *testing.T) {
	env := newTestEnv(t)
	s := newOrderService(t, env, nil)
	ctx := englishContext(t)

	tests := []struct {
		name      string
		query     listing.Query
		wantTotal int
		check     func(t *testing.T, items []models.OrderView)
	}{
		{
			name:      "all orders on the first page",
			query:     listing.Query{Page: 1},
			wantTotal: 12,
			check: func(t *testing.T, items []models.OrderView) {
				assert.Len(t, items, 10)
				assert.Equal(t, "ORD-1001", items[0].ID)
			},
		},
		{
			name:      "status filter",
			query:     listing.Query{Criteria: listing.Criteria{Equals: map[string]string{"status": models.OrderStatusCancelled}}},
			wantTotal: 1,
			check: func(t *testing.T, items []models.OrderView) {
				assert.Equal(t, "ORD-1008", items[0].ID)
				assert.Equal(t, "Cancelled", items[0].StatusLabel)
			},
		},
		{
			name:      "customer substring",
			query:     listing.Query{Criteria: listing.Criteria{Contains: map[string]string{"customer": "张伟"}}},
			wantTotal: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			resp, err := s.List(ctx, tt.query)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, resp.Pagination.TotalItems)
			if tt.check != nil {
				tt.check(t, resp.Items)
			}
		})
	}
}

func TestOrderService_GetView(t *testing.T) {
	env := newTestEnv(t)
	s := newOrderService(t, env, nil)

	view, err := s.Get(englishContext(t), "ORD-1001")
	require.NoError(t, err)
	assert.Equal(t, 4, view.ItemCount)
	assert.Equal(t, "Taobao", view.ChannelLabel)
	assert.Contains(t, view.TotalDisplay, "1,868.00")

	_, err = s.Get(context.Background(), "ORD-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderService_SplitWorkflow(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	metrics := &countingMetrics{}
	s := newOrderService(t, env, metrics)
	ctx := context.Background()

	draft, err := s.StartSplit(ctx, "ORD-1001")
	require.NoError(t, err)
	require.Len(t, draft.Unassigned, 3)
	require.Len(t, draft.Buckets, 1)
	assert.False(t, draft.CanCommit)

	// Act
	draft, err = s.AutoAssign(ctx, draft.ID)
	require.NoError(t, err)
	created, err := s.CommitSplit(ctx, draft.ID)

	// Assert
	require.NoError(t, err)
	require.Len(t, created, 3)
	warehouses := []string{created[0].Items[0].Warehouse, created[1].Items[0].Warehouse, created[2].Items[0].Warehouse}
	assert.Equal(t, []string{"WH-EAST", "WH-NORTH", ""}, warehouses)
	childTotal := decimal.Zero
	for _, o := range created {
		childTotal = childTotal.Add(o.Total)
		assert.Equal(t, "ORD-1001", o.ParentOrderID)
		assert.Equal(t, models.OrderStatusPending, o.Status)
		assert.True(t, o.Total.Equal(o.Subtotal.Add(o.ShippingFee).Add(o.Tax)))

		stored, err := env.orders.Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, stored.ID)
	}

	source, err := env.orders.Get(ctx, "ORD-1001")
	require.NoError(t, err)
	assert.True(t, childTotal.Equal(source.Total), "parts add up to the source total")
	assert.Len(t, source.Items, 3, "the source order is not modified")

	_, err = s.GetDraft(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound, "a committed draft is closed")

	evts, _, _ := env.queue.GetEvents(0, 10)
	require.Len(t, evts, 1)
	assert.Equal(t, models.EventTypeOrderSplit, evts[0].EventType)
	assert.Equal(t, "3", evts[0].Attributes["parts"])
	assert.Equal(t, 3, metrics.split)
}

func TestOrderService_SplitManualMoves(t *testing.T) {
	env := newTestEnv(t)
	s := newOrderService(t, env, nil)
	ctx := context.Background()

	draft, err := s.StartSplit(ctx, "ORD-1002")
	require.NoError(t, err)
	first := draft.Buckets[0].ID

	draft, err = s.AddBucket(ctx, draft.ID)
	require.NoError(t, err)
	second := draft.Buckets[1].ID

	_, err = s.MoveItem(ctx, draft.ID, "ORD-1002-L1", first)
	require.NoError(t, err)

	_, err = s.CommitSplit(ctx, draft.ID)
	verr, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, verr.Has("unassigned"))
	assert.True(t, verr.Has("buckets[1]"))

	_, err = s.MoveItem(ctx, draft.ID, "ORD-1002-L2", second)
	require.NoError(t, err)
	view, err := s.RemoveItem(ctx, draft.ID, "ORD-1002-L2", second)
	require.NoError(t, err)
	assert.Len(t, view.Unassigned, 1)

	view, err = s.DeleteBucket(ctx, draft.ID, second)
	require.NoError(t, err)
	_, err = s.DeleteBucket(ctx, draft.ID, view.Buckets[0].ID)
	assert.ErrorIs(t, err, split.ErrLastBucket)

	_, err = s.MoveItem(ctx, draft.ID, "ORD-1002-L9", first)
	assert.ErrorIs(t, err, split.ErrItemNotFound)

	require.NoError(t, s.DiscardDraft(ctx, draft.ID))
	assert.ErrorIs(t, s.DiscardDraft(ctx, draft.ID), ErrDraftNotFound)
}

func TestOrderService_StartSplitUnknownOrder(t *testing.T) {
	s := newOrderService(t, newTestEnv(t), nil)

	_, err := s.StartSplit(context.Background(), "ORD-404")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrderService_Merge(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	metrics := &countingMetrics{}
	s := newOrderService(t, env, metrics)
	ctx := context.Background()
	req := MergeRequest{OrderIDs: []string{"ORD-1002", "ORD-1001"}}

	// Act
	preview, err := s.PreviewMerge(ctx, req)
	require.NoError(t, err)
	merged, err := s.Merge(ctx, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-1001", "ORD-1002"}, preview.OrderIDs, "source list order, not request order")
	assert.Empty(t, preview.Warnings, "same customer and methods")
	assert.True(t, preview.Total.Equal(decimal.RequireFromString("2695")))

	require.Len(t, merged.Items, 4)
	assert.Equal(t, "SC-RED", merged.Items[0].SKU)
	assert.Equal(t, 3, merged.Items[0].Quantity)
	assert.True(t, merged.Total.Equal(preview.Total))
	assert.Equal(t, []string{"ORD-1001", "ORD-1002"}, merged.SourceOrderIDs)
	assert.Equal(t, "alipay", merged.PaymentMethod)

	stored, err := env.orders.Get(ctx, merged.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Equal(t, 2, metrics.merged)

	evts, _, _ := env.queue.GetEvents(0, 10)
	require.Len(t, evts, 1)
	assert.Equal(t, models.EventTypeOrderMerged, evts[0].EventType)
}

func TestOrderService_MergeRejections(t *testing.T) {
	env := newTestEnv(t)
	s := newOrderService(t, env, nil)
	ctx := context.Background()

	t.Run("unknown order", func(t *testing.T) {
		_, err := s.PreviewMerge(ctx, MergeRequest{OrderIDs: []string{"ORD-1001", "ORD-404"}})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("single order", func(t *testing.T) {
		_, err := s.Merge(ctx, MergeRequest{OrderIDs: []string{"ORD-1001"}})
		verr, ok := validation.As(err)
		require.True(t, ok)
		assert.True(t, verr.Has("orderIds"))
	})

	t.Run("methods differ without a choice", func(t *testing.T) {
		_, err := s.Merge(ctx, MergeRequest{OrderIDs: []string{"ORD-1001", "ORD-1003"}})
		verr, ok := validation.As(err)
		require.True(t, ok)
		assert.True(t, verr.Has("paymentMethod"))
		assert.True(t, verr.Has("shippingMethod"))
	})

	t.Run("explicit choices resolve the conflict", func(t *testing.T) {
		merged, err := s.Merge(ctx, MergeRequest{
			OrderIDs: []string{"ORD-1001", "ORD-1003"},
			Choices:  merge.Choices{PaymentMethod: "alipay", ShippingMethod: "sf_express"},
		})
		require.NoError(t, err)
		assert.Equal(t, "sf_express", merged.ShippingMethod)
	})

}

func TestOrderService_UnknownDraftsLeaveNoLocks(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	s := newOrderService(t, env, nil)
	ctx := englishContext(t)

	// Act
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("draft-missing-%d", i)
		_, getErr := s.GetDraft(ctx, id)
		_, moveErr := s.MoveItem(ctx, id, "line-1", "bucket-1")
		_, commitErr := s.CommitSplit(ctx, id)
		discardErr := s.DiscardDraft(ctx, id)

		require.ErrorIs(t, getErr, ErrDraftNotFound)
		require.ErrorIs(t, moveErr, ErrDraftNotFound)
		require.ErrorIs(t, commitErr, ErrDraftNotFound)
		require.ErrorIs(t, discardErr, ErrDraftNotFound)
	}

	// Assert
	stats := s.DraftStats()
	assert.Equal(t, 0, stats.Locks.Locks)
	assert.Equal(t, 0, stats.Cache.Entries)
}

func TestOrderService_ExpiredDraftDropsItsLock(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	s := NewOrderService(env.orders, env.queue, OrderServiceConfig{
		PageSize:        10,
		DraftTTL:        30 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	})
	t.Cleanup(s.Close)
	ctx := englishContext(t)

	draft, err := s.StartSplit(ctx, "ORD-1001")
	require.NoError(t, err)
	_, err = s.AutoAssign(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, 1, s.DraftStats().Locks.Locks)

	// Act & Assert
	assert.Eventually(t, func() bool {
		stats := s.DraftStats()
		return stats.Cache.Entries == 0 && stats.Locks.Locks == 0
	}, time.Second, 10*time.Millisecond)

	_, err = s.GetDraft(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.Equal(t, 0, s.DraftStats().Locks.Locks)
}
