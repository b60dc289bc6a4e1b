package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"retail-dashboard-api/internal/cache"
	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/merge"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/split"
)

// OrderServiceConfig configures the order service
type OrderServiceConfig struct {
	PageSize        int
	DraftTTL        time.Duration
	CleanupInterval time.Duration
	Metrics         Metrics
}

// OrderService lists orders and runs the split and merge workflows
type OrderService struct {
	orders     repository.Repository[models.Order]
	publisher  Publisher
	metrics    Metrics
	schema     *listing.Schema[models.Order]
	drafts     *cache.TTLCache[*split.Draft]
	draftLocks *KeyLockManager
	now        func() time.Time
	newOrderID func() string
}

// NewOrderService creates an order service. Split drafts expire after
// cfg.DraftTTL without access.
func NewOrderService(orders repository.Repository[models.Order], publisher Publisher, cfg OrderServiceConfig) *OrderService {
	draftLocks := NewKeyLockManager("split-draft")
	s := &OrderService{
		orders:    orders,
		publisher: publisher,
		metrics:   metricsOrNoop(cfg.Metrics),
		schema:    OrderSchema(cfg.PageSize),
		drafts: cache.NewTTLCache[*split.Draft]("split-drafts", cfg.DraftTTL, cfg.CleanupInterval,
			cache.WithSlidingExpiry(),
			cache.WithEvictionCallback(draftLocks.Forget)),
		draftLocks: draftLocks,
		now:        time.Now,
	}
	s.newOrderID = func() string {
		return "ORD-" + ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy()).String()
	}

	slog.Info("Order service initialized",
		"page_size", s.schema.PageSize(),
		"draft_ttl", cfg.DraftTTL.String())
	return s
}

// OrderSchema registers the filterable and sortable order fields
func OrderSchema(pageSize int) *listing.Schema[models.Order] {
	return listing.NewSchema[models.Order](pageSize).
		String("id", func(o models.Order) string { return o.ID }).
		String("customer", func(o models.Order) string { return o.Customer.Name }).
		Enum("status", func(o models.Order) string { return o.Status }).
		Enum("channel", func(o models.Order) string { return o.Channel }).
		Enum("paymentMethod", func(o models.Order) string { return o.PaymentMethod }).
		Number("total", func(o models.Order) float64 { return o.Total.InexactFloat64() }).
		Number("itemCount", func(o models.Order) float64 { return float64(o.ItemQuantity()) }).
		Number("issuedAt", func(o models.Order) float64 { return float64(o.IssuedAt.Unix()) })
}

// Schema returns the listing schema used by List
func (s *OrderService) Schema() *listing.Schema[models.Order] {
	return s.schema
}

// List returns one page of orders matching q
func (s *OrderService) List(ctx context.Context, q listing.Query) (models.ListResponse[models.OrderView], error) {
	all, err := s.orders.List(ctx, nil)
	if err != nil {
		return models.ListResponse[models.OrderView]{}, err
	}

	result, err := listing.Apply(s.schema, all, q)
	if err != nil {
		return models.ListResponse[models.OrderView]{}, err
	}

	items := make([]models.OrderView, 0, len(result.Items))
	for _, o := range result.Items {
		items = append(items, orderView(ctx, o))
	}

	slog.Debug("Orders listed", "matched", result.TotalItems, "page", result.Page)
	return models.ListResponse[models.OrderView]{Items: items, Pagination: result.Pagination()}, nil
}

// Get returns a single order
func (s *OrderService) Get(ctx context.Context, id string) (models.OrderView, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return models.OrderView{}, fmt.Errorf("order %s: %w", id, err)
	}
	return orderView(ctx, o), nil
}

// StartSplit opens a split draft over an order
func (s *OrderService) StartSplit(ctx context.Context, orderID string) (split.View, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return split.View{}, fmt.Errorf("order %s: %w", orderID, err)
	}

	draft, err := split.NewDraft(uuid.NewString(), o)
	if err != nil {
		return split.View{}, err
	}
	s.drafts.Set(draft.ID(), draft)

	slog.Info("Split draft started", "draft_id", draft.ID(), "order_id", orderID, "items", len(o.Items))
	return draft.View(), nil
}

// GetDraft returns the current state of a draft
func (s *OrderService) GetDraft(_ context.Context, draftID string) (split.View, error) {
	var view split.View
	err := s.withDraft(draftID, false, func(d *split.Draft) error {
		view = d.View()
		return nil
	})
	return view, err
}

// DiscardDraft drops a draft without creating orders
func (s *OrderService) DiscardDraft(_ context.Context, draftID string) error {
	err := s.withDraft(draftID, true, func(*split.Draft) error {
		s.drafts.Delete(draftID)
		return nil
	})
	if err != nil {
		return err
	}
	s.draftLocks.Forget(draftID)
	slog.Info("Split draft discarded", "draft_id", draftID)
	return nil
}

func (s *OrderService) AddBucket(_ context.Context, draftID string) (split.View, error) {
	return s.mutateDraft(draftID, func(d *split.Draft) error {
		d.AddBucket()
		return nil
	})
}

func (s *OrderService) DeleteBucket(_ context.Context, draftID, bucketID string) (split.View, error) {
	return s.mutateDraft(draftID, func(d *split.Draft) error {
		return d.DeleteBucket(bucketID)
	})
}

func (s *OrderService) MoveItem(_ context.Context, draftID, lineID, bucketID string) (split.View, error) {
	return s.mutateDraft(draftID, func(d *split.Draft) error {
		return d.MoveItem(lineID, bucketID)
	})
}

func (s *OrderService) RemoveItem(_ context.Context, draftID, lineID, bucketID string) (split.View, error) {
	return s.mutateDraft(draftID, func(d *split.Draft) error {
		return d.RemoveItem(lineID, bucketID)
	})
}

// AutoAssign groups the draft's lines into one bucket per warehouse,
// discarding any manual arrangement
func (s *OrderService) AutoAssign(_ context.Context, draftID string) (split.View, error) {
	return s.mutateDraft(draftID, func(d *split.Draft) error {
		d.AutoAssignByWarehouse()
		return nil
	})
}

// CommitSplit turns each bucket into a new pending order and closes the draft
func (s *OrderService) CommitSplit(ctx context.Context, draftID string) ([]models.OrderView, error) {
	var created []models.Order
	var sourceID string

	err := s.withDraft(draftID, true, func(d *split.Draft) error {
		orders, err := d.Commit(s.newOrderID)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if err := s.orders.Put(ctx, o); err != nil {
				return fmt.Errorf("failed to store split order %s: %w", o.ID, err)
			}
		}

		s.drafts.Delete(draftID)
		created = orders
		sourceID = d.SourceOrderID()
		return nil
	})
	if err != nil {
		slog.Warn("Split commit rejected", "draft_id", draftID, "error", err)
		return nil, err
	}
	s.draftLocks.Forget(draftID)

	ids := make([]string, len(created))
	views := make([]models.OrderView, len(created))
	for i, o := range created {
		ids[i] = o.ID
		views[i] = orderView(ctx, o)
	}

	s.publisher.Publish(models.EventTypeOrderSplit, models.EntityOrder, sourceID, map[string]string{
		"parts":    strconv.Itoa(len(created)),
		"orderIds": strings.Join(ids, ","),
	})
	s.metrics.RecordOrdersSplit(ctx, len(created))

	slog.Info("Order split committed", "draft_id", draftID, "order_id", sourceID, "parts", len(created))
	return views, nil
}

// MergeRequest selects the orders to merge and the operator's choices
type MergeRequest struct {
	OrderIDs []string      `json:"orderIds"`
	Choices  merge.Choices `json:"choices"`
}

// PreviewMerge derives the merge preview for the selected orders
func (s *OrderService) PreviewMerge(ctx context.Context, req MergeRequest) (merge.Preview, error) {
	selected, err := s.selectOrders(ctx, req.OrderIDs)
	if err != nil {
		return merge.Preview{}, err
	}
	return merge.BuildPreview(selected, req.Choices), nil
}

// Merge combines the selected orders into a new pending order. The source
// orders are kept as they are.
func (s *OrderService) Merge(ctx context.Context, req MergeRequest) (models.OrderView, error) {
	selected, err := s.selectOrders(ctx, req.OrderIDs)
	if err != nil {
		return models.OrderView{}, err
	}

	merged, err := merge.Commit(selected, req.Choices, s.newOrderID(), s.now())
	if err != nil {
		slog.Warn("Merge rejected", "order_ids", req.OrderIDs, "error", err)
		return models.OrderView{}, err
	}
	if err := s.orders.Put(ctx, merged); err != nil {
		return models.OrderView{}, fmt.Errorf("failed to store merged order %s: %w", merged.ID, err)
	}

	s.publisher.Publish(models.EventTypeOrderMerged, models.EntityOrder, merged.ID, map[string]string{
		"sourceOrderIds": strings.Join(merged.SourceOrderIDs, ","),
	})
	s.metrics.RecordOrdersMerged(ctx, len(merged.SourceOrderIDs))

	slog.Info("Orders merged", "order_id", merged.ID, "sources", len(merged.SourceOrderIDs))
	return orderView(ctx, merged), nil
}

// selectOrders resolves ids in order list order, so click order never
// affects the result
func (s *OrderService) selectOrders(ctx context.Context, ids []string) ([]models.Order, error) {
	selection := merge.NewSelection(ids...)
	all, err := s.orders.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	selected := selection.Pick(all)
	if len(selected) != selection.Len() {
		for _, id := range selection.IDs() {
			if _, err := s.orders.Get(ctx, id); err != nil {
				return nil, fmt.Errorf("order %s: %w", id, err)
			}
		}
	}
	return selected, nil
}

// mutateDraft applies fn to a draft under its write lock and returns the
// resulting view
func (s *OrderService) mutateDraft(draftID string, fn func(*split.Draft) error) (split.View, error) {
	var view split.View
	err := s.withDraft(draftID, true, func(d *split.Draft) error {
		if err := fn(d); err != nil {
			return err
		}
		view = d.View()
		return nil
	})
	if err != nil {
		slog.Debug("Split draft change rejected", "draft_id", draftID, "error", err)
	}
	return view, err
}

// withDraft runs fn on a live draft under its read or write lock. Unknown
// and expired drafts are rejected before a lock entry is created, and a draft
// that expires while waiting for the lock gives its entry back.
func (s *OrderService) withDraft(draftID string, write bool, fn func(*split.Draft) error) error {
	if _, ok := s.drafts.Get(draftID); !ok {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}

	run := s.draftLocks.WithReadLock
	if write {
		run = s.draftLocks.WithWriteLock
	}
	err := run(draftID, func() error {
		d, ok := s.drafts.Get(draftID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
		}
		return fn(d)
	})
	if errors.Is(err, ErrDraftNotFound) {
		s.draftLocks.Forget(draftID)
	}
	return err
}

// DraftStats describes the open split drafts and their locks
type DraftStats struct {
	Cache cache.Stats `json:"cache"`
	Locks LockStats   `json:"locks"`
}

func (s *OrderService) DraftStats() DraftStats {
	return DraftStats{Cache: s.drafts.Stats(), Locks: s.draftLocks.Stats()}
}

// Close stops the draft cache
func (s *OrderService) Close() {
	s.drafts.Stop()
}
