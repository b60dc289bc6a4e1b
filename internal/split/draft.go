// Package split partitions the lines of one order into new target orders.
package split

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/validation"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrLastBucket     = errors.New("cannot delete the last bucket")
)

// UnknownWarehouse groups lines without a warehouse tag during auto-assign
const UnknownWarehouse = "unknown"

// Bucket is a target order being assembled
type Bucket struct {
	ID        string             `json:"id"`
	Warehouse string             `json:"warehouse,omitempty"`
	Items     []models.OrderItem `json:"items"`
}

// Draft holds the in-progress split of a source order.
// Every source line is in exactly one place: unassigned or one bucket.
type Draft struct {
	id         string
	source     models.Order
	position   map[string]int
	unassigned []models.OrderItem
	buckets    []Bucket
	newID      func() string
}

// Option customizes a draft
type Option func(*Draft)

// WithBucketIDs overrides how bucket ids are generated
func WithBucketIDs(gen func() string) Option {
	return func(d *Draft) { d.newID = gen }
}

// NewDraft starts a split with every line unassigned and one empty bucket.
// The source order is copied; later changes to it do not affect the draft.
func NewDraft(id string, source models.Order, opts ...Option) (*Draft, error) {
	d := &Draft{
		id:       id,
		source:   source.Clone(),
		position: make(map[string]int, len(source.Items)),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}

	for i, item := range d.source.Items {
		if item.LineID == "" {
			return nil, fmt.Errorf("order %s line %d has no line id", source.ID, i+1)
		}
		if _, dup := d.position[item.LineID]; dup {
			return nil, fmt.Errorf("order %s has duplicate line id %s", source.ID, item.LineID)
		}
		d.position[item.LineID] = i
	}

	d.unassigned = slices.Clone(d.source.Items)
	d.buckets = []Bucket{d.emptyBucket("")}
	return d, nil
}

func (d *Draft) ID() string { return d.id }

// SourceOrderID returns the id of the order being split
func (d *Draft) SourceOrderID() string { return d.source.ID }

// Unassigned returns a copy of the lines not yet placed in a bucket
func (d *Draft) Unassigned() []models.OrderItem {
	return slices.Clone(d.unassigned)
}

// Buckets returns a copy of the current buckets
func (d *Draft) Buckets() []Bucket {
	out := make([]Bucket, len(d.buckets))
	for i, b := range d.buckets {
		b.Items = slices.Clone(b.Items)
		out[i] = b
	}
	return out
}

// View is the serializable state of a draft
type View struct {
	ID            string             `json:"id"`
	SourceOrderID string             `json:"sourceOrderId"`
	Unassigned    []models.OrderItem `json:"unassigned"`
	Buckets       []Bucket           `json:"buckets"`
	CanCommit     bool               `json:"canCommit"`
}

// View snapshots the draft
func (d *Draft) View() View {
	unassigned := d.Unassigned()
	if unassigned == nil {
		unassigned = []models.OrderItem{}
	}
	return View{
		ID:            d.id,
		SourceOrderID: d.source.ID,
		Unassigned:    unassigned,
		Buckets:       d.Buckets(),
		CanCommit:     d.Validate() == nil,
	}
}

// AddBucket appends a new empty bucket
func (d *Draft) AddBucket() Bucket {
	b := d.emptyBucket("")
	d.buckets = append(d.buckets, b)
	return b
}

// MoveItem moves a line from wherever it is to the end of the target bucket
func (d *Draft) MoveItem(lineID, bucketID string) error {
	target := d.bucketIndex(bucketID)
	if target < 0 {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketID)
	}

	item, ok := d.take(lineID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, lineID)
	}
	d.buckets[target].Items = append(d.buckets[target].Items, item)
	return nil
}

// RemoveItem returns a line from a bucket to the unassigned list
func (d *Draft) RemoveItem(lineID, bucketID string) error {
	idx := d.bucketIndex(bucketID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketID)
	}

	items := d.buckets[idx].Items
	pos := slices.IndexFunc(items, func(it models.OrderItem) bool { return it.LineID == lineID })
	if pos < 0 {
		return fmt.Errorf("%w: %s in bucket %s", ErrItemNotFound, lineID, bucketID)
	}

	item := items[pos]
	d.buckets[idx].Items = slices.Delete(items, pos, pos+1)
	d.unassign(item)
	return nil
}

// DeleteBucket removes a bucket and returns its lines to unassigned.
// The last remaining bucket cannot be deleted.
func (d *Draft) DeleteBucket(bucketID string) error {
	idx := d.bucketIndex(bucketID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, bucketID)
	}
	if len(d.buckets) == 1 {
		return ErrLastBucket
	}

	for _, item := range d.buckets[idx].Items {
		d.unassign(item)
	}
	d.buckets = slices.Delete(d.buckets, idx, idx+1)
	return nil
}

// AutoAssignByWarehouse replaces all buckets with one bucket per warehouse,
// in the order warehouses first appear on the source order. Manual
// placements made before are discarded.
func (d *Draft) AutoAssignByWarehouse() {
	var buckets []Bucket
	groups := make(map[string]int)

	for _, item := range d.source.Items {
		warehouse := item.Warehouse
		if warehouse == "" {
			warehouse = UnknownWarehouse
		}
		idx, ok := groups[warehouse]
		if !ok {
			idx = len(buckets)
			groups[warehouse] = idx
			buckets = append(buckets, d.emptyBucket(warehouse))
		}
		buckets[idx].Items = append(buckets[idx].Items, item)
	}

	if len(buckets) == 0 {
		buckets = []Bucket{d.emptyBucket("")}
	}
	d.buckets = buckets
	d.unassigned = nil
}

// Validate reports why the draft cannot be committed yet
func (d *Draft) Validate() error {
	verr := &validation.Error{}
	if len(d.unassigned) > 0 {
		verr.Add("unassigned", "split.unassigned")
	}
	for i, b := range d.buckets {
		if len(b.Items) == 0 {
			verr.Add(fmt.Sprintf("buckets[%d]", i), "split.empty_bucket")
		}
	}
	return verr.OrNil()
}

// Commit produces one new order per bucket. Each inherits the source's
// customer, address, issue date, channel and methods, starts as pending, and
// carries only its bucket's lines. Shipping fee and tax are split in
// proportion to each part's subtotal. The source order is left untouched.
func (d *Draft) Commit(newOrderID func() string) ([]models.Order, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	subtotals := make([]decimal.Decimal, len(d.buckets))
	for i, b := range d.buckets {
		subtotals[i] = models.SumLineTotals(b.Items)
	}
	fees := apportion(d.source.ShippingFee, subtotals)
	taxes := apportion(d.source.Tax, subtotals)

	orders := make([]models.Order, 0, len(d.buckets))
	for i, b := range d.buckets {
		order := d.source.Clone()
		order.ID = newOrderID()
		order.Status = models.OrderStatusPending
		order.ParentOrderID = d.source.ID
		order.SourceOrderIDs = nil
		order.Items = slices.Clone(b.Items)
		order.Subtotal = subtotals[i]
		order.ShippingFee = fees[i]
		order.Tax = taxes[i]
		order.Total = order.Subtotal.Add(order.ShippingFee).Add(order.Tax)
		orders = append(orders, order)
	}
	return orders, nil
}

// apportion shares amount out by weight, rounded to cents. The last share
// takes the rounding remainder so the shares always sum to amount. With no
// positive weight the first share takes everything.
func apportion(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w)
	}

	shares := make([]decimal.Decimal, len(weights))
	remaining := amount
	for i, w := range weights {
		if i == len(weights)-1 {
			shares[i] = remaining
			break
		}
		share := decimal.Zero
		switch {
		case total.IsPositive():
			share = amount.Mul(w).Div(total).Round(2)
		case i == 0:
			share = amount
		}
		shares[i] = share
		remaining = remaining.Sub(share)
	}
	return shares
}

func (d *Draft) emptyBucket(warehouse string) Bucket {
	return Bucket{ID: d.newID(), Warehouse: warehouse, Items: []models.OrderItem{}}
}

func (d *Draft) bucketIndex(id string) int {
	return slices.IndexFunc(d.buckets, func(b Bucket) bool { return b.ID == id })
}

// take removes a line from unassigned or from the bucket holding it
func (d *Draft) take(lineID string) (models.OrderItem, bool) {
	match := func(it models.OrderItem) bool { return it.LineID == lineID }

	if pos := slices.IndexFunc(d.unassigned, match); pos >= 0 {
		item := d.unassigned[pos]
		d.unassigned = slices.Delete(d.unassigned, pos, pos+1)
		return item, true
	}
	for i := range d.buckets {
		if pos := slices.IndexFunc(d.buckets[i].Items, match); pos >= 0 {
			item := d.buckets[i].Items[pos]
			d.buckets[i].Items = slices.Delete(d.buckets[i].Items, pos, pos+1)
			return item, true
		}
	}
	return models.OrderItem{}, false
}

// unassign puts a line back in unassigned, keeping source line order
func (d *Draft) unassign(item models.OrderItem) {
	at, _ := slices.BinarySearchFunc(d.unassigned, d.position[item.LineID], func(it models.OrderItem, target int) int {
		return d.position[it.LineID] - target
	})
	d.unassigned = slices.Insert(d.unassigned, at, item)
}
