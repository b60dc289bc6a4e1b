// Package merge combines several orders into one, coalescing repeated
// product lines and flagging mismatched order attributes.
package merge

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/validation"
)

// MinOrders is the smallest selection that can be merged
const MinOrders = 2

// Warning dimensions
const (
	DimensionCustomer       = "customer"
	DimensionPaymentMethod  = "payment_method"
	DimensionShippingMethod = "shipping_method"
)

// Warning is an advisory about a dimension where the selected orders differ.
// Warnings never block a merge.
type Warning struct {
	Dimension string   `json:"dimension"`
	Key       string   `json:"key"`
	Values    []string `json:"values"`
}

// Choices are the values picked explicitly by the operator
type Choices struct {
	ShippingAddress *models.Address `json:"shippingAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	ShippingMethod  string          `json:"shippingMethod,omitempty"`
}

// Preview is the derived state of a merge for the current selection
type Preview struct {
	OrderIDs        []string           `json:"orderIds"`
	Items           []models.OrderItem `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	Warnings        []Warning          `json:"warnings"`
	ShippingAddress *models.Address    `json:"shippingAddress,omitempty"`
	PaymentMethod   string             `json:"paymentMethod,omitempty"`
	ShippingMethod  string             `json:"shippingMethod,omitempty"`
	AddressOptions  []models.Address   `json:"addressOptions"`
	PaymentOptions  []string           `json:"paymentOptions"`
	ShippingOptions []string           `json:"shippingOptions"`
}

// BuildPreview derives the merge preview from the selected orders, in the
// order given. It is recomputed from scratch on every selection change.
func BuildPreview(selected []models.Order, choices Choices) Preview {
	p := Preview{
		OrderIDs:        make([]string, 0, len(selected)),
		Warnings:        []Warning{},
		AddressOptions:  []models.Address{},
		PaymentOptions:  []string{},
		ShippingOptions: []string{},
	}

	var customers []string
	for _, o := range selected {
		p.OrderIDs = append(p.OrderIDs, o.ID)
		customers = appendDistinct(customers, customerKey(o.Customer))
		p.PaymentOptions = appendDistinct(p.PaymentOptions, o.PaymentMethod)
		p.ShippingOptions = appendDistinct(p.ShippingOptions, o.ShippingMethod)
		if !o.ShippingAddress.IsZero() && !slices.Contains(p.AddressOptions, o.ShippingAddress) {
			p.AddressOptions = append(p.AddressOptions, o.ShippingAddress)
		}
	}

	if len(customers) > 1 {
		p.Warnings = append(p.Warnings, Warning{Dimension: DimensionCustomer, Key: "merge.warning.customers", Values: customerNames(selected)})
	}
	if len(p.PaymentOptions) > 1 {
		p.Warnings = append(p.Warnings, Warning{Dimension: DimensionPaymentMethod, Key: "merge.warning.payment", Values: slices.Clone(p.PaymentOptions)})
	}
	if len(p.ShippingOptions) > 1 {
		p.Warnings = append(p.Warnings, Warning{Dimension: DimensionShippingMethod, Key: "merge.warning.shipping", Values: slices.Clone(p.ShippingOptions)})
	}

	p.Items = Coalesce(selected)
	p.Total = models.SumLineTotals(p.Items)

	switch {
	case choices.ShippingAddress != nil && !choices.ShippingAddress.IsZero():
		addr := *choices.ShippingAddress
		p.ShippingAddress = &addr
	case len(selected) > 0 && !selected[0].ShippingAddress.IsZero():
		addr := selected[0].ShippingAddress
		p.ShippingAddress = &addr
	}
	p.PaymentMethod = resolve(choices.PaymentMethod, p.PaymentOptions)
	p.ShippingMethod = resolve(choices.ShippingMethod, p.ShippingOptions)

	return p
}

// Coalesce merges the lines of orders keyed by product and SKU. The first
// line seen for a key keeps its display fields; later ones add quantity and
// line total.
func Coalesce(orders []models.Order) []models.OrderItem {
	type key struct{ product, sku string }

	items := []models.OrderItem{}
	index := make(map[key]int)
	for _, o := range orders {
		for _, item := range o.Items {
			k := key{item.ProductID, item.SKU}
			if idx, ok := index[k]; ok {
				items[idx].Quantity += item.Quantity
				items[idx].LineTotal = items[idx].LineTotal.Add(item.LineTotal)
				continue
			}
			index[k] = len(items)
			items = append(items, item)
		}
	}
	return items
}

// Commit validates the selection and choices and builds the merged order.
// The source orders are not modified.
func Commit(selected []models.Order, choices Choices, newID string, now time.Time) (models.Order, error) {
	p := BuildPreview(selected, choices)

	verr := &validation.Error{}
	if len(selected) < MinOrders {
		verr.Add("orderIds", "merge.min_orders")
	}
	if p.ShippingAddress == nil {
		verr.Add("shippingAddress", "validation.required")
	}
	if p.PaymentMethod == "" {
		verr.Add("paymentMethod", "validation.required")
	}
	if p.ShippingMethod == "" {
		verr.Add("shippingMethod", "validation.required")
	}
	if err := verr.OrNil(); err != nil {
		return models.Order{}, err
	}

	first := selected[0]
	items := make([]models.OrderItem, len(p.Items))
	for i, item := range p.Items {
		item.LineID = fmt.Sprintf("%s-L%d", newID, i+1)
		items[i] = item
	}

	return models.Order{
		ID:              newID,
		Customer:        first.Customer,
		ShippingAddress: *p.ShippingAddress,
		IssuedAt:        now,
		Status:          models.OrderStatusPending,
		Channel:         first.Channel,
		PaymentMethod:   p.PaymentMethod,
		ShippingMethod:  p.ShippingMethod,
		Items:           items,
		Subtotal:        p.Total,
		ShippingFee:     decimal.Zero,
		Tax:             decimal.Zero,
		Total:           p.Total,
		SourceOrderIDs:  p.OrderIDs,
	}, nil
}

// resolve returns the explicit choice, else the value every order shares
func resolve(choice string, options []string) string {
	if choice != "" {
		return choice
	}
	if len(options) == 1 {
		return options[0]
	}
	return ""
}

func customerKey(c models.CustomerRef) string {
	return c.ID + "|" + c.Name
}

func customerNames(orders []models.Order) []string {
	var names []string
	for _, o := range orders {
		names = appendDistinct(names, o.Customer.Name)
	}
	return names
}

func appendDistinct(values []string, v string) []string {
	if slices.Contains(values, v) {
		return values
	}
	return append(values, v)
}
