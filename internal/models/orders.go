package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Order status values
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses lists every order status in display order
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Sales channels an order can originate from
const (
	ChannelTaobao      = "taobao"
	ChannelJD          = "jd"
	ChannelXiaohongshu = "xiaohongshu"
	ChannelDouyin      = "douyin"
	ChannelWechat      = "wechat"
	ChannelOffline     = "offline"
)

// CustomerRef is the customer snapshot stored on an order
type CustomerRef struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email,omitempty" yaml:"email"`
}

// Address is a shipping destination
type Address struct {
	Recipient string `json:"recipient" yaml:"recipient"`
	Phone     string `json:"phone" yaml:"phone"`
	Region    string `json:"region" yaml:"region"`
	Detail    string `json:"detail" yaml:"detail"`
}

// IsZero reports whether no address field is set
func (a Address) IsZero() bool {
	return a == Address{}
}

// OrderItem is one line of an order
type OrderItem struct {
	LineID    string          `json:"lineId" yaml:"lineId"`
	ProductID string          `json:"productId" yaml:"productId"`
	SKU       string          `json:"sku" yaml:"sku"`
	Name      string          `json:"name" yaml:"name"`
	Image     string          `json:"image,omitempty" yaml:"image"`
	UnitPrice decimal.Decimal `json:"unitPrice" yaml:"unitPrice"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal" yaml:"lineTotal"`
	Warehouse string          `json:"warehouse,omitempty" yaml:"warehouse"`
}

// Order is a customer order with its line items and totals
type Order struct {
	ID              string          `json:"id" yaml:"id"`
	Customer        CustomerRef     `json:"customer" yaml:"customer"`
	ShippingAddress Address         `json:"shippingAddress" yaml:"shippingAddress"`
	IssuedAt        time.Time       `json:"issuedAt" yaml:"issuedAt"`
	Status          string          `json:"status" yaml:"status"`
	Channel         string          `json:"channel" yaml:"channel"`
	PaymentMethod   string          `json:"paymentMethod" yaml:"paymentMethod"`
	ShippingMethod  string          `json:"shippingMethod" yaml:"shippingMethod"`
	Items           []OrderItem     `json:"items" yaml:"items"`
	Subtotal        decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shippingFee" yaml:"shippingFee"`
	Tax             decimal.Decimal `json:"tax" yaml:"tax"`
	Total           decimal.Decimal `json:"total" yaml:"total"`
	ParentOrderID   string          `json:"parentOrderId,omitempty" yaml:"parentOrderId"`
	SourceOrderIDs  []string        `json:"sourceOrderIds,omitempty" yaml:"sourceOrderIds"`
}

func (o Order) RecordID() string { return o.ID }

// Clone returns a deep copy of the order
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	o.SourceOrderIDs = slices.Clone(o.SourceOrderIDs)
	return o
}

// ItemQuantity sums the quantity of every line
func (o Order) ItemQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// ComputeLineTotal returns unit price times quantity
func ComputeLineTotal(item OrderItem) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// SumLineTotals adds up the line totals of items
func SumLineTotals(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal)
	}
	return sum
}

// OrderView is the API representation of an order with display strings
type OrderView struct {
	Order
	ItemCount       int    `json:"itemCount"`
	StatusLabel     string `json:"statusLabel"`
	ChannelLabel    string `json:"channelLabel"`
	SubtotalDisplay string `json:"subtotalDisplay"`
	ShippingDisplay string `json:"shippingFeeDisplay"`
	TaxDisplay      string `json:"taxDisplay"`
	TotalDisplay    string `json:"totalDisplay"`
}
