package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry
type Product struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Category    string          `json:"category" yaml:"category"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Stock       int             `json:"stock" yaml:"stock"`
	SKUs        []string        `json:"skus" yaml:"skus"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Image       string          `json:"image,omitempty" yaml:"image"`
}

func (p Product) RecordID() string { return p.ID }

func (p Product) Clone() Product {
	p.SKUs = slices.Clone(p.SKUs)
	return p
}

// Inventory location kinds
const (
	LocationOnline  = "online"
	LocationOffline = "offline"
)

// InventoryLocation is the stock held at one warehouse or store
type InventoryLocation struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Kind  string `json:"kind" yaml:"kind"`
	Stock int    `json:"stock" yaml:"stock"`
}

// InventoryItem tracks the stock of one SKU across locations.
// ReservedStock is always TotalStock - AvailableStock.
type InventoryItem struct {
	ID                string              `json:"id" yaml:"id"`
	ProductID         string              `json:"productId" yaml:"productId"`
	SKU               string              `json:"sku" yaml:"sku"`
	Name              string              `json:"name" yaml:"name"`
	TotalStock        int                 `json:"totalStock" yaml:"totalStock"`
	AvailableStock    int                 `json:"availableStock" yaml:"availableStock"`
	ReservedStock     int                 `json:"reservedStock" yaml:"-"`
	Locations         []InventoryLocation `json:"locations" yaml:"locations"`
	LowStockThreshold int                 `json:"lowStockThreshold" yaml:"lowStockThreshold"`
	LastUpdated       time.Time           `json:"lastUpdated" yaml:"lastUpdated"`
}

func (i InventoryItem) RecordID() string { return i.ID }

func (i InventoryItem) Clone() InventoryItem {
	i.Locations = slices.Clone(i.Locations)
	return i
}

// Location returns the location with the given id
func (i InventoryItem) Location(id string) (InventoryLocation, int, bool) {
	for idx, loc := range i.Locations {
		if loc.ID == id {
			return loc, idx, true
		}
	}
	return InventoryLocation{}, -1, false
}

// LocationSum adds up stock across all locations
func (i InventoryItem) LocationSum() int {
	sum := 0
	for _, loc := range i.Locations {
		sum += loc.Stock
	}
	return sum
}

// HasLocationKind reports whether any location is of the given kind
func (i InventoryItem) HasLocationKind(kind string) bool {
	for _, loc := range i.Locations {
		if loc.Kind == kind {
			return true
		}
	}
	return false
}

// InventoryView is the API representation of an inventory item
type InventoryView struct {
	InventoryItem
	LowStock      bool `json:"lowStock"`
	LocationSum   int  `json:"locationSum"`
	LocationDrift int  `json:"locationDrift"`
}

// Channel status values
const (
	ChannelStatusActive   = "active"
	ChannelStatusInactive = "inactive"
	ChannelStatusPending  = "pending"
)

// Channel sync outcomes
const (
	SyncOutcomeSuccess = "success"
	SyncOutcomePartial = "partial"
	SyncOutcomeFailed  = "failed"
)

// Channel is an external sales marketplace mirrored into the dashboard
type Channel struct {
	ID           string          `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Type         string          `json:"type" yaml:"type"`
	Status       string          `json:"status" yaml:"status"`
	LastSyncAt   time.Time       `json:"lastSyncAt" yaml:"lastSyncAt"`
	SyncOutcome  string          `json:"syncOutcome" yaml:"syncOutcome"`
	ProductCount int             `json:"productCount" yaml:"productCount"`
	OrderCount   int             `json:"orderCount" yaml:"orderCount"`
	Revenue      decimal.Decimal `json:"revenue" yaml:"revenue"`
}

func (c Channel) RecordID() string { return c.ID }

func (c Channel) Clone() Channel { return c }

// Customer is a registered shopper
type Customer struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Phone        string    `json:"phone" yaml:"phone"`
	Email        string    `json:"email" yaml:"email"`
	City         string    `json:"city" yaml:"city"`
	Level        string    `json:"level" yaml:"level"`
	RegisteredAt time.Time `json:"registeredAt" yaml:"registeredAt"`
}

func (c Customer) RecordID() string { return c.ID }

func (c Customer) Clone() Customer { return c }

// CustomerView adds order statistics to a customer
type CustomerView struct {
	Customer
	OrderCount        int             `json:"orderCount"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	TotalSpentDisplay string          `json:"totalSpentDisplay"`
}

// ProductView adds the formatted price to a product
type ProductView struct {
	Product
	PriceDisplay string `json:"priceDisplay"`
}

// ChannelView adds localized labels to a channel
type ChannelView struct {
	Channel
	StatusLabel    string `json:"statusLabel"`
	RevenueDisplay string `json:"revenueDisplay"`
}
