package models

import "github.com/shopspring/decimal"

// StatusCount is the number of orders in one status
type StatusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// ChannelRevenue is the revenue booked through one sales channel
type ChannelRevenue struct {
	Channel        string          `json:"channel"`
	Label          string          `json:"label"`
	Orders         int             `json:"orders"`
	Revenue        decimal.Decimal `json:"revenue"`
	RevenueDisplay string          `json:"revenueDisplay"`
}

// ProductSales ranks a product by units sold
type ProductSales struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	Revenue        decimal.Decimal `json:"revenue"`
	RevenueDisplay string          `json:"revenueDisplay"`
}

// TrendPoint is one day of the sales trend
type TrendPoint struct {
	Date         string          `json:"date"`
	Orders       int             `json:"orders"`
	Sales        decimal.Decimal `json:"sales"`
	SalesDisplay string          `json:"salesDisplay"`
}

// DashboardSummary holds the KPIs shown on the analytics page.
// Cancelled orders are excluded from every figure except StatusCounts.
type DashboardSummary struct {
	Revenue                  decimal.Decimal  `json:"revenue"`
	RevenueDisplay           string           `json:"revenueDisplay"`
	OrderCount               int              `json:"orderCount"`
	AverageOrderValue        decimal.Decimal  `json:"averageOrderValue"`
	AverageOrderValueDisplay string           `json:"averageOrderValueDisplay"`
	StatusCounts             []StatusCount    `json:"statusCounts"`
	ChannelRevenue           []ChannelRevenue `json:"channelRevenue"`
	TopProducts              []ProductSales   `json:"topProducts"`
	LowStockItems            int              `json:"lowStockItems"`
	Trend                    []TrendPoint     `json:"trend"`
}
