package services

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/money"
	"retail-dashboard-api/internal/repository"
	"retail-dashboard-api/internal/validation"
)

const (
	DefaultTrendDays = 7
	MaxTrendDays     = 90
	topProductsLimit = 5
)

// DashboardService computes the analytics page KPIs
type DashboardService struct {
	orders    repository.Repository[models.Order]
	inventory repository.Repository[models.InventoryItem]
	seed      uint64
	now       func() time.Time
}

// NewDashboardService creates the service. seed fixes the simulated sales
// trend so repeated requests agree.
func NewDashboardService(orders repository.Repository[models.Order], inventory repository.Repository[models.InventoryItem], seed uint64) *DashboardService {
	return &DashboardService{orders: orders, inventory: inventory, seed: seed, now: time.Now}
}

// Summary returns the KPIs with a trend over the last days days
func (s *DashboardService) Summary(ctx context.Context, days int) (models.DashboardSummary, error) {
	if days == 0 {
		days = DefaultTrendDays
	}
	if days < 1 || days > MaxTrendDays {
		return models.DashboardSummary{}, validation.New("days", "validation.number")
	}

	orders, err := s.orders.List(ctx, nil)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	lowStock, err := s.inventory.List(ctx, func(item models.InventoryItem) bool {
		return item.AvailableStock < item.LowStockThreshold
	})
	if err != nil {
		return models.DashboardSummary{}, err
	}

	tr := i18n.FromContext(ctx)
	f := money.NewFormatter(tr.Tag())

	summary := models.DashboardSummary{
		Revenue:        decimal.Zero,
		StatusCounts:   make([]models.StatusCount, 0, len(models.OrderStatuses)),
		ChannelRevenue: []models.ChannelRevenue{},
		LowStockItems:  len(lowStock),
	}

	statusCounts := make(map[string]int)
	channelIdx := make(map[string]int)
	productIdx := make(map[string]int)
	var products []models.ProductSales

	for _, o := range orders {
		statusCounts[o.Status]++
		if o.Status == models.OrderStatusCancelled {
			continue
		}

		summary.OrderCount++
		summary.Revenue = summary.Revenue.Add(o.Total)

		idx, ok := channelIdx[o.Channel]
		if !ok {
			idx = len(summary.ChannelRevenue)
			channelIdx[o.Channel] = idx
			summary.ChannelRevenue = append(summary.ChannelRevenue, models.ChannelRevenue{
				Channel: o.Channel,
				Label:   tr.T("channel." + o.Channel),
				Revenue: decimal.Zero,
			})
		}
		summary.ChannelRevenue[idx].Orders++
		summary.ChannelRevenue[idx].Revenue = summary.ChannelRevenue[idx].Revenue.Add(o.Total)

		for _, item := range o.Items {
			pi, ok := productIdx[item.ProductID]
			if !ok {
				pi = len(products)
				productIdx[item.ProductID] = pi
				products = append(products, models.ProductSales{ProductID: item.ProductID, Name: item.Name, Revenue: decimal.Zero})
			}
			products[pi].Quantity += item.Quantity
			products[pi].Revenue = products[pi].Revenue.Add(item.LineTotal)
		}
	}

	for _, status := range models.OrderStatuses {
		summary.StatusCounts = append(summary.StatusCounts, models.StatusCount{
			Status: status,
			Label:  tr.T("order.status." + status),
			Count:  statusCounts[status],
		})
	}

	summary.RevenueDisplay = f.Format(summary.Revenue)
	summary.AverageOrderValue = decimal.Zero
	if summary.OrderCount > 0 {
		summary.AverageOrderValue = summary.Revenue.Div(decimal.NewFromInt(int64(summary.OrderCount))).Round(2)
	}
	summary.AverageOrderValueDisplay = f.Format(summary.AverageOrderValue)

	for i := range summary.ChannelRevenue {
		summary.ChannelRevenue[i].RevenueDisplay = f.Format(summary.ChannelRevenue[i].Revenue)
	}
	slices.SortStableFunc(summary.ChannelRevenue, func(a, b models.ChannelRevenue) int {
		return b.Revenue.Cmp(a.Revenue)
	})

	slices.SortStableFunc(products, func(a, b models.ProductSales) int {
		return cmp.Or(cmp.Compare(b.Quantity, a.Quantity), cmp.Compare(a.ProductID, b.ProductID))
	})
	products = products[:min(len(products), topProductsLimit)]
	for i := range products {
		products[i].RevenueDisplay = f.Format(products[i].Revenue)
	}
	summary.TopProducts = products
	if summary.TopProducts == nil {
		summary.TopProducts = []models.ProductSales{}
	}

	summary.Trend = s.trend(f, days)
	return summary, nil
}

// trend simulates daily sales ending today. The values depend only on the
// seed and the number of days.
func (s *DashboardService) trend(f money.Formatter, days int) []models.TrendPoint {
	rng := rand.New(rand.NewPCG(s.seed, uint64(days)))
	today := s.now().UTC().Truncate(24 * time.Hour)

	points := make([]models.TrendPoint, days)
	for i := range points {
		day := today.AddDate(0, 0, i-days+1)
		sales := decimal.New(int64(200000+rng.IntN(800000)), -2)
		points[i] = models.TrendPoint{
			Date:         day.Format(time.DateOnly),
			Orders:       5 + rng.IntN(30),
			Sales:        sales,
			SalesDisplay: f.Format(sales),
		}
	}
	return points
}
