package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"retail-dashboard-api/internal/i18n"
	"retail-dashboard-api/internal/listing"
	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/money"
	"retail-dashboard-api/internal/repository"
)

// ProductService serves the product catalog
type ProductService struct {
	products repository.Repository[models.Product]
	schema   *listing.Schema[models.Product]
}

func NewProductService(products repository.Repository[models.Product], pageSize int) *ProductService {
	return &ProductService{products: products, schema: ProductSchema(pageSize)}
}

// ProductSchema registers the filterable and sortable product fields
func ProductSchema(pageSize int) *listing.Schema[models.Product] {
	return listing.NewSchema[models.Product](pageSize).
		String("name", func(p models.Product) string { return p.Name }).
		Enum("category", func(p models.Product) string { return p.Category }).
		EnumSet("sku", func(p models.Product) []string { return p.SKUs }).
		Number("price", func(p models.Product) float64 { return p.Price.InexactFloat64() }).
		Number("stock", func(p models.Product) float64 { return float64(p.Stock) })
}

func (s *ProductService) Schema() *listing.Schema[models.Product] {
	return s.schema
}

func (s *ProductService) List(ctx context.Context, q listing.Query) (models.ListResponse[models.ProductView], error) {
	all, err := s.products.List(ctx, nil)
	if err != nil {
		return models.ListResponse[models.ProductView]{}, err
	}
	result, err := listing.Apply(s.schema, all, q)
	if err != nil {
		return models.ListResponse[models.ProductView]{}, err
	}

	f := money.NewFormatter(i18n.FromContext(ctx).Tag())
	items := make([]models.ProductView, 0, len(result.Items))
	for _, p := range result.Items {
		items = append(items, models.ProductView{Product: p, PriceDisplay: f.Format(p.Price)})
	}
	return models.ListResponse[models.ProductView]{Items: items, Pagination: result.Pagination()}, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (models.ProductView, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return models.ProductView{}, fmt.Errorf("product %s: %w", id, err)
	}
	f := money.NewFormatter(i18n.FromContext(ctx).Tag())
	return models.ProductView{Product: p, PriceDisplay: f.Format(p.Price)}, nil
}

// CustomerService serves customers with statistics derived from orders
type CustomerService struct {
	customers repository.Repository[models.Customer]
	orders    repository.Repository[models.Order]
	schema    *listing.Schema[models.CustomerView]
}

func NewCustomerService(customers repository.Repository[models.Customer], orders repository.Repository[models.Order], pageSize int) *CustomerService {
	return &CustomerService{customers: customers, orders: orders, schema: CustomerSchema(pageSize)}
}

// CustomerSchema registers the filterable and sortable customer fields
func CustomerSchema(pageSize int) *listing.Schema[models.CustomerView] {
	return listing.NewSchema[models.CustomerView](pageSize).
		String("name", func(c models.CustomerView) string { return c.Name }).
		String("phone", func(c models.CustomerView) string { return c.Phone }).
		Enum("city", func(c models.CustomerView) string { return c.City }).
		Enum("level", func(c models.CustomerView) string { return c.Level }).
		Number("orderCount", func(c models.CustomerView) float64 { return float64(c.OrderCount) }).
		Number("totalSpent", func(c models.CustomerView) float64 { return c.TotalSpent.InexactFloat64() })
}

func (s *CustomerService) Schema() *listing.Schema[models.CustomerView] {
	return s.schema
}

func (s *CustomerService) List(ctx context.Context, q listing.Query) (models.ListResponse[models.CustomerView], error) {
	customers, err := s.customers.List(ctx, nil)
	if err != nil {
		return models.ListResponse[models.CustomerView]{}, err
	}
	stats, err := s.orderStats(ctx)
	if err != nil {
		return models.ListResponse[models.CustomerView]{}, err
	}

	f := money.NewFormatter(i18n.FromContext(ctx).Tag())
	views := make([]models.CustomerView, len(customers))
	for i, c := range customers {
		views[i] = customerView(f, c, stats[c.ID])
	}

	result, err := listing.Apply(s.schema, views, q)
	if err != nil {
		return models.ListResponse[models.CustomerView]{}, err
	}
	return models.ListResponse[models.CustomerView]{Items: result.Items, Pagination: result.Pagination()}, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (models.CustomerView, error) {
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return models.CustomerView{}, fmt.Errorf("customer %s: %w", id, err)
	}
	stats, err := s.orderStats(ctx)
	if err != nil {
		return models.CustomerView{}, err
	}
	return customerView(money.NewFormatter(i18n.FromContext(ctx).Tag()), c, stats[id]), nil
}

type customerStats struct {
	orders int
	spent  decimal.Decimal
}

// orderStats totals non-cancelled orders per customer id
func (s *CustomerService) orderStats(ctx context.Context) (map[string]customerStats, error) {
	orders, err := s.orders.List(ctx, func(o models.Order) bool {
		return o.Status != models.OrderStatusCancelled
	})
	if err != nil {
		return nil, err
	}

	stats := make(map[string]customerStats)
	for _, o := range orders {
		st := stats[o.Customer.ID]
		st.orders++
		st.spent = st.spent.Add(o.Total)
		stats[o.Customer.ID] = st
	}
	return stats, nil
}

func customerView(f money.Formatter, c models.Customer, st customerStats) models.CustomerView {
	return models.CustomerView{
		Customer:          c,
		OrderCount:        st.orders,
		TotalSpent:        st.spent,
		TotalSpentDisplay: f.Format(st.spent),
	}
}
