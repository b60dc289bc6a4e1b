// Package fixtures loads the mock business data the dashboard serves.
package fixtures

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"retail-dashboard-api/internal/models"
)

//go:embed seed.yaml
var embeddedSeed []byte

// Seed is the full set of mock entities
type Seed struct {
	Orders     []models.Order         `yaml:"orders"`
	Products   []models.Product       `yaml:"products"`
	Inventory  []models.InventoryItem `yaml:"inventory"`
	Channels   []models.Channel       `yaml:"channels"`
	Customers  []models.Customer      `yaml:"customers"`
	Incentives []models.IncentivePlan `yaml:"incentives"`
}

// Load reads the seed file at path, or the embedded seed when path is empty
func Load(path string) (*Seed, error) {
	raw := embeddedSeed
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
		}
		raw = data
	}

	seed, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	slog.Info("Seed data loaded",
		"source", sourceName(path),
		"orders", len(seed.Orders),
		"products", len(seed.Products),
		"inventory_items", len(seed.Inventory),
		"channels", len(seed.Channels),
		"customers", len(seed.Customers),
		"incentive_plans", len(seed.Incentives))

	return seed, nil
}

// Parse decodes and normalizes seed YAML
func Parse(raw []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed data: %w", err)
	}
	if err := seed.normalize(); err != nil {
		return nil, err
	}
	return &seed, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func (s *Seed) normalize() error {
	seen := make(map[string]struct{}, len(s.Orders))
	for i := range s.Orders {
		order := &s.Orders[i]
		if order.ID == "" {
			return fmt.Errorf("order at index %d has no id", i)
		}
		if _, dup := seen[order.ID]; dup {
			return fmt.Errorf("duplicate order id %s", order.ID)
		}
		seen[order.ID] = struct{}{}

		for j := range order.Items {
			item := &order.Items[j]
			if item.Quantity <= 0 {
				return fmt.Errorf("order %s line %d has non-positive quantity %d", order.ID, j+1, item.Quantity)
			}
			if item.LineID == "" {
				item.LineID = fmt.Sprintf("%s-L%d", order.ID, j+1)
			}
			item.LineTotal = models.ComputeLineTotal(*item)
		}
		RecomputeTotals(order)
	}

	for i := range s.Inventory {
		item := &s.Inventory[i]
		item.TotalStock = max(item.TotalStock, 0)
		item.AvailableStock = min(max(item.AvailableStock, 0), item.TotalStock)
		item.ReservedStock = item.TotalStock - item.AvailableStock
	}
	return nil
}

// RecomputeTotals sets subtotal and total from the order's lines
func RecomputeTotals(order *models.Order) {
	order.Subtotal = models.SumLineTotals(order.Items)
	order.Total = order.Subtotal.Add(order.ShippingFee).Add(order.Tax)
}
