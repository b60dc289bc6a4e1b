package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedSeed(t *testing.T) {
	seed, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, seed.Orders)
	assert.NotEmpty(t, seed.Products)
	assert.NotEmpty(t, seed.Inventory)
	assert.Len(t, seed.Channels, 6)
	assert.NotEmpty(t, seed.Customers)
	assert.NotEmpty(t, seed.Incentives)
}

func TestLoad_NormalizesOrders(t *testing.T) {
	seed, err := Load("")
	require.NoError(t, err)

	for _, order := range seed.Orders {
		require.NotEmpty(t, order.Items, order.ID)
		for i, item := range order.Items {
			assert.NotEmpty(t, item.LineID)
			assert.True(t, item.LineTotal.Equal(item.UnitPrice.Mul(decimalOf(item.Quantity))),
				"%s line %d", order.ID, i+1)
		}
		assert.True(t, order.Total.Equal(order.Subtotal.Add(order.ShippingFee).Add(order.Tax)), order.ID)
	}

	first := seed.Orders[0]
	assert.Equal(t, "ORD-1001-L1", first.Items[0].LineID)
	assert.Equal(t, "1856", first.Subtotal.String())
	assert.Equal(t, "1868", first.Total.String())
}

func TestLoad_DerivesReservedStock(t *testing.T) {
	seed, err := Load("")
	require.NoError(t, err)

	for _, item := range seed.Inventory {
		assert.LessOrEqual(t, item.AvailableStock, item.TotalStock, item.ID)
		assert.Equal(t, item.TotalStock-item.AvailableStock, item.ReservedStock, item.ID)
	}
}

func TestParse_ClampsAvailableStock(t *testing.T) {
	raw := []byte(`
inventory:
  - id: INV-X
    sku: X
    totalStock: 5
    availableStock: 9
`)

	seed, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, 5, seed.Inventory[0].AvailableStock)
	assert.Equal(t, 0, seed.Inventory[0].ReservedStock)
}

func TestParse_RejectsBadOrders(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"duplicate id", "orders:\n  - id: A\n  - id: A\n"},
		{"zero quantity", "orders:\n  - id: A\n    items:\n      - {sku: X, unitPrice: \"1\", quantity: 0}\n"},
		{"missing id", "orders:\n  - status: pending\n"},
		{"malformed yaml", "orders: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ExternalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - {id: P-9, name: Test, price: \"9.90\"}\n"), 0o644))

	seed, err := Load(path)
	require.NoError(t, err)

	require.Len(t, seed.Products, 1)
	assert.Equal(t, "9.9", seed.Products[0].Price.String())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func decimalOf(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
