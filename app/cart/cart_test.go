package cart

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/suportesmart/storefront/models"
)

func snap(price string, name string) Snapshot {
	return Snapshot{Price: decimal.RequireFromString(price), Name: name, Image: "cover.png"}
}

func TestCartAdd(t *testing.T) {
	testCases := []struct {
		name       string
		quantities []int
		expected   int
	}{
		{name: "Single add", quantities: []int{3}, expected: 3},
		{name: "Repeated adds aggregate", quantities: []int{1, 2, 5}, expected: 8},
		{name: "Zero is clamped to one", quantities: []int{0}, expected: 1},
		{name: "Negative is clamped to one", quantities: []int{-4, 2}, expected: 3},
		{name: "Huge quantities saturate", quantities: []int{math.MaxInt, 2}, expected: math.MaxInt},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			var count int
			for _, q := range tc.quantities {
				count = c.Add("7", q, snap("10.00", "Cabo USB"))
			}

			assert.Equal(t, tc.expected, count)
			assert.Equal(t, tc.expected, c.ItemCount())
			assert.Len(t, c, 1)
		})
	}
}

func TestCartItemCountSaturates(t *testing.T) {
	c := New()
	c.Add("1", math.MaxInt, snap("10.00", "Cabo USB"))
	c.Add("2", 5, snap("1.00", "Cabo HDMI"))

	assert.Equal(t, math.MaxInt, c.ItemCount())
	assert.True(t, c.Total().IsPositive())
}

func TestCartAddKeepsFirstSnapshot(t *testing.T) {
	c := New()
	c.Add("7", 1, snap("10.00", "Cabo USB"))
	c.Add("7", 1, snap("99.00", "Cabo USB-C"))

	assert.True(t, decimal.RequireFromString("10.00").Equal(c["7"].Price))
	assert.Equal(t, "Cabo USB", c["7"].Name)
	assert.Equal(t, 2, c["7"].Quantity)
}

func TestSnapshotOf(t *testing.T) {
	product := &models.Product{
		Name:  "Suporte",
		Price: decimal.RequireFromString("50.00"),
	}
	s := SnapshotOf(product)
	assert.True(t, decimal.RequireFromString("50.00").Equal(s.Price))
	assert.Equal(t, models.PlaceholderImage, s.Image)

	product.PromoPrice = decimal.NewNullDecimal(decimal.RequireFromString("39.90"))
	product.ImageFile = "abc.png"
	s = SnapshotOf(product)
	assert.True(t, decimal.RequireFromString("39.90").Equal(s.Price))
	assert.Equal(t, "abc.png", s.Image)
}

func TestCartUpdateQuantity(t *testing.T) {
	t.Run("Replaces quantity", func(t *testing.T) {
		c := New()
		c.Add("1", 2, snap("5.00", "A"))
		c.UpdateQuantity("1", 9)
		assert.Equal(t, 9, c.ItemCount())
	})

	t.Run("Zero removes the line", func(t *testing.T) {
		c := New()
		c.Add("1", 4, snap("5.00", "A"))
		c.Add("2", 3, snap("5.00", "B"))
		before := c.ItemCount()

		c.UpdateQuantity("1", 0)

		assert.NotContains(t, c, "1")
		assert.Equal(t, before-4, c.ItemCount())
	})

	t.Run("Negative removes the line", func(t *testing.T) {
		c := New()
		c.Add("1", 4, snap("5.00", "A"))
		c.UpdateQuantity("1", -1)
		assert.Empty(t, c)
	})

	t.Run("Unknown product is a no-op", func(t *testing.T) {
		c := New()
		c.Add("1", 4, snap("5.00", "A"))
		c.UpdateQuantity("2", 10)
		assert.Len(t, c, 1)
		assert.Equal(t, 4, c.ItemCount())
	})
}

func TestCartRemove(t *testing.T) {
	c := New()
	c.Add("1", 1, snap("5.00", "A"))

	c.Remove("missing")
	assert.Len(t, c, 1)

	c.Remove("1")
	assert.Empty(t, c)
	assert.Equal(t, 0, c.ItemCount())
}

func TestCartTotal(t *testing.T) {
	c := New()
	c.Add("1", 3, snap("19.90", "A"))
	c.Add("2", 2, snap("0.05", "B"))

	expected := decimal.RequireFromString("59.80")
	assert.True(t, expected.Equal(c.Total()), "got %s", c.Total())
	// Reading twice without mutation yields the same value.
	assert.True(t, c.Total().Equal(c.Total()))

	assert.True(t, decimal.Zero.Equal(New().Total()))
}

func TestParseQuantity(t *testing.T) {
	testCases := []struct {
		raw            string
		expectedAdd    int
		expectedUpdate int
	}{
		{raw: "", expectedAdd: 1, expectedUpdate: 1},
		{raw: "abc", expectedAdd: 1, expectedUpdate: 1},
		{raw: "3", expectedAdd: 3, expectedUpdate: 3},
		{raw: "0", expectedAdd: 1, expectedUpdate: 0},
		{raw: "-2", expectedAdd: 1, expectedUpdate: -2},
		{raw: "1.5", expectedAdd: 1, expectedUpdate: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.expectedAdd, ParseAddQuantity(tc.raw))
			assert.Equal(t, tc.expectedUpdate, ParseUpdateQuantity(tc.raw))
		})
	}
}
