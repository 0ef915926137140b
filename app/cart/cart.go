// Package cart implements the visitor's shopping cart.
//
// A Cart is a plain value: handlers load it from the session, apply one
// operation and store it back. Keys are product ids kept as opaque strings.
package cart

import (
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/suportesmart/storefront/models"
)

// Item is one cart line. Price, Name and Image are captured when the
// product is first added and are not refreshed afterwards.
type Item struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Name     string          `json:"name"`
	Image    string          `json:"image"`
}

// Snapshot is the product data copied into a new cart line.
type Snapshot struct {
	Price decimal.Decimal
	Name  string
	Image string
}

func SnapshotOf(p *models.Product) Snapshot {
	return Snapshot{
		Price: p.EffectivePrice(),
		Name:  p.Name,
		Image: p.CoverImage(),
	}
}

type Cart map[string]Item

func New() Cart {
	return Cart{}
}

// Key normalizes a product id into a cart key.
func Key(productID uint) string {
	return strconv.FormatUint(uint64(productID), 10)
}

// Add puts quantity units of a product in the cart and returns the new item
// count. Quantities below one count as one.
func (c Cart) Add(productID string, quantity int, snap Snapshot) int {
	if quantity < 1 {
		quantity = 1
	}
	if item, ok := c[productID]; ok {
		item.Quantity = saturatingAdd(item.Quantity, quantity)
		c[productID] = item
	} else {
		c[productID] = Item{
			Quantity: quantity,
			Price:    snap.Price,
			Name:     snap.Name,
			Image:    snap.Image,
		}
	}
	return c.ItemCount()
}

// UpdateQuantity replaces the quantity of a line already in the cart.
// Zero or a negative quantity removes the line.
func (c Cart) UpdateQuantity(productID string, quantity int) {
	item, ok := c[productID]
	if !ok {
		return
	}
	if quantity <= 0 {
		delete(c, productID)
		return
	}
	item.Quantity = quantity
	c[productID] = item
}

func (c Cart) Remove(productID string) {
	delete(c, productID)
}

// Total is the sum of quantity times unit price over every line.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (c Cart) ItemCount() int {
	count := 0
	for _, item := range c {
		count = saturatingAdd(count, item.Quantity)
	}
	return count
}

// saturatingAdd adds two non-negative quantities, stopping at math.MaxInt.
func saturatingAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Keys returns the product ids in a stable order.
func (c Cart) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseAddQuantity reads the quantity of an add request. Anything missing,
// malformed or below one becomes one.
func ParseAddQuantity(raw string) int {
	q, err := strconv.Atoi(raw)
	if err != nil || q < 1 {
		return 1
	}
	return q
}

// ParseUpdateQuantity reads the quantity of an update request. Missing or
// malformed input becomes one; zero and negatives pass through so the line
// gets removed.
func ParseUpdateQuantity(raw string) int {
	q, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return q
}
