package order

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/order-portal/internal/catalog"
)

// PriceLookup resolves catalog products. *catalog.Catalog satisfies it.
type PriceLookup interface {
	Lookup(productID int64) (catalog.Product, bool)
}

// Cart accumulates the quantities a user selected, one entry per product.
// The zero value is ready to use.
type Cart struct {
	items map[int64]LineItem
}

func NewCart() *Cart {
	return &Cart{items: make(map[int64]LineItem)}
}

// Upsert sets the quantity for productID. A quantity <= 0 removes the entry.
// The unit price is captured from prices on first insertion only, so later
// catalog changes never reprice an entry. Unknown products are ignored and
// reported by a false return.
func (c *Cart) Upsert(prices PriceLookup, productID int64, quantity int) bool {
	if quantity <= 0 {
		delete(c.items, productID)
		return true
	}

	if item, ok := c.items[productID]; ok {
		item.Quantity = quantity
		c.items[productID] = item
		return true
	}

	if prices == nil {
		return false
	}
	product, ok := prices.Lookup(productID)
	if !ok {
		return false
	}

	if c.items == nil {
		c.items = make(map[int64]LineItem)
	}
	c.items[productID] = LineItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
	return true
}

// Quantity returns 0 for products not in the cart.
func (c *Cart) Quantity(productID int64) int {
	return c.items[productID].Quantity
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Items returns the entries sorted by product id.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (c *Cart) Total() decimal.Decimal {
	return Total(c.Items())
}

func (c *Cart) Reset() {
	c.items = make(map[int64]LineItem)
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Items())
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	c.items = make(map[int64]LineItem, len(items))
	for _, item := range items {
		if item.Quantity > 0 {
			c.items[item.ProductID] = item
		}
	}
	return nil
}
