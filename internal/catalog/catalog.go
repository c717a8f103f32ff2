package catalog

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// UnknownProductName is shown for a product id that is missing from the snapshot.
const UnknownProductName = "Unknown"

type Product struct {
	ID          int64           `json:"product_id"`
	Name        string          `json:"product_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Catalog is a read-only snapshot of the products fetched at session start.
type Catalog struct {
	products []Product
	byID     map[int64]Product
}

// New builds a snapshot. Later duplicates of an id win the lookup but keep the
// first position in the listing.
func New(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[int64]Product, len(products)),
	}

	for _, p := range products {
		if _, seen := c.byID[p.ID]; !seen {
			c.products = append(c.products, p)
		} else {
			for i := range c.products {
				if c.products[i].ID == p.ID {
					c.products[i] = p
				}
			}
		}
		c.byID[p.ID] = p
	}

	return c
}

// Lookup is safe to call on a nil catalog.
func (c *Catalog) Lookup(productID int64) (Product, bool) {
	if c == nil {
		return Product{}, false
	}
	p, ok := c.byID[productID]
	return p, ok
}

// Name resolves a display name, falling back to UnknownProductName.
func (c *Catalog) Name(productID int64) string {
	if p, ok := c.Lookup(productID); ok {
		return p.Name
	}
	return UnknownProductName
}

// Products returns a copy of the snapshot in the order it was fetched.
func (c *Catalog) Products() []Product {
	if c == nil {
		return []Product{}
	}
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}

func (c *Catalog) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Products())
}

func (c *Catalog) UnmarshalJSON(data []byte) error {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return err
	}
	*c = *New(products)
	return nil
}
