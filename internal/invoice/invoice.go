package invoice

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	"github.com/vasiliy-maslov/order-portal/internal/order"
)

// DefaultTaxRate is the GST rate applied on top of tax-exclusive order totals.
var DefaultTaxRate = decimal.RequireFromString("0.15")

// ProductNamer resolves product names. *catalog.Catalog satisfies it.
type ProductNamer interface {
	Name(productID int64) string
}

type Line struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
}

// View is the priced projection of one order. Amounts keep full precision;
// rounding happens only when a Document is built.
type View struct {
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	OrderDate time.Time       `json:"order_date"`
	Status    order.Status    `json:"status"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Lines     []Line          `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Compute prices an order. It has no side effects and returns equal views for
// equal inputs.
func Compute(o order.Order, products ProductNamer, rate decimal.Decimal) View {
	view := View{
		OrderID:   o.ID,
		UserID:    o.UserID,
		OrderDate: o.OrderDate,
		Status:    o.Status,
		TaxRate:   rate,
		Lines:     make([]Line, 0, len(o.Items)),
		Subtotal:  decimal.Zero,
	}

	for _, item := range o.Items {
		name := catalog.UnknownProductName
		if products != nil {
			name = products.Name(item.ProductID)
		}

		subtotal := item.Subtotal()
		view.Lines = append(view.Lines, Line{
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    subtotal,
			Tax:         subtotal.Mul(rate),
		})
		view.Subtotal = view.Subtotal.Add(subtotal)
	}

	view.Tax = view.Subtotal.Mul(rate)
	view.Total = view.Subtotal.Add(view.Tax)

	return view
}
