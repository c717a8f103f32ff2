package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

// StatusPending is the status every new order is submitted with. The order
// backend owns any later transitions, so other values are kept as received.
const StatusPending Status = "pending"

func (s Status) String() string {
	return string(s)
}

// LineItem is one (product, quantity, captured unit price) tuple.
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price_each"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is a persisted order as returned by the order backend.
type Order struct {
	ID          int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	OrderDate   time.Time       `json:"order_date"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"` // excludes tax
	Items       []LineItem      `json:"items"`
}

// Draft is an order built on the client that has not been persisted yet.
type Draft struct {
	UserID      int64           `json:"user_id"`
	OrderDate   time.Time       `json:"order_date"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []LineItem      `json:"order_items"`
}

// Total sums quantity*unit price over items. It is the single pricing path
// shared by Cart.Total and BuildDraft.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
