package portal

import (
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/order-portal/internal/session"
	"github.com/vasiliy-maslov/order-portal/internal/user"
)

type CartLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"price_each"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartView is what the order confirmation shows: the selected lines and the
// tax-exclusive total that will be submitted.
type CartView struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type Profile struct {
	SessionID     string     `json:"session_id"`
	User          *user.User `json:"user"`
	CatalogLoaded bool       `json:"catalog_loaded"`
	CartItems     int        `json:"cart_items"`
	Orders        int        `json:"orders"`
}

func newCartView(s *session.Session) CartView {
	items := s.Cart.Items()
	view := CartView{
		Items: make([]CartLine, 0, len(items)),
		Total: s.Cart.Total(),
	}
	for _, item := range items {
		view.Items = append(view.Items, CartLine{
			ProductID:   item.ProductID,
			ProductName: s.Catalog.Name(item.ProductID),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		})
	}
	return view
}

func newProfile(s *session.Session) Profile {
	return Profile{
		SessionID:     s.ID,
		User:          s.User,
		CatalogLoaded: s.CatalogLoaded(),
		CartItems:     s.Cart.Len(),
		Orders:        len(s.Orders),
	}
}
