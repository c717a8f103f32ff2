package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	"github.com/vasiliy-maslov/order-portal/internal/order"
	"github.com/vasiliy-maslov/order-portal/internal/user"
)

// Wire shapes of the order backend. Money arrives as JSON numbers (or numeric
// strings) and is decoded straight into decimals; outgoing money is written
// as JSON numbers.

type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
}

type productDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type orderItemDTO struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	PriceEach decimal.Decimal `json:"price_each"`
}

type orderDTO struct {
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   string          `json:"order_date"`
	Items       []orderItemDTO  `json:"items"`
	OrderItems  []orderItemDTO  `json:"order_items"`
}

type userDTO struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Address  string `json:"address"`
	Email    string `json:"email"`
}

type registerRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Email    string `json:"email"`
}

type loginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type forgotPasswordResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type detailResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createOrderRequest struct {
	UserID      int64              `json:"user_id"`
	OrderDate   string             `json:"order_date"`
	Status      string             `json:"status"`
	TotalAmount json.Number        `json:"total_amount"`
	OrderItems  []orderItemRequest `json:"order_items"`
}

type orderItemRequest struct {
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	PriceEach json.Number `json:"price_each"`
}

// isoMillis matches what browsers send for Date.toISOString().
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var orderDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseOrderDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised order date %q", s)
}

func newCreateOrderRequest(d *order.Draft) createOrderRequest {
	items := make([]orderItemRequest, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, orderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			PriceEach: json.Number(item.UnitPrice.String()),
		})
	}
	return createOrderRequest{
		UserID:      d.UserID,
		OrderDate:   d.OrderDate.UTC().Format(isoMillis),
		Status:      d.Status.String(),
		TotalAmount: json.Number(d.TotalAmount.String()),
		OrderItems:  items,
	}
}

func (p productDTO) toDomain() (catalog.Product, error) {
	if p.ProductID <= 0 {
		return catalog.Product{}, fmt.Errorf("product has invalid id %d", p.ProductID)
	}
	if p.Price.IsNegative() {
		return catalog.Product{}, fmt.Errorf("product %d has negative price %s", p.ProductID, p.Price)
	}
	return catalog.Product{
		ID:          p.ProductID,
		Name:        p.ProductName,
		Description: p.Description,
		Price:       p.Price,
	}, nil
}

func (i orderItemDTO) toDomain() (order.LineItem, error) {
	if i.Quantity <= 0 {
		return order.LineItem{}, fmt.Errorf("item for product %d has invalid quantity %d", i.ProductID, i.Quantity)
	}
	if i.PriceEach.IsNegative() {
		return order.LineItem{}, fmt.Errorf("item for product %d has negative price %s", i.ProductID, i.PriceEach)
	}
	return order.LineItem{
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: i.PriceEach,
	}, nil
}

func itemsToDomain(dtos []orderItemDTO) ([]order.LineItem, error) {
	items := make([]order.LineItem, 0, len(dtos))
	for _, dto := range dtos {
		item, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (o orderDTO) toDomain() (order.Order, error) {
	if o.OrderID <= 0 {
		return order.Order{}, fmt.Errorf("order has invalid id %d", o.OrderID)
	}

	orderDate, err := parseOrderDate(o.OrderDate)
	if err != nil {
		return order.Order{}, fmt.Errorf("order %d: %w", o.OrderID, err)
	}

	dtos := o.Items
	if len(dtos) == 0 {
		dtos = o.OrderItems
	}
	items, err := itemsToDomain(dtos)
	if err != nil {
		return order.Order{}, fmt.Errorf("order %d: %w", o.OrderID, err)
	}

	return order.Order{
		ID:          o.OrderID,
		UserID:      o.UserID,
		OrderDate:   orderDate,
		Status:      order.Status(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       items,
	}, nil
}

func (u userDTO) toDomain() (user.User, error) {
	if u.UserID <= 0 {
		return user.User{}, fmt.Errorf("user has invalid id %d", u.UserID)
	}
	return user.User{
		ID:       u.UserID,
		Username: u.UserName,
		Address:  u.Address,
		Email:    u.Email,
	}, nil
}
