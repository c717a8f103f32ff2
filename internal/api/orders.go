package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	"github.com/vasiliy-maslov/order-portal/internal/order"
	"github.com/vasiliy-maslov/order-portal/internal/user"
)

const msgDeleteFailed = "Failed to delete order"

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var dtos []productDTO
	if err := c.do(ctx, http.MethodGet, nil, &dtos, "products"); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(dtos))
	for _, dto := range dtos {
		p, err := dto.toDomain()
		if err != nil {
			return nil, malformed(err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (c *Client) User(ctx context.Context, userID int64) (*user.User, error) {
	var dto userDTO
	if err := c.do(ctx, http.MethodGet, nil, &dto, "user", id(userID)); err != nil {
		return nil, err
	}

	u, err := dto.toDomain()
	if err != nil {
		return nil, malformed(err)
	}
	return &u, nil
}

// CreateOrder persists a draft and returns the stored order. Fields the
// backend leaves out of its answer are filled from the draft.
func (c *Client) CreateOrder(ctx context.Context, draft *order.Draft) (*order.Order, error) {
	var dto orderDTO
	if err := c.do(ctx, http.MethodPost, newCreateOrderRequest(draft), &dto, "orders", "create"); err != nil {
		return nil, err
	}

	created, err := dto.toDomain()
	if err != nil {
		return nil, malformed(err)
	}

	if created.UserID == 0 {
		created.UserID = draft.UserID
	}
	if created.OrderDate.IsZero() {
		created.OrderDate = draft.OrderDate
	}
	if created.Status == "" {
		created.Status = draft.Status
	}
	if len(created.Items) == 0 {
		created.Items = append([]order.LineItem(nil), draft.Items...)
	}
	if created.TotalAmount.IsZero() && !draft.TotalAmount.IsZero() {
		created.TotalAmount = draft.TotalAmount
	}
	return &created, nil
}

// OrdersForUser returns the user's orders. The backend's "not found" shape,
// either a 404 or a {"detail": ...} object, means the user has no orders.
func (c *Client) OrdersForUser(ctx context.Context, userID int64) ([]order.Order, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodGet, nil, &raw, "orders", "user", id(userID))
	if err != nil {
		if IsNotFound(err) {
			log.Debug().Int64("user_id", userID).Msg("api: backend reports no orders for user")
			return []order.Order{}, nil
		}
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		log.Debug().Int64("user_id", userID).Msg("api: backend reports no orders for user")
		return []order.Order{}, nil
	}

	var dtos []orderDTO
	if err := json.Unmarshal(trimmed, &dtos); err != nil {
		return nil, malformed(err)
	}

	orders := make([]order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := dto.toDomain()
		if err != nil {
			return nil, malformed(err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Client) Order(ctx context.Context, orderID int64) (*order.Order, error) {
	var dto orderDTO
	if err := c.do(ctx, http.MethodGet, nil, &dto, "orders", id(orderID)); err != nil {
		return nil, err
	}

	o, err := dto.toDomain()
	if err != nil {
		return nil, malformed(err)
	}
	return &o, nil
}

func (c *Client) OrderItems(ctx context.Context, orderID int64) ([]order.LineItem, error) {
	var dtos []orderItemDTO
	if err := c.do(ctx, http.MethodGet, nil, &dtos, "orders", id(orderID), "items"); err != nil {
		return nil, err
	}

	items, err := itemsToDomain(dtos)
	if err != nil {
		return nil, malformed(fmt.Errorf("order %d: %w", orderID, err))
	}
	return items, nil
}

// DeleteOrder removes an order and returns the backend's confirmation. An
// answer without a confirmation detail is a failure.
func (c *Client) DeleteOrder(ctx context.Context, orderID int64) (string, error) {
	var resp detailResponse
	if err := c.do(ctx, http.MethodDelete, nil, &resp, "orders", "delete", id(orderID)); err != nil {
		return "", err
	}

	if resp.Detail == "" {
		return "", rejected(firstNonEmpty(resp.Message, msgDeleteFailed))
	}
	return resp.Detail, nil
}

// SendInvoiceEmail asks the backend to email the invoice for orderID.
func (c *Client) SendInvoiceEmail(ctx context.Context, orderID int64) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, nil, &resp, "email", "send-invoice", id(orderID)); err != nil {
		return "", err
	}
	return resp.Message, nil
}
