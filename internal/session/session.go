package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	"github.com/vasiliy-maslov/order-portal/internal/order"
	"github.com/vasiliy-maslov/order-portal/internal/user"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("invalid session token")
)

// Session is the state a portal user builds up between requests: who is
// logged in, the catalog snapshot they browse, the cart and their orders.
type Session struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"user_id"`
	User      *user.User       `json:"user,omitempty"`
	Catalog   *catalog.Catalog `json:"catalog,omitempty"`
	Cart      *order.Cart      `json:"cart"`
	Orders    order.List       `json:"orders"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store keeps sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

func New(now time.Time) (*Session, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("session: failed to generate token: %w", err)
	}

	return &Session{
		ID:        token.String(),
		Cart:      order.NewCart(),
		Orders:    order.List{},
		CreatedAt: now.UTC(),
	}, nil
}

// ValidateToken rejects anything that is not a canonical UUID so that
// arbitrary client input never reaches the store.
func ValidateToken(token string) error {
	if _, err := uuid.FromString(token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID > 0
}

func (s *Session) CatalogLoaded() bool {
	return s != nil && s.Catalog != nil && s.Catalog.Len() > 0
}

// SignIn binds the session to u and drops anything left from a previous user.
func (s *Session) SignIn(u *user.User) {
	s.UserID = u.ID
	s.User = u
	s.Cart = order.NewCart()
	s.Orders = order.List{}
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: failed to encode %s: %w", s.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: failed to decode: %w", err)
	}
	if s.Cart == nil {
		s.Cart = order.NewCart()
	}
	if s.Orders == nil {
		s.Orders = order.List{}
	}
	return &s, nil
}
