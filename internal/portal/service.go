package portal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vasiliy-maslov/order-portal/internal/api"
	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	"github.com/vasiliy-maslov/order-portal/internal/events"
	"github.com/vasiliy-maslov/order-portal/internal/invoice"
	"github.com/vasiliy-maslov/order-portal/internal/order"
	"github.com/vasiliy-maslov/order-portal/internal/session"
	"github.com/vasiliy-maslov/order-portal/internal/user"
)

var (
	ErrUnauthenticated      = errors.New("you must be logged in")
	ErrCatalogNotLoaded     = errors.New("products are not loaded yet")
	ErrConfirmationRequired = errors.New("deleting an order must be confirmed")
	ErrOrderNotFound        = errors.New("order not found")
)

const (
	loginMethodPassword = "password"
	loginMethodGoogle   = "google"
)

// Backend is the subset of the order backend the portal depends on.
// *api.Client satisfies it.
type Backend interface {
	Register(ctx context.Context, reg user.Registration) (*user.User, error)
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
	LoginWithGoogle(ctx context.Context, token string) (*api.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	Products(ctx context.Context) ([]catalog.Product, error)
	User(ctx context.Context, userID int64) (*user.User, error)
	CreateOrder(ctx context.Context, draft *order.Draft) (*order.Order, error)
	OrdersForUser(ctx context.Context, userID int64) ([]order.Order, error)
	Order(ctx context.Context, orderID int64) (*order.Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]order.LineItem, error)
	DeleteOrder(ctx context.Context, orderID int64) (string, error)
	SendInvoiceEmail(ctx context.Context, orderID int64) (string, error)
}

type Service interface {
	Register(ctx context.Context, reg user.Registration) (*user.User, error)
	Login(ctx context.Context, username, password string) (*Profile, error)
	LoginWithGoogle(ctx context.Context, token string) (*Profile, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, sessionID string) (*Profile, error)
	Products(ctx context.Context, sessionID string) ([]catalog.Product, error)
	Cart(ctx context.Context, sessionID string) (*CartView, error)
	SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*CartView, bool, error)
	SubmitOrder(ctx context.Context, sessionID string) (*order.Order, error)
	Orders(ctx context.Context, sessionID string, refresh bool) (order.List, error)
	DeleteOrder(ctx context.Context, sessionID string, orderID int64, confirmed bool) (string, error)
	SendInvoiceEmail(ctx context.Context, sessionID string, orderID int64) (string, error)
	Invoice(ctx context.Context, sessionID string, orderID int64) (*invoice.Document, error)
}

type service struct {
	backend   Backend
	store     session.Store
	publisher events.Publisher
	taxRate   decimal.Decimal
	locks     *sessionLocks
	now       func() time.Time
}

func NewService(backend Backend, store session.Store, publisher events.Publisher, taxRate decimal.Decimal) Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &service{
		backend:   backend,
		store:     store,
		publisher: publisher,
		taxRate:   taxRate,
		locks:     newSessionLocks(),
		now:       time.Now,
	}
}

func (s *service) Register(ctx context.Context, reg user.Registration) (*user.User, error) {
	created, err := s.backend.Register(ctx, reg)
	if err != nil {
		log.Warn().Err(err).Str("email", reg.Email).Msg("portal: registration failed")
		return nil, fmt.Errorf("portal: failed to register user: %w", err)
	}

	log.Info().Int64("user_id", created.ID).Msg("portal: user registered")
	return created, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*Profile, error) {
	result, err := s.backend.Login(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("portal: login failed")
		return nil, fmt.Errorf("portal: failed to log in: %w", err)
	}
	return s.startSession(ctx, result.UserID, &user.User{ID: result.UserID, Username: username}, loginMethodPassword)
}

func (s *service) LoginWithGoogle(ctx context.Context, token string) (*Profile, error) {
	result, err := s.backend.LoginWithGoogle(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("portal: google login failed")
		return nil, fmt.Errorf("portal: failed to log in with google: %w", err)
	}
	return s.startSession(ctx, result.UserID, &user.User{ID: result.UserID}, loginMethodGoogle)
}

// startSession creates a session for a freshly authenticated user and fills
// it with the profile, the catalog and the order history. Only the login
// itself is mandatory; the rest is best effort and can be reloaded later.
func (s *service) startSession(ctx context.Context, userID int64, fallback *user.User, method string) (*Profile, error) {
	sess, err := session.New(s.now())
	if err != nil {
		return nil, fmt.Errorf("portal: failed to start session: %w", err)
	}

	profile, err := s.backend.User(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("portal: failed to fetch user profile, using login details")
		profile = fallback
	}
	sess.SignIn(profile)

	if err := s.loadCatalog(ctx, sess); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("portal: catalog not loaded at login")
	}

	orders, err := s.backend.OrdersForUser(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("portal: order history not loaded at login")
	} else {
		sess.Orders = order.List(orders)
	}

	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("portal: failed to save session: %w", err)
	}

	s.publish(ctx, sess, events.TypeUserLoggedIn, events.UserLoggedInPayload{UserID: userID, Method: method})
	log.Info().Int64("user_id", userID).Str("method", method).Msg("portal: user logged in")

	p := newProfile(sess)
	return &p, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) (string, error) {
	msg, err := s.backend.ForgotPassword(ctx, email)
	if err != nil {
		return "", fmt.Errorf("portal: failed to request password reset: %w", err)
	}
	return msg, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if err := session.ValidateToken(sessionID); err != nil {
		return ErrUnauthenticated
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("portal: failed to delete session: %w", err)
	}
	return nil
}

func (s *service) Me(ctx context.Context, sessionID string) (*Profile, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	p := newProfile(sess)
	return &p, nil
}

// Products returns the catalog snapshot, fetching it first if the session
// does not hold one yet.
func (s *service) Products(ctx context.Context, sessionID string) ([]catalog.Product, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.CatalogLoaded() {
		if err := s.loadCatalog(ctx, sess); err != nil {
			return nil, err
		}
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess.Catalog.Products(), nil
}

func (s *service) Cart(ctx context.Context, sessionID string) (*CartView, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	view := newCartView(sess)
	return &view, nil
}

// SetQuantity applies one quantity change to the cart. The bool reports
// whether the change was applied; products missing from the catalog are
// ignored.
func (s *service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*CartView, bool, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}

	applied := sess.Cart.Upsert(sess.Catalog, productID, quantity)
	if !applied {
		log.Debug().Int64("product_id", productID).Str("session_id", sess.ID).Msg("portal: ignoring unknown product")
	} else if err := s.save(ctx, sess); err != nil {
		return nil, false, err
	}

	view := newCartView(sess)
	return &view, applied, nil
}

// SubmitOrder turns the cart into an order. The cart is cleared before the
// backend is called and is not restored if the call fails.
func (s *service) SubmitOrder(ctx context.Context, sessionID string) (*order.Order, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sess.CatalogLoaded() {
		return nil, ErrCatalogNotLoaded
	}

	draft, err := order.BuildDraft(sess.UserID, sess.Cart.Items(), sess.Catalog, s.now())
	if err != nil {
		return nil, err
	}

	sess.Cart.Reset()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	created, err := s.backend.CreateOrder(ctx, draft)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sess.UserID).Msg("portal: failed to submit order")
		return nil, fmt.Errorf("portal: failed to submit order: %w", err)
	}

	sess.Orders = sess.Orders.Prepend(*created)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	s.publish(ctx, sess, events.TypeOrderSubmitted, events.OrderSubmittedPayload{
		OrderID:     created.ID,
		UserID:      sess.UserID,
		TotalAmount: created.TotalAmount,
		ItemCount:   len(created.Items),
	})
	log.Info().Int64("order_id", created.ID).Int64("user_id", sess.UserID).Msg("portal: order submitted")

	return created, nil
}

// Orders returns the session's order list, replacing it with the backend's
// copy first when refresh is set.
func (s *service) Orders(ctx context.Context, sessionID string, refresh bool) (order.List, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if refresh {
		orders, err := s.backend.OrdersForUser(ctx, sess.UserID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", sess.UserID).Msg("portal: failed to refresh orders")
			return nil, fmt.Errorf("portal: failed to fetch orders: %w", err)
		}
		sess.Orders = order.List(orders)
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess.Orders, nil
}

// DeleteOrder removes an order on the backend and then from the session. The
// local list only changes once the backend has confirmed the deletion.
func (s *service) DeleteOrder(ctx context.Context, sessionID string, orderID int64, confirmed bool) (string, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if !confirmed {
		return "", ErrConfirmationRequired
	}

	if _, err := s.ownedOrder(ctx, sess, orderID); err != nil {
		return "", err
	}

	detail, err := s.backend.DeleteOrder(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("portal: failed to delete order")
		return "", fmt.Errorf("portal: failed to delete order: %w", err)
	}

	sess.Orders, _ = sess.Orders.Remove(orderID)
	if err := s.save(ctx, sess); err != nil {
		return "", err
	}

	s.publish(ctx, sess, events.TypeOrderDeleted, events.OrderDeletedPayload{OrderID: orderID, UserID: sess.UserID})
	log.Info().Int64("order_id", orderID).Int64("user_id", sess.UserID).Msg("portal: order deleted")

	return detail, nil
}

func (s *service) SendInvoiceEmail(ctx context.Context, sessionID string, orderID int64) (string, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	if _, err := s.ownedOrder(ctx, sess, orderID); err != nil {
		return "", err
	}

	msg, err := s.backend.SendInvoiceEmail(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("portal: failed to send invoice email")
		return "", fmt.Errorf("portal: failed to send invoice email: %w", err)
	}

	s.publish(ctx, sess, events.TypeInvoiceEmailed, events.InvoiceEmailedPayload{OrderID: orderID, UserID: sess.UserID})
	return msg, nil
}

// Invoice prices one of the session's orders and lays it out for export.
func (s *service) Invoice(ctx context.Context, sessionID string, orderID int64) (*invoice.Document, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	o, err := s.ownedOrder(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}

	if len(o.Items) == 0 {
		items, err := s.backend.OrderItems(ctx, orderID)
		if err != nil && !api.IsNotFound(err) {
			return nil, fmt.Errorf("portal: failed to fetch order items: %w", err)
		}
		o.Items = items
	}

	view := invoice.Compute(o, sess.Catalog, s.taxRate)
	doc := invoice.NewDocument(view, billTo(sess.User))
	return &doc, nil
}

// ownedOrder finds orderID in the session's list or, failing that, on the
// backend. Orders of other users are reported as not found.
func (s *service) ownedOrder(ctx context.Context, sess *session.Session, orderID int64) (order.Order, error) {
	if o, ok := sess.Orders.Find(orderID); ok {
		return o, nil
	}

	o, err := s.backend.Order(ctx, orderID)
	if err != nil {
		if api.IsNotFound(err) {
			return order.Order{}, ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("portal: failed to fetch order: %w", err)
	}

	if o.UserID != sess.UserID {
		log.Warn().Int64("order_id", orderID).Int64("user_id", sess.UserID).Msg("portal: order belongs to another user")
		return order.Order{}, ErrOrderNotFound
	}
	return *o, nil
}

func (s *service) loadCatalog(ctx context.Context, sess *session.Session) error {
	products, err := s.backend.Products(ctx)
	if err != nil {
		return fmt.Errorf("portal: failed to fetch products: %w", err)
	}
	sess.Catalog = catalog.New(products)
	return nil
}

// load returns the authenticated session for sessionID.
func (s *service) load(ctx context.Context, sessionID string) (*session.Session, error) {
	if err := session.ValidateToken(sessionID); err != nil {
		return nil, ErrUnauthenticated
	}

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("portal: failed to load session: %w", err)
	}

	if !sess.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

func (s *service) save(ctx context.Context, sess *session.Session) error {
	if err := s.store.Save(ctx, sess); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("portal: failed to save session")
		return fmt.Errorf("portal: failed to save session: %w", err)
	}
	return nil
}

// publish never fails the caller; activity events are informational.
func (s *service) publish(ctx context.Context, sess *session.Session, eventType string, payload any) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:          eventType,
		Key:           strconv.FormatInt(sess.UserID, 10),
		CorrelationID: sess.ID,
		Payload:       payload,
	})
	if err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("portal: failed to publish event")
	}
}

func billTo(u *user.User) invoice.BillTo {
	if u == nil {
		return invoice.BillTo{}
	}
	return invoice.BillTo{
		Name:    u.DisplayName(),
		Email:   u.Email,
		Address: u.Address,
	}
}
