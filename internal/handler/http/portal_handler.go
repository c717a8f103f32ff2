package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	"github.com/vasiliy-maslov/order-portal/internal/invoice"
	"github.com/vasiliy-maslov/order-portal/internal/order"
	"github.com/vasiliy-maslov/order-portal/internal/portal"
	"github.com/vasiliy-maslov/order-portal/internal/user"
)

const (
	SessionHeader = "X-Session-Token"
	SessionCookie = "portal_session"
)

type RegisterRequest struct {
	UserName string `json:"user_name" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
	Address  string `json:"address" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	UserName string `json:"user_name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type GoogleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SetQuantityRequest sets the quantity of one product; zero or less removes it.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type UserResponse struct {
	ID       int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Address  string `json:"address"`
	Email    string `json:"email"`
}

type SessionResponse struct {
	SessionID     string        `json:"session_id"`
	User          *UserResponse `json:"user"`
	CatalogLoaded bool          `json:"catalog_loaded"`
	CartItems     int           `json:"cart_items"`
	Orders        int           `json:"orders"`
}

type ProductResponse struct {
	ID          int64  `json:"product_id"`
	Name        string `json:"product_name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type CartItemResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	PriceEach   string `json:"price_each"`
	Subtotal    string `json:"subtotal"`
}

type CartResponse struct {
	Items   []CartItemResponse `json:"items"`
	Total   string             `json:"total"`
	Applied *bool              `json:"applied,omitempty"`
}

type OrderItemResponse struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	PriceEach string `json:"price_each"`
}

type OrderResponse struct {
	OrderID     int64               `json:"order_id"`
	UserID      int64               `json:"user_id"`
	OrderDate   time.Time           `json:"order_date"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Items       []OrderItemResponse `json:"items"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PortalHandler struct {
	service      portal.Service
	validate     *validator.Validate
	secureCookie bool
}

func NewPortalHandler(service portal.Service, secureCookie bool) *PortalHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &PortalHandler{
		service:      service,
		validate:     validate,
		secureCookie: secureCookie,
	}
}

func (h *PortalHandler) RegisterRoutes(router chi.Router) {
	router.Route("/api", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/login/google", h.handleGoogleLogin)
		r.Post("/forgot-password", h.handleForgotPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Post("/logout", h.handleLogout)
			r.Get("/me", h.handleMe)
			r.Get("/products", h.handleProducts)
			r.Get("/cart", h.handleCart)
			r.Put("/cart/items/{productID}", h.handleSetQuantity)
			r.Post("/orders", h.handleSubmitOrder)
			r.Get("/orders", h.handleOrders)
			r.Delete("/orders/{id}", h.handleDeleteOrder)
			r.Get("/orders/{id}/invoice", h.handleInvoice)
			r.Post("/orders/{id}/invoice/email", h.handleEmailInvoice)
		})
	})
}

type sessionKey struct{}

// requireSession reads the session token from the header or the cookie. The
// service decides whether the token belongs to a live session.
func (h *PortalHandler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(SessionHeader))
		if token == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, portal.ErrUnauthenticated.Error())
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	token, _ := r.Context().Value(sessionKey{}).(string)
	return token
}

func (h *PortalHandler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *PortalHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.Register(r.Context(), user.Registration{
		Username: requestPayload.UserName,
		Password: requestPayload.Password,
		Address:  requestPayload.Address,
		Email:    requestPayload.Email,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to register user via service")
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toUserResponse(created))
}

func (h *PortalHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	profile, err := h.service.Login(r.Context(), requestPayload.UserName, requestPayload.Password)
	if err != nil {
		log.Warn().Err(err).Str("user_name", requestPayload.UserName).Msg("Failed to log in via service")
		respondWithServiceError(w, err)
		return
	}

	h.setSessionCookie(w, profile.SessionID, 0)
	respondWithJSON(w, http.StatusOK, toSessionResponse(profile))
}

func (h *PortalHandler) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload GoogleLoginRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	profile, err := h.service.LoginWithGoogle(r.Context(), requestPayload.Token)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to log in with google via service")
		respondWithServiceError(w, err)
		return
	}

	h.setSessionCookie(w, profile.SessionID, 0)
	respondWithJSON(w, http.StatusOK, toSessionResponse(profile))
}

func (h *PortalHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var requestPayload ForgotPasswordRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	msg, err := h.service.ForgotPassword(r.Context(), requestPayload.Email)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to request password reset via service")
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (h *PortalHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionID(r)); err != nil {
		log.Error().Err(err).Msg("Failed to log out via service")
		respondWithServiceError(w, err)
		return
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortalHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Me(r.Context(), sessionID(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toSessionResponse(profile))
}

func (h *PortalHandler) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context(), sessionID(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to get products via service")
		respondWithServiceError(w, err)
		return
	}

	responsePayload := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		responsePayload = append(responsePayload, toProductResponse(p))
	}
	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *PortalHandler) handleCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Cart(r.Context(), sessionID(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toCartResponse(cart, nil))
}

func (h *PortalHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseIDParam(w, r, "productID")
	if !ok {
		return
	}

	var requestPayload SetQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	cart, applied, err := h.service.SetQuantity(r.Context(), sessionID(r), productID, *requestPayload.Quantity)
	if err != nil {
		log.Error().Err(err).Int64("product_id", productID).Msg("Failed to set quantity via service")
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, toCartResponse(cart, &applied))
}

func (h *PortalHandler) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.SubmitOrder(r.Context(), sessionID(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to submit order via service")
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, toOrderResponse(*created))
}

func (h *PortalHandler) handleOrders(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	orders, err := h.service.Orders(r.Context(), sessionID(r), refresh)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get orders via service")
		respondWithServiceError(w, err)
		return
	}

	responsePayload := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		responsePayload = append(responsePayload, toOrderResponse(o))
	}
	respondWithJSON(w, http.StatusOK, responsePayload)
}

func (h *PortalHandler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	detail, err := h.service.DeleteOrder(r.Context(), sessionID(r), orderID, confirmed)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to delete order via service")
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: detail})
}

func (h *PortalHandler) handleInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	format, err := invoice.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	doc, err := h.service.Invoice(r.Context(), sessionID(r), orderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to build invoice via service")
		respondWithServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := invoice.Export(&buf, *doc, format); err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Str("format", string(format)).Msg("Failed to export invoice")
		respondWithError(w, http.StatusInternalServerError, "Failed to export invoice")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format != invoice.FormatJSON {
		disposition := "inline"
		if format == invoice.FormatPDF {
			disposition = "attachment"
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.FileName+"."+format.Extension()))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("Failed to write invoice response")
	}
}

func (h *PortalHandler) handleEmailInvoice(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	msg, err := h.service.SendInvoiceEmail(r.Context(), sessionID(r), orderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to send invoice email via service")
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	idParam := chi.URLParam(r, name)
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		log.Warn().Str(name, idParam).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}
	return id, true
}

func toUserResponse(u *user.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:       u.ID,
		UserName: u.Username,
		Address:  u.Address,
		Email:    u.Email,
	}
}

func toSessionResponse(p *portal.Profile) SessionResponse {
	return SessionResponse{
		SessionID:     p.SessionID,
		User:          toUserResponse(p.User),
		CatalogLoaded: p.CatalogLoaded,
		CartItems:     p.CartItems,
		Orders:        p.Orders,
	}
}

func toProductResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
	}
}

func toCartResponse(c *portal.CartView, applied *bool) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for _, line := range c.Items {
		items = append(items, CartItemResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			PriceEach:   line.UnitPrice.StringFixed(2),
			Subtotal:    line.Subtotal.StringFixed(2),
		})
	}
	return CartResponse{
		Items:   items,
		Total:   c.Total.StringFixed(2),
		Applied: applied,
	}
}

func toOrderResponse(o order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			PriceEach: item.UnitPrice.StringFixed(2),
		})
	}
	return OrderResponse{
		OrderID:     o.ID,
		UserID:      o.UserID,
		OrderDate:   o.OrderDate,
		Status:      o.Status.String(),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Items:       items,
	}
}
