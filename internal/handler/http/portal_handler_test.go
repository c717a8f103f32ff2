package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/order-portal/internal/api"
	"github.com/vasiliy-maslov/order-portal/internal/catalog"
	portalHandler "github.com/vasiliy-maslov/order-portal/internal/handler/http"
	"github.com/vasiliy-maslov/order-portal/internal/invoice"
	"github.com/vasiliy-maslov/order-portal/internal/order"
	"github.com/vasiliy-maslov/order-portal/internal/portal"
	"github.com/vasiliy-maslov/order-portal/internal/user"
)

const testToken = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

type MockPortalService struct {
	mock.Mock
}

func (m *MockPortalService) Register(ctx context.Context, reg user.Registration) (*user.User, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockPortalService) Login(ctx context.Context, username, password string) (*portal.Profile, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portal.Profile), args.Error(1)
}

func (m *MockPortalService) LoginWithGoogle(ctx context.Context, token string) (*portal.Profile, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portal.Profile), args.Error(1)
}

func (m *MockPortalService) ForgotPassword(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockPortalService) Logout(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockPortalService) Me(ctx context.Context, sessionID string) (*portal.Profile, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portal.Profile), args.Error(1)
}

func (m *MockPortalService) Products(ctx context.Context, sessionID string) ([]catalog.Product, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockPortalService) Cart(ctx context.Context, sessionID string) (*portal.CartView, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portal.CartView), args.Error(1)
}

func (m *MockPortalService) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*portal.CartView, bool, error) {
	args := m.Called(ctx, sessionID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*portal.CartView), args.Bool(1), args.Error(2)
}

func (m *MockPortalService) SubmitOrder(ctx context.Context, sessionID string) (*order.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockPortalService) Orders(ctx context.Context, sessionID string, refresh bool) (order.List, error) {
	args := m.Called(ctx, sessionID, refresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(order.List), args.Error(1)
}

func (m *MockPortalService) DeleteOrder(ctx context.Context, sessionID string, orderID int64, confirmed bool) (string, error) {
	args := m.Called(ctx, sessionID, orderID, confirmed)
	return args.String(0), args.Error(1)
}

func (m *MockPortalService) SendInvoiceEmail(ctx context.Context, sessionID string, orderID int64) (string, error) {
	args := m.Called(ctx, sessionID, orderID)
	return args.String(0), args.Error(1)
}

func (m *MockPortalService) Invoice(ctx context.Context, sessionID string, orderID int64) (*invoice.Document, error) {
	args := m.Called(ctx, sessionID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Document), args.Error(1)
}

func serve(t *testing.T, svc portal.Service, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	handler := portalHandler.NewPortalHandler(svc, false)
	router := portalHandler.NewRouter(handler, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func newRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSession(req *http.Request) *http.Request {
	req.Header.Set(portalHandler.SessionHeader, testToken)
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var errorResponse map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
	return errorResponse["error"]
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestHealth(t *testing.T) {
	rr := serve(t, new(MockPortalService), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestPortalHandler_handleLogin_Success(t *testing.T) {
	mockService := new(MockPortalService)
	profile := &portal.Profile{
		SessionID:     testToken,
		User:          &user.User{ID: 7, Username: "alice", Email: "alice@example.com"},
		CatalogLoaded: true,
		Orders:        2,
	}
	mockService.On("Login", mock.Anything, "alice", "secret").Return(profile, nil).Once()

	rr := serve(t, mockService, newRequest(http.MethodPost, "/api/login", portalHandler.LoginRequest{UserName: "alice", Password: "secret"}))
	require.Equal(t, http.StatusOK, rr.Code)

	var actualResponse portalHandler.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse))

	expected := portalHandler.SessionResponse{
		SessionID:     testToken,
		User:          &portalHandler.UserResponse{ID: 7, UserName: "alice", Email: "alice@example.com"},
		CatalogLoaded: true,
		Orders:        2,
	}
	if diff := cmp.Diff(expected, actualResponse); diff != "" {
		t.Errorf("session response mismatch (-want +got):\n%s", diff)
	}

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, portalHandler.SessionCookie, cookies[0].Name)
	assert.Equal(t, testToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	mockService.AssertExpectations(t)
}

func TestPortalHandler_handleLogin_BackendMessageVerbatim(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("Login", mock.Anything, "alice", "wrong").
		Return(nil, &api.Error{Kind: api.KindStatus, StatusCode: http.StatusUnauthorized, Message: "Invalid username or password"}).Once()

	rr := serve(t, mockService, newRequest(http.MethodPost, "/api/login", portalHandler.LoginRequest{UserName: "alice", Password: "wrong"}))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid username or password", decodeError(t, rr))
	mockService.AssertExpectations(t)
}

func TestPortalHandler_handleRegister_Validation(t *testing.T) {
	mockService := new(MockPortalService)

	rr := serve(t, mockService, newRequest(http.MethodPost, "/api/register", portalHandler.RegisterRequest{
		UserName: "al",
		Password: "short",
		Email:    "not-an-email",
	}))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errorResponse portalHandler.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
	assert.Equal(t, "Validation failed", errorResponse.Error)
	assert.Contains(t, errorResponse.Details, "user_name")
	assert.Contains(t, errorResponse.Details, "password")
	assert.Contains(t, errorResponse.Details, "address")
	assert.Equal(t, "must be a valid email address", errorResponse.Details["email"])
	mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestPortalHandler_handleRegister_Success(t *testing.T) {
	mockService := new(MockPortalService)
	requestDTO := portalHandler.RegisterRequest{
		UserName: "carol",
		Password: "password123",
		Address:  "1 Orchard Rd",
		Email:    "carol@example.com",
	}
	mockService.On("Register", mock.Anything, mock.MatchedBy(func(reg user.Registration) bool {
		return reg.Username == requestDTO.UserName &&
			reg.Password == requestDTO.Password &&
			reg.Address == requestDTO.Address &&
			reg.Email == requestDTO.Email
	})).Return(&user.User{ID: 5, Username: "carol", Address: "1 Orchard Rd", Email: "carol@example.com"}, nil).Once()

	rr := serve(t, mockService, newRequest(http.MethodPost, "/api/register", requestDTO))
	require.Equal(t, http.StatusCreated, rr.Code)

	var actualResponse portalHandler.UserResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actualResponse))
	assert.Equal(t, int64(5), actualResponse.ID)
	assert.NotContains(t, rr.Body.String(), "password123")
	mockService.AssertExpectations(t)
}

func TestPortalHandler_InvalidJSON(t *testing.T) {
	mockService := new(MockPortalService)

	rr := serve(t, mockService, newRequest(http.MethodPost, "/api/login", `{"user_name": "alice" "password": "x"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid request payload", decodeError(t, rr))
}

func TestPortalHandler_handleForgotPassword(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("ForgotPassword", mock.Anything, "ghost@example.com").
		Return("", &api.Error{Kind: api.KindStatusText, StatusCode: http.StatusNotFound, Message: "The email address you entered is not registered."}).Once()

	rr := serve(t, mockService, newRequest(http.MethodPost, "/api/forgot-password", portalHandler.ForgotPasswordRequest{Email: "ghost@example.com"}))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "The email address you entered is not registered.", decodeError(t, rr))
}

func TestPortalHandler_RequiresSession(t *testing.T) {
	mockService := new(MockPortalService)

	rr := serve(t, mockService, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, portal.ErrUnauthenticated.Error(), decodeError(t, rr))
	mockService.AssertNotCalled(t, "Cart", mock.Anything, mock.Anything)
}

func TestPortalHandler_SessionFromCookie(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("Cart", mock.Anything, testToken).Return(&portal.CartView{Total: decimal.Zero}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: portalHandler.SessionCookie, Value: testToken})

	rr := serve(t, mockService, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"items":[],"total":"0.00"}`, rr.Body.String())
	mockService.AssertExpectations(t)
}

func TestPortalHandler_ExpiredSession(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("Me", mock.Anything, testToken).Return(nil, portal.ErrUnauthenticated).Once()

	rr := serve(t, mockService, withSession(httptest.NewRequest(http.MethodGet, "/api/me", nil)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPortalHandler_handleProducts(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("Products", mock.Anything, testToken).Return([]catalog.Product{
		{ID: 1, Name: "Ava", Description: "Sweet", Price: dec("3")},
	}, nil).Once()

	rr := serve(t, mockService, withSession(httptest.NewRequest(http.MethodGet, "/api/products", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"product_id":1,"product_name":"Ava","description":"Sweet","price":"3.00"}]`, rr.Body.String())
}

func TestPortalHandler_handleSetQuantity(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       interface{}
		setupMock  func(m *MockPortalService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "applied",
			path: "/api/cart/items/1",
			body: map[string]int{"quantity": 2},
			setupMock: func(m *MockPortalService) {
				m.On("SetQuantity", mock.Anything, testToken, int64(1), 2).Return(&portal.CartView{
					Items: []portal.CartLine{{ProductID: 1, ProductName: "Ava", Quantity: 2, UnitPrice: dec("3"), Subtotal: dec("6")}},
					Total: dec("6"),
				}, true, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"items":[{"product_id":1,"product_name":"Ava","quantity":2,"price_each":"3.00","subtotal":"6.00"}],"total":"6.00","applied":true}`,
		},
		{
			name: "unknown_product_ignored",
			path: "/api/cart/items/99",
			body: map[string]int{"quantity": 1},
			setupMock: func(m *MockPortalService) {
				m.On("SetQuantity", mock.Anything, testToken, int64(99), 1).
					Return(&portal.CartView{Total: decimal.Zero}, false, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"items":[],"total":"0.00","applied":false}`,
		},
		{
			name: "zero_quantity_is_valid",
			path: "/api/cart/items/1",
			body: map[string]int{"quantity": 0},
			setupMock: func(m *MockPortalService) {
				m.On("SetQuantity", mock.Anything, testToken, int64(1), 0).
					Return(&portal.CartView{Total: decimal.Zero}, true, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"items":[],"total":"0.00","applied":true}`,
		},
		{
			name:       "missing_quantity",
			path:       "/api/cart/items/1",
			body:       map[string]int{},
			setupMock:  func(m *MockPortalService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Validation failed","details":{"quantity":"is required"}}`,
		},
		{
			name:       "invalid_product_id",
			path:       "/api/cart/items/abc",
			body:       map[string]int{"quantity": 1},
			setupMock:  func(m *MockPortalService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid id parameter"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPortalService)
			tt.setupMock(mockService)

			rr := serve(t, mockService, withSession(newRequest(http.MethodPut, tt.path, tt.body)))
			require.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestPortalHandler_handleSubmitOrder(t *testing.T) {
	tests := []struct {
		name       string
		result     *order.Order
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name: "created",
			result: &order.Order{
				ID:          41,
				UserID:      7,
				OrderDate:   time.Date(2025, 4, 16, 12, 0, 0, 0, time.UTC),
				Status:      order.StatusPending,
				TotalAmount: dec("6"),
				Items:       []order.LineItem{{ProductID: 1, Quantity: 2, UnitPrice: dec("3")}},
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "empty_cart",
			err:        order.ErrEmptyOrder,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "you must select at least one product",
		},
		{
			name:       "catalog_not_loaded",
			err:        portal.ErrCatalogNotLoaded,
			wantStatus: http.StatusConflict,
			wantError:  portal.ErrCatalogNotLoaded.Error(),
		},
		{
			name:       "backend_unreachable",
			err:        &api.Error{Kind: api.KindTransport, Message: "An error occurred. Please try again."},
			wantStatus: http.StatusBadGateway,
			wantError:  "An error occurred. Please try again.",
		},
		{
			name:       "backend_server_error",
			err:        &api.Error{Kind: api.KindStatus, StatusCode: http.StatusInternalServerError, Message: "Database unavailable"},
			wantStatus: http.StatusBadGateway,
			wantError:  "Database unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPortalService)
			if tt.result != nil {
				mockService.On("SubmitOrder", mock.Anything, testToken).Return(tt.result, nil).Once()
			} else {
				mockService.On("SubmitOrder", mock.Anything, testToken).Return(nil, tt.err).Once()
			}

			rr := serve(t, mockService, withSession(newRequest(http.MethodPost, "/api/orders", nil)))
			require.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rr))
				return
			}
			assert.JSONEq(t, `{
				"order_id": 41, "user_id": 7, "order_date": "2025-04-16T12:00:00Z", "status": "pending",
				"total_amount": "6.00", "items": [{"product_id": 1, "quantity": 2, "price_each": "3.00"}]
			}`, rr.Body.String())
		})
	}
}

func TestPortalHandler_handleOrders(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("Orders", mock.Anything, testToken, true).Return(order.List{{ID: 2, TotalAmount: dec("1.5")}}, nil).Once()
	mockService.On("Orders", mock.Anything, testToken, false).Return(order.List{}, nil).Once()

	rr := serve(t, mockService, withSession(httptest.NewRequest(http.MethodGet, "/api/orders?refresh=true", nil)))
	require.Equal(t, http.StatusOK, rr.Code)

	var orders []portalHandler.OrderResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "1.50", orders[0].TotalAmount)

	rr = serve(t, mockService, withSession(httptest.NewRequest(http.MethodGet, "/api/orders", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	mockService.AssertExpectations(t)
}

func TestPortalHandler_handleDeleteOrder(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		confirmed  bool
		result     string
		err        error
		wantStatus int
	}{
		{name: "confirmed", target: "/api/orders/4?confirm=true", confirmed: true, result: "Order 4 successfully deleted", wantStatus: http.StatusOK},
		{name: "unconfirmed", target: "/api/orders/4", confirmed: false, err: portal.ErrConfirmationRequired, wantStatus: http.StatusPreconditionRequired},
		{name: "not_owned", target: "/api/orders/4?confirm=1", confirmed: true, err: portal.ErrOrderNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPortalService)
			mockService.On("DeleteOrder", mock.Anything, testToken, int64(4), tt.confirmed).Return(tt.result, tt.err).Once()

			rr := serve(t, mockService, withSession(httptest.NewRequest(http.MethodDelete, tt.target, nil)))
			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.err == nil {
				assert.JSONEq(t, `{"message":"Order 4 successfully deleted"}`, rr.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func testDocument() *invoice.Document {
	view := invoice.Compute(order.Order{
		ID:     41,
		UserID: 7,
		Status: order.StatusPending,
		Items:  []order.LineItem{{ProductID: 1, Quantity: 2, UnitPrice: dec("3.00")}},
	}, catalog.New([]catalog.Product{{ID: 1, Name: "Ava", Price: dec("3.00")}}), invoice.DefaultTaxRate)
	doc := invoice.NewDocument(view, invoice.BillTo{Name: "alice"})
	return &doc
}

func TestPortalHandler_handleInvoice(t *testing.T) {
	tests := []struct {
		name            string
		format          string
		wantContentType string
		wantDisposition string
		check           func(t *testing.T, body string)
	}{
		{
			name:            "json_default",
			format:          "",
			wantContentType: "application/json",
			check: func(t *testing.T, body string) {
				var doc invoice.Document
				require.NoError(t, json.Unmarshal([]byte(body), &doc))
				assert.Equal(t, "Invoice_41", doc.FileName)
			},
		},
		{
			name:            "text",
			format:          "text",
			wantContentType: "text/plain; charset=utf-8",
			wantDisposition: `inline; filename="Invoice_41.txt"`,
			check: func(t *testing.T, body string) {
				assert.Contains(t, body, "$6.90")
			},
		},
		{
			name:            "html",
			format:          "html",
			wantContentType: "text/html; charset=utf-8",
			wantDisposition: `inline; filename="Invoice_41.html"`,
			check: func(t *testing.T, body string) {
				assert.Contains(t, body, "Ava")
			},
		},
		{
			name:            "pdf",
			format:          "pdf",
			wantContentType: "application/pdf",
			wantDisposition: `attachment; filename="Invoice_41.pdf"`,
			check: func(t *testing.T, body string) {
				assert.True(t, strings.HasPrefix(body, "%PDF-"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockPortalService)
			mockService.On("Invoice", mock.Anything, testToken, int64(41)).Return(testDocument(), nil).Once()

			rr := serve(t, mockService, withSession(httptest.NewRequest(http.MethodGet, "/api/orders/41/invoice?format="+tt.format, nil)))
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantContentType, rr.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantDisposition, rr.Header().Get("Content-Disposition"))
			tt.check(t, rr.Body.String())
		})
	}
}

func TestPortalHandler_handleInvoice_UnsupportedFormat(t *testing.T) {
	mockService := new(MockPortalService)

	rr := serve(t, mockService, withSession(httptest.NewRequest(http.MethodGet, "/api/orders/41/invoice?format=docx", nil)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Invoice", mock.Anything, mock.Anything, mock.Anything)
}

func TestPortalHandler_handleEmailInvoice(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("SendInvoiceEmail", mock.Anything, testToken, int64(41)).Return("Invoice sent to alice@example.com", nil).Once()

	rr := serve(t, mockService, withSession(newRequest(http.MethodPost, "/api/orders/41/invoice/email", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Invoice sent to alice@example.com"}`, rr.Body.String())
	mockService.AssertExpectations(t)
}

func TestPortalHandler_handleLogout(t *testing.T) {
	mockService := new(MockPortalService)
	mockService.On("Logout", mock.Anything, testToken).Return(nil).Once()

	rr := serve(t, mockService, withSession(newRequest(http.MethodPost, "/api/logout", nil)))
	require.Equal(t, http.StatusNoContent, rr.Code)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
	mockService.AssertExpectations(t)
}
