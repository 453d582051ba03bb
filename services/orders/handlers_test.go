package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockOrderUseCase simula o use case para testar só a camada HTTP
type MockOrderUseCase struct {
	mock.Mock
}

func (m *MockOrderUseCase) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CreateOrderResult), args.Error(1)
}

func (m *MockOrderUseCase) ConfirmOrder(ctx context.Context, orderID int64, idempotencyKey string) (*ConfirmOrderResult, error) {
	args := m.Called(ctx, orderID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConfirmOrderResult), args.Error(1)
}

func (m *MockOrderUseCase) GetOrder(ctx context.Context, orderID int64) (*Order, []OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*Order), args.Get(1).([]OrderItem), args.Error(2)
}

func (m *MockOrderUseCase) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func setupTestRouter(useCase OrderUseCaseInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewOrderHandler(useCase, nil, noop.NewTracerProvider().Tracer("test"))

	r := gin.New()
	r.GET("/health", handler.HealthCheck)
	orders := r.Group("/orders", authRequired())
	orders.POST("", handler.CreateOrder)
	orders.GET("", handler.ListOrders)
	orders.GET("/:id", handler.GetOrder)
	orders.POST("/:id/confirm", handler.ConfirmOrder)
	orders.POST("/:id/cancel", handler.CancelOrder)
	return r
}

func doRequest(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer user-token")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrderHandler_Success(t *testing.T) {
	useCase := new(MockOrderUseCase)
	useCase.On("CreateOrder", mock.Anything, mock.Anything).Return(&CreateOrderResult{
		Order:    &Order{ID: 42, CustomerID: 7, Status: OrderStatusCreated, TotalCents: 1000},
		Items:    []OrderItem{{ID: 1, ProductID: 3, Qty: 2, UnitPriceCents: 500, SubtotalCents: 1000}},
		Customer: &Customer{ID: 7, Name: "Acme Corp"},
	}, nil)

	r := setupTestRouter(useCase)
	w := doRequest(r, "POST", "/orders", `{"customer_id":7,"items":[{"product_id":3,"qty":2}]}`, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"total_cents":1000`)
	assert.Contains(t, w.Body.String(), `"customer"`)
	useCase.AssertExpectations(t)
}

func TestCreateOrderHandler_MalformedBody(t *testing.T) {
	useCase := new(MockOrderUseCase)
	r := setupTestRouter(useCase)

	w := doRequest(r, "POST", "/orders", `{"customer_id":7,"items":[]}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	useCase.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderHandler_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient stock", NewDomainError(KindValidation, "Insufficient stock for product 3"), http.StatusBadRequest},
		{"upstream failure", NewDomainError(KindUpstream, "Customers API error: 500"), http.StatusBadGateway},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			useCase := new(MockOrderUseCase)
			useCase.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, c.err)
			r := setupTestRouter(useCase)

			w := doRequest(r, "POST", "/orders", `{"customer_id":7,"items":[{"product_id":3,"qty":2}]}`, nil)

			assert.Equal(t, c.want, w.Code)
			assert.Contains(t, w.Body.String(), c.err.Error())
		})
	}
}

func TestCreateOrderHandler_InternalErrorIsMasked(t *testing.T) {
	useCase := new(MockOrderUseCase)
	useCase.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, NewDomainError(KindInternal, "pq: connection reset by peer"))
	r := setupTestRouter(useCase)

	w := doRequest(r, "POST", "/orders", `{"customer_id":7,"items":[{"product_id":3,"qty":2}]}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal Server Error")
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestGetOrderHandler_InvalidID(t *testing.T) {
	useCase := new(MockOrderUseCase)
	r := setupTestRouter(useCase)

	w := doRequest(r, "GET", "/orders/abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid order id")
	useCase.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	useCase := new(MockOrderUseCase)
	useCase.On("GetOrder", mock.Anything, int64(99)).Return(nil, nil, NewDomainError(KindNotFound, "Order not found"))
	r := setupTestRouter(useCase)

	w := doRequest(r, "GET", "/orders/99", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Order not found")
}

func TestListOrdersHandler_Defaults(t *testing.T) {
	useCase := new(MockOrderUseCase)
	useCase.On("ListOrders", mock.Anything, ListOrdersFilter{Limit: 20, Offset: 0}).Return([]Order{}, nil)
	r := setupTestRouter(useCase)

	w := doRequest(r, "GET", "/orders", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"hasMore":false`)
	useCase.AssertExpectations(t)
}

func TestListOrdersHandler_InvalidQuery(t *testing.T) {
	cases := []struct {
		name  string
		query string
	}{
		{"unknown status", "/orders?status=SHIPPED"},
		{"bad from date", "/orders?from=yesterday"},
		{"limit too large", "/orders?limit=500"},
		{"negative offset", "/orders?offset=-1"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			useCase := new(MockOrderUseCase)
			r := setupTestRouter(useCase)

			w := doRequest(r, "GET", c.query, "", nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			useCase.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
		})
	}
}

func TestConfirmOrderHandler_ReturnsRawBody(t *testing.T) {
	body := []byte(`{"data":{"order":{"id":42},"items":[],"message":"Order confirmed successfully"}}`)
	useCase := new(MockOrderUseCase)
	useCase.On("ConfirmOrder", mock.Anything, int64(42), "abc").Return(&ConfirmOrderResult{Body: body}, nil)
	r := setupTestRouter(useCase)

	w := doRequest(r, "POST", "/orders/42/confirm", "", map[string]string{"Idempotency-Key": "abc"})

	assert.Equal(t, http.StatusOK, w.Code)
	// o corpo atravessa o handler sem re-serialização
	assert.Equal(t, string(body), w.Body.String())
}

func TestConfirmOrderHandler_Conflict(t *testing.T) {
	useCase := new(MockOrderUseCase)
	useCase.On("ConfirmOrder", mock.Anything, int64(42), "abc").
		Return(nil, NewDomainError(KindConflict, "Idempotent request already in progress"))
	r := setupTestRouter(useCase)

	w := doRequest(r, "POST", "/orders/42/confirm", "", map[string]string{"Idempotency-Key": "abc"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Idempotent request already in progress")
}

func TestCancelOrderHandler_NotImplemented(t *testing.T) {
	r := setupTestRouter(new(MockOrderUseCase))

	w := doRequest(r, "POST", "/orders/42/cancel", "", nil)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Contains(t, w.Body.String(), "Service not available")
}

func TestAuthRequired_MissingToken(t *testing.T) {
	useCase := new(MockOrderUseCase)
	r := setupTestRouter(useCase)

	req := httptest.NewRequest("GET", "/orders/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing Authorization Bearer token")
	useCase.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

func TestHealthCheckHandler(t *testing.T) {
	r := setupTestRouter(new(MockOrderUseCase))

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
