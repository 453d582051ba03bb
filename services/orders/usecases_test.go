package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockRepository simula o Repository para testes sem banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) BeginTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

func (m *MockRepository) GetProductsForUpdate(ctx context.Context, tx Tx, productIDs []int64) ([]Product, error) {
	args := m.Called(ctx, tx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Product), args.Error(1)
}

func (m *MockRepository) InsertOrder(ctx context.Context, tx Tx, customerID, totalCents int64) (*Order, error) {
	args := m.Called(ctx, tx, customerID, totalCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) InsertOrderItem(ctx context.Context, tx Tx, item *OrderItem) error {
	args := m.Called(ctx, tx, item)
	return args.Error(0)
}

func (m *MockRepository) DecreaseStock(ctx context.Context, tx Tx, productID int64, qty int) error {
	args := m.Called(ctx, tx, productID, qty)
	return args.Error(0)
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) GetOrderForUpdate(ctx context.Context, tx Tx, orderID int64) (*Order, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) UpdateOrderStatus(ctx context.Context, tx Tx, orderID int64, status OrderStatus) (time.Time, error) {
	args := m.Called(ctx, tx, orderID, status)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockRepository) GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderItem), args.Error(1)
}

func (m *MockRepository) GetOrderItemsTx(ctx context.Context, tx Tx, orderID int64) ([]OrderItem, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]OrderItem), args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) GetIdempotencyKeyForUpdate(ctx context.Context, tx Tx, key string) (*IdempotencyRecord, error) {
	args := m.Called(ctx, tx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IdempotencyRecord), args.Error(1)
}

func (m *MockRepository) InsertPendingIdempotencyKey(ctx context.Context, tx Tx, key string, targetID int64) error {
	args := m.Called(ctx, tx, key, targetID)
	return args.Error(0)
}

func (m *MockRepository) MarkIdempotencyKeySuccess(ctx context.Context, tx Tx, key string, responseBody []byte) error {
	args := m.Called(ctx, tx, key, responseBody)
	return args.Error(0)
}

// MockTx simula uma transação
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

// MockCustomerVerifier simula a consulta de clientes na Customers API
type MockCustomerVerifier struct {
	mock.Mock
}

func (m *MockCustomerVerifier) FetchCustomerByID(ctx context.Context, customerID int64) (*Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Customer), args.Error(1)
}

func newTestUseCase(repo Repository, customers CustomerVerifier) *OrderUseCase {
	return NewOrderUseCase(repo, customers, noop.NewTracerProvider().Tracer("test"))
}

func TestCreateOrder_Success(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	verifier := new(MockCustomerVerifier)
	tx := new(MockTx)

	customer := &Customer{ID: 7, Name: "Acme Corp", Email: "buyer@acme.test"}
	verifier.On("FetchCustomerByID", mock.Anything, int64(7)).Return(customer, nil)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetProductsForUpdate", mock.Anything, tx, []int64{3}).Return([]Product{
		{ID: 3, SKU: "SKU-3", Name: "Widget", PriceCents: 500, Stock: 10},
	}, nil)

	order := &Order{ID: 42, CustomerID: 7, Status: OrderStatusCreated, TotalCents: 1000}
	repo.On("InsertOrder", mock.Anything, tx, int64(7), int64(1000)).Return(order, nil)

	var insertedItem *OrderItem
	repo.On("InsertOrderItem", mock.Anything, tx, mock.Anything).Run(func(args mock.Arguments) {
		insertedItem = args.Get(2).(*OrderItem)
		insertedItem.ID = 1
	}).Return(nil)
	repo.On("DecreaseStock", mock.Anything, tx, int64(3), 2).Return(nil)

	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)

	items := []OrderItem{{ID: 1, OrderID: 42, ProductID: 3, SKU: "SKU-3", Name: "Widget", Qty: 2, UnitPriceCents: 500, SubtotalCents: 1000}}
	repo.On("GetOrderItems", mock.Anything, int64(42)).Return(items, nil)

	uc := newTestUseCase(repo, verifier)

	// Act
	result, err := uc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: 7,
		Items:      []OrderItemInput{{ProductID: 3, Qty: 2}},
	})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), result.Order.TotalCents)
	assert.Equal(t, customer, result.Customer)
	assert.Equal(t, items, result.Items)

	assert.NotNil(t, insertedItem)
	assert.Equal(t, int64(42), insertedItem.OrderID)
	assert.Equal(t, int64(500), insertedItem.UnitPriceCents)
	assert.Equal(t, int64(1000), insertedItem.SubtotalCents)

	repo.AssertExpectations(t)
	verifier.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestCreateOrder_ValidationFailsFast(t *testing.T) {
	cases := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"missing customer id", CreateOrderRequest{Items: []OrderItemInput{{ProductID: 3, Qty: 1}}}},
		{"empty items", CreateOrderRequest{CustomerID: 7}},
		{"invalid product id", CreateOrderRequest{CustomerID: 7, Items: []OrderItemInput{{ProductID: 0, Qty: 1}}}},
		{"zero qty", CreateOrderRequest{CustomerID: 7, Items: []OrderItemInput{{ProductID: 3, Qty: 0}}}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			repo := new(MockRepository)
			verifier := new(MockCustomerVerifier)
			uc := newTestUseCase(repo, verifier)

			_, err := uc.CreateOrder(context.Background(), c.req)

			assert.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
			// malformed input never touches any resource
			verifier.AssertNotCalled(t, "FetchCustomerByID", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestCreateOrder_CustomerDoesNotExist(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockCustomerVerifier)
	verifier.On("FetchCustomerByID", mock.Anything, int64(7)).Return(nil, nil)

	uc := newTestUseCase(repo, verifier)

	_, err := uc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: 7,
		Items:      []OrderItemInput{{ProductID: 3, Qty: 1}},
	})

	assert.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Customer does not exist", err.Error())
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestCreateOrder_CustomerLookupUpstreamFailure(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockCustomerVerifier)
	verifier.On("FetchCustomerByID", mock.Anything, int64(7)).
		Return(nil, NewDomainError(KindUpstream, "Customers API error: 500"))

	uc := newTestUseCase(repo, verifier)

	_, err := uc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: 7,
		Items:      []OrderItemInput{{ProductID: 3, Qty: 1}},
	})

	assert.Error(t, err)
	assert.Equal(t, KindUpstream, KindOf(err))
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestCreateOrder_ProductMissing(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockCustomerVerifier)
	tx := new(MockTx)

	verifier.On("FetchCustomerByID", mock.Anything, int64(7)).Return(&Customer{ID: 7}, nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetProductsForUpdate", mock.Anything, tx, []int64{3, 9}).Return([]Product{
		{ID: 3, PriceCents: 500, Stock: 10},
	}, nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, verifier)

	_, err := uc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: 7,
		Items:      []OrderItemInput{{ProductID: 3, Qty: 1}, {ProductID: 9, Qty: 1}},
	})

	assert.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "One or more products do not exist", err.Error())
	tx.AssertNotCalled(t, "Commit")
	repo.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockCustomerVerifier)
	tx := new(MockTx)

	verifier.On("FetchCustomerByID", mock.Anything, int64(7)).Return(&Customer{ID: 7}, nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetProductsForUpdate", mock.Anything, tx, []int64{3}).Return([]Product{
		{ID: 3, PriceCents: 500, Stock: 1},
	}, nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, verifier)

	_, err := uc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: 7,
		Items:      []OrderItemInput{{ProductID: 3, Qty: 2}},
	})

	assert.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Insufficient stock for product 3", err.Error())
	// no order, no item, no stock mutation is persisted
	tx.AssertNotCalled(t, "Commit")
	repo.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_RepeatedLinesShareStock(t *testing.T) {
	// two lines for the same product must be checked against the same stock
	repo := new(MockRepository)
	verifier := new(MockCustomerVerifier)
	tx := new(MockTx)

	verifier.On("FetchCustomerByID", mock.Anything, int64(7)).Return(&Customer{ID: 7}, nil)
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetProductsForUpdate", mock.Anything, tx, []int64{3}).Return([]Product{
		{ID: 3, PriceCents: 500, Stock: 10},
	}, nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, verifier)

	_, err := uc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: 7,
		Items:      []OrderItemInput{{ProductID: 3, Qty: 6}, {ProductID: 3, Qty: 6}},
	})

	assert.Error(t, err)
	assert.Equal(t, "Insufficient stock for product 3", err.Error())
	tx.AssertNotCalled(t, "Commit")
}

func TestConfirmOrder_MissingKey(t *testing.T) {
	repo := new(MockRepository)
	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	_, err := uc.ConfirmOrder(context.Background(), 42, "")

	assert.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestConfirmOrder_FirstConfirmation(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	tx := new(MockTx)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "abc").Return(nil, nil)
	repo.On("InsertPendingIdempotencyKey", mock.Anything, tx, "abc", int64(42)).Return(nil)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	confirmed := created.Add(time.Minute)
	repo.On("GetOrderForUpdate", mock.Anything, tx, int64(42)).Return(&Order{
		ID: 42, CustomerID: 7, Status: OrderStatusCreated, TotalCents: 1000, CreatedAt: created, UpdatedAt: created,
	}, nil)
	repo.On("UpdateOrderStatus", mock.Anything, tx, int64(42), OrderStatusConfirmed).Return(confirmed, nil)
	repo.On("GetOrderItemsTx", mock.Anything, tx, int64(42)).Return([]OrderItem{
		{ID: 1, OrderID: 42, ProductID: 3, SKU: "SKU-3", Name: "Widget", Qty: 2, UnitPriceCents: 500, SubtotalCents: 1000},
	}, nil)

	var storedSnapshot []byte
	repo.On("MarkIdempotencyKeySuccess", mock.Anything, tx, "abc", mock.Anything).Run(func(args mock.Arguments) {
		storedSnapshot = args.Get(3).([]byte)
	}).Return(nil)

	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	// Act
	result, err := uc.ConfirmOrder(context.Background(), 42, "abc")

	// Assert
	assert.NoError(t, err)
	assert.False(t, result.Replayed)

	var body ConfirmationBody
	assert.NoError(t, json.Unmarshal(result.Body, &body))
	assert.Equal(t, "Order confirmed successfully", body.Data.Message)
	assert.Equal(t, OrderStatusConfirmed, body.Data.Order.Status)
	assert.Equal(t, confirmed, body.Data.Order.UpdatedAt)

	// the stored snapshot wraps the exact response bytes
	var snapshot ConfirmationSnapshot
	assert.NoError(t, json.Unmarshal(storedSnapshot, &snapshot))
	assert.Equal(t, snapshotVersion, snapshot.Version)
	assert.Equal(t, string(result.Body), string(snapshot.Body))

	repo.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestConfirmOrder_PendingConflict(t *testing.T) {
	repo := new(MockRepository)
	tx := new(MockTx)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "abc").Return(&IdempotencyRecord{
		Key: "abc", Status: IdempotencyStatusPending, TargetID: 42,
	}, nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	_, err := uc.ConfirmOrder(context.Background(), 42, "abc")

	assert.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Idempotent request already in progress", err.Error())
	tx.AssertNotCalled(t, "Commit")
	repo.AssertNotCalled(t, "GetOrderForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmOrder_ConcurrentSameKeyConflict(t *testing.T) {
	// Duas confirmações simultâneas com a mesma chave: o perdedor não enxerga a
	// linha PENDING não comitada do vencedor, segue para o insert e leva 23505
	// no índice único. Isso tem que virar 409, nunca 500.
	repo := new(MockRepository)
	tx := new(MockTx)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "abc").Return(nil, nil)
	repo.On("InsertPendingIdempotencyKey", mock.Anything, tx, "abc", int64(42)).
		Return(&pgconn.PgError{Code: "23505", ConstraintName: "idempotency_keys_idempotency_key_key"})
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	_, err := uc.ConfirmOrder(context.Background(), 42, "abc")

	assert.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "Idempotent request already in progress", err.Error())
	tx.AssertNotCalled(t, "Commit")
	repo.AssertNotCalled(t, "GetOrderForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmOrder_ReplayStoredSnapshot(t *testing.T) {
	repo := new(MockRepository)
	tx := new(MockTx)

	original := []byte(`{"data":{"order":{"id":42,"status":"CONFIRMED"},"items":[],"message":"Order confirmed successfully"}}`)
	stored, _ := json.Marshal(ConfirmationSnapshot{Version: snapshotVersion, Body: original})

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "abc").Return(&IdempotencyRecord{
		Key: "abc", Status: IdempotencyStatusSuccess, TargetID: 42, ResponseBody: stored,
	}, nil)
	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	result, err := uc.ConfirmOrder(context.Background(), 42, "abc")

	assert.NoError(t, err)
	assert.True(t, result.Replayed)
	// byte-for-byte identical to the original success response
	assert.Equal(t, string(original), string(result.Body))
	repo.AssertNotCalled(t, "GetOrderForUpdate", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmOrder_CorruptSnapshotDegrades(t *testing.T) {
	repo := new(MockRepository)
	tx := new(MockTx)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "abc").Return(&IdempotencyRecord{
		Key: "abc", Status: IdempotencyStatusSuccess, TargetID: 42, ResponseBody: []byte("{not json"),
	}, nil)
	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	result, err := uc.ConfirmOrder(context.Background(), 42, "abc")

	assert.NoError(t, err)
	assert.True(t, result.Replayed)
	assert.Contains(t, string(result.Body), "Order already confirmed (idempotent)")
	assert.Contains(t, string(result.Body), "42")
}

func TestConfirmOrder_OrderNotFound(t *testing.T) {
	repo := new(MockRepository)
	tx := new(MockTx)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "abc").Return(nil, nil)
	repo.On("InsertPendingIdempotencyKey", mock.Anything, tx, "abc", int64(99)).Return(nil)
	repo.On("GetOrderForUpdate", mock.Anything, tx, int64(99)).Return(nil, pgx.ErrNoRows)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	_, err := uc.ConfirmOrder(context.Background(), 99, "abc")

	assert.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	// the PENDING insert rolls back with the transaction
	tx.AssertNotCalled(t, "Commit")
}

func TestConfirmOrder_CanceledOrder(t *testing.T) {
	repo := new(MockRepository)
	tx := new(MockTx)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "abc").Return(nil, nil)
	repo.On("InsertPendingIdempotencyKey", mock.Anything, tx, "abc", int64(42)).Return(nil)
	repo.On("GetOrderForUpdate", mock.Anything, tx, int64(42)).Return(&Order{
		ID: 42, Status: OrderStatusCanceled,
	}, nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	_, err := uc.ConfirmOrder(context.Background(), 42, "abc")

	assert.Error(t, err)
	assert.Equal(t, KindStateConflict, KindOf(err))
	assert.Equal(t, "Cannot confirm a canceled order", err.Error())
	tx.AssertNotCalled(t, "Commit")
}

func TestConfirmOrder_AlreadyConfirmedWithDifferentKey(t *testing.T) {
	repo := new(MockRepository)
	tx := new(MockTx)

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("GetIdempotencyKeyForUpdate", mock.Anything, tx, "other-key").Return(nil, nil)
	repo.On("InsertPendingIdempotencyKey", mock.Anything, tx, "other-key", int64(42)).Return(nil)
	repo.On("GetOrderForUpdate", mock.Anything, tx, int64(42)).Return(&Order{
		ID: 42, Status: OrderStatusConfirmed, TotalCents: 1000,
	}, nil)
	repo.On("GetOrderItemsTx", mock.Anything, tx, int64(42)).Return([]OrderItem{}, nil)
	repo.On("MarkIdempotencyKeySuccess", mock.Anything, tx, "other-key", mock.Anything).Return(nil)
	tx.On("Commit").Return(nil)
	tx.On("Rollback").Return(nil)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	result, err := uc.ConfirmOrder(context.Background(), 42, "other-key")

	assert.NoError(t, err)

	var body ConfirmationBody
	assert.NoError(t, json.Unmarshal(result.Body, &body))
	assert.Equal(t, "Order already confirmed", body.Data.Message)

	// no second transition, but the new key still becomes idempotent
	repo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertCalled(t, "MarkIdempotencyKeySuccess", mock.Anything, tx, "other-key", mock.Anything)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetOrder", mock.Anything, int64(99)).Return(nil, pgx.ErrNoRows)

	uc := newTestUseCase(repo, new(MockCustomerVerifier))

	_, _, err := uc.GetOrder(context.Background(), 99)

	assert.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}
