package main

import (
	"encoding/json"
	"time"
)

// OrderStatus representa os possíveis status de um pedido
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// validNext define as transições de status permitidas
var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusCreated:   {OrderStatusConfirmed: true, OrderStatusCanceled: true},
	OrderStatusConfirmed: {},
	OrderStatusCanceled:  {},
}

// CanTransition verifica se a transição de status é permitida
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Order representa um pedido no sistema
type Order struct {
	ID         int64       `json:"id" db:"id"`
	CustomerID int64       `json:"customer_id" db:"customer_id"`
	Status     OrderStatus `json:"status" db:"status"`
	TotalCents int64       `json:"total_cents" db:"total_cents"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem representa um item de pedido com o preço congelado no momento da venda.
// SKU e Name vêm do JOIN com products e existem apenas para exibição.
type OrderItem struct {
	ID             int64  `json:"id" db:"id"`
	OrderID        int64  `json:"-" db:"order_id"`
	ProductID      int64  `json:"product_id" db:"product_id"`
	SKU            string `json:"sku" db:"sku"`
	Name           string `json:"name" db:"name"`
	Qty            int    `json:"qty" db:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents" db:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents" db:"subtotal_cents"`
}

// Product representa um produto com estoque disponível
type Product struct {
	ID         int64     `json:"id" db:"id"`
	SKU        string    `json:"sku" db:"sku"`
	Name       string    `json:"name" db:"name"`
	PriceCents int64     `json:"price_cents" db:"price_cents"`
	Stock      int       `json:"stock" db:"stock"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IdempotencyStatus representa os possíveis status de um registro de idempotência
const (
	IdempotencyStatusPending = "PENDING"
	IdempotencyStatusSuccess = "SUCCESS"
)

// TargetTypeOrderConfirmation identifica registros de idempotência da confirmação de pedidos
const TargetTypeOrderConfirmation = "ORDER_CONFIRMATION"

// IdempotencyRecord representa um registro de idempotência de confirmação
type IdempotencyRecord struct {
	ID           int64     `json:"id" db:"id"`
	Key          string    `json:"idempotency_key" db:"idempotency_key"`
	TargetType   string    `json:"target_type" db:"target_type"`
	TargetID     int64     `json:"target_id" db:"target_id"`
	Status       string    `json:"status" db:"status"`
	ResponseBody []byte    `json:"-" db:"response_body"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// snapshotVersion é a versão atual do envelope persistido em response_body
const snapshotVersion = 1

// ConfirmationSnapshot é o envelope versionado gravado no registro de idempotência.
// Body guarda os bytes exatos da resposta devolvida ao cliente, para que o
// replay seja idêntico byte a byte.
type ConfirmationSnapshot struct {
	Version int             `json:"version"`
	Body    json.RawMessage `json:"body"`
}

// ConfirmationBody é o corpo de resposta da confirmação de um pedido
type ConfirmationBody struct {
	Data ConfirmationData `json:"data"`
}

// ConfirmationData agrupa pedido, itens e mensagem da confirmação
type ConfirmationData struct {
	Order   *Order      `json:"order"`
	Items   []OrderItem `json:"items"`
	Message string      `json:"message"`
}

// Customer é a projeção mínima de cliente devolvida pela Customers API
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
