package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados de pedidos
type Repository interface {
	BeginTx(ctx context.Context) (Tx, error)

	// GetProductsForUpdate trava os produtos referenciados (SELECT FOR UPDATE)
	// em uma única consulta sobre o conjunto deduplicado de ids
	GetProductsForUpdate(ctx context.Context, tx Tx, productIDs []int64) ([]Product, error)

	InsertOrder(ctx context.Context, tx Tx, customerID, totalCents int64) (*Order, error)
	InsertOrderItem(ctx context.Context, tx Tx, item *OrderItem) error
	DecreaseStock(ctx context.Context, tx Tx, productID int64, qty int) error

	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	GetOrderForUpdate(ctx context.Context, tx Tx, orderID int64) (*Order, error)
	UpdateOrderStatus(ctx context.Context, tx Tx, orderID int64, status OrderStatus) (time.Time, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	GetOrderItemsTx(ctx context.Context, tx Tx, orderID int64) ([]OrderItem, error)
	ListOrders(ctx context.Context, filter ListOrdersFilter) ([]Order, error)

	GetIdempotencyKeyForUpdate(ctx context.Context, tx Tx, key string) (*IdempotencyRecord, error)
	InsertPendingIdempotencyKey(ctx context.Context, tx Tx, key string, targetID int64) error
	MarkIdempotencyKeySuccess(ctx context.Context, tx Tx, key string, responseBody []byte) error
}

// isNoRows indica que a consulta não retornou linhas
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isUniqueViolation indica violação de índice único (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ListOrdersFilter define os filtros da listagem de pedidos
type ListOrdersFilter struct {
	Status OrderStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}

// PostgresTx implementa Tx usando pgx
type PostgresTx struct {
	tx  pgx.Tx
	ctx context.Context
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(t.ctx)
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(t.ctx)
}

// querier é o subconjunto comum entre pgxpool.Pool e pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresOrderRepository implementa Repository usando PostgreSQL
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

// NewOrderRepository cria uma nova instância de PostgresOrderRepository
func NewOrderRepository(db *pgxpool.Pool) Repository {
	return &PostgresOrderRepository{
		db: db,
	}
}

// BeginTx abre uma nova transação
func (r *PostgresOrderRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &PostgresTx{tx: tx, ctx: ctx}, nil
}

// GetProductsForUpdate trava e lê preço/estoque dos produtos em uma passada
func (r *PostgresOrderRepository) GetProductsForUpdate(ctx context.Context, tx Tx, productIDs []int64) ([]Product, error) {
	pgTx := tx.(*PostgresTx).tx

	rows, err := pgTx.Query(ctx, `
		SELECT id, sku, name, price_cents, stock, created_at, updated_at
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE
	`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// InsertOrder cria um novo pedido em status CREATED
func (r *PostgresOrderRepository) InsertOrder(ctx context.Context, tx Tx, customerID, totalCents int64) (*Order, error) {
	pgTx := tx.(*PostgresTx).tx

	var order Order
	err := pgTx.QueryRow(ctx, `
		INSERT INTO orders (customer_id, status, total_cents, created_at, updated_at)
		VALUES ($1, 'CREATED', $2, NOW(), NOW())
		RETURNING id, customer_id, status, total_cents, created_at, updated_at
	`, customerID, totalCents).Scan(
		&order.ID, &order.CustomerID, &order.Status, &order.TotalCents, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// InsertOrderItem grava um item com o preço congelado na criação
func (r *PostgresOrderRepository) InsertOrderItem(ctx context.Context, tx Tx, item *OrderItem) error {
	pgTx := tx.(*PostgresTx).tx

	return pgTx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, qty, unit_price_cents, subtotal_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, item.OrderID, item.ProductID, item.Qty, item.UnitPriceCents, item.SubtotalCents).Scan(&item.ID)
}

// DecreaseStock decrementa o estoque de um produto já travado pela transação
func (r *PostgresOrderRepository) DecreaseStock(ctx context.Context, tx Tx, productID int64, qty int) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1
	`, productID, qty)
	return err
}

const orderColumns = `id, customer_id, status, total_cents, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var order Order
	err := row.Scan(&order.ID, &order.CustomerID, &order.Status, &order.TotalCents, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder busca um pedido pelo ID
func (r *PostgresOrderRepository) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE id = $1
	`, orderID))
}

// GetOrderForUpdate busca um pedido com lock de linha (SELECT FOR UPDATE)
func (r *PostgresOrderRepository) GetOrderForUpdate(ctx context.Context, tx Tx, orderID int64) (*Order, error) {
	pgTx := tx.(*PostgresTx).tx

	return scanOrder(pgTx.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE id = $1
		FOR UPDATE
	`, orderID))
}

// UpdateOrderStatus atualiza o status de um pedido e retorna o novo updated_at
func (r *PostgresOrderRepository) UpdateOrderStatus(ctx context.Context, tx Tx, orderID int64, status OrderStatus) (time.Time, error) {
	pgTx := tx.(*PostgresTx).tx

	var updatedAt time.Time
	err := pgTx.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, orderID, string(status)).Scan(&updatedAt)
	return updatedAt, err
}

func fetchOrderItems(ctx context.Context, q querier, orderID int64) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.sku, p.name, oi.qty,
		       oi.unit_price_cents, oi.subtotal_cents
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.SKU, &it.Name, &it.Qty,
			&it.UnitPriceCents, &it.SubtotalCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetOrderItems busca os itens de um pedido com SKU e nome do produto
func (r *PostgresOrderRepository) GetOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	return fetchOrderItems(ctx, r.db, orderID)
}

// GetOrderItemsTx busca os itens de um pedido dentro de uma transação aberta
func (r *PostgresOrderRepository) GetOrderItemsTx(ctx context.Context, tx Tx, orderID int64) ([]OrderItem, error) {
	return fetchOrderItems(ctx, tx.(*PostgresTx).tx, orderID)
}

// ListOrders lista pedidos com filtros opcionais de status e período
func (r *PostgresOrderRepository) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`
	args := make([]any, 0, 4)

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		sql += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		sql += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	args = append(args, filter.Limit)
	sql += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	sql += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetIdempotencyKeyForUpdate busca um registro de idempotência com lock de linha.
// Retorna (nil, nil) quando a chave ainda não existe.
func (r *PostgresOrderRepository) GetIdempotencyKeyForUpdate(ctx context.Context, tx Tx, key string) (*IdempotencyRecord, error) {
	pgTx := tx.(*PostgresTx).tx

	var rec IdempotencyRecord
	err := pgTx.QueryRow(ctx, `
		SELECT id, idempotency_key, target_type, target_id, status, response_body, created_at
		FROM idempotency_keys
		WHERE idempotency_key = $1
		FOR UPDATE
	`, key).Scan(&rec.ID, &rec.Key, &rec.TargetType, &rec.TargetID, &rec.Status, &rec.ResponseBody, &rec.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertPendingIdempotencyKey registra uma nova chave em status PENDING.
// O insert participa da transação: se a confirmação falhar, o rollback o desfaz
// e a chave volta a ficar disponível para novas tentativas.
func (r *PostgresOrderRepository) InsertPendingIdempotencyKey(ctx context.Context, tx Tx, key string, targetID int64) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, target_type, target_id, status, created_at)
		VALUES ($1, $2, $3, 'PENDING', NOW())
	`, key, TargetTypeOrderConfirmation, targetID)
	return err
}

// MarkIdempotencyKeySuccess grava o snapshot da resposta e promove a chave a SUCCESS
func (r *PostgresOrderRepository) MarkIdempotencyKeySuccess(ctx context.Context, tx Tx, key string, responseBody []byte) error {
	pgTx := tx.(*PostgresTx).tx

	_, err := pgTx.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = 'SUCCESS', response_body = $2
		WHERE idempotency_key = $1
	`, key, responseBody)
	return err
}
