package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/trace"
)

// CustomerVerifier abstrai a consulta de clientes na Customers API
type CustomerVerifier interface {
	// FetchCustomerByID retorna (nil, nil) quando o cliente não existe
	FetchCustomerByID(ctx context.Context, customerID int64) (*Customer, error)
}

// OrderUseCase contém a lógica de negócio dos pedidos
type OrderUseCase struct {
	repository Repository
	customers  CustomerVerifier
	tracer     trace.Tracer
}

// NewOrderUseCase cria uma nova instância de OrderUseCase
func NewOrderUseCase(
	repository Repository,
	customers CustomerVerifier,
	tracer trace.Tracer,
) *OrderUseCase {
	return &OrderUseCase{
		repository: repository,
		customers:  customers,
		tracer:     tracer,
	}
}

// CreateOrderResult agrupa o pedido criado, seus itens e a projeção do cliente
type CreateOrderResult struct {
	Order    *Order
	Items    []OrderItem
	Customer *Customer
}

func validateCreateOrder(req CreateOrderRequest) error {
	if req.CustomerID <= 0 {
		return NewDomainError(KindValidation, "customer_id must be a positive integer")
	}
	if len(req.Items) == 0 {
		return NewDomainError(KindValidation, "items must contain at least one entry")
	}
	for _, it := range req.Items {
		if it.ProductID <= 0 {
			return NewDomainError(KindValidation, "product_id must be a positive integer")
		}
		if it.Qty < 1 {
			return NewDomainError(KindValidation, "qty must be at least 1")
		}
	}
	return nil
}

// CreateOrder cria um pedido com decremento de estoque seguro: ou o pedido
// inteiro é persistido com itens precificados e estoque debitado, ou nada muda.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	ctx, span := uc.tracer.Start(ctx, "create_order")
	defer span.End()

	// 1. Validação de formato antes de tocar qualquer recurso
	if err := validateCreateOrder(req); err != nil {
		return nil, err
	}

	// 2. Valida o cliente na Customers API (rota interna)
	customer, err := uc.customers.FetchCustomerByID(ctx, req.CustomerID)
	if err != nil {
		log.Printf("❌ [CREATE ORDER] customer lookup failed: %v", err)
		return nil, err
	}
	if customer == nil {
		return nil, NewDomainError(KindValidation, "Customer does not exist")
	}

	// 3. Abre a transação
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 4. Trava os produtos afetados com FOR UPDATE em uma única consulta sobre
	// o conjunto deduplicado de ids (evita deadlock de ordenação de locks)
	productIDs := dedupeProductIDs(req.Items)
	products, err := uc.repository.GetProductsForUpdate(ctx, tx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	if len(products) != len(productIDs) {
		return nil, NewDomainError(KindValidation, "One or more products do not exist")
	}

	productMap := make(map[int64]Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	// 5. Verifica estoque e calcula totais com aritmética inteira
	var totalCents int64
	itemsToInsert := make([]OrderItem, 0, len(req.Items))
	remaining := make(map[int64]int, len(products))
	for _, p := range products {
		remaining[p.ID] = p.Stock
	}

	for _, it := range req.Items {
		prod := productMap[it.ProductID]
		if remaining[it.ProductID] < it.Qty {
			return nil, NewDomainError(KindValidation, "Insufficient stock for product %d", it.ProductID)
		}
		remaining[it.ProductID] -= it.Qty

		subtotal := prod.PriceCents * int64(it.Qty)
		totalCents += subtotal
		itemsToInsert = append(itemsToInsert, OrderItem{
			ProductID:      it.ProductID,
			Qty:            it.Qty,
			UnitPriceCents: prod.PriceCents,
			SubtotalCents:  subtotal,
		})
	}

	// 6. Insere o pedido
	order, err := uc.repository.InsertOrder(ctx, tx, req.CustomerID, totalCents)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// 7. Insere os itens e debita o estoque dentro da mesma transação
	for i := range itemsToInsert {
		itemsToInsert[i].OrderID = order.ID
		if err := uc.repository.InsertOrderItem(ctx, tx, &itemsToInsert[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	for _, it := range itemsToInsert {
		if err := uc.repository.DecreaseStock(ctx, tx, it.ProductID, it.Qty); err != nil {
			return nil, fmt.Errorf("failed to decrease stock: %w", err)
		}
	}

	// 8. Commit
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	log.Printf("✅ [CREATE ORDER] OrderID: %d | CustomerID: %d | Total: %d", order.ID, order.CustomerID, totalCents)

	// 9. Consulta os itens com SKU/nome para a resposta
	items, err := uc.repository.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items, Customer: customer}, nil
}

func dedupeProductIDs(items []OrderItemInput) []int64 {
	seen := make(map[int64]bool, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}

// ConfirmOrderResult carrega os bytes exatos da resposta de confirmação
type ConfirmOrderResult struct {
	Body     []byte
	Replayed bool
}

// ConfirmOrder aplica a transição CREATED -> CONFIRMED com idempotência:
// confirmar duas vezes com a mesma chave tem exatamente o mesmo efeito
// observável que confirmar uma vez.
func (uc *OrderUseCase) ConfirmOrder(ctx context.Context, orderID int64, idempotencyKey string) (*ConfirmOrderResult, error) {
	ctx, span := uc.tracer.Start(ctx, "confirm_order")
	defer span.End()

	if idempotencyKey == "" {
		return nil, NewDomainError(KindValidation, "Idempotency-Key header is required")
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Busca a chave de idempotência com lock de linha
	record, err := uc.repository.GetIdempotencyKeyForUpdate(ctx, tx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load idempotency key: %w", err)
	}

	if record != nil {
		// 2. Outra tentativa com a mesma chave ainda em execução
		if record.Status == IdempotencyStatusPending {
			log.Printf("ℹ️  [CONFIRM ORDER] key %q already in progress", idempotencyKey)
			return nil, NewDomainError(KindConflict, "Idempotent request already in progress")
		}

		// 3. Já processado com sucesso: devolve a mesma resposta (replay)
		if record.Status == IdempotencyStatusSuccess && record.ResponseBody != nil {
			if err := tx.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit idempotent replay: %w", err)
			}
			return uc.replaySnapshot(orderID, idempotencyKey, record.ResponseBody), nil
		}
	} else {
		// 4. Primeira tentativa: registra a chave em PENDING. Numa corrida com a
		// mesma chave, a leitura FOR UPDATE acima não vê a linha PENDING ainda não
		// comitada da outra transação; o perdedor bloqueia aqui no índice único e
		// recebe 23505 quando o vencedor comita. É o mesmo conflito do status
		// PENDING, só que detectado no insert.
		if err := uc.repository.InsertPendingIdempotencyKey(ctx, tx, idempotencyKey, orderID); err != nil {
			if isUniqueViolation(err) {
				log.Printf("ℹ️  [CONFIRM ORDER] key %q raced a concurrent attempt", idempotencyKey)
				return nil, NewDomainError(KindConflict, "Idempotent request already in progress")
			}
			return nil, fmt.Errorf("failed to register idempotency key: %w", err)
		}
	}

	// 5. Carrega o pedido com FOR UPDATE
	order, err := uc.repository.GetOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, NewDomainError(KindNotFound, "Order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	// 6. Pedido já confirmado (por outra chave): comportamento idempotente,
	// sem nova transição, mas a chave atual também vira SUCCESS
	if order.Status == OrderStatusConfirmed {
		return uc.finishConfirmation(ctx, tx, order, idempotencyKey, "Order already confirmed")
	}

	if !CanTransition(order.Status, OrderStatusConfirmed) {
		return nil, NewDomainError(KindStateConflict, "Cannot confirm a canceled order")
	}

	// 7. Transição CREATED -> CONFIRMED
	updatedAt, err := uc.repository.UpdateOrderStatus(ctx, tx, order.ID, OrderStatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}
	order.Status = OrderStatusConfirmed
	order.UpdatedAt = updatedAt

	log.Printf("✅ [CONFIRM ORDER] OrderID: %d | Key: %s", order.ID, idempotencyKey)

	return uc.finishConfirmation(ctx, tx, order, idempotencyKey, "Order confirmed successfully")
}

// finishConfirmation serializa a resposta, grava o snapshot versionado na
// chave de idempotência e comita a transação
func (uc *OrderUseCase) finishConfirmation(ctx context.Context, tx Tx, order *Order, idempotencyKey, message string) (*ConfirmOrderResult, error) {
	items, err := uc.repository.GetOrderItemsTx(ctx, tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	body, err := json.Marshal(ConfirmationBody{
		Data: ConfirmationData{Order: order, Items: items, Message: message},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize confirmation response: %w", err)
	}

	snapshot, err := json.Marshal(ConfirmationSnapshot{Version: snapshotVersion, Body: body})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	if err := uc.repository.MarkIdempotencyKeySuccess(ctx, tx, idempotencyKey, snapshot); err != nil {
		return nil, fmt.Errorf("failed to mark idempotency key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit confirmation: %w", err)
	}

	return &ConfirmOrderResult{Body: body}, nil
}

// replaySnapshot devolve os bytes originais do snapshot. Se o snapshot estiver
// corrompido, degrada para um corpo genérico de sucesso em vez de falhar o replay.
func (uc *OrderUseCase) replaySnapshot(orderID int64, idempotencyKey string, stored []byte) *ConfirmOrderResult {
	var snapshot ConfirmationSnapshot
	if err := json.Unmarshal(stored, &snapshot); err != nil || len(snapshot.Body) == 0 {
		log.Printf("❌ [CONFIRM ORDER] corrupt stored snapshot for key %q: %v", idempotencyKey, err)
		fallback, _ := json.Marshal(map[string]any{
			"data": map[string]any{
				"order_id": orderID,
				"message":  "Order already confirmed (idempotent)",
			},
		})
		return &ConfirmOrderResult{Body: fallback, Replayed: true}
	}

	log.Printf("ℹ️  [CONFIRM ORDER] idempotent replay for key %q", idempotencyKey)
	return &ConfirmOrderResult{Body: snapshot.Body, Replayed: true}
}

// GetOrder busca um pedido e seus itens
func (uc *OrderUseCase) GetOrder(ctx context.Context, orderID int64) (*Order, []OrderItem, error) {
	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil, NewDomainError(KindNotFound, "Order not found")
		}
		return nil, nil, fmt.Errorf("failed to load order: %w", err)
	}

	items, err := uc.repository.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return order, items, nil
}

// ListOrders lista pedidos com filtros de status e período
func (uc *OrderUseCase) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]Order, error) {
	orders, err := uc.repository.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
