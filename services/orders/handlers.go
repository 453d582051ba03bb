package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateOrderRequest representa a requisição para criar um pedido
type CreateOrderRequest struct {
	CustomerID int64            `json:"customer_id" binding:"required,gt=0"`
	Items      []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// OrderItemInput representa um item da requisição de criação
type OrderItemInput struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Qty       int   `json:"qty" binding:"required,gte=1"`
}

// OrderUseCaseInterface define a interface para o use case
type OrderUseCaseInterface interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
	ConfirmOrder(ctx context.Context, orderID int64, idempotencyKey string) (*ConfirmOrderResult, error)
	GetOrder(ctx context.Context, orderID int64) (*Order, []OrderItem, error)
	ListOrders(ctx context.Context, filter ListOrdersFilter) ([]Order, error)
}

// OrderHandler contém os handlers HTTP
type OrderHandler struct {
	useCase OrderUseCaseInterface
	cache   Cache // pode ser nil: o serviço funciona sem Redis
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderUseCaseInterface, cache Cache, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		cache:   cache,
		tracer:  tracer,
	}
}

const orderCacheTTL = 30 * time.Second

func writeError(c *gin.Context, err error) {
	kind := KindOf(err)
	message := err.Error()
	if kind == KindInternal {
		log.Printf("❌ [orders-api] unexpected error: %v", err)
		message = "Internal Server Error"
	}
	c.JSON(HTTPStatus(kind), gin.H{"error": gin.H{"message": message}})
}

// CreateOrder cria um pedido com decremento de estoque atômico
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.create_order")
	defer span.End()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}

	span.SetAttributes(
		attribute.Int64("customer_id", req.CustomerID),
		attribute.Int("item_count", len(req.Items)),
	)

	result, err := h.useCase.CreateOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("order_id", result.Order.ID))

	c.JSON(http.StatusCreated, gin.H{
		"data": gin.H{
			"order":    result.Order,
			"items":    result.Items,
			"customer": result.Customer,
		},
	})
}

// GetOrder busca um pedido pelo ID, com fast-path de cache (DB é a verdade)
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.get_order")
	defer span.End()

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid order id"}})
		return
	}
	span.SetAttributes(attribute.Int64("order_id", orderID))

	cacheKey := ""
	if h.cache != nil {
		cacheKey = h.cache.GenerateKey("order", strconv.FormatInt(orderID, 10))
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
	}

	order, items, err := h.useCase.GetOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	body := gin.H{"data": gin.H{"order": order, "items": items}}
	if h.cache != nil {
		if raw, err := json.Marshal(body); err == nil {
			_ = h.cache.Set(ctx, cacheKey, string(raw), orderCacheTTL)
		}
	}
	c.JSON(http.StatusOK, body)
}

// ListOrders lista pedidos com filtros de status/período e paginação
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.list_orders")
	defer span.End()

	filter, err := parseListOrdersQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}

	orders, err := h.useCase.ListOrders(ctx, filter)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": orders,
		"pagination": gin.H{
			"limit":   filter.Limit,
			"offset":  filter.Offset,
			"hasMore": len(orders) == filter.Limit,
		},
	})
}

func parseListOrdersQuery(c *gin.Context) (ListOrdersFilter, error) {
	filter := ListOrdersFilter{Limit: 20, Offset: 0}

	if status := c.Query("status"); status != "" {
		s := OrderStatus(status)
		if s != OrderStatusCreated && s != OrderStatusConfirmed && s != OrderStatusCanceled {
			return filter, NewDomainError(KindValidation, "status must be one of CREATED, CONFIRMED, CANCELED")
		}
		filter.Status = s
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filter, NewDomainError(KindValidation, "from must be an ISO date")
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filter, NewDomainError(KindValidation, "to must be an ISO date")
		}
		filter.To = &t
	}

	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 100 {
			return filter, NewDomainError(KindValidation, "limit must be between 1 and 100")
		}
		filter.Limit = n
	}
	if offset := c.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return filter, NewDomainError(KindValidation, "offset must be a non-negative integer")
		}
		filter.Offset = n
	}

	return filter, nil
}

// ConfirmOrder confirma um pedido de forma idempotente via Idempotency-Key
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.confirm_order")
	defer span.End()

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid order id"}})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")
	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("idempotency_key", idempotencyKey),
	)

	result, err := h.useCase.ConfirmOrder(ctx, orderID, idempotencyKey)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	// a visão em cache do pedido ficou obsoleta após a transição
	if h.cache != nil && !result.Replayed {
		_ = h.cache.Delete(ctx, h.cache.GenerateKey("order", strconv.FormatInt(orderID, 10)))
	}

	c.Data(http.StatusOK, "application/json", result.Body)
}

// CancelOrder é uma rota declarada porém não implementada nesta versão
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": gin.H{"message": "Service not available"}})
}

// HealthCheck verifica a saúde do serviço
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "orders-service",
	})
}
