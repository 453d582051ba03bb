package main

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CustomerRequest representa a requisição de criação/atualização de cliente
type CustomerRequest struct {
	Name  string  `json:"name" binding:"required,max=120"`
	Email string  `json:"email" binding:"required,email"`
	Phone *string `json:"phone" binding:"omitempty,max=30"`
}

// CustomerUseCaseInterface define a interface para o use case
type CustomerUseCaseInterface interface {
	CreateCustomer(ctx context.Context, name, email string, phone *string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context, filter ListCustomersFilter) ([]Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, name, email string, phone *string) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID int64) error
}

// CustomerHandler contém os handlers HTTP
type CustomerHandler struct {
	useCase CustomerUseCaseInterface
	tracer  trace.Tracer
}

// NewCustomerHandler cria uma nova instância de CustomerHandler
func NewCustomerHandler(useCase CustomerUseCaseInterface, tracer trace.Tracer) *CustomerHandler {
	return &CustomerHandler{useCase: useCase, tracer: tracer}
}

func writeError(c *gin.Context, err error) {
	kind := KindOf(err)
	message := err.Error()
	if kind == KindInternal {
		log.Printf("❌ [customers-api] unexpected error: %v", err)
		message = "Internal Server Error"
	}
	c.JSON(HTTPStatus(kind), gin.H{"error": gin.H{"message": message}})
}

func parseCustomerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid customer id"}})
		return 0, false
	}
	return id, true
}

// CreateCustomer cadastra um novo cliente
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.create_customer")
	defer span.End()

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}

	customer, err := h.useCase.CreateCustomer(ctx, req.Name, req.Email, req.Phone)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("customer_id", customer.ID))
	c.JSON(http.StatusCreated, gin.H{"data": customer})
}

// GetCustomer busca um cliente pelo ID
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.get_customer")
	defer span.End()

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("customer_id", customerID))

	customer, err := h.useCase.GetCustomer(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// GetInternalCustomer é a rota interna confiável usada pelo serviço de pedidos
func (h *CustomerHandler) GetInternalCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.get_internal_customer")
	defer span.End()

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("customer_id", customerID))

	customer, err := h.useCase.GetCustomer(ctx, customerID)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	// projeção mínima: o serviço de pedidos não precisa de updated_at
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"id":         customer.ID,
		"name":       customer.Name,
		"email":      customer.Email,
		"phone":      customer.Phone,
		"created_at": customer.CreatedAt,
	}})
}

// ListCustomers lista clientes com busca e paginação
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.list_customers")
	defer span.End()

	filter := ListCustomersFilter{Search: c.Query("search"), Limit: 20, Offset: 0}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "limit must be between 1 and 100"}})
			return
		}
		filter.Limit = n
	}
	if offset := c.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "offset must be a non-negative integer"}})
			return
		}
		filter.Offset = n
	}

	customers, err := h.useCase.ListCustomers(ctx, filter)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": customers,
		"pagination": gin.H{
			"limit":   filter.Limit,
			"offset":  filter.Offset,
			"hasMore": len(customers) == filter.Limit,
		},
	})
}

// UpdateCustomer atualiza os dados de um cliente
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.update_customer")
	defer span.End()

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": err.Error()}})
		return
	}

	customer, err := h.useCase.UpdateCustomer(ctx, customerID, req.Name, req.Email, req.Phone)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// DeleteCustomer remove um cliente (soft delete)
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.delete_customer")
	defer span.End()

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}

	if err := h.useCase.DeleteCustomer(ctx, customerID); err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HealthCheck verifica a saúde do serviço
func (h *CustomerHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "customers-service",
	})
}
