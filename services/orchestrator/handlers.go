package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CheckoutItem representa um item do checkout
type CheckoutItem struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Qty       int   `json:"qty" binding:"required,gte=1"`
}

// CheckoutRequest representa a requisição de checkout completo
type CheckoutRequest struct {
	CustomerID     int64          `json:"customer_id" binding:"required,gt=0"`
	Items          []CheckoutItem `json:"items" binding:"required,min=1,dive"`
	IdempotencyKey string         `json:"idempotency_key" binding:"required,max=255"`
	CorrelationID  string         `json:"correlation_id" binding:"omitempty,max=128"`
}

// CheckoutHandler coordena a saga verify -> create -> confirm
type CheckoutHandler struct {
	steps  []SagaStep
	tracer trace.Tracer
}

// NewCheckoutHandler cria uma nova instância de CheckoutHandler
func NewCheckoutHandler(steps []SagaStep, tracer trace.Tracer) *CheckoutHandler {
	return &CheckoutHandler{steps: steps, tracer: tracer}
}

func resolveCorrelationID(c *gin.Context, bodyID string) string {
	if bodyID != "" {
		return bodyID
	}
	if headerID := c.GetHeader("X-Correlation-Id"); headerID != "" {
		return headerID
	}
	return "corr-" + uuid.NewString()
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Checkout executa a saga de checkout de ponta a ponta
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "http.checkout")
	defer span.End()

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   gin.H{"message": err.Error()},
		})
		return
	}

	correlationID := resolveCorrelationID(c, req.CorrelationID)
	span.SetAttributes(
		attribute.String("correlation_id", correlationID),
		attribute.Int64("customer_id", req.CustomerID),
	)

	userToken := bearerToken(c)
	if userToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success":       false,
			"error":         gin.H{"message": "Missing Authorization Bearer token"},
			"correlationId": correlationID,
		})
		return
	}

	state := &sagaState{req: req, userToken: userToken, correlationID: correlationID}
	if failure := runSaga(ctx, h.steps, state); failure != nil {
		span.SetAttributes(attribute.String("saga.failure", failure.Message))
		body := gin.H{
			"success":       false,
			"error":         gin.H{"message": failure.Message},
			"correlationId": correlationID,
		}
		if failure.Kind == OutcomeUpstreamError {
			body["statusCode"] = failure.DownstreamStatus
		}
		c.JSON(failure.Status, body)
		return
	}

	// items entram dentro do objeto do pedido na resposta consolidada
	order := state.order
	if order == nil {
		order = map[string]any{}
	}
	items := state.items
	if len(items) == 0 {
		items = json.RawMessage("[]")
	}
	order["items"] = items

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"correlationId": correlationID,
		"data": gin.H{
			"customer": json.RawMessage(state.customer),
			"order":    order,
		},
	})
}

// HealthCheck verifica a saúde do serviço
func (h *CheckoutHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "orchestrator-service",
	})
}
