package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// OutcomeKind classifica o resultado de um passo da saga
type OutcomeKind string

const (
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeClientError   OutcomeKind = "client_error"
	OutcomeUpstreamError OutcomeKind = "upstream_error"
)

// StepOutcome é o resultado tipado de um passo.
// Em client_error o status e a mensagem do serviço de destino são repassados
// ao chamador; em upstream_error respondemos 502 com o status original.
type StepOutcome struct {
	Kind             OutcomeKind
	Status           int
	Message          string
	DownstreamStatus int
}

func success() StepOutcome {
	return StepOutcome{Kind: OutcomeSuccess}
}

func clientError(status int, message string) StepOutcome {
	return StepOutcome{Kind: OutcomeClientError, Status: status, Message: message}
}

func upstreamError(downstreamStatus int, message string) StepOutcome {
	return StepOutcome{
		Kind:             OutcomeUpstreamError,
		Status:           http.StatusBadGateway,
		Message:          message,
		DownstreamStatus: downstreamStatus,
	}
}

// SagaStep é um passo nomeado do checkout
type SagaStep interface {
	Name() string
	Execute(ctx context.Context, state *sagaState) StepOutcome
}

// sagaState acumula os dados que atravessam os passos de um checkout
type sagaState struct {
	req           CheckoutRequest
	userToken     string
	correlationID string

	customer json.RawMessage
	order    map[string]any
	items    json.RawMessage
	message  string
}

// errorEnvelope é o envelope de erro dos serviços de destino
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func downstreamMessage(body []byte, fallback string) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fallback
}

// VerifyCustomerStep confirma que o cliente existe antes de tocar em pedidos
type VerifyCustomerStep struct {
	http         *resty.Client
	baseURL      string
	serviceToken string
}

func (s *VerifyCustomerStep) Name() string { return "verify_customer" }

func (s *VerifyCustomerStep) Execute(ctx context.Context, state *sagaState) StepOutcome {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.serviceToken).
		SetResult(&envelope).
		Get(fmt.Sprintf("%s/internal/customers/%d", s.baseURL, state.req.CustomerID))
	if err != nil {
		return upstreamError(0, "Error calling Customers API")
	}

	if resp.StatusCode() == http.StatusNotFound {
		return clientError(http.StatusBadRequest, "Customer does not exist")
	}
	if !resp.IsSuccess() {
		return upstreamError(resp.StatusCode(), "Customers API error")
	}

	state.customer = envelope.Data
	return success()
}

// CreateOrderStep cria o pedido em nome do usuário final
type CreateOrderStep struct {
	http    *resty.Client
	baseURL string
}

func (s *CreateOrderStep) Name() string { return "create_order" }

func (s *CreateOrderStep) Execute(ctx context.Context, state *sagaState) StepOutcome {
	var envelope struct {
		Data struct {
			Order map[string]any  `json:"order"`
			Items json.RawMessage `json:"items"`
		} `json:"data"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+state.userToken).
		SetBody(map[string]any{
			"customer_id": state.req.CustomerID,
			"items":       state.req.Items,
		}).
		SetResult(&envelope).
		Post(s.baseURL + "/orders")
	if err != nil {
		return upstreamError(0, "Error calling Orders API")
	}

	if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
		// erros de negócio (estoque, validação, credencial) voltam como estão
		return clientError(resp.StatusCode(), downstreamMessage(resp.Body(), "Order creation failed"))
	}
	if !resp.IsSuccess() {
		return upstreamError(resp.StatusCode(), "Orders API error")
	}

	state.order = envelope.Data.Order
	state.items = envelope.Data.Items
	return success()
}

// ConfirmOrderStep confirma o pedido recém-criado com a chave de idempotência
type ConfirmOrderStep struct {
	http    *resty.Client
	baseURL string
}

func (s *ConfirmOrderStep) Name() string { return "confirm_order" }

func (s *ConfirmOrderStep) Execute(ctx context.Context, state *sagaState) StepOutcome {
	orderID, ok := state.order["id"].(float64)
	if !ok {
		return upstreamError(0, "Orders API returned an order without id")
	}

	var envelope struct {
		Data struct {
			Order   map[string]any  `json:"order"`
			Items   json.RawMessage `json:"items"`
			Message string          `json:"message"`
		} `json:"data"`
	}
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+state.userToken).
		SetHeader("Idempotency-Key", state.req.IdempotencyKey).
		SetResult(&envelope).
		Post(fmt.Sprintf("%s/orders/%d/confirm", s.baseURL, int64(orderID)))
	if err != nil {
		return upstreamError(0, "Error calling Orders API")
	}

	if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
		return clientError(resp.StatusCode(), downstreamMessage(resp.Body(), "Order confirmation failed"))
	}
	if !resp.IsSuccess() {
		return upstreamError(resp.StatusCode(), "Orders API error")
	}

	if envelope.Data.Order != nil {
		state.order = envelope.Data.Order
	}
	if len(envelope.Data.Items) > 0 {
		state.items = envelope.Data.Items
	}
	state.message = envelope.Data.Message
	return success()
}

// runSaga executa os passos em ordem, parando no primeiro que falhar.
// Não há retries nem compensação: cada passo é idempotente ou inócuo
// quando reexecutado pelo chamador com a mesma chave.
func runSaga(ctx context.Context, steps []SagaStep, state *sagaState) *StepOutcome {
	for _, step := range steps {
		log.Printf("➡️ [%s] step %s", state.correlationID, step.Name())
		outcome := step.Execute(ctx, state)
		if outcome.Kind != OutcomeSuccess {
			log.Printf("❌ [%s] step %s failed: %s", state.correlationID, step.Name(), outcome.Message)
			return &outcome
		}
		log.Printf("✅ [%s] step %s done", state.correlationID, step.Name())
	}
	return nil
}
