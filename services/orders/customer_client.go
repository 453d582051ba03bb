package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// customerEnvelope é o envelope de resposta da Customers API
type customerEnvelope struct {
	Data Customer `json:"data"`
}

// CustomerClient consulta a Customers API pela rota interna confiável,
// autenticada com o token estático de serviço (não o JWT do usuário final)
type CustomerClient struct {
	http         *resty.Client
	baseURL      string
	serviceToken string
}

// NewCustomerClient cria uma nova instância de CustomerClient
func NewCustomerClient(baseURL, serviceToken string) *CustomerClient {
	return &CustomerClient{
		http:         resty.New().SetTimeout(5 * time.Second),
		baseURL:      baseURL,
		serviceToken: serviceToken,
	}
}

// FetchCustomerByID busca a projeção mínima de um cliente.
// Retorna (nil, nil) quando o cliente não existe; falha de transporte ou
// status inesperado viram erro de upstream, distinto de "não encontrado".
func (c *CustomerClient) FetchCustomerByID(ctx context.Context, customerID int64) (*Customer, error) {
	if c.serviceToken == "" {
		return nil, NewDomainError(KindInternal, "SERVICE_TOKEN not set in env")
	}

	var envelope customerEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.serviceToken).
		SetResult(&envelope).
		Get(fmt.Sprintf("%s/internal/customers/%d", c.baseURL, customerID))
	if err != nil {
		return nil, NewDomainError(KindUpstream, "Error calling Customers API: %v", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, NewDomainError(KindUpstream, "Customers API error: %d", resp.StatusCode())
	}

	return &envelope.Data, nil
}
