package main

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CustomerUseCase contém a lógica de negócio do serviço de clientes
type CustomerUseCase struct {
	repository Repository
	tracer     trace.Tracer
}

// NewCustomerUseCase cria uma nova instância de CustomerUseCase
func NewCustomerUseCase(repository Repository, tracer trace.Tracer) *CustomerUseCase {
	return &CustomerUseCase{repository: repository, tracer: tracer}
}

// CreateCustomer cadastra um cliente; e-mail duplicado vira conflito 409
func (uc *CustomerUseCase) CreateCustomer(ctx context.Context, name, email string, phone *string) (*Customer, error) {
	ctx, span := uc.tracer.Start(ctx, "usecase.create_customer")
	defer span.End()

	customer, err := uc.repository.InsertCustomer(ctx, name, email, phone)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("customer_id", customer.ID))
	return customer, nil
}

// GetCustomer busca um cliente ativo pelo ID
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	ctx, span := uc.tracer.Start(ctx, "usecase.get_customer")
	defer span.End()

	span.SetAttributes(attribute.Int64("customer_id", customerID))
	return uc.repository.GetCustomer(ctx, customerID)
}

// ListCustomers lista clientes ativos com busca e paginação
func (uc *CustomerUseCase) ListCustomers(ctx context.Context, filter ListCustomersFilter) ([]Customer, error) {
	ctx, span := uc.tracer.Start(ctx, "usecase.list_customers")
	defer span.End()

	return uc.repository.ListCustomers(ctx, filter)
}

// UpdateCustomer atualiza os dados cadastrais de um cliente
func (uc *CustomerUseCase) UpdateCustomer(ctx context.Context, customerID int64, name, email string, phone *string) (*Customer, error) {
	ctx, span := uc.tracer.Start(ctx, "usecase.update_customer")
	defer span.End()

	span.SetAttributes(attribute.Int64("customer_id", customerID))
	return uc.repository.UpdateCustomer(ctx, customerID, name, email, phone)
}

// DeleteCustomer marca um cliente como removido (soft delete)
func (uc *CustomerUseCase) DeleteCustomer(ctx context.Context, customerID int64) error {
	ctx, span := uc.tracer.Start(ctx, "usecase.delete_customer")
	defer span.End()

	span.SetAttributes(attribute.Int64("customer_id", customerID))
	return uc.repository.SoftDeleteCustomer(ctx, customerID)
}
