package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados de clientes
type Repository interface {
	InsertCustomer(ctx context.Context, name, email string, phone *string) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context, filter ListCustomersFilter) ([]Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, name, email string, phone *string) (*Customer, error)
	SoftDeleteCustomer(ctx context.Context, customerID int64) error
}

// ListCustomersFilter agrupa os filtros de listagem de clientes
type ListCustomersFilter struct {
	Search string
	Limit  int
	Offset int
}

// PostgresCustomerRepository implementa Repository usando pgx
type PostgresCustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository cria uma nova instância de PostgresCustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

const customerColumns = "id, name, email, phone, created_at, updated_at, deleted_at"

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCustomerRepository) InsertCustomer(ctx context.Context, name, email string, phone *string) (*Customer, error) {
	query := fmt.Sprintf(`
		INSERT INTO customers (name, email, phone)
		VALUES ($1, $2, $3)
		RETURNING %s`, customerColumns)

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, name, email, phone))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, NewDomainError(KindConflict, "Email already exists")
		}
		return nil, fmt.Errorf("failed to insert customer: %w", err)
	}
	return customer, nil
}

func (r *PostgresCustomerRepository) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM customers
		WHERE id = $1 AND deleted_at IS NULL`, customerColumns)

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, customerID))
	if err != nil {
		if isNoRows(err) {
			return nil, NewDomainError(KindNotFound, "Customer not found")
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return customer, nil
}

func (r *PostgresCustomerRepository) ListCustomers(ctx context.Context, filter ListCustomersFilter) ([]Customer, error) {
	query := fmt.Sprintf("SELECT %s FROM customers WHERE deleted_at IS NULL", customerColumns)
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *PostgresCustomerRepository) UpdateCustomer(ctx context.Context, customerID int64, name, email string, phone *string) (*Customer, error) {
	query := fmt.Sprintf(`
		UPDATE customers
		SET name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s`, customerColumns)

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, customerID, name, email, phone))
	if err != nil {
		if isNoRows(err) {
			return nil, NewDomainError(KindNotFound, "Customer not found")
		}
		if isUniqueViolation(err) {
			return nil, NewDomainError(KindConflict, "Email already exists")
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return customer, nil
}

func (r *PostgresCustomerRepository) SoftDeleteCustomer(ctx context.Context, customerID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, customerID)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NewDomainError(KindNotFound, "Customer not found")
	}
	return nil
}
