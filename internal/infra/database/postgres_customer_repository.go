// internal/infra/database/postgres_customer_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"payflow/internal/domain/customer"
)

// Custom errors specific to the customer repository
var ErrCustomerNotFound = fmt.Errorf("customer not found")

type PostgresCustomerRepository struct {
	db *sql.DB
}

func NewPostgresCustomerRepository(db *sql.DB) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{db: db}
}

func (r *PostgresCustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `INSERT INTO customers (merchant_id, name, phone, email)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, c.MerchantID, c.Name, c.Phone, c.Email).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating customer: %w", err)
	}
	return nil
}

func (r *PostgresCustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := `SELECT id, merchant_id, name, phone, email, created_at, updated_at
               FROM customers WHERE id = $1`
	c := &customer.Customer{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.MerchantID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("error getting customer by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresCustomerRepository) ListByMerchant(ctx context.Context, merchantID int64) ([]*customer.Customer, error) {
	query := `SELECT id, merchant_id, name, phone, email, created_at, updated_at
               FROM customers WHERE merchant_id = $1 ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("error listing customers by merchant: %w", err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		c := &customer.Customer{}
		if err := rows.Scan(&c.ID, &c.MerchantID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}
	return customers, nil
}

func (r *PostgresCustomerRepository) CountByMerchant(ctx context.Context, merchantID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE merchant_id = $1`, merchantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting customers: %w", err)
	}
	return count, nil
}

// Delete removes the customer; ON DELETE CASCADE takes the customer's
// postings, allocations, reminders and notifications with it.
func (r *PostgresCustomerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting customer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking customer delete result: %w", err)
	}
	if affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
