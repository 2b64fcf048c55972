// internal/infra/database/postgres_merchant_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"payflow/internal/domain/merchant"
)

// Custom errors specific to the merchant repository
var ErrMerchantNotFound = fmt.Errorf("merchant not found")
var ErrDuplicateMerchantEmail = fmt.Errorf("merchant with this email already exists")

type PostgresMerchantRepository struct {
	db *sql.DB
}

func NewPostgresMerchantRepository(db *sql.DB) *PostgresMerchantRepository {
	return &PostgresMerchantRepository{db: db}
}

func (r *PostgresMerchantRepository) Create(ctx context.Context, m *merchant.Merchant) error {
	query := `INSERT INTO merchants (name, email)
               VALUES ($1, $2)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, m.Name, m.Email).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "merchants_email_key") {
			return ErrDuplicateMerchantEmail
		}
		return fmt.Errorf("error creating merchant: %w", err)
	}
	return nil
}

func (r *PostgresMerchantRepository) GetByID(ctx context.Context, id int64) (*merchant.Merchant, error) {
	query := `SELECT id, name, email, created_at FROM merchants WHERE id = $1`
	m := &merchant.Merchant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("error getting merchant by ID: %w", err)
	}
	return m, nil
}

func (r *PostgresMerchantRepository) ListAll(ctx context.Context) ([]*merchant.Merchant, error) {
	query := `SELECT id, name, email, created_at FROM merchants ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing merchants: %w", err)
	}
	defer rows.Close()

	merchants := make([]*merchant.Merchant, 0)
	for rows.Next() {
		m := &merchant.Merchant{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning merchant: %w", err)
		}
		merchants = append(merchants, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merchants: %w", err)
	}
	return merchants, nil
}

// Delete removes the merchant; the schema's ON DELETE CASCADE takes the
// merchant's customers, postings, allocations, reminders and notifications
// with it.
func (r *PostgresMerchantRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM merchants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting merchant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking merchant delete result: %w", err)
	}
	if affected == 0 {
		return ErrMerchantNotFound
	}
	return nil
}
