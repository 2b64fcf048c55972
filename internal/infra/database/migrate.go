// internal/infra/database/migrate.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements is the full engine schema, applied in order at startup.
// Every statement is idempotent (IF NOT EXISTS) so repeated startups are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS merchants (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		merchant_id BIGINT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		phone VARCHAR(50),
		email VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		merchant_id BIGINT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		kind VARCHAR(10) NOT NULL CHECK (kind IN ('CREDIT', 'PAYMENT')),
		amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
		description TEXT NOT NULL DEFAULT '',
		posted_date DATE NOT NULL,
		due_date DATE,
		payment_method VARCHAR(100) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_merchant_customer
		ON transactions (merchant_id, customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_merchant_due_date
		ON transactions (merchant_id, due_date) WHERE kind = 'CREDIT'`,
	`CREATE TABLE IF NOT EXISTS payment_allocations (
		id BIGSERIAL PRIMARY KEY,
		merchant_id BIGINT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		payment_id BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		credit_id BIGINT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
		allocated_amount NUMERIC(18,2) NOT NULL CHECK (allocated_amount > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_allocations_credit
		ON payment_allocations (credit_id)`,
	`CREATE TABLE IF NOT EXISTS reminder_settings (
		merchant_id BIGINT PRIMARY KEY REFERENCES merchants(id) ON DELETE CASCADE,
		due_soon_days_before INT NOT NULL DEFAULT 0 CHECK (due_soon_days_before >= 0),
		overdue_days_1 INT NOT NULL DEFAULT 3,
		overdue_days_2 INT NOT NULL DEFAULT 7,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS payment_reminders (
		id BIGSERIAL PRIMARY KEY,
		merchant_id BIGINT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		due_date DATE NOT NULL,
		reminder_level INT NOT NULL CHECK (reminder_level BETWEEN 1 AND 3),
		reminder_type VARCHAR(20) NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT payment_reminders_dedup_key
			UNIQUE (merchant_id, customer_id, due_date, reminder_level)
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		merchant_id BIGINT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
		customer_id BIGINT REFERENCES customers(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS outbound_notifications (
		id BIGSERIAL PRIMARY KEY,
		merchant_id BIGINT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
		customer_id BIGINT REFERENCES customers(id) ON DELETE CASCADE,
		channel VARCHAR(20) NOT NULL,
		type VARCHAR(50) NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING'
			CHECK (status IN ('PENDING', 'SENT', 'FAILED', 'CANCELLED')),
		error_message TEXT,
		sent_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outbound_notifications_pending
		ON outbound_notifications (created_at) WHERE status = 'PENDING'`,
	`CREATE TABLE IF NOT EXISTS notification_preferences (
		merchant_id BIGINT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		allow_in_app BOOLEAN NOT NULL DEFAULT TRUE,
		allow_sms BOOLEAN NOT NULL DEFAULT FALSE,
		allow_whatsapp BOOLEAN NOT NULL DEFAULT FALSE,
		allow_email BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (merchant_id, customer_id)
	)`,
}

// RunMigrations applies the schema. Called once at startup, before any
// repository is used.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
