// internal/infra/database/postgres_reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"payflow/internal/domain/notify"
	"payflow/internal/domain/reminder"
)

// Custom errors specific to the reminder repository
var ErrSettingsNotFound = fmt.Errorf("reminder settings not found")
var ErrDuplicateReminder = fmt.Errorf("duplicate payment reminder (merchant_id, customer_id, due_date, reminder_level)")

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

// --- ReminderSettings Methods ---

func (r *PostgresReminderRepository) GetSettings(ctx context.Context, merchantID int64) (*reminder.Settings, error) {
	query := `SELECT merchant_id, due_soon_days_before, overdue_days_1, overdue_days_2, enabled, updated_at
               FROM reminder_settings WHERE merchant_id = $1`
	s := &reminder.Settings{}
	err := r.db.QueryRowContext(ctx, query, merchantID).Scan(
		&s.MerchantID, &s.DueSoonDaysBefore, &s.OverdueDays1, &s.OverdueDays2, &s.Enabled, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("error getting reminder settings: %w", err)
	}
	return s, nil
}

// UpsertSettings relies on the primary key for create-if-absent semantics, so
// concurrent first accesses converge on a single row.
func (r *PostgresReminderRepository) UpsertSettings(ctx context.Context, s *reminder.Settings) error {
	query := `INSERT INTO reminder_settings (merchant_id, due_soon_days_before, overdue_days_1, overdue_days_2, enabled, updated_at)
               VALUES ($1, $2, $3, $4, $5, NOW())
               ON CONFLICT (merchant_id) DO UPDATE
               SET due_soon_days_before = EXCLUDED.due_soon_days_before,
                   overdue_days_1 = EXCLUDED.overdue_days_1,
                   overdue_days_2 = EXCLUDED.overdue_days_2,
                   enabled = EXCLUDED.enabled,
                   updated_at = NOW()
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.MerchantID, s.DueSoonDaysBefore, s.OverdueDays1, s.OverdueDays2, s.Enabled,
	).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting reminder settings: %w", err)
	}
	return nil
}

// --- PaymentReminder Methods ---

func (r *PostgresReminderRepository) Exists(ctx context.Context, merchantID, customerID int64, dueDate time.Time, level int) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM payment_reminders
                 WHERE merchant_id = $1 AND customer_id = $2 AND due_date = $3 AND reminder_level = $4
               )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, merchantID, customerID, dueDate, level).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking reminder existence: %w", err)
	}
	return exists, nil
}

// CreateReminderBundle inserts the in-app notification, the outbound row and
// the reminder record in one transaction. The unique constraint on the dedup
// key converts a lost race into ErrDuplicateReminder and rolls everything
// back, so a retry can never find the record without the notifications.
func (r *PostgresReminderRepository) CreateReminderBundle(ctx context.Context, n *notify.Notification, out *notify.Outbound, rec *reminder.Record) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for reminder bundle: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	insertReminder := `INSERT INTO payment_reminders (merchant_id, customer_id, due_date, reminder_level, reminder_type)
                        VALUES ($1, $2, $3, $4, $5)
                        RETURNING id, sent_at`
	err = txn.QueryRowContext(ctx, insertReminder,
		rec.MerchantID, rec.CustomerID, rec.DueDate, rec.Level, rec.Type,
	).Scan(&rec.ID, &rec.SentAt)
	if err != nil {
		if strings.Contains(err.Error(), "payment_reminders_dedup_key") {
			return ErrDuplicateReminder
		}
		return fmt.Errorf("error creating payment reminder: %w", err)
	}

	insertNotification := `INSERT INTO notifications (merchant_id, customer_id, title, message)
                            VALUES ($1, $2, $3, $4)
                            RETURNING id, created_at`
	err = txn.QueryRowContext(ctx, insertNotification,
		n.MerchantID, n.CustomerID, n.Title, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}

	insertOutbound := `INSERT INTO outbound_notifications (merchant_id, customer_id, channel, type, title, message, status)
                        VALUES ($1, $2, $3, $4, $5, $6, $7)
                        RETURNING id, created_at`
	err = txn.QueryRowContext(ctx, insertOutbound,
		out.MerchantID, out.CustomerID, out.Channel, out.Type, out.Title, out.Message, out.Status,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating outbound notification: %w", err)
	}

	return txn.Commit()
}
