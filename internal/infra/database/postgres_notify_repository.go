// internal/infra/database/postgres_notify_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"payflow/internal/domain/notify"
)

// Custom errors specific to the notify repository
var ErrOutboundNotFound = fmt.Errorf("outbound notification not found")
var ErrPreferencesNotFound = fmt.Errorf("notification preferences not found")

type PostgresNotifyRepository struct {
	db *sql.DB
}

func NewPostgresNotifyRepository(db *sql.DB) *PostgresNotifyRepository {
	return &PostgresNotifyRepository{db: db}
}

// --- Notification Methods ---

func (r *PostgresNotifyRepository) CreateNotification(ctx context.Context, n *notify.Notification) error {
	query := `INSERT INTO notifications (merchant_id, customer_id, title, message)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, n.MerchantID, n.CustomerID, n.Title, n.Message).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

func (r *PostgresNotifyRepository) ListNotificationsByMerchant(ctx context.Context, merchantID int64, limit int) ([]*notify.Notification, error) {
	query := `SELECT id, merchant_id, customer_id, title, message, created_at
               FROM notifications WHERE merchant_id = $1
               ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, merchantID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*notify.Notification, 0)
	for rows.Next() {
		n := &notify.Notification{}
		if err := rows.Scan(&n.ID, &n.MerchantID, &n.CustomerID, &n.Title, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// --- Outbound Notification Methods ---

func (r *PostgresNotifyRepository) CreateOutbound(ctx context.Context, out *notify.Outbound) error {
	query := `INSERT INTO outbound_notifications (merchant_id, customer_id, channel, type, title, message, status)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		out.MerchantID, out.CustomerID, out.Channel, out.Type, out.Title, out.Message, out.Status,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating outbound notification: %w", err)
	}
	return nil
}

func (r *PostgresNotifyRepository) ListPendingOutbound(ctx context.Context, limit int) ([]*notify.Outbound, error) {
	query := `SELECT id, merchant_id, customer_id, channel, type, title, message, status, error_message, sent_at, created_at
               FROM outbound_notifications
               WHERE status = 'PENDING'
               ORDER BY created_at ASC, id ASC
               LIMIT $1` // Process older ones first
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing pending outbound notifications: %w", err)
	}
	defer rows.Close()

	pendings := make([]*notify.Outbound, 0)
	for rows.Next() {
		out := &notify.Outbound{}
		if err := rows.Scan(&out.ID, &out.MerchantID, &out.CustomerID, &out.Channel, &out.Type,
			&out.Title, &out.Message, &out.Status, &out.ErrorMessage, &out.SentAt, &out.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning outbound notification: %w", err)
		}
		pendings = append(pendings, out)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbound notifications: %w", err)
	}
	return pendings, nil
}

func (r *PostgresNotifyRepository) MarkOutboundSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `UPDATE outbound_notifications
               SET status = 'SENT', sent_at = $1, error_message = NULL
               WHERE id = $2`
	return r.markOutbound(ctx, query, sentAt, id)
}

func (r *PostgresNotifyRepository) MarkOutboundFailed(ctx context.Context, id int64, reason string) error {
	query := `UPDATE outbound_notifications
               SET status = 'FAILED', error_message = $1
               WHERE id = $2`
	return r.markOutbound(ctx, query, reason, id)
}

// RequeueFailed flips one FAILED row of the merchant back to PENDING. This is
// the manual retry hook; nothing does this automatically.
func (r *PostgresNotifyRepository) RequeueFailed(ctx context.Context, merchantID, id int64) error {
	query := `UPDATE outbound_notifications
               SET status = 'PENDING', error_message = NULL
               WHERE id = $1 AND merchant_id = $2 AND status = 'FAILED'`
	res, err := r.db.ExecContext(ctx, query, id, merchantID)
	if err != nil {
		return fmt.Errorf("error requeueing outbound notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking requeue result: %w", err)
	}
	if affected == 0 {
		return ErrOutboundNotFound
	}
	return nil
}

func (r *PostgresNotifyRepository) markOutbound(ctx context.Context, query string, arg interface{}, id int64) error {
	res, err := r.db.ExecContext(ctx, query, arg, id)
	if err != nil {
		return fmt.Errorf("error updating outbound notification status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking outbound status update result: %w", err)
	}
	if affected == 0 {
		return ErrOutboundNotFound
	}
	return nil
}

// --- NotificationPreferences Methods ---

func (r *PostgresNotifyRepository) GetPreferences(ctx context.Context, merchantID, customerID int64) (*notify.Preferences, error) {
	query := `SELECT merchant_id, customer_id, allow_in_app, allow_sms, allow_whatsapp, allow_email
               FROM notification_preferences WHERE merchant_id = $1 AND customer_id = $2`
	p := &notify.Preferences{}
	err := r.db.QueryRowContext(ctx, query, merchantID, customerID).Scan(
		&p.MerchantID, &p.CustomerID, &p.AllowInApp, &p.AllowSMS, &p.AllowWhatsApp, &p.AllowEmail,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPreferencesNotFound
		}
		return nil, fmt.Errorf("error getting notification preferences: %w", err)
	}
	return p, nil
}

func (r *PostgresNotifyRepository) UpsertPreferences(ctx context.Context, p *notify.Preferences) error {
	query := `INSERT INTO notification_preferences (merchant_id, customer_id, allow_in_app, allow_sms, allow_whatsapp, allow_email)
               VALUES ($1, $2, $3, $4, $5, $6)
               ON CONFLICT (merchant_id, customer_id) DO UPDATE
               SET allow_in_app = EXCLUDED.allow_in_app,
                   allow_sms = EXCLUDED.allow_sms,
                   allow_whatsapp = EXCLUDED.allow_whatsapp,
                   allow_email = EXCLUDED.allow_email`
	_, err := r.db.ExecContext(ctx, query,
		p.MerchantID, p.CustomerID, p.AllowInApp, p.AllowSMS, p.AllowWhatsApp, p.AllowEmail,
	)
	if err != nil {
		return fmt.Errorf("error upserting notification preferences: %w", err)
	}
	return nil
}
