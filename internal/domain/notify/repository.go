// internal/domain/notify/repository.go
package notify

import (
	"context"
	"time"
)

// Repository defines persistence for notifications, the delivery outbox and
// per-customer channel preferences.
type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotificationsByMerchant(ctx context.Context, merchantID int64, limit int) ([]*Notification, error)

	CreateOutbound(ctx context.Context, out *Outbound) error
	// ListPendingOutbound returns up to limit PENDING rows, oldest first.
	ListPendingOutbound(ctx context.Context, limit int) ([]*Outbound, error)
	MarkOutboundSent(ctx context.Context, id int64, sentAt time.Time) error
	MarkOutboundFailed(ctx context.Context, id int64, reason string) error
	// RequeueFailed flips one FAILED row back to PENDING. There is no
	// automatic retry; this is the operator's hook.
	RequeueFailed(ctx context.Context, merchantID, id int64) error

	// GetPreferences returns the customer's channel opt-ins, or
	// ErrPreferencesNotFound when the row was never created.
	GetPreferences(ctx context.Context, merchantID, customerID int64) (*Preferences, error)
	UpsertPreferences(ctx context.Context, p *Preferences) error
}
