// internal/domain/reminder/repository.go
package reminder

import (
	"context"
	"time"

	"payflow/internal/domain/notify"
)

// Repository defines persistence for reminder settings and reminder history.
type Repository interface {
	// GetSettings returns the merchant's settings row, or ErrSettingsNotFound.
	GetSettings(ctx context.Context, merchantID int64) (*Settings, error)
	// UpsertSettings inserts or replaces the merchant's settings row. Used both
	// by the lazy get-or-create path and by explicit updates.
	UpsertSettings(ctx context.Context, s *Settings) error

	// Exists reports whether a reminder was already recorded for the dedup key.
	Exists(ctx context.Context, merchantID, customerID int64, dueDate time.Time, level int) (bool, error)

	// CreateReminderBundle persists the in-app notification, the PENDING
	// outbound row and the reminder record as one store transaction. A lost
	// race on the dedup key surfaces as ErrDuplicateReminder and leaves
	// nothing behind.
	CreateReminderBundle(ctx context.Context, n *notify.Notification, out *notify.Outbound, rec *Record) error
}
