// internal/domain/notify/notification.go
package notify

import (
	"database/sql"
	"time"
)

// Notification is the in-app feed row shown to the merchant.
// Corresponds to the 'notifications' table.
type Notification struct {
	ID         int64
	MerchantID int64
	CustomerID sql.NullInt64
	Title      string
	Message    string
	CreatedAt  time.Time
}

// Status of an outbound notification in the delivery outbox.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Outbound is one row of the delivery outbox, drained by the dispatcher.
// Corresponds to the 'outbound_notifications' table.
type Outbound struct {
	ID           int64
	MerchantID   int64
	CustomerID   sql.NullInt64
	Channel      Channel
	Type         string // e.g., "REMINDER"
	Title        string
	Message      string
	Status       Status
	ErrorMessage sql.NullString
	SentAt       sql.NullTime
	CreatedAt    time.Time
}
