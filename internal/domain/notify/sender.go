// internal/domain/notify/sender.go
package notify

import "context"

// Recipient carries the contact fields a Sender may need. Empty fields mean
// the customer has no such contact on file.
type Recipient struct {
	CustomerID int64
	Name       string
	Phone      string
	Email      string
}

// Sender delivers one message over a single transport. Implementations live in
// infra; this interface keeps the dispatcher decoupled from the transports,
// the same way the Telegram client is decoupled from telebot.
type Sender interface {
	Send(ctx context.Context, to Recipient, title, message string) error
}
