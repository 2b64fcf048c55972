package customer

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Customer entities.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id int64) (*Customer, error)
	ListByMerchant(ctx context.Context, merchantID int64) ([]*Customer, error)
	CountByMerchant(ctx context.Context, merchantID int64) (int64, error)
	// Delete cascades to the customer's postings, allocations, reminders and
	// notifications (enforced by the store's foreign keys).
	Delete(ctx context.Context, id int64) error
}
