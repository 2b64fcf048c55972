package merchant

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Merchant entities.
type Repository interface {
	Create(ctx context.Context, m *Merchant) error
	GetByID(ctx context.Context, id int64) (*Merchant, error)
	ListAll(ctx context.Context) ([]*Merchant, error) // For the daily reminder run
	// Delete cascades to every posting, allocation, reminder and notification
	// owned by the merchant (enforced by the store's foreign keys).
	Delete(ctx context.Context, id int64) error
}
