package customer

import (
	"database/sql"
	"time"
)

// Customer represents a client of exactly one merchant.
type Customer struct {
	ID         int64
	MerchantID int64
	Name       string
	Phone      sql.NullString // Optional; required before an SMS/WhatsApp send.
	Email      sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
