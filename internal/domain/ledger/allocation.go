// internal/domain/ledger/allocation.go
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation links part of a payment's amount to the credit it settles.
// Corresponds to the 'payment_allocations' table.
type Allocation struct {
	ID              int64
	MerchantID      int64
	CustomerID      int64
	PaymentID       int64 // FK to a Posting with Kind=PAYMENT.
	CreditID        int64 // FK to a Posting with Kind=CREDIT.
	AllocatedAmount decimal.Decimal
	CreatedAt       time.Time
}

// AllocationLine is the caller-supplied instruction to apply part of a new
// payment against a specific credit.
type AllocationLine struct {
	CreditID int64
	Amount   decimal.Decimal
}

// CreditWithRemaining pairs an open credit with its unsettled portion.
type CreditWithRemaining struct {
	Credit    *Posting
	Remaining decimal.Decimal
}
