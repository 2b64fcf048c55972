// internal/domain/ledger/posting.go
package ledger

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Kind represents the direction of a posting in the merchant/customer ledger.
type Kind string

const (
	KindCredit  Kind = "CREDIT"  // Increases the customer's debt to the merchant.
	KindPayment Kind = "PAYMENT" // Decreases the customer's debt.
)

// Posting is a single immutable row in the transactions ledger.
// Corresponds to the 'transactions' table.
type Posting struct {
	ID          int64
	MerchantID  int64
	CustomerID  int64
	Kind        Kind
	Amount      decimal.Decimal
	Description string
	PostedDate  time.Time    // Date the transaction takes effect (date part only).
	DueDate     sql.NullTime // Only meaningful for CREDIT postings.
	Method      string       // e.g., "CASH", "MOBILE_MONEY"; free-form.
	CreatedAt   time.Time
}

// IsSettlable reports whether the posting can carry allocations against it.
func (p *Posting) IsSettlable() bool {
	return p.Kind == KindCredit
}
