// internal/domain/ledger/repository.go
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the persistence operations for Postings and Allocations.
//
// CreatePaymentWithAllocations is the single write path for payments: the
// payment posting and all of its allocation rows commit as one store
// transaction, and the remaining-due of every referenced credit is re-checked
// under a row lock inside that same transaction. Either everything commits or
// nothing does.
type Repository interface {
	CreateCredit(ctx context.Context, p *Posting) error
	CreatePaymentWithAllocations(ctx context.Context, p *Posting, allocations []*Allocation) error

	GetPosting(ctx context.Context, id int64) (*Posting, error)
	ListByMerchant(ctx context.Context, merchantID int64, from, to *time.Time) ([]*Posting, error)
	ListCreditsByMerchantAndCustomer(ctx context.Context, merchantID, customerID int64) ([]*Posting, error)
	// ListCreditsByMerchantAndDueDate matches on due date equality only; the
	// reminder levels never scan a range.
	ListCreditsByMerchantAndDueDate(ctx context.Context, merchantID int64, dueDate time.Time) ([]*Posting, error)

	// AllocatedAmount sums the allocations recorded against a credit.
	AllocatedAmount(ctx context.Context, creditID int64) (decimal.Decimal, error)

	// CustomerBalance is sum(CREDIT) - sum(PAYMENT) over the customer's
	// postings, restricted to [from, to] when bounds are given.
	CustomerBalance(ctx context.Context, merchantID, customerID int64, from, to *time.Time) (decimal.Decimal, error)
	// CustomerBalances returns the per-customer balance for every customer
	// with at least one posting in range, keyed by customer id.
	CustomerBalances(ctx context.Context, merchantID int64, from, to *time.Time) (map[int64]decimal.Decimal, error)
	// SumPayments totals PAYMENT postings for the merchant in range.
	SumPayments(ctx context.Context, merchantID int64, from, to *time.Time) (decimal.Decimal, error)
}
