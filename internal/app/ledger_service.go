// internal/app/ledger_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"payflow/internal/domain/customer"
	"payflow/internal/domain/ledger"
	idb "payflow/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LedgerService owns the write path of the posting ledger: credits, payments
// and payment-to-credit allocations.
type LedgerService struct {
	ledgerRepo   ledger.Repository
	customerRepo customer.Repository
	logger       *logrus.Logger
	clock        Clock
}

func NewLedgerService(lr ledger.Repository, cr customer.Repository, logger *logrus.Logger, clock Clock) *LedgerService {
	return &LedgerService{
		ledgerRepo:   lr,
		customerRepo: cr,
		logger:       logger,
		clock:        clock,
	}
}

// RecordCredit persists one CREDIT posting. A zero postedDate defaults to
// today; dueDate may be nil for credits without a payment deadline.
func (s *LedgerService) RecordCredit(ctx context.Context, merchantID, customerID int64, amount decimal.Decimal, postedDate time.Time, dueDate *time.Time, description, method string) (*ledger.Posting, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := s.checkCustomer(ctx, merchantID, customerID); err != nil {
		return nil, err
	}

	if postedDate.IsZero() {
		postedDate = s.clock.Now()
	}
	p := &ledger.Posting{
		MerchantID:  merchantID,
		CustomerID:  customerID,
		Kind:        ledger.KindCredit,
		Amount:      amount,
		Description: description,
		PostedDate:  DateOf(postedDate),
		Method:      method,
	}
	if dueDate != nil {
		p.DueDate = sql.NullTime{Time: DateOf(*dueDate), Valid: true}
	}

	if err := s.ledgerRepo.CreateCredit(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create credit posting: %w", err)
	}
	s.logger.Infof("Credit posting %d recorded for merchant %d, customer %d, amount %s", p.ID, merchantID, customerID, amount.String())
	return p, nil
}

// RecordPayment persists one PAYMENT posting together with its allocation
// lines as a single atomic unit. The lines may leave part of the payment
// unallocated, but their sum can never exceed the payment amount and no line
// may exceed the remaining due of its credit; any violation rejects the whole
// operation and writes nothing.
func (s *LedgerService) RecordPayment(ctx context.Context, merchantID, customerID int64, amount decimal.Decimal, postedDate time.Time, description, method string, lines []ledger.AllocationLine) (*ledger.Posting, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := s.checkCustomer(ctx, merchantID, customerID); err != nil {
		return nil, err
	}

	totalAllocated := decimal.Zero
	for _, line := range lines {
		if !line.Amount.IsPositive() {
			return nil, fmt.Errorf("allocation for credit %d: %w", line.CreditID, ErrInvalidAmount)
		}
		totalAllocated = totalAllocated.Add(line.Amount)
	}
	if totalAllocated.GreaterThan(amount) {
		return nil, fmt.Errorf("allocations total %s exceed payment amount %s: %w", totalAllocated.String(), amount.String(), ErrOverAllocation)
	}

	// Validate every referenced credit up front so NotFound and CrossTenant
	// are distinguishable. The remaining-due check is deliberately left to the
	// store transaction, which re-reads it under a row lock.
	allocations := make([]*ledger.Allocation, 0, len(lines))
	for _, line := range lines {
		creditPosting, err := s.ledgerRepo.GetPosting(ctx, line.CreditID)
		if err != nil {
			if err == idb.ErrPostingNotFound {
				return nil, fmt.Errorf("credit %d: %w", line.CreditID, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to look up credit %d: %w", line.CreditID, err)
		}
		if creditPosting.Kind != ledger.KindCredit {
			return nil, fmt.Errorf("posting %d: %w", line.CreditID, ErrNotACredit)
		}
		if creditPosting.MerchantID != merchantID || creditPosting.CustomerID != customerID {
			return nil, fmt.Errorf("credit %d: %w", line.CreditID, ErrCrossTenant)
		}
		allocations = append(allocations, &ledger.Allocation{
			MerchantID:      merchantID,
			CustomerID:      customerID,
			CreditID:        line.CreditID,
			AllocatedAmount: line.Amount,
		})
	}

	if postedDate.IsZero() {
		postedDate = s.clock.Now()
	}
	p := &ledger.Posting{
		MerchantID:  merchantID,
		CustomerID:  customerID,
		Kind:        ledger.KindPayment,
		Amount:      amount,
		Description: description,
		PostedDate:  DateOf(postedDate),
		Method:      method,
	}

	if err := s.ledgerRepo.CreatePaymentWithAllocations(ctx, p, allocations); err != nil {
		if err == idb.ErrOverAllocation {
			return nil, ErrOverAllocation
		}
		if err == idb.ErrPostingNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create payment with allocations: %w", err)
	}
	s.logger.Infof("Payment posting %d recorded for merchant %d, customer %d, amount %s (%d allocation(s), %s allocated)",
		p.ID, merchantID, customerID, amount.String(), len(allocations), totalAllocated.String())
	return p, nil
}

// Remaining returns the unsettled portion of a credit. A negative value means
// the store holds more allocations than the credit's amount; that is surfaced
// as ErrLedgerCorrupt rather than clamped.
func (s *LedgerService) Remaining(ctx context.Context, merchantID, creditID int64) (decimal.Decimal, error) {
	creditPosting, err := s.ledgerRepo.GetPosting(ctx, creditID)
	if err != nil {
		if err == idb.ErrPostingNotFound {
			return decimal.Zero, fmt.Errorf("credit %d: %w", creditID, ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to look up credit %d: %w", creditID, err)
	}
	if creditPosting.MerchantID != merchantID {
		return decimal.Zero, fmt.Errorf("credit %d: %w", creditID, ErrCrossTenant)
	}
	if creditPosting.Kind != ledger.KindCredit {
		return decimal.Zero, fmt.Errorf("posting %d: %w", creditID, ErrNotACredit)
	}

	allocated, err := s.ledgerRepo.AllocatedAmount(ctx, creditID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum allocations for credit %d: %w", creditID, err)
	}
	remaining := creditPosting.Amount.Sub(allocated)
	if remaining.IsNegative() {
		s.logger.Errorf("Credit %d has %s allocated against an amount of %s", creditID, allocated.String(), creditPosting.Amount.String())
		return decimal.Zero, fmt.Errorf("credit %d: %w", creditID, ErrLedgerCorrupt)
	}
	return remaining, nil
}

// CreditsWithRemaining lists the customer's credits that still carry a
// remaining due, newest first. Fully settled credits are excluded.
func (s *LedgerService) CreditsWithRemaining(ctx context.Context, merchantID, customerID int64) ([]ledger.CreditWithRemaining, error) {
	if err := s.checkCustomer(ctx, merchantID, customerID); err != nil {
		return nil, err
	}

	credits, err := s.ledgerRepo.ListCreditsByMerchantAndCustomer(ctx, merchantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credits: %w", err)
	}

	open := make([]ledger.CreditWithRemaining, 0, len(credits))
	for _, c := range credits {
		allocated, err := s.ledgerRepo.AllocatedAmount(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum allocations for credit %d: %w", c.ID, err)
		}
		remaining := c.Amount.Sub(allocated)
		if !remaining.IsPositive() {
			continue
		}
		open = append(open, ledger.CreditWithRemaining{Credit: c, Remaining: remaining})
	}
	return open, nil
}

// ListTransactions returns the merchant's postings, optionally bounded by
// posted date, newest first.
func (s *LedgerService) ListTransactions(ctx context.Context, merchantID int64, from, to *time.Time) ([]*ledger.Posting, error) {
	postings, err := s.ledgerRepo.ListByMerchant(ctx, merchantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return postings, nil
}

// checkCustomer resolves the customer and verifies it belongs to the acting
// merchant.
func (s *LedgerService) checkCustomer(ctx context.Context, merchantID, customerID int64) error {
	c, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if err == idb.ErrCustomerNotFound {
			return fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
		}
		return fmt.Errorf("failed to look up customer %d: %w", customerID, err)
	}
	if c.MerchantID != merchantID {
		return fmt.Errorf("customer %d: %w", customerID, ErrCrossTenant)
	}
	return nil
}
