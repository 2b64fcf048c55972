// internal/app/balance_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"payflow/internal/domain/customer"
	"payflow/internal/domain/ledger"
	idb "payflow/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Stats is the merchant-wide aggregate over a date window.
type Stats struct {
	TotalDue        decimal.Decimal // Sum of positive per-customer balances only.
	TotalPayments   decimal.Decimal
	ClientsWithDebt int64
	ClientsTotal    int64 // Range-independent: every customer of the merchant.
}

// BalanceService computes derived balances. Nothing here is stored: every
// figure is an aggregate over the raw postings, so it can never go stale.
type BalanceService struct {
	ledgerRepo   ledger.Repository
	customerRepo customer.Repository
	logger       *logrus.Logger
}

func NewBalanceService(lr ledger.Repository, cr customer.Repository, logger *logrus.Logger) *BalanceService {
	return &BalanceService{
		ledgerRepo:   lr,
		customerRepo: cr,
		logger:       logger,
	}
}

// CustomerBalance is sum(CREDIT) - sum(PAYMENT) over the customer's postings
// in [from, to]; nil bounds mean the whole ledger. Positive means the customer
// owes the merchant.
func (s *BalanceService) CustomerBalance(ctx context.Context, merchantID, customerID int64, from, to *time.Time) (decimal.Decimal, error) {
	c, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		if err == idb.ErrCustomerNotFound {
			return decimal.Zero, fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to look up customer %d: %w", customerID, err)
	}
	if c.MerchantID != merchantID {
		return decimal.Zero, fmt.Errorf("customer %d: %w", customerID, ErrCrossTenant)
	}

	balance, err := s.ledgerRepo.CustomerBalance(ctx, merchantID, customerID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute balance for customer %d: %w", customerID, err)
	}
	return balance, nil
}

// MerchantStats aggregates the merchant's ledger over a date window. Customers
// with a credit balance (they paid ahead) do not offset the debt of others:
// TotalDue only sums positive balances.
func (s *BalanceService) MerchantStats(ctx context.Context, merchantID int64, from, to *time.Time) (*Stats, error) {
	balances, err := s.ledgerRepo.CustomerBalances(ctx, merchantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute per-customer balances: %w", err)
	}

	totalDue := decimal.Zero
	var clientsWithDebt int64
	for _, b := range balances {
		if b.IsPositive() {
			totalDue = totalDue.Add(b)
			clientsWithDebt++
		}
	}

	totalPayments, err := s.ledgerRepo.SumPayments(ctx, merchantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	clientsTotal, err := s.customerRepo.CountByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	return &Stats{
		TotalDue:        totalDue,
		TotalPayments:   totalPayments,
		ClientsWithDebt: clientsWithDebt,
		ClientsTotal:    clientsTotal,
	}, nil
}
