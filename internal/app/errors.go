package app

import "fmt"

// Application-level errors surfaced to the boundary layer. The store's own
// sentinel errors (internal/infra/database) are translated into these so
// callers never see driver details.
var (
	// ErrInvalidAmount covers any non-positive money amount.
	ErrInvalidAmount = fmt.Errorf("amount must be greater than zero")
	// ErrInvalidSettings covers malformed reminder settings, e.g. negative day offsets.
	ErrInvalidSettings = fmt.Errorf("invalid reminder settings")
	// ErrNotFound means a referenced merchant/customer/posting is absent.
	ErrNotFound = fmt.Errorf("referenced entity not found")
	// ErrCrossTenant means the entity exists but belongs to a different
	// merchant or customer. Reported as access denied, not as not-found.
	ErrCrossTenant = fmt.Errorf("entity belongs to a different merchant or customer")
	// ErrNotACredit means an allocation references a posting that is not a CREDIT.
	ErrNotACredit = fmt.Errorf("allocation target is not a credit posting")
	// ErrOverAllocation means an allocation line exceeds the credit's remaining
	// amount, or the lines together exceed the payment amount.
	ErrOverAllocation = fmt.Errorf("allocation exceeds the remaining amount")
	// ErrLedgerCorrupt signals a negative remaining: data integrity is broken
	// and must be surfaced, never clamped.
	ErrLedgerCorrupt = fmt.Errorf("ledger integrity violation: credit is over-allocated")
)
