package app

import (
	"context"
	"testing"
	"time"

	"payflow/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerService(s *fakeStore, now time.Time) *LedgerService {
	return NewLedgerService(&fakeLedgerRepo{s: s}, &fakeCustomerRepo{s: s}, testLogger(), &fixedClock{t: now})
}

func TestRecordCredit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "+221770000001", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	due := date(2024, time.January, 10)
	p, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("100.00"), time.Time{}, &due, "sac de riz", "CASH")
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, ledger.KindCredit, p.Kind)
	assert.Equal(t, date(2024, time.January, 5), p.PostedDate)
	require.True(t, p.DueDate.Valid)
	assert.Equal(t, due, p.DueDate.Time)

	remaining, err := svc.Remaining(ctx, m.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(dec("100.00")))
}

func TestRecordCreditRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	_, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("0"), time.Time{}, nil, "", "CASH")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RecordCredit(ctx, m.ID, c.ID, dec("-5"), time.Time{}, nil, "", "CASH")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, store.postings)
}

func TestRecordCreditRejectsForeignCustomer(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m1 := store.addMerchant("boutique")
	m2 := store.addMerchant("epicerie")
	c2 := store.addCustomer(m2.ID, "Moussa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	_, err := svc.RecordCredit(ctx, m1.ID, c2.ID, dec("50"), time.Time{}, nil, "", "CASH")
	assert.ErrorIs(t, err, ErrCrossTenant)

	_, err = svc.RecordCredit(ctx, m1.ID, 9999, dec("50"), time.Time{}, nil, "", "CASH")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordPaymentWithAllocations(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	credit1, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("100"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)
	credit2, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("40"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)

	p, err := svc.RecordPayment(ctx, m.ID, c.ID, dec("90"), time.Time{}, "versement", "WAVE", []ledger.AllocationLine{
		{CreditID: credit1.ID, Amount: dec("60")},
		{CreditID: credit2.ID, Amount: dec("20")},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.KindPayment, p.Kind)

	r1, err := svc.Remaining(ctx, m.ID, credit1.ID)
	require.NoError(t, err)
	assert.True(t, r1.Equal(dec("40")))
	r2, err := svc.Remaining(ctx, m.ID, credit2.ID)
	require.NoError(t, err)
	assert.True(t, r2.Equal(dec("20")))
}

func TestRecordPaymentAllowsUnallocatedPortion(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	_, err := svc.RecordPayment(ctx, m.ID, c.ID, dec("25"), time.Time{}, "avance", "CASH", nil)
	require.NoError(t, err)

	balance, err := (&fakeLedgerRepo{s: store}).CustomerBalance(ctx, m.ID, c.ID, nil, nil)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("-25")))
}

func TestRecordPaymentRejectsAllocationsExceedingPayment(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	credit, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("100"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, m.ID, c.ID, dec("50"), time.Time{}, "", "CASH", []ledger.AllocationLine{
		{CreditID: credit.ID, Amount: dec("60")},
	})
	assert.ErrorIs(t, err, ErrOverAllocation)

	// Nothing was written.
	assert.Len(t, store.postings, 1)
	assert.Empty(t, store.allocations)
}

func TestRecordPaymentRejectsAllocationBeyondRemaining(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	credit, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("100"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, m.ID, c.ID, dec("70"), time.Time{}, "", "CASH", []ledger.AllocationLine{
		{CreditID: credit.ID, Amount: dec("70")},
	})
	require.NoError(t, err)

	// Only 30 of the credit is left; allocating 40 more must fail atomically.
	_, err = svc.RecordPayment(ctx, m.ID, c.ID, dec("40"), time.Time{}, "", "CASH", []ledger.AllocationLine{
		{CreditID: credit.ID, Amount: dec("40")},
	})
	assert.ErrorIs(t, err, ErrOverAllocation)

	remaining, err := svc.Remaining(ctx, m.ID, credit.ID)
	require.NoError(t, err)
	assert.True(t, remaining.Equal(dec("30")))
	assert.Len(t, store.postings, 2)
}

func TestRecordPaymentRejectsWholeBatchWhenOneLineIsBad(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	credit, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("100"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, m.ID, c.ID, dec("100"), time.Time{}, "", "CASH", []ledger.AllocationLine{
		{CreditID: credit.ID, Amount: dec("10")},
		{CreditID: 9999, Amount: dec("10")},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, store.postings, 1)
	assert.Empty(t, store.allocations)
}

func TestRecordPaymentRejectsAllocationToPayment(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	payment, err := svc.RecordPayment(ctx, m.ID, c.ID, dec("20"), time.Time{}, "", "CASH", nil)
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, m.ID, c.ID, dec("10"), time.Time{}, "", "CASH", []ledger.AllocationLine{
		{CreditID: payment.ID, Amount: dec("10")},
	})
	assert.ErrorIs(t, err, ErrNotACredit)
}

func TestRecordPaymentRejectsCrossTenantCredit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m1 := store.addMerchant("boutique")
	m2 := store.addMerchant("epicerie")
	c1 := store.addCustomer(m1.ID, "Awa", "", "")
	c2 := store.addCustomer(m2.ID, "Moussa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	foreignCredit, err := svc.RecordCredit(ctx, m2.ID, c2.ID, dec("100"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, m1.ID, c1.ID, dec("50"), time.Time{}, "", "CASH", []ledger.AllocationLine{
		{CreditID: foreignCredit.ID, Amount: dec("50")},
	})
	assert.ErrorIs(t, err, ErrCrossTenant)
	assert.Empty(t, store.allocations)
}

func TestCreditsWithRemainingExcludesSettled(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := store.addMerchant("boutique")
	c := store.addCustomer(m.ID, "Awa", "", "")
	svc := newLedgerService(store, date(2024, time.January, 5))

	settled, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("30"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)
	open, err := svc.RecordCredit(ctx, m.ID, c.ID, dec("80"), time.Time{}, nil, "", "CASH")
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, m.ID, c.ID, dec("50"), time.Time{}, "", "CASH", []ledger.AllocationLine{
		{CreditID: settled.ID, Amount: dec("30")},
		{CreditID: open.ID, Amount: dec("20")},
	})
	require.NoError(t, err)

	credits, err := svc.CreditsWithRemaining(ctx, m.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, open.ID, credits[0].Credit.ID)
	assert.True(t, credits[0].Remaining.Equal(dec("60")))
}
