package app

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"payflow/internal/domain/customer"
	"payflow/internal/domain/ledger"
	"payflow/internal/domain/merchant"
	"payflow/internal/domain/notify"
	"payflow/internal/domain/reminder"
	idb "payflow/internal/infra/database"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// fakeStore is a single in-memory backing store shared by the fake
// repositories, so cross-repository invariants (allocation locking, the
// reminder dedup constraint) behave like the real schema.
type fakeStore struct {
	mu sync.Mutex

	merchants     map[int64]*merchant.Merchant
	customers     map[int64]*customer.Customer
	postings      map[int64]*ledger.Posting
	allocations   []*ledger.Allocation
	settings      map[int64]*reminder.Settings
	reminders     []*reminder.Record
	notifications []*notify.Notification
	outbound      map[int64]*notify.Outbound
	preferences   map[[2]int64]*notify.Preferences

	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		merchants:   make(map[int64]*merchant.Merchant),
		customers:   make(map[int64]*customer.Customer),
		postings:    make(map[int64]*ledger.Posting),
		settings:    make(map[int64]*reminder.Settings),
		outbound:    make(map[int64]*notify.Outbound),
		preferences: make(map[[2]int64]*notify.Preferences),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addMerchant(name string) *merchant.Merchant {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &merchant.Merchant{ID: s.id(), Name: name, Email: name + "@example.com", CreatedAt: time.Now()}
	s.merchants[m.ID] = m
	return m
}

func (s *fakeStore) addCustomer(merchantID int64, name, phone, email string) *customer.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &customer.Customer{ID: s.id(), MerchantID: merchantID, Name: name}
	if phone != "" {
		c.Phone.String, c.Phone.Valid = phone, true
	}
	if email != "" {
		c.Email.String, c.Email.Valid = email, true
	}
	s.customers[c.ID] = c
	return c
}

func (s *fakeStore) allocatedLocked(creditID int64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range s.allocations {
		if a.CreditID == creditID {
			total = total.Add(a.AllocatedAmount)
		}
	}
	return total
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

// --- ledger.Repository ---

type fakeLedgerRepo struct{ s *fakeStore }

func (r *fakeLedgerRepo) CreateCredit(_ context.Context, p *ledger.Posting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.id()
	p.CreatedAt = time.Now()
	r.s.postings[p.ID] = p
	return nil
}

func (r *fakeLedgerRepo) CreatePaymentWithAllocations(_ context.Context, p *ledger.Posting, allocations []*ledger.Allocation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// Validate every line before writing anything, like the rolled-back
	// transaction would. Lines against the same credit accumulate.
	requested := make(map[int64]decimal.Decimal)
	for _, a := range allocations {
		creditPosting, ok := r.s.postings[a.CreditID]
		if !ok || creditPosting.Kind != ledger.KindCredit ||
			creditPosting.MerchantID != p.MerchantID || creditPosting.CustomerID != p.CustomerID {
			return idb.ErrPostingNotFound
		}
		total, ok := requested[a.CreditID]
		if !ok {
			total = decimal.Zero
		}
		requested[a.CreditID] = total.Add(a.AllocatedAmount)
	}
	for creditID, total := range requested {
		remaining := r.s.postings[creditID].Amount.Sub(r.s.allocatedLocked(creditID))
		if total.GreaterThan(remaining) {
			return idb.ErrOverAllocation
		}
	}

	p.ID = r.s.id()
	p.CreatedAt = time.Now()
	r.s.postings[p.ID] = p
	for _, a := range allocations {
		a.ID = r.s.id()
		a.PaymentID = p.ID
		a.CreatedAt = time.Now()
		r.s.allocations = append(r.s.allocations, a)
	}
	return nil
}

func (r *fakeLedgerRepo) GetPosting(_ context.Context, id int64) (*ledger.Posting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.postings[id]
	if !ok {
		return nil, idb.ErrPostingNotFound
	}
	return p, nil
}

func (r *fakeLedgerRepo) ListByMerchant(_ context.Context, merchantID int64, from, to *time.Time) ([]*ledger.Posting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*ledger.Posting, 0)
	for _, p := range r.s.postings {
		if p.MerchantID == merchantID && inRange(p.PostedDate, from, to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PostedDate.Equal(out[j].PostedDate) {
			return out[i].PostedDate.After(out[j].PostedDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *fakeLedgerRepo) ListCreditsByMerchantAndCustomer(_ context.Context, merchantID, customerID int64) ([]*ledger.Posting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*ledger.Posting, 0)
	for _, p := range r.s.postings {
		if p.MerchantID == merchantID && p.CustomerID == customerID && p.Kind == ledger.KindCredit {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeLedgerRepo) ListCreditsByMerchantAndDueDate(_ context.Context, merchantID int64, dueDate time.Time) ([]*ledger.Posting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*ledger.Posting, 0)
	for _, p := range r.s.postings {
		if p.MerchantID == merchantID && p.Kind == ledger.KindCredit &&
			p.DueDate.Valid && DateOf(p.DueDate.Time).Equal(dueDate) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeLedgerRepo) AllocatedAmount(_ context.Context, creditID int64) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.allocatedLocked(creditID), nil
}

func (r *fakeLedgerRepo) CustomerBalance(_ context.Context, merchantID, customerID int64, from, to *time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	balance := decimal.Zero
	for _, p := range r.s.postings {
		if p.MerchantID != merchantID || p.CustomerID != customerID || !inRange(p.PostedDate, from, to) {
			continue
		}
		if p.Kind == ledger.KindCredit {
			balance = balance.Add(p.Amount)
		} else {
			balance = balance.Sub(p.Amount)
		}
	}
	return balance, nil
}

func (r *fakeLedgerRepo) CustomerBalances(_ context.Context, merchantID int64, from, to *time.Time) (map[int64]decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	balances := make(map[int64]decimal.Decimal)
	for _, p := range r.s.postings {
		if p.MerchantID != merchantID || !inRange(p.PostedDate, from, to) {
			continue
		}
		b, ok := balances[p.CustomerID]
		if !ok {
			b = decimal.Zero
		}
		if p.Kind == ledger.KindCredit {
			balances[p.CustomerID] = b.Add(p.Amount)
		} else {
			balances[p.CustomerID] = b.Sub(p.Amount)
		}
	}
	return balances, nil
}

func (r *fakeLedgerRepo) SumPayments(_ context.Context, merchantID int64, from, to *time.Time) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.s.postings {
		if p.MerchantID == merchantID && p.Kind == ledger.KindPayment && inRange(p.PostedDate, from, to) {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// --- merchant.Repository ---

type fakeMerchantRepo struct{ s *fakeStore }

func (r *fakeMerchantRepo) Create(_ context.Context, m *merchant.Merchant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	r.s.merchants[m.ID] = m
	return nil
}

func (r *fakeMerchantRepo) GetByID(_ context.Context, id int64) (*merchant.Merchant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.merchants[id]
	if !ok {
		return nil, idb.ErrMerchantNotFound
	}
	return m, nil
}

func (r *fakeMerchantRepo) ListAll(_ context.Context) ([]*merchant.Merchant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*merchant.Merchant, 0, len(r.s.merchants))
	for _, m := range r.s.merchants {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMerchantRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.merchants[id]; !ok {
		return idb.ErrMerchantNotFound
	}
	delete(r.s.merchants, id)
	return nil
}

// --- customer.Repository ---

type fakeCustomerRepo struct{ s *fakeStore }

func (r *fakeCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	r.s.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, idb.ErrCustomerNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) ListByMerchant(_ context.Context, merchantID int64) ([]*customer.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*customer.Customer, 0)
	for _, c := range r.s.customers {
		if c.MerchantID == merchantID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCustomerRepo) CountByMerchant(_ context.Context, merchantID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, c := range r.s.customers {
		if c.MerchantID == merchantID {
			count++
		}
	}
	return count, nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[id]; !ok {
		return idb.ErrCustomerNotFound
	}
	delete(r.s.customers, id)
	return nil
}

// --- reminder.Repository ---

type fakeReminderRepo struct{ s *fakeStore }

func (r *fakeReminderRepo) GetSettings(_ context.Context, merchantID int64) (*reminder.Settings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s, ok := r.s.settings[merchantID]
	if !ok {
		return nil, idb.ErrSettingsNotFound
	}
	return s, nil
}

func (r *fakeReminderRepo) UpsertSettings(_ context.Context, s *reminder.Settings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	s.UpdatedAt = time.Now()
	r.s.settings[s.MerchantID] = s
	return nil
}

func (r *fakeReminderRepo) Exists(_ context.Context, merchantID, customerID int64, dueDate time.Time, level int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.reminderExistsLocked(merchantID, customerID, dueDate, level), nil
}

func (r *fakeReminderRepo) reminderExistsLocked(merchantID, customerID int64, dueDate time.Time, level int) bool {
	for _, rec := range r.s.reminders {
		if rec.MerchantID == merchantID && rec.CustomerID == customerID &&
			rec.DueDate.Equal(dueDate) && rec.Level == level {
			return true
		}
	}
	return false
}

func (r *fakeReminderRepo) CreateReminderBundle(_ context.Context, n *notify.Notification, out *notify.Outbound, rec *reminder.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.reminderExistsLocked(rec.MerchantID, rec.CustomerID, rec.DueDate, rec.Level) {
		return idb.ErrDuplicateReminder
	}
	rec.ID = r.s.id()
	rec.SentAt = time.Now()
	r.s.reminders = append(r.s.reminders, rec)

	n.ID = r.s.id()
	n.CreatedAt = time.Now()
	r.s.notifications = append(r.s.notifications, n)

	out.ID = r.s.id()
	out.CreatedAt = time.Now()
	r.s.outbound[out.ID] = out
	return nil
}

// --- notify.Repository ---

type fakeNotifyRepo struct{ s *fakeStore }

func (r *fakeNotifyRepo) CreateNotification(_ context.Context, n *notify.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	n.CreatedAt = time.Now()
	r.s.notifications = append(r.s.notifications, n)
	return nil
}

func (r *fakeNotifyRepo) ListNotificationsByMerchant(_ context.Context, merchantID int64, limit int) ([]*notify.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*notify.Notification, 0)
	for _, n := range r.s.notifications {
		if n.MerchantID == merchantID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotifyRepo) CreateOutbound(_ context.Context, out *notify.Outbound) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out.ID = r.s.id()
	out.CreatedAt = time.Now()
	r.s.outbound[out.ID] = out
	return nil
}

func (r *fakeNotifyRepo) ListPendingOutbound(_ context.Context, limit int) ([]*notify.Outbound, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*notify.Outbound, 0)
	for _, o := range r.s.outbound {
		if o.Status == notify.StatusPending {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotifyRepo) MarkOutboundSent(_ context.Context, id int64, sentAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.outbound[id]
	if !ok {
		return idb.ErrOutboundNotFound
	}
	o.Status = notify.StatusSent
	o.SentAt.Time, o.SentAt.Valid = sentAt, true
	o.ErrorMessage.Valid = false
	return nil
}

func (r *fakeNotifyRepo) MarkOutboundFailed(_ context.Context, id int64, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.outbound[id]
	if !ok {
		return idb.ErrOutboundNotFound
	}
	o.Status = notify.StatusFailed
	o.ErrorMessage.String, o.ErrorMessage.Valid = reason, true
	return nil
}

func (r *fakeNotifyRepo) RequeueFailed(_ context.Context, merchantID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.outbound[id]
	if !ok || o.MerchantID != merchantID || o.Status != notify.StatusFailed {
		return idb.ErrOutboundNotFound
	}
	o.Status = notify.StatusPending
	o.ErrorMessage.Valid = false
	return nil
}

func (r *fakeNotifyRepo) GetPreferences(_ context.Context, merchantID, customerID int64) (*notify.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.preferences[[2]int64{merchantID, customerID}]
	if !ok {
		return nil, idb.ErrPreferencesNotFound
	}
	return p, nil
}

func (r *fakeNotifyRepo) UpsertPreferences(_ context.Context, p *notify.Preferences) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.preferences[[2]int64{p.MerchantID, p.CustomerID}] = p
	return nil
}

// --- test helpers ---

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
