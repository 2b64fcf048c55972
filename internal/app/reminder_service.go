// internal/app/reminder_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"payflow/internal/domain/customer"
	"payflow/internal/domain/ledger"
	"payflow/internal/domain/merchant"
	"payflow/internal/domain/notify"
	"payflow/internal/domain/reminder"
	idb "payflow/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunSummary reports one full reminder generation run across all merchants.
type RunSummary struct {
	RunID            string
	Date             time.Time
	Merchants        int
	MerchantsFailed  int
	RemindersCreated int
	CreditsFailed    int
}

func (s *RunSummary) String() string {
	return fmt.Sprintf("Reminder run %s for %s: %d merchant(s) processed (%d failed), %d reminder(s) created, %d credit(s) failed",
		s.RunID, s.Date.Format("2006-01-02"), s.Merchants, s.MerchantsFailed, s.RemindersCreated, s.CreditsFailed)
}

// Message titles and templates, kept byte-for-byte for compatibility with the
// existing notification feed.
const (
	titleDueSoon = "Paiement à échéance"
	titleOverdue = "Paiement en retard"

	outboundTypeReminder = "REMINDER"
)

// ReminderService evaluates each merchant's reminder policy once a day and
// emits the notification records for due and overdue credits. The run is
// idempotent: re-running it on the same day with unchanged data creates
// nothing new.
type ReminderService struct {
	merchantRepo merchant.Repository
	customerRepo customer.Repository
	ledgerRepo   ledger.Repository
	reminderRepo reminder.Repository
	notifyRepo   notify.Repository
	logger       *logrus.Logger
	clock        Clock
}

func NewReminderService(
	mr merchant.Repository,
	cr customer.Repository,
	lr ledger.Repository,
	rr reminder.Repository,
	nr notify.Repository,
	logger *logrus.Logger,
	clock Clock,
) *ReminderService {
	return &ReminderService{
		merchantRepo: mr,
		customerRepo: cr,
		ledgerRepo:   lr,
		reminderRepo: rr,
		notifyRepo:   nr,
		logger:       logger,
		clock:        clock,
	}
}

// Settings returns the merchant's reminder settings, creating the default row
// on first access. The upsert makes concurrent first accesses converge on one
// row.
func (s *ReminderService) Settings(ctx context.Context, merchantID int64) (*reminder.Settings, error) {
	settings, err := s.reminderRepo.GetSettings(ctx, merchantID)
	if err == nil {
		return settings, nil
	}
	if err != idb.ErrSettingsNotFound {
		return nil, fmt.Errorf("failed to get reminder settings for merchant %d: %w", merchantID, err)
	}

	settings = reminder.DefaultSettings(merchantID)
	if err := s.reminderRepo.UpsertSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to create default reminder settings for merchant %d: %w", merchantID, err)
	}
	s.logger.Infof("Created default reminder settings for merchant %d", merchantID)
	return settings, nil
}

// UpdateSettings validates and stores a merchant's reminder thresholds.
func (s *ReminderService) UpdateSettings(ctx context.Context, settings *reminder.Settings) error {
	if settings.DueSoonDaysBefore < 0 || settings.OverdueDays1 < 0 || settings.OverdueDays2 < 0 {
		return fmt.Errorf("reminder day offsets must not be negative: %w", ErrInvalidSettings)
	}
	if err := s.reminderRepo.UpsertSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to update reminder settings for merchant %d: %w", settings.MerchantID, err)
	}
	return nil
}

// GenerateDailyReminders runs the reminder policy for every merchant. One
// merchant's failure never aborts the others; failures only show up in the
// summary and the log.
func (s *ReminderService) GenerateDailyReminders(ctx context.Context) (*RunSummary, error) {
	today := DateOf(s.clock.Now())
	summary := &RunSummary{
		RunID: uuid.NewString(),
		Date:  today,
	}

	merchants, err := s.merchantRepo.ListAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list merchants: %w", err)
	}

	s.logger.Infof("Reminder run %s starting for %s across %d merchant(s)", summary.RunID, today.Format("2006-01-02"), len(merchants))
	for _, m := range merchants {
		created, failed, err := s.GenerateForMerchant(ctx, m, today)
		summary.Merchants++
		summary.RemindersCreated += created
		summary.CreditsFailed += failed
		if err != nil {
			summary.MerchantsFailed++
			s.logger.Errorf("Reminder run %s: merchant %d failed: %v", summary.RunID, m.ID, err)
			continue
		}
	}
	s.logger.Info(summary.String())
	return summary, nil
}

// GenerateForMerchant runs the per-merchant reminder state machine for the
// given day: one pass over each configured level, in level order. Returns the
// number of reminders created and the number of credits skipped because of
// errors.
func (s *ReminderService) GenerateForMerchant(ctx context.Context, m *merchant.Merchant, today time.Time) (int, int, error) {
	settings, err := s.Settings(ctx, m.ID)
	if err != nil {
		return 0, 0, err
	}
	if !settings.Enabled {
		s.logger.Debugf("Reminders disabled for merchant %d, skipping", m.ID)
		return 0, 0, nil
	}

	var created, failed int
	for _, target := range reminder.Plan(settings, today) {
		c, f := s.handleLevel(ctx, m, target)
		created += c
		failed += f
	}
	return created, failed, nil
}

// handleLevel evaluates one reminder level: every credit of the merchant whose
// due date equals the target date exactly. A credit due on any other date is
// never matched by this level, even if still unpaid. Per-credit failures are
// logged and skipped so one bad row cannot starve the rest of the run.
func (s *ReminderService) handleLevel(ctx context.Context, m *merchant.Merchant, target reminder.LevelTarget) (created, failed int) {
	credits, err := s.ledgerRepo.ListCreditsByMerchantAndDueDate(ctx, m.ID, target.TargetDueDate)
	if err != nil {
		s.logger.Errorf("Failed to list credits for merchant %d due %s: %v", m.ID, target.TargetDueDate.Format("2006-01-02"), err)
		return 0, 0
	}

	for _, credit := range credits {
		ok, err := s.remindCredit(ctx, m, credit, target)
		if err != nil {
			failed++
			s.logger.Errorf("Failed to generate level %d reminder for credit %d (merchant %d, customer %d): %v",
				target.Level, credit.ID, m.ID, credit.CustomerID, err)
			continue
		}
		if ok {
			created++
		}
	}
	return created, failed
}

// remindCredit applies the per-credit checks and, when they pass, writes the
// in-app notification, the PENDING outbound row and the reminder record in one
// store transaction. Returns true when a reminder was created.
func (s *ReminderService) remindCredit(ctx context.Context, m *merchant.Merchant, credit *ledger.Posting, target reminder.LevelTarget) (bool, error) {
	if !credit.DueDate.Valid {
		return false, nil
	}
	dueDate := DateOf(credit.DueDate.Time)

	// Dedup: the reminder history is the idempotence guard for the daily job.
	alreadySent, err := s.reminderRepo.Exists(ctx, m.ID, credit.CustomerID, dueDate, target.Level)
	if err != nil {
		return false, fmt.Errorf("failed to check reminder history: %w", err)
	}
	if alreadySent {
		return false, nil
	}

	// The customer's net position is computed over the whole ledger, not this
	// single credit: a customer who owes nothing overall gets no reminder even
	// if this credit still has allocation-remaining.
	balance, err := s.ledgerRepo.CustomerBalance(ctx, m.ID, credit.CustomerID, nil, nil)
	if err != nil {
		return false, fmt.Errorf("failed to compute customer balance: %w", err)
	}
	if !balance.IsPositive() {
		s.logger.Debugf("Customer %d has no outstanding debt (balance %s), skipping level %d reminder", credit.CustomerID, balance.String(), target.Level)
		return false, nil
	}

	cust, err := s.customerRepo.GetByID(ctx, credit.CustomerID)
	if err != nil {
		return false, fmt.Errorf("failed to look up customer: %w", err)
	}

	prefs, err := s.preferences(ctx, m.ID, cust.ID)
	if err != nil {
		return false, err
	}
	channel := notify.SelectChannel(prefs, cust.Phone.Valid && cust.Phone.String != "", cust.Email.Valid && cust.Email.String != "")

	title := titleDueSoon
	if target.Type == reminder.TypeOverdue {
		title = titleOverdue
	}
	message := buildReminderMessage(credit, cust.Name, target.Type)

	n := &notify.Notification{
		MerchantID: m.ID,
		CustomerID: sql.NullInt64{Int64: cust.ID, Valid: true},
		Title:      title,
		Message:    message,
	}
	out := &notify.Outbound{
		MerchantID: m.ID,
		CustomerID: sql.NullInt64{Int64: cust.ID, Valid: true},
		Channel:    channel,
		Type:       outboundTypeReminder,
		Title:      title,
		Message:    message,
		Status:     notify.StatusPending,
	}
	rec := &reminder.Record{
		MerchantID: m.ID,
		CustomerID: cust.ID,
		DueDate:    dueDate,
		Level:      target.Level,
		Type:       target.Type,
	}

	if err := s.reminderRepo.CreateReminderBundle(ctx, n, out, rec); err != nil {
		if err == idb.ErrDuplicateReminder {
			// Lost a race with a concurrent run; the other writer owns this key.
			s.logger.Debugf("Reminder for merchant %d, customer %d, due %s, level %d already recorded concurrently",
				m.ID, cust.ID, dueDate.Format("2006-01-02"), target.Level)
			return false, nil
		}
		return false, fmt.Errorf("failed to persist reminder bundle: %w", err)
	}

	s.logger.Infof("Level %d %s reminder created for merchant %d, customer %d, credit %d via %s",
		target.Level, target.Type, m.ID, cust.ID, credit.ID, channel)
	return true, nil
}

// preferences returns the customer's channel opt-ins, creating the in-app-only
// default row on first access, mirroring the settings get-or-create.
func (s *ReminderService) preferences(ctx context.Context, merchantID, customerID int64) (*notify.Preferences, error) {
	prefs, err := s.notifyRepo.GetPreferences(ctx, merchantID, customerID)
	if err == nil {
		return prefs, nil
	}
	if err != idb.ErrPreferencesNotFound {
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}

	prefs = notify.DefaultPreferences(merchantID, customerID)
	if err := s.notifyRepo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, fmt.Errorf("failed to create default notification preferences: %w", err)
	}
	return prefs, nil
}

// buildReminderMessage renders the exact reminder wording. The text is
// deterministic in {amount, customer name, due date, type}; downstream
// deliveries and the notification feed must stay in sync on it. Amounts keep
// the two decimals of the stored NUMERIC(18,2), so 80 renders as "80.00".
func buildReminderMessage(credit *ledger.Posting, customerName string, t reminder.Type) string {
	amount := credit.Amount.StringFixed(2)
	dueDate := credit.DueDate.Time.Format("2006-01-02")
	if t == reminder.TypeDueSoon {
		return fmt.Sprintf("Le crédit de %s pour le client %s arrive à échéance le %s.", amount, customerName, dueDate)
	}
	return fmt.Sprintf("Le crédit de %s pour le client %s est en retard depuis le %s.", amount, customerName, dueDate)
}
