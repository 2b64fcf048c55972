// internal/domain/reminder/settings.go
package reminder

import "time"

// Settings holds the per-merchant reminder thresholds.
// Corresponds to the 'reminder_settings' table, one row per merchant.
type Settings struct {
	MerchantID        int64
	DueSoonDaysBefore int  // Level 1: fire on credits due in exactly this many days.
	OverdueDays1      int  // Level 2: fire this many days after the due date. Skipped when <= 0.
	OverdueDays2      int  // Level 3: same, the later tier. Skipped when <= 0.
	Enabled           bool
	UpdatedAt         time.Time
}

// DefaultSettings returns the thresholds a merchant gets before ever touching
// its settings: due-day reminder, then 3 and 7 days overdue, enabled.
func DefaultSettings(merchantID int64) *Settings {
	return &Settings{
		MerchantID:        merchantID,
		DueSoonDaysBefore: 0,
		OverdueDays1:      3,
		OverdueDays2:      7,
		Enabled:           true,
	}
}
