// internal/domain/reminder/record.go
package reminder

import "time"

// Type distinguishes the two reminder wordings.
type Type string

const (
	TypeDueSoon Type = "DUE_SOON"
	TypeOverdue Type = "OVERDUE"
)

// Levels of the reminder escalation.
const (
	LevelDueSoon  = 1
	LevelOverdue1 = 2
	LevelOverdue2 = 3
)

// Record is one row of reminder history. The unique constraint on
// (merchant_id, customer_id, due_date, reminder_level) is the only
// anti-duplication mechanism: a reminder exists exactly once per key.
// Corresponds to the 'payment_reminders' table.
type Record struct {
	ID         int64
	MerchantID int64
	CustomerID int64
	DueDate    time.Time
	Level      int
	Type       Type
	SentAt     time.Time
}

// LevelTarget is one evaluation step of a merchant's daily reminder run: all
// credits due exactly on TargetDueDate are candidates for a Level reminder.
type LevelTarget struct {
	Level         int
	Type          Type
	TargetDueDate time.Time
}

// Plan expands a merchant's settings into the level targets to evaluate today,
// in level order. A disabled merchant yields no targets. Level 1 always runs;
// the overdue tiers are skipped when their day offset is not positive.
func Plan(s *Settings, today time.Time) []LevelTarget {
	if !s.Enabled {
		return nil
	}

	targets := []LevelTarget{
		{Level: LevelDueSoon, Type: TypeDueSoon, TargetDueDate: today.AddDate(0, 0, -s.DueSoonDaysBefore)},
	}
	if s.OverdueDays1 > 0 {
		targets = append(targets, LevelTarget{Level: LevelOverdue1, Type: TypeOverdue, TargetDueDate: today.AddDate(0, 0, -s.OverdueDays1)})
	}
	if s.OverdueDays2 > 0 {
		targets = append(targets, LevelTarget{Level: LevelOverdue2, Type: TypeOverdue, TargetDueDate: today.AddDate(0, 0, -s.OverdueDays2)})
	}
	return targets
}
