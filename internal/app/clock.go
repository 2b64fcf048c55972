package app

import "time"

// Clock abstracts the current time so the reminder generation and the
// dispatcher can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// DateOf truncates a timestamp to its UTC calendar date. All due dates and
// posted dates are compared at date granularity.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
