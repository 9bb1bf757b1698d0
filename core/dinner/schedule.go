package dinner

import "time"

// NextDate returns the next day falling on weekday, starting from now's day.
// When now already falls on weekday but its hour is at or past cutoffHour, the following week is used.
// The result is midnight in now's location.
func NextDate(now time.Time, weekday time.Weekday, cutoffHour int) time.Time {
	daysUntil := (int(weekday) - int(now.Weekday()) + 7) % 7
	if daysUntil == 0 && now.Hour() >= cutoffHour {
		daysUntil = 7
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+daysUntil, 0, 0, 0, 0, now.Location())
}

// nextAfter returns NextDate(now, ...) pushed forward by whole weeks until it is strictly after prev.
func nextAfter(now time.Time, weekday time.Weekday, cutoffHour int, prev time.Time) time.Time {
	date := NextDate(now, weekday, cutoffHour)
	for !date.After(prev) {
		date = date.AddDate(0, 0, 7)
	}
	return date
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
