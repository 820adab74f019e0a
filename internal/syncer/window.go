package syncer

import "time"

// Window computes the day-aligned UTC fetch window: midnight of (today -
// pastDays) through the last nanosecond of (today + futureDays). Both
// providers are queried with the identical pair.
func Window(now time.Time, pastDays, futureDays int) (from, to time.Time) {
	day := now.UTC().Truncate(24 * time.Hour)
	from = day.AddDate(0, 0, -pastDays)
	to = day.AddDate(0, 0, futureDays+1).Add(-time.Nanosecond)
	return from, to
}
