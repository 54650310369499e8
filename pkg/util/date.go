package util

import "time"

// LookbackRange returns [now-days, now] truncated to UTC day boundaries.
func LookbackRange(now time.Time, days int) (from, to time.Time) {
	y, m, d := now.UTC().Date()
	to = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, 0, -days), to
}
