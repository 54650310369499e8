package forecast

import (
	"time"

	"StockPulse/internal/domain/models"
)

// NextBusinessDay returns the first weekday strictly after t. Holidays are not modelled.
func NextBusinessDay(t time.Time) time.Time {
	d := models.Day(t).AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
