// Package testutil holds deterministic fixtures shared by package tests.
package testutil

import (
	"math"
	"math/rand"
	"time"

	"StockPulse/internal/domain/models"
)

// Start is a Monday.
var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// BusinessDays returns n weekdays starting at from (inclusive when from is a weekday).
func BusinessDays(from time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := from; len(out) < n; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

// SyntheticBars returns a noisy oscillating series on business days.
func SyntheticBars(n int, seed int64) []models.PriceBar {
	rng := rand.New(rand.NewSource(seed))
	days := BusinessDays(Start, n)
	out := make([]models.PriceBar, n)
	for i := range out {
		fi := float64(i)
		c := 100 + 10*math.Sin(fi/5) + 0.1*fi + rng.Float64()
		o := c * (1 + 0.004*(rng.Float64()-0.5))
		out[i] = models.PriceBar{
			Date:   days[i],
			Open:   o,
			High:   math.Max(o, c) * 1.01,
			Low:    math.Min(o, c) * 0.99,
			Close:  c,
			Volume: 1e6 + 1e5*math.Sin(fi/3) + 1e4*rng.Float64(),
		}
	}
	return out
}

// LinearBars returns bars whose close is 10+i with a fixed 1 point range.
func LinearBars(n int) []models.PriceBar {
	days := BusinessDays(Start, n)
	out := make([]models.PriceBar, n)
	for i := range out {
		c := 10 + float64(i)
		out[i] = models.PriceBar{Date: days[i], Open: c - 0.5, High: c + 0.5, Low: c - 1, Close: c, Volume: 1000 + float64(i)}
	}
	return out
}

// FlatBars returns bars with constant prices.
func FlatBars(n int, price float64) []models.PriceBar {
	days := BusinessDays(Start, n)
	out := make([]models.PriceBar, n)
	for i := range out {
		out[i] = models.PriceBar{Date: days[i], Open: price, High: price, Low: price, Close: price, Volume: 500}
	}
	return out
}
