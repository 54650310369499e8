package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PriceBar is one trading day of OHLCV data.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// SymbolHistory is the payload exchanged on the history topic.
type SymbolHistory struct {
	Symbol    string     `json:"symbol"`
	Source    string     `json:"source"`
	FetchedAt time.Time  `json:"fetched_at"`
	History   []PriceBar `json:"history"`
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate reports whether every price field is finite and non-negative.
func (b PriceBar) Validate() error {
	for name, v := range map[string]float64{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close, "volume": b.Volume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("bar %s: invalid %s %v", b.Date.Format(DateLayout), name, v)
		}
	}
	return nil
}

// NormalizeBars returns a date-sorted copy with dates truncated to the day.
// When two bars share a date the later one in input order wins.
func NormalizeBars(bars []PriceBar) ([]PriceBar, error) {
	byDay := make(map[time.Time]PriceBar, len(bars))
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		b.Date = Day(b.Date)
		byDay[b.Date] = b
	}
	out := make([]PriceBar, 0, len(byDay))
	for _, b := range byDay {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// DateLayout is the calendar date format used in tables and APIs.
const DateLayout = "2006-01-02"
