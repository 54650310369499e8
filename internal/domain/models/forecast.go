package models

import "time"

// ForecastRow is one recursive forecast step.
type ForecastRow struct {
	Date           time.Time `json:"date"`
	PredictedClose float64   `json:"predicted_close"`
}

// PredictionRow is one line of the prediction table. Forecast rows carry only Predicted.
type PredictionRow struct {
	Date               time.Time `json:"date"`
	Actual             *float64  `json:"actual"`
	Predicted          float64   `json:"predicted"`
	Error              *float64  `json:"error"`
	ErrorPct           *float64  `json:"error_pct"`
	DirectionActual    *int      `json:"direction_actual"`
	DirectionPredicted *int      `json:"direction_predicted"`
}

// IsForecast reports whether the row has no observed value.
func (p PredictionRow) IsForecast() bool { return p.Actual == nil }

// StoredPrediction is a prediction row persisted for a symbol and run.
type StoredPrediction struct {
	Symbol string `json:"symbol"`
	RunID  string `json:"run_id"`
	Stage  string `json:"stage"` // "test" | "predict"
	PredictionRow
}
