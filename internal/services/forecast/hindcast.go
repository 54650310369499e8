package forecast

import (
	"fmt"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/evaluation"
)

// DefaultHindcastWindow is the number of trailing observed rows re-predicted before forecasting.
const DefaultHindcastWindow = 31

// Hindcast predicts the last window rows of an observed history and tabulates errors.
func Hindcast(rows []models.FeatureRow, p Predictor, window int) ([]models.PredictionRow, error) {
	if window < 1 {
		return nil, fmt.Errorf("hindcast: window must be positive, got %d", window)
	}
	if len(rows) == 0 {
		return nil, &models.InsufficientDataError{Stage: "hindcast", Need: 1, Have: 0}
	}
	tail := rows[max(len(rows)-window, 0):]

	bars := make([]models.PriceBar, len(tail))
	preds := make([]float64, len(tail))
	for i, r := range tail {
		pred, err := p.Predict(r)
		if err != nil {
			return nil, fmt.Errorf("hindcast %s: %w", r.Date.Format(models.DateLayout), err)
		}
		bars[i] = r.PriceBar
		preds[i] = pred
	}
	return evaluation.Table(bars, preds), nil
}

// Result is a hindcast table followed by forecast rows, plus metrics over the hindcast portion.
type Result struct {
	Rows     []models.PredictionRow
	Forecast []models.ForecastRow
	Metrics  models.MetricsReport
}

// Run hindcasts the trailing window and then forecasts horizon days ahead.
func (f *Forecaster) Run(rows []models.FeatureRow, p Predictor, window, horizon int) (*Result, error) {
	observed, err := Hindcast(rows, p, window)
	if err != nil {
		return nil, err
	}
	ahead, err := f.Forecast(rows, p, horizon)
	if err != nil {
		return nil, err
	}

	actual := make([]float64, len(observed))
	predicted := make([]float64, len(observed))
	for i, r := range observed {
		actual[i] = *r.Actual
		predicted[i] = r.Predicted
	}
	return &Result{
		Rows:     append(observed, evaluation.ForecastTable(ahead)...),
		Forecast: ahead,
		Metrics:  evaluation.Aligned(actual, predicted),
	}, nil
}
