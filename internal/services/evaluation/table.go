package evaluation

import "StockPulse/internal/domain/models"

// Table builds the prediction table for observed bars and their predicted closes.
// Direction fields start on the second row. Each side compares against its own previous value,
// so counting matching directions reproduces Aligned's direction accuracy.
func Table(bars []models.PriceBar, predicted []float64) []models.PredictionRow {
	n := min(len(bars), len(predicted))
	rows := make([]models.PredictionRow, n)
	for i := 0; i < n; i++ {
		a, p := bars[i].Close, predicted[i]
		e := a - p
		row := models.PredictionRow{
			Date:      bars[i].Date,
			Actual:    ptr(a),
			Predicted: p,
			Error:     ptr(e),
		}
		if a != 0 {
			row.ErrorPct = ptr(e / a * 100)
		}
		if i > 0 {
			row.DirectionActual = ptr(sign(a - bars[i-1].Close))
			row.DirectionPredicted = ptr(sign(p - predicted[i-1]))
		}
		rows[i] = row
	}
	return rows
}

// ForecastTable renders forecast steps as prediction rows with no observed fields.
func ForecastTable(steps []models.ForecastRow) []models.PredictionRow {
	rows := make([]models.PredictionRow, len(steps))
	for i, s := range steps {
		rows[i] = models.PredictionRow{Date: s.Date, Predicted: s.PredictedClose}
	}
	return rows
}

func ptr[T any](v T) *T { return &v }
