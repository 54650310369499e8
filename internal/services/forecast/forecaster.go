package forecast

import (
	"fmt"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/features"
)

// Predictor maps a feature row to a predicted close.
type Predictor interface {
	Predict(row models.FeatureRow) (float64, error)
}

// Step is one recursive forecast iteration.
type Step struct {
	Row      models.FeatureRow
	Forecast models.ForecastRow
	// Carried lists features that were undefined for the synthetic bar and copied from the previous row.
	Carried []string
}

// Forecaster extends a feature history one business day at a time, feeding each prediction back as the close.
type Forecaster struct {
	engine *features.Engine
}

func NewForecaster(engine *features.Engine) *Forecaster {
	return &Forecaster{engine: engine}
}

// Forecast returns horizon predicted closes. rows is never modified.
func (f *Forecaster) Forecast(rows []models.FeatureRow, p Predictor, horizon int) ([]models.ForecastRow, error) {
	steps, err := f.ForecastTrace(rows, p, horizon)
	if err != nil {
		return nil, err
	}
	out := make([]models.ForecastRow, len(steps))
	for i, s := range steps {
		out[i] = s.Forecast
	}
	return out, nil
}

// ForecastTrace returns every intermediate row alongside its forecast.
func (f *Forecaster) ForecastTrace(rows []models.FeatureRow, p Predictor, horizon int) ([]Step, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("forecast: horizon must be positive, got %d", horizon)
	}
	if len(rows) == 0 {
		return nil, &models.InsufficientDataError{Stage: "forecast", Need: 1, Have: 0}
	}

	bars := make([]models.PriceBar, len(rows), len(rows)+horizon)
	for i, r := range rows {
		bars[i] = r.PriceBar
	}
	last := rows[len(rows)-1]

	steps := make([]Step, 0, horizon)
	for k := 0; k < horizon; k++ {
		synthetic := models.PriceBar{
			Date:   NextBusinessDay(last.Date),
			Open:   last.Open,
			High:   last.High,
			Low:    last.Low,
			Close:  last.Close,
			Volume: last.Volume,
		}
		bars = append(bars, synthetic)

		row, carried := carryForward(f.engine.ComputeLast(bars), last)
		pred, err := p.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("forecast step %d: %w", k+1, err)
		}

		row = row.WithClose(pred)
		bars[len(bars)-1].Close = pred
		last = row
		steps = append(steps, Step{
			Row:      row,
			Forecast: models.ForecastRow{Date: row.Date, PredictedClose: pred},
			Carried:  carried,
		})
	}
	return steps, nil
}

// carryForward fills undefined values of row from prev.
func carryForward(row, prev models.FeatureRow) (models.FeatureRow, []string) {
	var carried []string
	cols := row.Schema.Columns()
	for i, v := range row.Values {
		if v.Defined || i >= len(prev.Values) {
			continue
		}
		row.Values[i] = prev.Values[i]
		carried = append(carried, cols[i])
	}
	return row, carried
}
