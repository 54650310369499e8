package forecast

import (
	"errors"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/services/features"
	"StockPulse/internal/services/training"
	"StockPulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type predictFunc func(models.FeatureRow) (float64, error)

func (f predictFunc) Predict(r models.FeatureRow) (float64, error) { return f(r) }

// nextClose predicts one point above the close it is given.
var nextClose = predictFunc(func(r models.FeatureRow) (float64, error) { return r.Close + 1, nil })

func linearRows(t *testing.T) []models.FeatureRow {
	t.Helper()
	rows := features.MustEngine().Derive(testutil.LinearBars(60))
	require.Len(t, rows, 31)
	return rows
}

func TestNextBusinessDay(t *testing.T) {
	fri := time.Date(2024, 3, 8, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), NextBusinessDay(fri))

	sat := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Monday, NextBusinessDay(sat).Weekday())

	tue := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), NextBusinessDay(tue))
}

func TestForecastCrossesWeekend(t *testing.T) {
	rows := linearRows(t)
	last := rows[len(rows)-1]
	require.Equal(t, time.Friday, last.Date.Weekday())

	out, err := NewForecaster(features.MustEngine()).Forecast(rows, nextClose, 5)
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.Equal(t, last.Date.AddDate(0, 0, 3), out[0].Date)
	for i, r := range out {
		assert.NotEqual(t, time.Saturday, r.Date.Weekday())
		assert.NotEqual(t, time.Sunday, r.Date.Weekday())
		if i > 0 {
			assert.True(t, r.Date.After(out[i-1].Date))
		}
	}
}

func TestForecastFeedsPredictionsBack(t *testing.T) {
	rows := linearRows(t)
	// last close is 69
	out, err := NewForecaster(features.MustEngine()).Forecast(rows, nextClose, 5)
	require.NoError(t, err)

	for i, r := range out {
		assert.InDelta(t, 70.0+float64(i), r.PredictedClose, 1e-12)
	}
}

func TestForecastDoesNotMutateHistory(t *testing.T) {
	rows := linearRows(t)
	before := make([]models.FeatureRow, len(rows))
	for i, r := range rows {
		before[i] = r.WithClose(r.Close)
	}

	_, err := NewForecaster(features.MustEngine()).Forecast(rows, nextClose, 4)
	require.NoError(t, err)

	require.Len(t, rows, len(before))
	for i := range rows {
		assert.Equal(t, before[i].PriceBar, rows[i].PriceBar)
		assert.Equal(t, before[i].Values, rows[i].Values)
	}
}

func TestForecastTraceUsesFittedScaler(t *testing.T) {
	rows := linearRows(t)
	scaler := &training.RobustScaler{Center: []float64{100}, Scale: []float64{10}}
	art := &training.Artifact{
		Model:    &training.Ridge{Alpha: 1, Coef: []float64{10}, Intercept: 100},
		Scaler:   scaler,
		Features: []string{"open"},
	}

	steps, err := NewForecaster(features.MustEngine()).ForecastTrace(rows, art, 2)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	// synthetic open repeats the last open, so (open-100)/10*10+100 == open
	lastOpen := rows[len(rows)-1].Open
	assert.InDelta(t, lastOpen, steps[0].Forecast.PredictedClose, 1e-9)
	assert.InDelta(t, lastOpen, steps[1].Forecast.PredictedClose, 1e-9)
	assert.Equal(t, []float64{100}, scaler.Center)
	assert.Equal(t, steps[0].Forecast.PredictedClose, steps[0].Row.Close)
}

func TestForecastMissingFeature(t *testing.T) {
	art := &training.Artifact{
		Model:    &training.Ridge{Alpha: 1, Coef: []float64{1}},
		Scaler:   &training.RobustScaler{Center: []float64{0}, Scale: []float64{1}},
		Features: []string{"bogus"},
	}

	_, err := NewForecaster(features.MustEngine()).Forecast(linearRows(t), art, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMissingFeature))
}

func TestForecastRejectsBadInput(t *testing.T) {
	f := NewForecaster(features.MustEngine())

	_, err := f.Forecast(linearRows(t), nextClose, 0)
	assert.Error(t, err)

	_, err = f.Forecast(nil, nextClose, 3)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}

func TestCarryForward(t *testing.T) {
	schema := models.NewSchema([]string{"a", "b"})
	prev := models.FeatureRow{Schema: schema, Values: []models.Value{models.Some(1), models.Some(2)}}
	row := models.FeatureRow{Schema: schema, Values: []models.Value{models.Some(5), {}}}

	got, carried := carryForward(row, prev)
	assert.Equal(t, []string{"b"}, carried)
	assert.Equal(t, []models.Value{models.Some(5), models.Some(2)}, got.Values)
}

func TestForecastTraceShortHistoryCarriesFeatures(t *testing.T) {
	e := features.MustEngine()
	rows := e.Compute(testutil.LinearBars(5))
	require.Len(t, rows, 5)
	require.Less(t, len(rows), e.Warmup())

	steps, err := NewForecaster(e).ForecastTrace(rows, nextClose, 4)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	prev := rows[len(rows)-1].Date
	for i, s := range steps {
		assert.NotEmpty(t, s.Carried, "step %d", i)
		assert.Equal(t, NextBusinessDay(prev), s.Forecast.Date, "step %d", i)
		prev = s.Forecast.Date
	}
}

func TestHindcast(t *testing.T) {
	rows := linearRows(t)

	out, err := Hindcast(rows, nextClose, 10)
	require.NoError(t, err)
	require.Len(t, out, 10)

	assert.Equal(t, rows[21].Date, out[0].Date)
	assert.Nil(t, out[0].DirectionActual)
	for _, r := range out {
		assert.InDelta(t, -1.0, *r.Error, 1e-12)
	}
	assert.Equal(t, 1, *out[1].DirectionActual)
	assert.Equal(t, 1, *out[1].DirectionPredicted)

	all, err := Hindcast(rows, nextClose, 100)
	require.NoError(t, err)
	assert.Len(t, all, len(rows))
}

func TestRunAppendsForecastRows(t *testing.T) {
	rows := linearRows(t)

	res, err := NewForecaster(features.MustEngine()).Run(rows, nextClose, DefaultHindcastWindow, 3)
	require.NoError(t, err)

	require.Len(t, res.Rows, 34)
	for _, r := range res.Rows[:31] {
		assert.False(t, r.IsForecast())
	}
	for _, r := range res.Rows[31:] {
		assert.True(t, r.IsForecast())
		assert.Nil(t, r.ErrorPct)
	}
	assert.Len(t, res.Forecast, 3)
	assert.Equal(t, 31, res.Metrics.Matched)
	assert.InDelta(t, 1.0, res.Metrics.MAE, 1e-12)
	assert.InDelta(t, 100.0, res.Metrics.DirectionAccuracy, 1e-12)
}
