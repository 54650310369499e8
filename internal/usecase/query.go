package usecase

import (
	"context"
	"fmt"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
)

// QueryUseCase backs the read API.
type QueryUseCase struct {
	bars      drepo.BarStore
	forecasts drepo.ForecastStore
	predict   *PredictUseCase
}

func NewQueryUseCase(bars drepo.BarStore, forecasts drepo.ForecastStore, predict *PredictUseCase) *QueryUseCase {
	return &QueryUseCase{bars: bars, forecasts: forecasts, predict: predict}
}

func (q *QueryUseCase) Symbols(ctx context.Context) ([]string, error) {
	return q.bars.Symbols(ctx)
}

// Predictions returns models.ErrNoPredictions when the symbol has no stored run for stage.
func (q *QueryUseCase) Predictions(ctx context.Context, symbol, stage string) ([]models.PredictionRow, error) {
	rows, err := q.forecasts.LatestPredictions(ctx, symbol, stage)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", symbol, stage, models.ErrNoPredictions)
	}
	return rows, nil
}

func (q *QueryUseCase) Metrics(ctx context.Context, symbol, kind string) (*models.StoredMetrics, error) {
	return q.forecasts.LatestMetrics(ctx, symbol, kind)
}

func (q *QueryUseCase) Forecast(ctx context.Context, symbol string, horizon int) ([]models.ForecastRow, error) {
	return q.predict.Forecast(ctx, symbol, horizon)
}

func (q *QueryUseCase) Health(ctx context.Context) error {
	return q.bars.Health(ctx)
}
