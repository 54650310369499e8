package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/evaluation"
	"StockPulse/pkg/logger"
)

// EvaluateUseCase scores the latest stored predictions against the bars currently in the store,
// so forecast rows are graded once their dates have been ingested.
type EvaluateUseCase struct {
	bars      drepo.BarStore
	forecasts drepo.ForecastStore
	metrics   drepo.Metrics
	log       *logger.Logger
}

func NewEvaluateUseCase(bars drepo.BarStore, forecasts drepo.ForecastStore, metrics drepo.Metrics, log *logger.Logger) *EvaluateUseCase {
	return &EvaluateUseCase{bars: bars, forecasts: forecasts, metrics: metrics, log: log}
}

func (u *EvaluateUseCase) Evaluate(ctx context.Context, symbol, runID string) (*models.MetricsReport, error) {
	start := time.Now()
	rows, err := u.forecasts.LatestPredictions(ctx, symbol, "predict")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, models.ErrNoPredictions)
	}
	bars, err := u.bars.LoadBars(ctx, symbol)
	if err != nil {
		return nil, err
	}

	predicted, _ := evaluation.FromPredictionRows(rows)
	actual := make([]evaluation.Point, len(bars))
	for i, b := range bars {
		actual[i] = evaluation.Point{Date: b.Date, Value: b.Close}
	}
	rep := evaluation.Evaluate(predicted, actual)

	if err := u.forecasts.SaveMetrics(ctx, &models.StoredMetrics{
		Symbol: symbol, Kind: "evaluation", RunID: runID, CreatedAt: time.Now().UTC(), Report: rep,
	}); err != nil {
		return nil, err
	}
	u.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	u.log.Info("predictions evaluated",
		logger.Symbol(symbol),
		logger.Int("matched", rep.Matched),
		logger.Int("pending", rep.PredictedOnly),
		logger.Int("correct_directions", rep.CorrectDirections),
		logger.Float64("rmse", rep.RMSE),
	)
	return &rep, nil
}
