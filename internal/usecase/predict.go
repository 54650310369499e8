package usecase

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/features"
	"StockPulse/internal/services/forecast"
	"StockPulse/internal/services/training"
	"StockPulse/pkg/logger"
)

// PredictUseCase hindcasts the trailing window and forecasts ahead from the stored artifact.
type PredictUseCase struct {
	bars       drepo.BarStore
	artifacts  drepo.ArtifactStore
	forecasts  drepo.ForecastStore
	engine     *features.Engine
	forecaster *forecast.Forecaster
	metrics    drepo.Metrics
	log        *logger.Logger
	window     int
	horizon    int
}

func NewPredictUseCase(
	bars drepo.BarStore,
	artifacts drepo.ArtifactStore,
	forecasts drepo.ForecastStore,
	engine *features.Engine,
	metrics drepo.Metrics,
	log *logger.Logger,
	window, horizon int,
) *PredictUseCase {
	return &PredictUseCase{
		bars:       bars,
		artifacts:  artifacts,
		forecasts:  forecasts,
		engine:     engine,
		forecaster: forecast.NewForecaster(engine),
		metrics:    metrics,
		log:        log,
		window:     window,
		horizon:    horizon,
	}
}

func (u *PredictUseCase) load(ctx context.Context, symbol string) (*training.Artifact, []models.FeatureRow, error) {
	blobs, err := u.artifacts.LoadArtifact(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	art, err := training.DecodeArtifact(blobs)
	if err != nil {
		return nil, nil, err
	}
	bars, err := u.bars.LoadBars(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	return art, u.engine.Derive(bars), nil
}

// Predict runs and stores the prediction table and its hindcast metrics.
func (u *PredictUseCase) Predict(ctx context.Context, symbol, runID string) (*forecast.Result, error) {
	start := time.Now()
	art, rows, err := u.load(ctx, symbol)
	if err != nil {
		return nil, err
	}
	res, err := u.forecaster.Run(rows, art, u.window, u.horizon)
	if err != nil {
		return nil, err
	}

	if err := u.forecasts.SaveMetrics(ctx, &models.StoredMetrics{
		Symbol: symbol, Kind: "predict", RunID: runID, CreatedAt: time.Now().UTC(), Report: res.Metrics,
	}); err != nil {
		return nil, err
	}
	if err := u.forecasts.SavePredictions(ctx, stored(symbol, runID, "predict", res.Rows)); err != nil {
		rollback(ctx, u.forecasts, u.log, symbol, runID, "", "predict")
		return nil, err
	}

	last := res.Forecast[len(res.Forecast)-1]
	u.metrics.RecordLastForecast(symbol, last.PredictedClose)
	u.metrics.RecordLatency("predict", time.Since(start).Seconds())
	u.log.Info("forecast stored",
		logger.Symbol(symbol),
		logger.Int("hindcast_rows", len(res.Rows)-len(res.Forecast)),
		logger.Date("horizon_end", last.Date),
		logger.Float64("predicted_close", last.PredictedClose),
		logger.Float64("hindcast_mae", res.Metrics.MAE),
	)
	return res, nil
}

// Forecast computes an on-demand forecast without persisting it.
func (u *PredictUseCase) Forecast(ctx context.Context, symbol string, horizon int) ([]models.ForecastRow, error) {
	art, rows, err := u.load(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return u.forecaster.Forecast(rows, art, horizon)
}
