package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/services/features"
	"StockPulse/internal/services/partition"
	"StockPulse/internal/services/training"
	"StockPulse/pkg/logger"
)

// ErrTrainingLocked is returned when another process holds the symbol's training lock.
var ErrTrainingLocked = errors.New("training already in progress")

// TrainReport summarizes one symbol's fit.
type TrainReport struct {
	Sizes       partition.Sizes
	Fit         *training.FitReport
	Test        models.MetricsReport
	Predictions int
}

// TrainUseCase fits a model per symbol on a chronological split and stores the artifact.
type TrainUseCase struct {
	bars      drepo.BarStore
	artifacts drepo.ArtifactStore
	forecasts drepo.ForecastStore
	engine    *features.Engine
	policy    partition.Policy
	trainer   *training.Trainer
	metrics   drepo.Metrics
	log       *logger.Logger
	lockTTL   time.Duration
}

func NewTrainUseCase(
	bars drepo.BarStore,
	artifacts drepo.ArtifactStore,
	forecasts drepo.ForecastStore,
	engine *features.Engine,
	policy partition.Policy,
	trainer *training.Trainer,
	metrics drepo.Metrics,
	log *logger.Logger,
) *TrainUseCase {
	return &TrainUseCase{
		bars:      bars,
		artifacts: artifacts,
		forecasts: forecasts,
		engine:    engine,
		policy:    policy,
		trainer:   trainer,
		metrics:   metrics,
		log:       log,
		lockTTL:   10 * time.Minute,
	}
}

// Train fits and persists. A failed save rolls back what the run already wrote.
func (u *TrainUseCase) Train(ctx context.Context, symbol, runID string) (*TrainReport, error) {
	start := time.Now()
	release, ok, err := u.artifacts.Lock(ctx, symbol, u.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrTrainingLocked)
	}
	defer release()

	bars, err := u.bars.LoadBars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	split, err := partition.Partition(bars, u.policy, u.engine)
	if err != nil {
		return nil, err
	}
	if len(split.Test) == 0 {
		return nil, &models.InsufficientDataError{Stage: "test", Need: 1, Have: 0}
	}

	art, fit, err := u.trainer.Fit(split.Train, split.Val)
	if err != nil {
		return nil, err
	}
	held, err := training.EvaluateHeldOut(art, split.Test)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	blobs, err := training.EncodeArtifact(art)
	if err != nil {
		return nil, err
	}

	// the artifact goes last: once it is visible the run counts as committed
	if err := u.forecasts.SavePredictions(ctx, stored(symbol, runID, "test", held.Rows)); err != nil {
		return nil, err
	}
	if err := u.forecasts.SaveMetrics(ctx, &models.StoredMetrics{
		Symbol: symbol, Kind: "train", RunID: runID, CreatedAt: time.Now().UTC(), Report: held.Metrics,
	}); err != nil {
		rollback(ctx, u.forecasts, u.log, symbol, runID, "test", "")
		return nil, err
	}
	if err := u.artifacts.SaveArtifact(ctx, symbol, blobs); err != nil {
		rollback(ctx, u.forecasts, u.log, symbol, runID, "test", "train")
		return nil, err
	}

	u.metrics.RecordLatency("train", time.Since(start).Seconds())
	fields := []logger.Field{
		logger.Symbol(symbol),
		logger.Int("train_rows", fit.TrainRows),
		logger.Int("test_rows", len(split.Test)),
		logger.Float64("test_rmse", held.Metrics.RMSE),
		logger.Float64("test_r2", held.Metrics.R2),
	}
	if fit.Validation != nil {
		fields = append(fields, logger.Float64("val_rmse", fit.Validation.RMSE))
	}
	if split.Sizes.Rebalanced {
		fields = append(fields, logger.Bool("rebalanced", true))
	}
	u.log.Info("model trained", fields...)

	return &TrainReport{Sizes: split.Sizes, Fit: fit, Test: held.Metrics, Predictions: len(held.Rows)}, nil
}

// rollback removes the rows a failed run already wrote. An empty stage or kind is skipped.
func rollback(ctx context.Context, forecasts drepo.ForecastStore, log *logger.Logger, symbol, runID, stage, kind string) {
	ctx = context.WithoutCancel(ctx)
	if stage != "" {
		if err := forecasts.DeletePredictions(ctx, symbol, stage, runID); err != nil {
			log.Error("rollback predictions failed", logger.Symbol(symbol), logger.String("run_id", runID), logger.Error(err))
		}
	}
	if kind != "" {
		if err := forecasts.DeleteMetrics(ctx, symbol, kind, runID); err != nil {
			log.Error("rollback metrics failed", logger.Symbol(symbol), logger.String("run_id", runID), logger.Error(err))
		}
	}
}

func stored(symbol, runID, stage string, rows []models.PredictionRow) []models.StoredPrediction {
	out := make([]models.StoredPrediction, len(rows))
	for i, r := range rows {
		out[i] = models.StoredPrediction{Symbol: symbol, RunID: runID, Stage: stage, PredictionRow: r}
	}
	return out
}
