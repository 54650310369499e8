package repository

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

// BarSource fetches daily bars from a market data vendor.
type BarSource interface {
	Name() string
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

type HistoryPublisher interface {
	PublishHistory(ctx context.Context, h *models.SymbolHistory) error
	Close() error
}

// BarStore persists daily bars. Upserts replace bars with the same symbol and date.
type BarStore interface {
	Init(ctx context.Context) error
	UpsertBars(ctx context.Context, symbol string, bars []models.PriceBar) error
	LoadBars(ctx context.Context, symbol string) ([]models.PriceBar, error)
	Symbols(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
}

// ForecastStore persists prediction tables and metric reports per run.
type ForecastStore interface {
	SavePredictions(ctx context.Context, rows []models.StoredPrediction) error
	// LatestPredictions returns the rows of the most recent run for symbol and stage.
	LatestPredictions(ctx context.Context, symbol, stage string) ([]models.PredictionRow, error)
	SaveMetrics(ctx context.Context, m *models.StoredMetrics) error
	LatestMetrics(ctx context.Context, symbol, kind string) (*models.StoredMetrics, error)
	// DeletePredictions and DeleteMetrics remove what a single run wrote, for rolling back a failed stage.
	DeletePredictions(ctx context.Context, symbol, stage, runID string) error
	DeleteMetrics(ctx context.Context, symbol, kind, runID string) error
}

// ArtifactStore keeps the latest fitted artifact per symbol.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, symbol string, b models.ArtifactBlobs) error
	// LoadArtifact returns models.ErrArtifactNotFound when nothing has been saved.
	LoadArtifact(ctx context.Context, symbol string) (models.ArtifactBlobs, error)
	// Lock takes a per-symbol training lock. ok is false when someone else holds it.
	Lock(ctx context.Context, symbol string, ttl time.Duration) (release func(), ok bool, err error)
}

type Metrics interface {
	RecordStage(stage, symbol string, ok bool)
	RecordBarsStored(symbol string, n int)
	RecordError(kind string)
	RecordLastForecast(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
