package usecase

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// IngestUseCase pulls daily history from the market data provider into the bar store and the history topic.
type IngestUseCase struct {
	source      drepo.BarSource
	store       drepo.BarStore
	pub         drepo.HistoryPublisher
	metrics     drepo.Metrics
	log         *logger.Logger
	historyDays int
	minBars     int
	now         func() time.Time
}

// NewIngestUseCase creates an ingest use case. pub may be nil to skip publishing.
func NewIngestUseCase(
	source drepo.BarSource,
	store drepo.BarStore,
	pub drepo.HistoryPublisher,
	metrics drepo.Metrics,
	log *logger.Logger,
	historyDays, minBars int,
) *IngestUseCase {
	return &IngestUseCase{
		source:      source,
		store:       store,
		pub:         pub,
		metrics:     metrics,
		log:         log,
		historyDays: historyDays,
		minBars:     minBars,
		now:         time.Now,
	}
}

// Ingest fetches, stores and publishes one symbol's history. It returns the number of bars stored.
func (u *IngestUseCase) Ingest(ctx context.Context, symbol string) (int, error) {
	start := time.Now()
	from, to := util.LookbackRange(u.now(), u.historyDays)

	raw, err := u.source.DailyBars(ctx, symbol, from, to)
	if err != nil {
		u.metrics.RecordError("fetch")
		return 0, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	bars, err := models.NormalizeBars(raw)
	if err != nil {
		u.metrics.RecordError("normalize")
		return 0, fmt.Errorf("normalize %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return 0, &models.InsufficientDataError{Stage: "ingest", Need: 1, Have: 0}
	}
	if len(bars) < u.minBars {
		u.log.Warn("short history",
			logger.Symbol(symbol),
			logger.Int("bars", len(bars)),
			logger.Int("expected", u.minBars),
		)
	}

	if err := u.store.UpsertBars(ctx, symbol, bars); err != nil {
		u.metrics.RecordError("store")
		return 0, err
	}
	u.metrics.RecordBarsStored(symbol, len(bars))

	if u.pub != nil {
		h := &models.SymbolHistory{
			Symbol:    symbol,
			Source:    u.source.Name(),
			FetchedAt: u.now().UTC(),
			History:   bars,
		}
		if err := u.pub.PublishHistory(ctx, h); err != nil {
			u.metrics.RecordError("publish")
			return len(bars), err
		}
	}

	u.metrics.RecordLatency("ingest", time.Since(start).Seconds())
	u.log.Info("ingested",
		logger.Symbol(symbol),
		logger.Int("bars", len(bars)),
		logger.Date("first", bars[0].Date),
		logger.Date("last", bars[len(bars)-1].Date),
	)
	return len(bars), nil
}
