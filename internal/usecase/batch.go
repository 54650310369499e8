package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SymbolFunc runs one stage for one symbol under a batch run id.
type SymbolFunc func(ctx context.Context, symbol, runID string) error

// BatchResult collects per-symbol outcomes. A failed symbol never aborts the batch.
type BatchResult struct {
	RunID     string
	Stage     string
	Succeeded []string
	Failed    map[string]error
	Duration  time.Duration
}

func (r *BatchResult) HasFailures() bool { return len(r.Failed) > 0 }

// Skipped lists failed symbols whose history was too short, as opposed to hard errors.
func (r *BatchResult) Skipped() []string {
	var out []string
	for s, err := range r.Failed {
		if errors.Is(err, models.ErrInsufficientData) {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// BatchRunner fans symbols out to a bounded number of workers.
type BatchRunner struct {
	workers int
	metrics drepo.Metrics
	log     *logger.Logger
	newID   func() string
}

func NewBatchRunner(workers int, metrics drepo.Metrics, log *logger.Logger) *BatchRunner {
	if workers < 1 {
		workers = 1
	}
	return &BatchRunner{workers: workers, metrics: metrics, log: log, newID: uuid.NewString}
}

// Run calls fn for every symbol. Symbols not started before ctx is done fail with ctx.Err().
func (b *BatchRunner) Run(ctx context.Context, stage string, symbols []string, fn SymbolFunc) *BatchResult {
	start := time.Now()
	res := &BatchResult{RunID: b.newID(), Stage: stage, Failed: make(map[string]error)}
	log := b.log.With(logger.String("run_id", res.RunID), logger.String("stage", stage))
	log.Info("batch started", logger.Int("symbols", len(symbols)), logger.Int("workers", b.workers))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(b.workers)
	for _, sym := range symbols {
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = b.runOne(ctx, stage, sym, res.RunID, fn)
			}
			b.metrics.RecordStage(stage, sym, err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed[sym] = err
				if errors.Is(err, models.ErrInsufficientData) {
					log.Warn("symbol skipped", logger.Symbol(sym), logger.Error(err))
				} else {
					log.Error("symbol failed", logger.Symbol(sym), logger.Error(err))
				}
				return nil
			}
			res.Succeeded = append(res.Succeeded, sym)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(res.Succeeded)
	res.Duration = time.Since(start)
	b.metrics.RecordLatency("batch_"+stage, res.Duration.Seconds())
	log.Info("batch finished",
		logger.Int("succeeded", len(res.Succeeded)),
		logger.Int("failed", len(res.Failed)),
		logger.Strings("skipped", res.Skipped()),
		logger.Duration("duration", res.Duration),
	)
	return res
}

func (b *BatchRunner) runOne(ctx context.Context, stage, symbol, runID string, fn SymbolFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.RecordError("panic")
			err = fmt.Errorf("%s %s: panic: %v", stage, symbol, r)
		}
	}()
	return fn(ctx, symbol, runID)
}
