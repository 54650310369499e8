package marketdata

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/service/ratelimit"
)

// Throttled shares one token bucket per provider across all symbols.
type Throttled struct {
	drepo.BarSource
	limiter  *ratelimit.Limiter
	capacity float64
	perSec   float64
}

func NewThrottled(src drepo.BarSource, limiter *ratelimit.Limiter, capacity, perSec float64) *Throttled {
	return &Throttled{BarSource: src, limiter: limiter, capacity: capacity, perSec: perSec}
}

func (t *Throttled) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	if err := t.limiter.Wait(ctx, t.Name(), t.capacity, t.perSec); err != nil {
		return nil, err
	}
	return t.BarSource.DailyBars(ctx, symbol, from, to)
}
