package marketdata

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
)

// New builds the configured provider behind a shared rate limiter.
func New(cfg config.Market, limiter *ratelimit.Limiter) (drepo.BarSource, error) {
	if err := cfg.Credentials(); err != nil {
		return nil, err
	}
	var src drepo.BarSource
	switch cfg.Provider {
	case "finnhub":
		client := xhttp.NewClient(xhttp.WithTimeout(cfg.Finnhub.Timeout))
		src = NewFinnhubProvider(client, cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey)
	case "alpaca":
		src = NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	default:
		return nil, fmt.Errorf("unknown market data provider %q", cfg.Provider)
	}
	return NewThrottled(src, limiter, cfg.RateCapacity, cfg.RatePerSec), nil
}

type unavailable struct {
	name string
	err  error
}

// Unavailable returns a source that fails every fetch with err, so commands that never ingest
// can start without vendor credentials.
func Unavailable(name string, err error) drepo.BarSource {
	return unavailable{name: name, err: err}
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) DailyBars(context.Context, string, time.Time, time.Time) ([]models.PriceBar, error) {
	return nil, u.err
}
