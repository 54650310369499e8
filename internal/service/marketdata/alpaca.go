package marketdata

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaProvider fetches split-adjusted daily bars from the Alpaca market data API.
type AlpacaProvider struct {
	client barsClient
}

var _ drepo.BarSource = (*AlpacaProvider)(nil)

func NewAlpacaProvider(apiKey, apiSecret, baseURL string) *AlpacaProvider {
	return &AlpacaProvider{client: marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})}
}

func (p *AlpacaProvider) Name() string { return "alpaca" }

// DailyBars ignores ctx cancellation mid-request; the SDK call is synchronous.
func (p *AlpacaProvider) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.Split,
		Start:      from,
		End:        to,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	out := make([]models.PriceBar, len(raw))
	for i, b := range raw {
		out[i] = models.PriceBar{
			Date:   models.Day(b.Timestamp),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		}
	}
	return out, nil
}
