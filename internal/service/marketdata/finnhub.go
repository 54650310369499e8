package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	xhttp "StockPulse/pkg/http"
)

const DefaultFinnhubURL = "https://finnhub.io/api/v1"

// FinnhubProvider fetches daily candles from the Finnhub REST API.
type FinnhubProvider struct {
	client  *xhttp.Client
	baseURL string
	apiKey  string
	retries int
	backoff time.Duration
}

var _ drepo.BarSource = (*FinnhubProvider)(nil)

func NewFinnhubProvider(client *xhttp.Client, baseURL, apiKey string) *FinnhubProvider {
	if baseURL == "" {
		baseURL = DefaultFinnhubURL
	}
	return &FinnhubProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		retries: 3,
		backoff: time.Second,
	}
}

func (p *FinnhubProvider) Name() string { return "finnhub" }

type fhCandles struct {
	C []float64 `json:"c"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	O []float64 `json:"o"`
	V []float64 `json:"v"`
	T []int64   `json:"t"`
	S string    `json:"s"`
}

// DailyBars returns bars between from and to inclusive. A "no_data" answer yields an empty slice.
func (p *FinnhubProvider) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	opts := &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     p.baseURL + "/stock/candle",
		Headers: map[string]string{"X-Finnhub-Token": p.apiKey},
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
		},
	}

	var out fhCandles
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		err = p.client.SendAndParse(ctx, opts, &out)
		var se *xhttp.StatusError
		if err == nil || !errors.As(err, &se) || !se.Retryable() || attempt == p.retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("finnhub candles %s: %w", symbol, err)
	}
	return out.bars(symbol)
}

func (c fhCandles) bars(symbol string) ([]models.PriceBar, error) {
	switch c.S {
	case "no_data":
		return nil, nil
	case "ok":
	default:
		return nil, fmt.Errorf("finnhub candles %s: status %q", symbol, c.S)
	}
	n := len(c.T)
	if len(c.O) != n || len(c.H) != n || len(c.L) != n || len(c.C) != n || len(c.V) != n {
		return nil, fmt.Errorf("finnhub candles %s: ragged arrays", symbol)
	}
	out := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		out[i] = models.PriceBar{
			Date:   models.Day(time.Unix(c.T[i], 0).UTC()),
			Open:   c.O[i],
			High:   c.H[i],
			Low:    c.L[i],
			Close:  c.C[i],
			Volume: c.V[i],
		}
	}
	return out, nil
}
