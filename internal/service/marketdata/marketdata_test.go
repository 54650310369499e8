package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"StockPulse/internal/service/ratelimit"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinnhubDailyBars(t *testing.T) {
	t1 := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "D", r.URL.Query().Get("resolution"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "secret", r.Header.Get("X-Finnhub-Token"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"s": "ok",
			"t": []int64{t1.Unix(), t2.Unix()},
			"o": []float64{1, 2}, "h": []float64{3, 4}, "l": []float64{0.5, 1.5},
			"c": []float64{2, 3}, "v": []float64{100, 200},
		})
	}))
	defer srv.Close()

	p := NewFinnhubProvider(xhttp.NewClient(xhttp.WithTransport(srv.Client().Transport)), srv.URL, "secret")
	bars, err := p.DailyBars(context.Background(), "AAPL", t1, t2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, t2, bars[1].Date)
	assert.Equal(t, 3.0, bars[1].Close)
	assert.Equal(t, 200.0, bars[1].Volume)
}

func TestFinnhubNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"no_data"}`))
	}))
	defer srv.Close()

	bars, err := NewFinnhubProvider(xhttp.NewClient(), srv.URL, "k").DailyBars(context.Background(), "ZZZZ", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFinnhubRetriesThrottling(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"s":"ok","t":[],"o":[],"h":[],"l":[],"c":[],"v":[]}`))
	}))
	defer srv.Close()

	p := NewFinnhubProvider(xhttp.NewClient(), srv.URL, "k")
	p.backoff = time.Millisecond
	_, err := p.DailyBars(context.Background(), "AAPL", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFinnhubClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFinnhubProvider(xhttp.NewClient(), srv.URL, "k").DailyBars(context.Background(), "AAPL", time.Now(), time.Now())
	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFinnhubRaggedArrays(t *testing.T) {
	_, err := fhCandles{S: "ok", T: []int64{1}, C: []float64{1}}.bars("X")
	assert.Error(t, err)
}

type fakeBars struct {
	req marketdata.GetBarsRequest
}

func (f *fakeBars) GetBars(_ string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	f.req = req
	return []marketdata.Bar{
		{Timestamp: time.Date(2024, 3, 8, 5, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 900},
	}, nil
}

func TestAlpacaDailyBars(t *testing.T) {
	fake := &fakeBars{}
	p := &AlpacaProvider{client: fake}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars, err := p.DailyBars(context.Background(), "MSFT", from, from.AddDate(0, 3, 0))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 900.0, bars[0].Volume)
	assert.Equal(t, marketdata.OneDay, fake.req.TimeFrame)
	assert.Equal(t, marketdata.Split, fake.req.Adjustment)
}

func TestNewRequiresCredentials(t *testing.T) {
	var m config.Market
	m.Provider = "finnhub"
	_, err := New(m, ratelimit.New())
	assert.Error(t, err)

	m.Finnhub.APIKey = "k"
	src, err := New(m, ratelimit.New())
	require.NoError(t, err)
	assert.Equal(t, "finnhub", src.Name())
}

func TestUnavailable(t *testing.T) {
	src := Unavailable("alpaca", errors.New("no key"))
	assert.Equal(t, "alpaca", src.Name())
	_, err := src.DailyBars(context.Background(), "AAPL", time.Now(), time.Now())
	assert.EqualError(t, err, "no key")
}
