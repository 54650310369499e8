package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type forecastQuery struct {
	Symbol  string `query:"symbol" validate:"required,ticker"`
	Horizon int    `query:"horizon" default:"3" validate:"gte=1,lte=30"`
}

func bind(t *testing.T, target string) (*forecastQuery, interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	var q forecastQuery
	return &q, ReadAndValidateRequest(c, &q)
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	q, verr := bind(t, "/api/forecast?symbol=AAPL")
	require.Nil(t, verr)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 3, q.Horizon)
}

func TestReadAndValidateRequestErrors(t *testing.T) {
	_, verr := bind(t, "/api/forecast?horizon=99")
	require.NotNil(t, verr)

	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	codes := map[string]string{}
	for _, e := range errs {
		codes[e.Field] = e.Code
	}
	assert.Equal(t, "ERR_REQUIRED", codes["Symbol"])
	assert.Equal(t, "ERR_LTE", codes["Horizon"])
}

func TestReadAndValidateRequestTicker(t *testing.T) {
	_, verr := bind(t, "/api/forecast?symbol=BRK.B")
	assert.Nil(t, verr)

	_, verr = bind(t, "/api/forecast?symbol=A%24B")
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_TICKER", errs[0].Code)
}

func TestAppErrorResponseStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, NotFoundErrorf("no model for %s", "AAPL")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientSendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "LIMIT" {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
			return
		}
		assert.Equal(t, "k", r.Header.Get("X-Token"))
		_ = json.NewEncoder(w).Encode(map[string]string{"s": r.URL.Query().Get("symbol")})
	}))
	defer srv.Close()

	c := NewClient()
	var out map[string]string
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		Headers:     map[string]string{"X-Token": "k"},
		QueryParams: map[string][]string{"symbol": {"AAPL"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", out["s"])

	err = c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodGet,
		URL:         srv.URL,
		QueryParams: map[string][]string{"symbol": {"LIMIT"}},
	}, &out)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.True(t, se.Retryable())
	assert.Equal(t, "slow down", se.Body)
}
