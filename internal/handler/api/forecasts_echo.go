package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	icache "StockPulse/internal/service/cache"
	"StockPulse/internal/service/metrics"
	"StockPulse/internal/service/ratelimit"
	pkgcache "StockPulse/pkg/cache"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Querier is the read side the handler serves from.
type Querier interface {
	Symbols(ctx context.Context) ([]string, error)
	Predictions(ctx context.Context, symbol, stage string) ([]models.PredictionRow, error)
	Metrics(ctx context.Context, symbol, kind string) (*models.StoredMetrics, error)
	Forecast(ctx context.Context, symbol string, horizon int) ([]models.ForecastRow, error)
	Health(ctx context.Context) error
}

// Options tunes caching and per-client rate limiting.
type Options struct {
	CacheTTL     time.Duration
	RateCapacity float64
	RatePerSec   float64
}

// ForecastsHandler serves stored predictions, metrics and on-demand forecasts.
type ForecastsHandler struct {
	logger *xlogger.Logger
	q      Querier
	cache  icache.BytesCache
	rl     *ratelimit.Limiter
	opts   Options
}

// NewForecastsHandler creates the handler. cache may be nil to disable response caching.
func NewForecastsHandler(logger *xlogger.Logger, q Querier, cache icache.BytesCache, rl *ratelimit.Limiter, opts Options) *ForecastsHandler {
	metrics.Register()
	return &ForecastsHandler{logger: logger, q: q, cache: cache, rl: rl, opts: opts}
}

func (h *ForecastsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/symbols", h.Symbols)
	g.GET("/predictions", h.Predictions)
	g.GET("/metrics", h.Metrics)
	g.GET("/forecast", h.Forecast)
}

func (h *ForecastsHandler) Symbols(c echo.Context) error {
	return h.serve(c, "symbols", "", "symbols", func(ctx context.Context) (interface{}, error) {
		syms, err := h.q.Symbols(ctx)
		if err != nil {
			return nil, err
		}
		return &xhttp.ListDataResponse{Rows: syms, Total: int64(len(syms))}, nil
	})
}

func (h *ForecastsHandler) Predictions(c echo.Context) error {
	req := &models.PredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym := normalizeSymbol(req.Symbol)
	return h.serve(c, "predictions", sym, pkgcache.GenerateKeyWithParams("predictions", sym, req.Stage), func(ctx context.Context) (interface{}, error) {
		rows, err := h.q.Predictions(ctx, sym, req.Stage)
		if err != nil {
			return nil, err
		}
		return &xhttp.ListDataResponse{Rows: rows, Total: int64(len(rows))}, nil
	})
}

func (h *ForecastsHandler) Metrics(c echo.Context) error {
	req := &models.MetricsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym := normalizeSymbol(req.Symbol)
	return h.serve(c, "metrics", sym, pkgcache.GenerateKeyWithParams("metrics", sym, req.Kind), func(ctx context.Context) (interface{}, error) {
		return h.q.Metrics(ctx, sym, req.Kind)
	})
}

func (h *ForecastsHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sym := normalizeSymbol(req.Symbol)
	key := pkgcache.GenerateKeyWithParams("forecast", sym, req.Horizon)
	return h.serve(c, "forecast", sym, key, func(ctx context.Context) (interface{}, error) {
		return h.q.Forecast(ctx, sym, req.Horizon)
	})
}

func (h *ForecastsHandler) Health(c echo.Context) error {
	if err := h.q.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// serve applies rate limiting and the response cache around load.
func (h *ForecastsHandler) serve(c echo.Context, endpoint, symbol, key string, load func(ctx context.Context) (interface{}, error)) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if h.rl != nil && !h.rl.Allow(c.RealIP()+":"+endpoint, h.opts.RateCapacity, h.opts.RatePerSec) {
		h.logger.Warn("api rate_limited", xlogger.String("endpoint", endpoint), xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
	}

	ctx := c.Request().Context()
	if h.cache != nil {
		b, ok, err := h.cache.GetBytes(ctx, key)
		if err != nil {
			h.logger.Warn("api cache_get_error", xlogger.String("key", key), xlogger.Error(err))
		} else if ok {
			metrics.APICacheHits.WithLabelValues(endpoint).Inc()
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	data, err := load(ctx)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		appErr := toAppError(err, symbol)
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("api usecase error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}

	b, err := json.Marshal(xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: data})
	if err != nil {
		h.logger.Error("api marshal_error", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil && h.opts.CacheTTL > 0 {
		if err := h.cache.SetBytes(ctx, key, b, h.opts.CacheTTL); err != nil {
			h.logger.Warn("api cache_set_error", xlogger.String("key", key), xlogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, b)
}

func toAppError(err error, symbol string) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrArtifactNotFound):
		return xhttp.NotFoundErrorf("no trained model for %s", symbol).WithParam("symbol", symbol).WithError(err)
	case errors.Is(err, models.ErrNoPredictions):
		return xhttp.NotFoundErrorf("no stored results for %s", symbol).WithParam("symbol", symbol).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError("insufficient history").WithParam("symbol", symbol).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
