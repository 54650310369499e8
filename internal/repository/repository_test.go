package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	pkgcache "StockPulse/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArtifactStore(t *testing.T) (*RedisArtifactStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisArtifactStore(pkgcache.NewRedisCacheFromClient(client, "sp"), nil), mr
}

func TestArtifactStoreRoundTrip(t *testing.T) {
	s, mr := newArtifactStore(t)
	ctx := context.Background()

	_, err := s.LoadArtifact(ctx, "AAPL")
	assert.True(t, errors.Is(err, models.ErrArtifactNotFound))

	blobs := models.ArtifactBlobs{Model: []byte("m"), Scaler: []byte("s"), Features: []byte("close\n")}
	require.NoError(t, s.SaveArtifact(ctx, "AAPL", blobs))
	assert.True(t, mr.Exists("sp:models:AAPL:model"))
	assert.True(t, mr.Exists("sp:models:AAPL:features"))

	got, err := s.LoadArtifact(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, blobs, got)
}

func TestArtifactStorePartialIsNotFound(t *testing.T) {
	s, mr := newArtifactStore(t)
	require.NoError(t, mr.Set("sp:models:MSFT:model", "m"))

	_, err := s.LoadArtifact(context.Background(), "MSFT")
	assert.True(t, errors.Is(err, models.ErrArtifactNotFound))
}

func TestArtifactStoreLock(t *testing.T) {
	s, mr := newArtifactStore(t)
	ctx := context.Background()

	release, ok, err := s.Lock(ctx, "AAPL", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("sp:lock:train:AAPL"))

	_, ok, err = s.Lock(ctx, "AAPL", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.False(t, mr.Exists("sp:lock:train:AAPL"))
}

type recordingProducer struct {
	topic string
	key   []byte
	value interface{}
}

func (r *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	r.topic, r.key, r.value = topic, key, value
	return nil
}

func (r *recordingProducer) Close() error { return nil }

func TestHistoryPublisherKeysBySymbol(t *testing.T) {
	prod := &recordingProducer{}
	p := NewKafkaHistoryPublisher(prod, "stock-history")

	h := &models.SymbolHistory{Symbol: "NVDA"}
	require.NoError(t, p.PublishHistory(context.Background(), h))
	assert.Equal(t, "stock-history", prod.topic)
	assert.Equal(t, []byte("NVDA"), prod.key)
	assert.Same(t, h, prod.value)

	assert.Error(t, p.PublishHistory(context.Background(), &models.SymbolHistory{}))
}

func TestPredictionArgsNulls(t *testing.T) {
	actual, up := 10.0, 1
	date := time.Date(2024, 5, 6, 15, 0, 0, 0, time.UTC)
	now := time.Now()

	args := predictionArgs(models.StoredPrediction{
		Symbol: "AAPL", RunID: "r1", Stage: "predict",
		PredictionRow: models.PredictionRow{Date: date, Actual: &actual, Predicted: 11, DirectionActual: &up},
	}, now)

	require.Len(t, args, 11)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), args[3])
	assert.Equal(t, 10.0, args[4])
	assert.Nil(t, args[6])
	assert.Equal(t, int8(1), args[8])
	assert.Nil(t, args[9])
}

func TestMetricsArgsMapNaNToNull(t *testing.T) {
	args := metricsArgs(&models.StoredMetrics{
		Symbol: "AAPL", Kind: "predict", RunID: "r",
		Report: models.MetricsReport{MSE: 1, RMSE: 1, MAE: 1, MAPE: math.NaN(), R2: math.Inf(-1), DirectionAccuracy: 50, Matched: 4},
	})
	require.Len(t, args, 15)
	assert.Nil(t, args[7])
	assert.Nil(t, args[8])
	assert.Equal(t, 50.0, args[9])
	assert.Equal(t, uint32(4), args[10])
	assert.False(t, args[3].(time.Time).IsZero())
}

func TestQualify(t *testing.T) {
	assert.Equal(t, "stockpulse.daily_bars", qualify("stockpulse", "daily_bars"))
	assert.Equal(t, "daily_bars", qualify("", "daily_bars"))
}
