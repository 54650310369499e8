package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("symbols:\n  list: [AAPL, MSFT]\n"))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 4, c.Pipeline.Workers)
	assert.Equal(t, 3, c.Pipeline.Horizon)
	assert.Equal(t, 31, c.Pipeline.EvalWindow)
	assert.Equal(t, 1.0, c.Model.Alpha)
	assert.Equal(t, 100, c.Model.MinTrainSize)
	assert.Equal(t, []int{3, 5, 10, 15}, c.Features.Windows)
	assert.Equal(t, "finnhub", c.Market.Provider)
	assert.Equal(t, 15*time.Second, c.Market.Finnhub.Timeout)
	assert.Equal(t, "stock-history", c.Kafka.Topic)
	assert.Equal(t, -1, c.Kafka.RequiredAcks)
	assert.Equal(t, "earliest", c.Kafka.Consumer.AutoOffsetReset)
}

func TestParseOverrides(t *testing.T) {
	c, err := Parse([]byte(`
environment: production
pipeline:
  workers: 8
  horizon: 5
model:
  alpha: 0.5
features:
  windows: [5, 20]
market_data:
  provider: alpaca
symbols:
  file: config/symbols.csv
`))
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 8, c.Pipeline.Workers)
	assert.Equal(t, 5, c.Pipeline.Horizon)
	assert.Equal(t, 0.5, c.Model.Alpha)
	assert.Equal(t, []int{5, 20}, c.Features.Windows)
	assert.Equal(t, "alpaca", c.Market.Provider)
	// untouched fields keep defaults
	assert.Equal(t, 100, c.Model.MinRows)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"no symbols":       "environment: x\n",
		"bad provider":     "symbols: {list: [A]}\nmarket_data: {provider: yahoo}\n",
		"zero workers":     "symbols: {list: [A]}\npipeline: {workers: 0}\n",
		"train below rows": "symbols: {list: [A]}\nmodel: {min_train_size: 50}\n",
		"bad log level":    "symbols: {list: [A]}\nlog: {level: loud}\n",
		"bad offset reset": "symbols: {list: [A]}\nkafka: {consumer: {auto_offset_reset: middle}}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte("symbols: {list: [A]}\n"))
	require.NoError(t, err)

	env := map[string]string{
		"SYMBOLS":         "AAPL, NVDA ,",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
		"ALPACA_API_KEY":  "key",
		"CLICKHOUSE_HOST": "ch",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, []string{"AAPL", "NVDA"}, c.Symbols.List)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "key", c.Market.Alpaca.APIKey)
	assert.Equal(t, "ch", c.ClickHouse.Host)
}

func TestMarketCredentials(t *testing.T) {
	var m Market
	m.Provider = "finnhub"
	assert.Error(t, m.Credentials())
	m.Finnhub.APIKey = "k"
	assert.NoError(t, m.Credentials())

	m.Provider = "alpaca"
	m.Alpaca.APIKey = "k"
	assert.Error(t, m.Credentials())
}
