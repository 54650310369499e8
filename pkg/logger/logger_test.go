package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithStampsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel).With(Symbol("AAPL"))

	l.Info("trained", Float64("rmse", 1.5), Int("rows", 3))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "AAPL", got["symbol"])
	assert.Equal(t, 1.5, got["rmse"])
	assert.Equal(t, float64(3), got["rows"])
	assert.Equal(t, "trained", got["message"])
}

type capturePublisher struct {
	mu     sync.Mutex
	topics []string
	batch  []AggregatedLogEntry
}

func (c *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.batch = append(c.batch, payload.([]AggregatedLogEntry)...)
	return nil
}

func (c *capturePublisher) entries() []AggregatedLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]AggregatedLogEntry(nil), c.batch...)
}

func TestCollectorFoldsDuplicateErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := NewWriter(&bytes.Buffer{}, zerolog.InfoLevel)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("fetch failed", Symbol("MSFT"), Error(errors.New("timeout")))
	}
	l.RemoveCollector()

	require.Eventually(t, func() bool { return len(pub.entries()) == 1 }, time.Second, 10*time.Millisecond)
	e := pub.entries()[0]
	assert.Equal(t, 3, e.Count)
	assert.Equal(t, "error", e.Level)
	assert.Equal(t, "timeout", e.Fields["error"])
}

func TestCollectorGroupsSymbolsAndKeepsWithFields(t *testing.T) {
	pub := &capturePublisher{}
	l := NewWriter(&bytes.Buffer{}, zerolog.InfoLevel)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	run := l.With(String("stage", "ingest"))

	for _, sym := range []string{"AAPL", "MSFT", "AAPL"} {
		run.Error("symbol failed", Symbol(sym), Error(errors.New("rate limited")))
	}
	l.RemoveCollector()

	require.Eventually(t, func() bool { return len(pub.entries()) == 1 }, time.Second, 10*time.Millisecond)
	e := pub.entries()[0]
	assert.Equal(t, 3, e.Count)
	assert.Equal(t, []string{"AAPL", "MSFT"}, e.Symbols)
	assert.Equal(t, "ingest", e.Fields["stage"])
	assert.NotContains(t, e.Fields, "symbol")
}
