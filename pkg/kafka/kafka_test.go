package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type countingHandler struct {
	calls int
	errs  []error
}

func (h *countingHandler) Topic() string { return "stock-history" }

func (h *countingHandler) Handle(context.Context, []byte) error {
	h.calls++
	if len(h.errs) == 0 {
		return nil
	}
	err := h.errs[0]
	h.errs = h.errs[1:]
	return err
}

func testConsumer(dlq *fakeWriter) *Consumer {
	c := newConsumer(&ConsumerConfig{
		BufferSize: 1,
		RetryMax:   2,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
		DLQTopic:   "stock-history-dlq",
	})
	if dlq != nil {
		c.dlq = dlq
	}
	return c
}

func msg(data string) *message {
	return &message{topic: "stock-history", data: []byte(data), km: kafka.Message{Key: []byte("AAPL")}}
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	dlq := &fakeWriter{}
	h := &countingHandler{errs: []error{errors.New("clickhouse down")}}

	assert.True(t, testConsumer(dlq).process(h, msg("{}")))
	assert.Equal(t, 2, h.calls)
	assert.Empty(t, dlq.msgs)
}

func TestProcessExhaustsRetriesToDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	boom := errors.New("boom")
	h := &countingHandler{errs: []error{boom, boom, boom, boom}}

	assert.True(t, testConsumer(dlq).process(h, msg("{}")))
	assert.Equal(t, 3, h.calls)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "stock-history-dlq", dlq.msgs[0].Topic)
	assert.Equal(t, []byte("AAPL"), dlq.msgs[0].Key)
	assert.Equal(t, "source_topic", dlq.msgs[0].Headers[0].Key)
}

func TestProcessPermanentSkipsRetries(t *testing.T) {
	dlq := &fakeWriter{}
	h := &countingHandler{errs: []error{Permanent(errors.New("bad json"))}}

	assert.True(t, testConsumer(dlq).process(h, msg("not json")))
	assert.Equal(t, 1, h.calls)
	assert.Len(t, dlq.msgs, 1)
}

func TestProcessWithoutDLQDoesNotCommitFailures(t *testing.T) {
	c := testConsumer(nil)
	c.cfg.DLQTopic = ""
	h := &countingHandler{errs: []error{Permanent(errors.New("bad"))}}

	assert.False(t, c.process(h, msg("x")))
}

type panicHandler struct{}

func (panicHandler) Topic() string                        { return "stock-history" }
func (panicHandler) Handle(context.Context, []byte) error { panic("nil map") }

func TestProcessRecoversPanics(t *testing.T) {
	dlq := &fakeWriter{}
	assert.True(t, testConsumer(dlq).process(panicHandler{}, msg("x")))
	assert.Len(t, dlq.msgs, 1)
}

func TestHookChainThreadsContext(t *testing.T) {
	var seen string
	chain := NewHookChain(TraceHook(), HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			seen = TraceID(ctx)
			return ctx, km, data, nil
		},
	})
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", km, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", seen)
}

func TestHookChainRecoversBeforePanic(t *testing.T) {
	chain := NewHookChain(HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("bad hook")
		},
	})
	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)

	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))

	b, _ = encodeValue("raw")
	assert.Equal(t, []byte("raw"), b)

	_, err = encodeValue(func() {})
	assert.Error(t, err)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 6; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
}

func TestProducerConfigValidate(t *testing.T) {
	base := func() ProducerConfig {
		c := DefaultProducerConfig()
		c.Brokers = []string{"localhost:9092"}
		return c
	}
	ok := base()
	require.NoError(t, ok.Validate())

	cases := map[string]func(c *ProducerConfig){
		"no brokers":      func(c *ProducerConfig) { c.Brokers = nil },
		"bad acks":        func(c *ProducerConfig) { c.RequiredAcks = 2 },
		"bad compression": func(c *ProducerConfig) { c.Compression = "brotli" },
		"small batch":     func(c *ProducerConfig) { c.BatchBytes = 4096 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewProducerHashesBySymbol(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithBatching(10, MinBatchBytes, 5*time.Millisecond),
		WithHashByKey(true),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	assert.Equal(t, int64(MinBatchBytes), p.writer.BatchBytes)
	assert.Equal(t, 10, p.writer.BatchSize)
}
