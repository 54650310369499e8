package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	pkgkafka "StockPulse/pkg/kafka"
	"StockPulse/pkg/logger"
)

// KafkaHistoryHandler consumes symbol histories and upserts them into the bar store.
type KafkaHistoryHandler struct {
	topic   string
	store   drepo.BarStore
	metrics drepo.Metrics
	log     *logger.Logger
}

func NewKafkaHistoryHandler(topic string, store drepo.BarStore, metrics drepo.Metrics, log *logger.Logger) *KafkaHistoryHandler {
	return &KafkaHistoryHandler{topic: topic, store: store, metrics: metrics, log: log}
}

func (h *KafkaHistoryHandler) Topic() string { return h.topic }

// Handle rejects undecodable or incomplete messages as permanent so they go straight to the DLQ.
func (h *KafkaHistoryHandler) Handle(ctx context.Context, b []byte) error {
	var m models.SymbolHistory
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode history: %w", err))
	}
	m.Symbol = strings.ToUpper(strings.TrimSpace(m.Symbol))
	if m.Symbol == "" || len(m.History) == 0 {
		h.metrics.RecordError("consumer_invalid")
		return pkgkafka.Permanent(errors.New("history message requires symbol and history"))
	}
	bars, err := models.NormalizeBars(m.History)
	if err != nil {
		h.metrics.RecordError("consumer_invalid")
		return pkgkafka.Permanent(fmt.Errorf("history %s: %w", m.Symbol, err))
	}

	start := time.Now()
	err = h.store.UpsertBars(ctx, m.Symbol, bars)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordBarsStored(m.Symbol, len(bars))
	h.log.Debug("history stored",
		logger.Symbol(m.Symbol),
		logger.Int("bars", len(bars)),
		logger.String("trace_id", pkgkafka.TraceID(ctx)),
	)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaHistoryHandler)(nil)
