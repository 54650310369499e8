package repository

import (
	"context"
	"fmt"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
)

type keyedPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaHistoryPublisher publishes symbol histories keyed by symbol so one symbol stays on one partition.
type KafkaHistoryPublisher struct {
	producer keyedPublisher
	topic    string
}

var _ domrepo.HistoryPublisher = (*KafkaHistoryPublisher)(nil)

func NewKafkaHistoryPublisher(producer keyedPublisher, topic string) *KafkaHistoryPublisher {
	return &KafkaHistoryPublisher{producer: producer, topic: topic}
}

func (p *KafkaHistoryPublisher) PublishHistory(ctx context.Context, h *models.SymbolHistory) error {
	if h == nil || h.Symbol == "" {
		return fmt.Errorf("publish history: symbol is required")
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(h.Symbol), h); err != nil {
		return fmt.Errorf("publish history %s: %w", h.Symbol, err)
	}
	return nil
}

func (p *KafkaHistoryPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
