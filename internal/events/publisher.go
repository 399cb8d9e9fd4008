// Package events publishes transaction lifecycle and opt-in request events
// for downstream consumers (notification service, activity feeds).
package events

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/perawallet/pera-wallet-core/internal/logger"
)

// KafkaPublisher writes events to a kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{writer: writer, logger: logger.Log}
}

// Publish marshals the value as JSON and writes it keyed by key.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("key", key),
			zap.Error(err),
		)
		return errors.Wrap(err, "failed to publish event")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return nil
}

// Close is a no-op.
func (NopPublisher) Close() error {
	return nil
}
