package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"

	"NewsIngest/internal/domain"
	"NewsIngest/internal/ports"
)

const deliveryTimeout = 30 * time.Second

// Sink publishes documents to a Kafka topic named after the collection.
type Sink struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

var _ ports.DocumentSink = (*Sink)(nil)

// NewSink connects the producer; broker unreachability surfaces on the first
// delivery, so the constructor only validates configuration.
func NewSink(broker string, logger *slog.Logger) (*Sink, error) {
	if broker == "" {
		return nil, fmt.Errorf("broker address cannot be empty")
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": broker,
		"acks":              "all",
		"retries":           3,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logger.Info("kafka producer ready", "broker", broker)
	return &Sink{producer: producer, logger: logger}, nil
}

// Store publishes one document and waits for its delivery report. Failures
// are logged with the topic name and returned; the caller treats them as
// non-fatal.
func (s *Sink) Store(ctx context.Context, collection string, doc domain.EnrichedArticle) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("marshal document", "topic", collection, "error", err)
		return fmt.Errorf("marshal document: %w", err)
	}

	deliveries := make(chan kafka.Event, 1)
	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &collection, Partition: kafka.PartitionAny},
		Key:            []byte(uuid.NewString()),
		Value:          payload,
	}

	if err := s.producer.Produce(message, deliveries); err != nil {
		s.logger.Error("failed to enqueue document", "topic", collection, "error", err)
		return fmt.Errorf("produce to topic %q: %w", collection, err)
	}

	select {
	case event := <-deliveries:
		if m, ok := event.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			s.logger.Error("delivery failed", "topic", collection, "error", m.TopicPartition.Error)
			return fmt.Errorf("deliver to topic %q: %w", collection, m.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(deliveryTimeout):
		s.logger.Error("delivery report timed out", "topic", collection)
		return fmt.Errorf("delivery to topic %q timed out", collection)
	}

	return nil
}

// Close flushes outstanding messages and releases the producer.
func (s *Sink) Close() {
	s.producer.Flush(int(deliveryTimeout / time.Millisecond))
	s.producer.Close()
}
