package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pricerelay/internal/relay/memorystore"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter is the subset of *kafka.Writer used by KafkaPublisher.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes one message per snapshot, keyed by symbol so that a
// symbol's updates stay ordered within a partition.
type KafkaPublisher struct {
	writer KafkaWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

func NewKafkaPublisher(writer KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (k *KafkaPublisher) Name() string {
	return "kafka"
}

func (k *KafkaPublisher) Publish(ctx context.Context, snap memorystore.PriceSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(snap.Symbol),
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", snap.Symbol, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
