package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/segmentio/kafka-go"

	"area-locator/internal/models"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaSink
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink streams area changes to a Kafka topic keyed by device id, so
// each device's events stay ordered within one partition
type KafkaSink struct {
	writer MessageWriter
	topic  string
}

// NewKafkaSink creates a sink writing to topic on the given brokers
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return NewKafkaSinkWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, topic)
}

// NewKafkaSinkWithWriter wraps an existing writer
func NewKafkaSinkWithWriter(w MessageWriter, topic string) *KafkaSink {
	log.Printf("Kafka sink: publishing area changes to topic %s", topic)
	return &KafkaSink{writer: w, topic: topic}
}

// PublishAreaChange writes one event
func (k *KafkaSink) PublishAreaChange(ctx context.Context, change *models.AreaChange) error {
	value, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal area change: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(change.DeviceID),
		Value: value,
		Time:  change.Timestamp,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write area change to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
