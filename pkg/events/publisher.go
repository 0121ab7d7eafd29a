package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Message is a keyed event payload.
type Message struct {
	Topic     string
	Key       string
	EventID   string
	EventType string
	Payload   []byte
}

// Publisher delivers messages to the event bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes messages to Kafka, keyed so one course's events stay ordered on a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaPublisher builds a publisher for the given brokers. It returns a LogPublisher when no brokers are configured.
func NewKafkaPublisher(brokers []string, logger *zap.Logger) Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(brokers) == 0 {
		logger.Warn("event publisher running without kafka brokers; events are only logged")
		return &LogPublisher{logger: logger}
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish writes msg synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	record := kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.EventID)},
			{Key: "event_type", Value: []byte(msg.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.EventID, msg.Topic, err)
	}
	p.logger.Debug("event published", zap.String("topic", msg.Topic), zap.String("event_id", msg.EventID))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher records events in the log when no broker is available.
type LogPublisher struct {
	logger *zap.Logger
}

// Publish logs msg.
func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info("event",
		zap.String("topic", msg.Topic),
		zap.String("key", msg.Key),
		zap.String("event_id", msg.EventID),
		zap.String("event_type", msg.EventType),
		zap.Int("bytes", len(msg.Payload)),
	)
	return nil
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
