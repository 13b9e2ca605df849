package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventProducer writes payment events to a single Kafka topic.
type EventProducer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewEventProducer(brokers []string, topic string, logger *zap.Logger) *EventProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	logger.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &EventProducer{writer: w, topic: topic, logger: logger}
}

// PublishEvent writes payload keyed by key, so all events for one payment
// land on the same partition.
func (p *EventProducer) PublishEvent(ctx context.Context, key string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to write Kafka message", zap.String("topic", p.topic), zap.Error(err))
		return err
	}
	return nil
}

func (p *EventProducer) Close() error {
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", zap.String("topic", p.topic))
	return err
}
