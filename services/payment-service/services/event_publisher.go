package services

import (
	"context"
	"encoding/json"

	aws_pkg "github.com/hassansajjadkhan/goaliv2vercel-sub001/pkg/aws"
	"go.uber.org/zap"
)

// EventPublisher sends a serialized domain event to the configured bus.
// key groups related events (Kafka partition key); SNS ignores it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, payload []byte) error
}

type snsEventPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

// NewSNSEventPublisher publishes every event to topicArn.
func NewSNSEventPublisher(client aws_pkg.SNSPublisher, topicArn string) EventPublisher {
	return &snsEventPublisher{client: client, topicArn: topicArn}
}

func (p *snsEventPublisher) PublishEvent(ctx context.Context, _ string, payload []byte) error {
	return p.client.Publish(ctx, p.topicArn, payload)
}

// publishEvent marshals an event and publishes it (non-fatal on error).
func publishEvent(ctx context.Context, publisher EventPublisher, logger *zap.Logger, key string, event interface{}) {
	if publisher == nil {
		logger.Debug("Event bus not configured, skipping event publish")
		return
	}
	b, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", zap.Error(err))
		return
	}
	if err := publisher.PublishEvent(ctx, key, b); err != nil {
		logger.Error("Failed to publish event", zap.String("key", key), zap.Error(err))
		return
	}
	logger.Info("Published event", zap.String("key", key))
}
