package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	aws_pkg "github.com/hassansajjadkhan/goaliv2vercel-sub001/pkg/aws"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"go.uber.org/zap"
)

// DuesRequestConsumer generates dues for requests arriving on an SQS queue,
// typically from a monthly scheduler.
type DuesRequestConsumer struct {
	sqsConsumer *aws_pkg.SQSConsumer
	dues        DuesService
	metrics     *aws_pkg.MetricsClient
	logger      *zap.Logger
}

func NewDuesRequestConsumer(sqsConsumer *aws_pkg.SQSConsumer, dues DuesService, metrics *aws_pkg.MetricsClient, logger *zap.Logger) *DuesRequestConsumer {
	return &DuesRequestConsumer{
		sqsConsumer: sqsConsumer,
		dues:        dues,
		metrics:     metrics,
		logger:      logger,
	}
}

func (c *DuesRequestConsumer) Start(ctx context.Context) {
	c.logger.Info("Starting DuesRequestConsumer (SQS)")

	err := c.sqsConsumer.StartPolling(ctx, c.HandleMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("SQS consumer error", zap.Error(err))
	}
}

// HandleMessage processes one queue message. Malformed or invalid requests
// are dropped; only store failures are returned so the message is retried.
func (c *DuesRequestConsumer) HandleMessage(ctx context.Context, body string) error {
	var req models.DuesGenerationRequest
	if err := json.Unmarshal([]byte(aws_pkg.UnwrapSNSEnvelope(body)), &req); err != nil {
		c.logger.Warn("Invalid dues request JSON, dropping", zap.Error(err))
		return nil
	}

	ctx = logger.WithContext(ctx, "sqs-dues-"+req.OrganizationID+"-"+req.Period)
	result, err := c.dues.GenerateDues(ctx, req)
	if err != nil {
		if appErr := apperrors.From(err); appErr.Code < http.StatusInternalServerError {
			c.logger.Warn("Rejected dues request, dropping",
				zap.String("organization_id", req.OrganizationID),
				zap.String("period", req.Period),
				zap.String("reason", appErr.Reason),
			)
			return nil
		}
		return err
	}

	_ = c.metrics.RecordCount(ctx, aws_pkg.MetricSQSMessages, map[string]string{"Queue": "dues"})
	c.logger.Info("Dues request processed",
		zap.String("organization_id", result.OrganizationID),
		zap.String("period", result.Period),
		zap.Int("created", result.Created),
	)
	return nil
}
