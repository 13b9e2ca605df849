package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	"go.uber.org/zap"
)

// maxWebhookBytes matches the payload ceiling Stripe documents for events.
const maxWebhookBytes = int64(65536)

var errPayloadTooLarge = apperrors.New(http.StatusRequestEntityTooLarge, "payload_too_large", "webhook payload too large")

// StripeWebhook handles POST /webhook. The body is read raw because the
// signature covers the exact bytes sent.
func (pc *PaymentController) StripeWebhook(c *gin.Context) {
	log := logger.For(c, pc.logger)

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.Respond(c, errPayloadTooLarge)
			return
		}
		apperrors.Respond(c, apperrors.ErrBadRequest.Wrap(err))
		return
	}

	result, err := pc.fulfillment.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		appErr := apperrors.From(err)
		if appErr.Code >= http.StatusInternalServerError {
			log.Error("Webhook processing failed, asking gateway to retry", zap.Error(err))
		} else {
			log.Warn("Webhook rejected", zap.String("reason", appErr.Reason))
		}
		apperrors.Respond(c, appErr)
		return
	}

	log.Info("Webhook handled",
		zap.String("outcome", string(result.Outcome)),
		zap.String("payment_id", result.PaymentID),
		zap.Strings("errors", result.Errors),
	)
	c.JSON(http.StatusOK, result)
}
