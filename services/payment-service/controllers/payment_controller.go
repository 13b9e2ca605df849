package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/logger"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/middleware"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/services"
	"go.uber.org/zap"
)

// PaymentController handles checkout, gateway webhooks and per-payment
// operations.
type PaymentController struct {
	checkout    services.CheckoutService
	fulfillment services.FulfillmentService
	reporting   services.ReportingService
	logger      *zap.Logger
}

func NewPaymentController(
	checkout services.CheckoutService,
	fulfillment services.FulfillmentService,
	reporting services.ReportingService,
	logger *zap.Logger,
) *PaymentController {
	return &PaymentController{
		checkout:    checkout,
		fulfillment: fulfillment,
		reporting:   reporting,
		logger:      logger,
	}
}

// CreateCheckout handles POST /checkout
func (pc *PaymentController) CreateCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := pc.checkout.CreateCheckout(c.Request.Context(), &req, middleware.GetPayer(c))
	if err != nil {
		if appErr := apperrors.From(err); appErr.Code >= http.StatusInternalServerError {
			logger.For(c, pc.logger).Error("Checkout failed", zap.Error(err))
		}
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Reconcile handles POST /payments/:id/reconcile
func (pc *PaymentController) Reconcile(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	result, err := pc.fulfillment.Reconcile(c.Request.Context(), middleware.GetOrganizationID(c), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetFundraiser handles GET /fundraisers/:id
func (pc *PaymentController) GetFundraiser(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	f, err := pc.reporting.GetFundraiser(c.Request.Context(), id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}
