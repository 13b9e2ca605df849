package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/errors"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/middleware"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/services"
)

// OrganizationController serves the admin operations scoped to one club.
type OrganizationController struct {
	onboarding services.OnboardingService
	dues       services.DuesService
	reporting  services.ReportingService
}

func NewOrganizationController(onboarding services.OnboardingService, dues services.DuesService, reporting services.ReportingService) *OrganizationController {
	return &OrganizationController{onboarding: onboarding, dues: dues, reporting: reporting}
}

type onboardRequest struct {
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

// OnboardPayouts handles POST /organizations/:id/payouts/onboard
func (oc *OrganizationController) OnboardPayouts(c *gin.Context) {
	orgID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req onboardRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	if req.ContactEmail == "" {
		req.ContactEmail = middleware.GetPayer(c).Email
	}

	resp, err := oc.onboarding.StartOnboarding(c.Request.Context(), orgID, req.ContactEmail)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPayments handles GET /organizations/:id/payments
func (oc *OrganizationController) ListPayments(c *gin.Context) {
	orgID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	page, limit := parsePaginationParams(c)

	list, err := oc.reporting.ListOrganizationPayments(c.Request.Context(), orgID, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GenerateDues handles POST /organizations/:id/dues/generate
func (oc *OrganizationController) GenerateDues(c *gin.Context) {
	orgID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.DuesGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.OrganizationID = orgID.String()
	req.Period = strings.TrimSpace(req.Period)

	result, err := oc.dues.GenerateDues(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
