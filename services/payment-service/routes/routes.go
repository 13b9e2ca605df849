package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/common/auth"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/controllers"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/middleware"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
)

// Guards are the request filters placed in front of user-facing routes.
// RateLimit may be nil.
type Guards struct {
	Tokens    *auth.TokenValidator
	Members   middleware.MemberDirectory
	RateLimit gin.HandlerFunc
}

// RegisterPaymentRoutes sets up checkout, webhook and club admin routes.
func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController, oc *controllers.OrganizationController, g Guards) {
	// Gateway webhooks authenticate by signature, not by user, and sit
	// outside the rate limit.
	r.POST("/webhook", pc.StripeWebhook)
	r.POST("/stripe/webhook", pc.StripeWebhook)

	member := r.Group("/")
	if g.RateLimit != nil {
		member.Use(g.RateLimit)
	}
	member.Use(middleware.AuthMiddleware(g.Tokens))
	member.POST("/checkout", pc.CreateCheckout)
	member.GET("/fundraisers/:id", pc.GetFundraiser)

	admin := member.Group("/")
	admin.Use(middleware.RequireRole(models.RoleAdmin), middleware.ResolveOrganization(g.Members))
	admin.POST("/payments/:id/reconcile", pc.Reconcile)

	orgs := admin.Group("/organizations/:id")
	orgs.Use(middleware.RequireOrganizationParam("id"))
	orgs.POST("/payouts/onboard", oc.OnboardPayouts)
	orgs.GET("/payments", oc.ListPayments)
	orgs.POST("/dues/generate", oc.GenerateDues)
}
