package providers

import (
	"context"
	"errors"

	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
)

// ErrSignatureMismatch is returned by VerifyWebhook for any payload that
// cannot be authenticated.
var ErrSignatureMismatch = errors.New("webhook signature verification failed")

// PaymentGateway defines what the service needs from a hosted-checkout
// payment provider.
type PaymentGateway interface {
	// CreateCheckoutSession creates a hosted checkout page and returns its
	// id and redirect URL.
	CreateCheckoutSession(ctx context.Context, req models.CheckoutSessionRequest) (models.CheckoutSession, error)

	// VerifyWebhook authenticates a raw webhook payload against its
	// signature header and decodes it.
	VerifyWebhook(payload []byte, signature string) (models.WebhookEvent, error)

	// CreateConnectedAccount creates a payout account and returns its id.
	CreateConnectedAccount(ctx context.Context, req models.ConnectedAccountRequest) (string, error)

	// CreateOnboardingLink returns a one-time onboarding URL for accountID.
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
}
