package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/account"
	"github.com/stripe/stripe-go/v80/accountlink"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeGateway implements PaymentGateway with Stripe Checkout and Connect.
type StripeGateway struct {
	webhookSecret string
}

// NewStripeGateway sets the package-level Stripe key and returns a gateway
// that verifies webhooks with webhookSecret.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (s *StripeGateway) CreateCheckoutSession(ctx context.Context, req models.CheckoutSessionRequest) (models.CheckoutSession, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(req.Currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.LineItemName),
				},
				UnitAmount: stripe.Int64(req.UnitAmount),
			},
			Quantity: stripe.Int64(quantity),
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(req.ApplicationFeeAmount),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.Destination),
			},
			Metadata: req.Metadata,
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return models.CheckoutSession{}, fmt.Errorf("stripe checkout session: %w", err)
	}
	return models.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeGateway) VerifyWebhook(payload []byte, signature string) (models.WebhookEvent, error) {
	if s.webhookSecret == "" || signature == "" {
		return models.WebhookEvent{}, ErrSignatureMismatch
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return models.WebhookEvent{}, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}

	out := models.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case models.GatewayEventCheckoutCompleted, models.GatewayEventAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return out, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Completion = &models.CompletionEvent{
			EventID:       event.ID,
			SessionID:     sess.ID,
			AmountTotal:   sess.AmountTotal,
			Currency:      string(sess.Currency),
			PaymentStatus: string(sess.PaymentStatus),
			Metadata:      sess.Metadata,
		}
	case models.GatewayEventAccountUpdated:
		var acct stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
			return out, fmt.Errorf("decode account: %w", err)
		}
		out.Account = &models.AccountUpdate{
			AccountID:      acct.ID,
			PayoutsEnabled: acct.PayoutsEnabled,
			ChargesEnabled: acct.ChargesEnabled,
		}
	}
	return out, nil
}

func (s *StripeGateway) CreateConnectedAccount(ctx context.Context, req models.ConnectedAccountRequest) (string, error) {
	params := &stripe.AccountParams{
		Type: stripe.String(string(stripe.AccountTypeExpress)),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	if req.Country != "" {
		params.Country = stripe.String(req.Country)
	}
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	params.AddMetadata("organization_id", req.OrganizationID)
	params.SetIdempotencyKey("connect-" + req.OrganizationID)
	params.Context = ctx

	acct, err := account.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe connected account: %w", err)
	}
	return acct.ID, nil
}

func (s *StripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := accountlink.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe account link: %w", err)
	}
	return link.URL, nil
}
