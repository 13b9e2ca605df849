package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutRequest is the body of POST /checkout. Amount is in major units.
type CheckoutRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	PayableRef
}

// Payer is the authenticated user starting a checkout.
type Payer struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// CheckoutIntent is the validated, fully-priced description of a checkout
// before it is handed to the gateway.
type CheckoutIntent struct {
	AmountMinor    int64
	Currency       string
	Payable        Payable
	Payer          Payer
	PlatformFee    int64
	Destination    string
	OrganizationID uuid.UUID
	LineItemName   string
}

// Metadata is what the gateway echoes back on the completion event.
func (i *CheckoutIntent) Metadata() map[string]string {
	md := i.Payable.Metadata()
	md[MetadataPayerUserID] = i.Payer.UserID.String()
	if i.Payer.Email != "" {
		md[MetadataPayerEmail] = i.Payer.Email
	}
	return md
}

// CheckoutResponse points the payer at the hosted checkout page.
type CheckoutResponse struct {
	RedirectURL string `json:"redirect_url"`
	SessionID   string `json:"session_id"`
}

// OnboardingResponse is returned by the payout onboarding endpoint.
type OnboardingResponse struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}

// PaymentList is one page of an organization's payments.
type PaymentList struct {
	Payments []Payment `json:"payments"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
