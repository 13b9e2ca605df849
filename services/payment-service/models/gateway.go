package models

// Gateway event types this service reacts to.
const (
	GatewayEventCheckoutCompleted     = "checkout.session.completed"
	GatewayEventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	GatewayEventAccountUpdated        = "account.updated"
)

// SessionPaymentStatusPaid is the only session payment status that is fulfilled.
const SessionPaymentStatusPaid = "paid"

// CheckoutSessionRequest is the provider-neutral shape of a hosted checkout.
type CheckoutSessionRequest struct {
	LineItemName         string
	UnitAmount           int64
	Quantity             int64
	Currency             string
	ApplicationFeeAmount int64
	Destination          string
	CustomerEmail        string
	Metadata             map[string]string
	SuccessURL           string
	CancelURL            string
}

// CheckoutSession is what the gateway returns for a created session.
type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is a verified gateway notification. Exactly one of Completion
// and Account is set for event types this service handles.
type WebhookEvent struct {
	ID         string
	Type       string
	Completion *CompletionEvent
	Account    *AccountUpdate
}

// CompletionEvent is a successful checkout as reported by the gateway.
type CompletionEvent struct {
	EventID       string
	SessionID     string
	AmountTotal   int64
	Currency      string
	PaymentStatus string
	Metadata      map[string]string
}

// AccountUpdate reports the state of a connected payout account.
type AccountUpdate struct {
	AccountID      string
	PayoutsEnabled bool
	ChargesEnabled bool
}

// ConnectedAccountRequest creates a payout account for an organization.
type ConnectedAccountRequest struct {
	OrganizationID string
	Email          string
	Country        string
}
