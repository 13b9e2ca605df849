package models

import "time"

// Event types published on the payment event bus.
const (
	EventTypePaymentCompleted = "payment_completed"
	EventTypeDuesGenerated    = "dues_generated"
)

// PaymentCompletedEvent is published after a payment row has been written.
type PaymentCompletedEvent struct {
	EventType        string    `json:"event_type"`
	PaymentID        string    `json:"payment_id"`
	SessionID        string    `json:"session_id"`
	Kind             string    `json:"kind"`
	PayerUserID      string    `json:"payer_user_id"`
	OrganizationID   string    `json:"organization_id,omitempty"`
	FundraiserID     string    `json:"fundraiser_id,omitempty"`
	EventID          string    `json:"event_id,omitempty"`
	DueID            string    `json:"due_id,omitempty"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	FulfillmentError string    `json:"fulfillment_error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// DuesGeneratedEvent is published after a dues run.
type DuesGeneratedEvent struct {
	EventType      string    `json:"event_type"`
	OrganizationID string    `json:"organization_id"`
	Period         string    `json:"period"`
	Created        int       `json:"created"`
	Timestamp      time.Time `json:"timestamp"`
}

// DuesGenerationRequest asks for one period's dues for an organization. It
// arrives either over HTTP or as an SQS message.
type DuesGenerationRequest struct {
	OrganizationID string `json:"organization_id"`
	Period         string `json:"period" binding:"required"`
	Amount         *int64 `json:"amount,omitempty"`
}

// DuesGenerationResult summarises a dues run.
type DuesGenerationResult struct {
	OrganizationID string `json:"organization_id"`
	Period         string `json:"period"`
	Created        int    `json:"created"`
	Skipped        int    `json:"skipped"`
}

// FulfillmentOutcome says what a webhook delivery did.
type FulfillmentOutcome string

const (
	OutcomeProcessed FulfillmentOutcome = "processed"
	OutcomeDuplicate FulfillmentOutcome = "duplicate"
	OutcomeIgnored   FulfillmentOutcome = "ignored"
)

// FulfillmentResult is returned to the caller of the webhook and reconcile
// endpoints. Errors lists side effects that failed after the payment row was
// written.
type FulfillmentResult struct {
	Outcome   FulfillmentOutcome `json:"outcome"`
	PaymentID string             `json:"payment_id,omitempty"`
	Kind      PaymentKind        `json:"kind,omitempty"`
	Errors    []string           `json:"errors,omitempty"`
}
