package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentKind is derived from the payable discriminant of a payment.
type PaymentKind string

const (
	PaymentKindDonation PaymentKind = "donation"
	PaymentKindTicket   PaymentKind = "ticket"
	PaymentKindDues     PaymentKind = "dues"
)

const (
	PaymentStatusCompleted = "completed"
	PaymentMethodCard      = "card"
)

// Payment is the durable proof that a completion event was fulfilled. One row
// per gateway session; the unique session_id index is the idempotency guard.
type Payment struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID        string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"session_id"`
	GatewayEventID   string            `gorm:"type:varchar(255)" json:"gateway_event_id"`
	PayerUserID      uuid.UUID         `gorm:"type:uuid;index;not null" json:"payer_user_id"`
	PayerEmail       string            `gorm:"type:varchar(320)" json:"payer_email"`
	OrganizationID   *uuid.UUID        `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	Amount           int64             `gorm:"not null" json:"amount"` // minor units, as captured by the gateway
	Currency         string            `gorm:"type:varchar(10);not null" json:"currency"`
	Method           string            `gorm:"type:varchar(20);not null" json:"method"`
	Status           string            `gorm:"type:varchar(20);not null" json:"status"`
	Kind             PaymentKind       `gorm:"type:varchar(20);not null;index" json:"kind"`
	FundraiserID     *uuid.UUID        `gorm:"type:uuid;index" json:"fundraiser_id,omitempty"`
	EventID          *uuid.UUID        `gorm:"type:uuid;index" json:"event_id,omitempty"`
	DueID            *uuid.UUID        `gorm:"type:uuid;index" json:"due_id,omitempty"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	FulfillmentError *string           `gorm:"type:text" json:"fulfillment_error,omitempty"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Payable rebuilds the discriminant stored on the row.
func (p *Payment) Payable() Payable {
	switch {
	case p.FundraiserID != nil:
		return FundraiserPayable(*p.FundraiserID)
	case p.EventID != nil:
		return EventPayable(*p.EventID)
	case p.DueID != nil:
		return DuePayable(*p.DueID)
	}
	return Payable{}
}

// Ticket is issued once per completion event that references an event.
type Ticket struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID   uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"payment_id"`
	PayerUserID uuid.UUID `gorm:"type:uuid;index;not null" json:"payer_user_id"`
	EventID     uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	Payload     string    `gorm:"type:text;not null" json:"payload"`
	ArtifactURL string    `gorm:"type:text;not null" json:"artifact_url"`
	IssuedAt    time.Time `gorm:"not null" json:"issued_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
