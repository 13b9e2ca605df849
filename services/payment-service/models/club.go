package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member roles.
const (
	RoleAdmin    = "admin"
	RoleCoach    = "coach"
	RolePayee    = "payee"
	RoleGuardian = "guardian"
)

// Organization is a club. PayoutAccountID is the connected gateway account
// money is routed to; empty until payout onboarding has started.
type Organization struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(255);not null" json:"name"`
	PayoutAccountID string    `gorm:"type:varchar(255);index" json:"payout_account_id,omitempty"`
	PayoutsEnabled  bool      `gorm:"not null" json:"payouts_enabled"`
	DuesAmount      int64     `gorm:"not null" json:"dues_amount"` // minor units per period
	Currency        string    `gorm:"type:varchar(10);not null" json:"currency"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PayoutDestination returns the payout account and whether one is set.
func (o *Organization) PayoutDestination() (string, bool) {
	dest := strings.TrimSpace(o.PayoutAccountID)
	return dest, dest != ""
}

// PayoutRoute is where checkout money for an organization goes.
type PayoutRoute struct {
	Destination string `json:"destination"`
	Currency    string `json:"currency"`
}

// Member belongs to exactly one organization. Payees may be linked to a
// guardian who pays on their behalf.
type Member struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	Email          string     `gorm:"type:varchar(320)" json:"email"`
	Name           string     `gorm:"type:varchar(255)" json:"name"`
	Role           string     `gorm:"type:varchar(20);index;not null" json:"role"`
	GuardianID     *uuid.UUID `gorm:"type:uuid" json:"guardian_id,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Fundraiser collects donations. AmountRaised is always recomputed from
// completed donation payments.
type Fundraiser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	GoalAmount   int64     `gorm:"not null" json:"goal_amount"`
	AmountRaised int64     `gorm:"not null" json:"amount_raised"`
	Currency     string    `gorm:"type:varchar(10);not null" json:"currency"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Event is a ticketed club event.
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID   uuid.UUID `gorm:"type:uuid;index;not null" json:"creator_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	StartsAt    time.Time `json:"starts_at"`
	TicketPrice int64     `gorm:"not null" json:"ticket_price"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Due is one member's dues for one billing period.
type Due struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index;not null" json:"organization_id"`
	MemberID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_dues_member_period" json:"member_id"`
	Period         string     `gorm:"type:varchar(7);not null;uniqueIndex:idx_dues_member_period" json:"period"`
	PayerID        *uuid.UUID `gorm:"type:uuid;index" json:"payer_id,omitempty"`
	Amount         int64      `gorm:"not null" json:"amount"`
	Currency       string     `gorm:"type:varchar(10);not null" json:"currency"`
	Paid           bool       `gorm:"not null;index" json:"paid"`
	PaidBy         *uuid.UUID `gorm:"type:uuid" json:"paid_by,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (d *Due) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
