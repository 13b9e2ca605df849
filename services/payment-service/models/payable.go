package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PayableType says which kind of record a payment is for.
type PayableType string

const (
	PayableNone       PayableType = ""
	PayableFundraiser PayableType = "fundraiser"
	PayableEvent      PayableType = "event"
	PayableDue        PayableType = "due"
)

// Metadata keys round-tripped through the gateway.
const (
	MetadataFundraiserID = "fundraiser_id"
	MetadataEventID      = "event_id"
	MetadataDueID        = "due_id"
	MetadataPayerUserID  = "payer_user_id"
	MetadataPayerEmail   = "payer_email"
)

var (
	ErrAmbiguousPayable = errors.New("at most one of fundraiser_id, event_id or due_id may be set")
	ErrInvalidPayableID = errors.New("payable id is not a valid uuid")
)

// Payable is the thing a payment is for: a fundraiser, an event, a due, or
// nothing in particular (plain dues/other). The zero value is the latter.
type Payable struct {
	typ PayableType
	id  uuid.UUID
}

func FundraiserPayable(id uuid.UUID) Payable { return Payable{typ: PayableFundraiser, id: id} }
func EventPayable(id uuid.UUID) Payable      { return Payable{typ: PayableEvent, id: id} }
func DuePayable(id uuid.UUID) Payable        { return Payable{typ: PayableDue, id: id} }

// PayableRef is the wire shape of a payable: three optional ids.
type PayableRef struct {
	FundraiserID string `json:"fundraiser_id,omitempty"`
	EventID      string `json:"event_id,omitempty"`
	DueID        string `json:"due_id,omitempty"`
}

// NewPayable validates that ref names at most one target.
func NewPayable(ref PayableRef) (Payable, error) {
	var (
		found Payable
		count int
	)
	candidates := []struct {
		typ PayableType
		raw string
	}{
		{PayableFundraiser, ref.FundraiserID},
		{PayableEvent, ref.EventID},
		{PayableDue, ref.DueID},
	}
	for _, c := range candidates {
		raw := strings.TrimSpace(c.raw)
		if raw == "" {
			continue
		}
		count++
		id, err := uuid.Parse(raw)
		if err != nil {
			return Payable{}, fmt.Errorf("%w: %s=%q", ErrInvalidPayableID, c.typ, raw)
		}
		found = Payable{typ: c.typ, id: id}
	}
	if count > 1 {
		return Payable{}, ErrAmbiguousPayable
	}
	return found, nil
}

// PayableFromMetadata decodes the discriminant written by Metadata.
func PayableFromMetadata(md map[string]string) (Payable, error) {
	return NewPayable(PayableRef{
		FundraiserID: md[MetadataFundraiserID],
		EventID:      md[MetadataEventID],
		DueID:        md[MetadataDueID],
	})
}

func (p Payable) Type() PayableType { return p.typ }
func (p Payable) ID() uuid.UUID     { return p.id }
func (p Payable) IsNone() bool      { return p.typ == PayableNone }

// Kind maps the discriminant onto the payment kind recorded downstream.
func (p Payable) Kind() PaymentKind {
	switch p.typ {
	case PayableEvent:
		return PaymentKindTicket
	case PayableFundraiser:
		return PaymentKindDonation
	default:
		return PaymentKindDues
	}
}

// Ref returns the wire shape of p.
func (p Payable) Ref() PayableRef {
	switch p.typ {
	case PayableFundraiser:
		return PayableRef{FundraiserID: p.id.String()}
	case PayableEvent:
		return PayableRef{EventID: p.id.String()}
	case PayableDue:
		return PayableRef{DueID: p.id.String()}
	}
	return PayableRef{}
}

// Metadata encodes p as gateway metadata entries.
func (p Payable) Metadata() map[string]string {
	md := map[string]string{}
	ref := p.Ref()
	if ref.FundraiserID != "" {
		md[MetadataFundraiserID] = ref.FundraiserID
	}
	if ref.EventID != "" {
		md[MetadataEventID] = ref.EventID
	}
	if ref.DueID != "" {
		md[MetadataDueID] = ref.DueID
	}
	return md
}

// Columns returns the nullable foreign keys a payment row stores for p.
func (p Payable) Columns() (fundraiserID, eventID, dueID *uuid.UUID) {
	id := p.id
	switch p.typ {
	case PayableFundraiser:
		fundraiserID = &id
	case PayableEvent:
		eventID = &id
	case PayableDue:
		dueID = &id
	}
	return
}

func (p Payable) String() string {
	if p.typ == PayableNone {
		return "none"
	}
	return string(p.typ) + ":" + p.id.String()
}
