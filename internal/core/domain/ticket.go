package domain

import (
	"time"

	"github.com/google/uuid"
)

type TicketState string

const (
	TicketIssued    TicketState = "ISSUED"
	TicketCheckedIn TicketState = "CHECKED_IN"
)

type Ticket struct {
	Address      Address
	Event        Address
	Buyer        uuid.UUID
	TicketID     uint32
	PurchaseTime time.Time
	CheckInTime  *time.Time
	IsUsed       bool
}

func (t *Ticket) State() TicketState {
	if t.IsUsed {
		return TicketCheckedIn
	}
	return TicketIssued
}

// CheckIn is the only transition and it is one-way.
func (t *Ticket) CheckIn(now time.Time) error {
	if t.IsUsed {
		return ErrTicketAlreadyUsed
	}
	t.IsUsed = true
	t.CheckInTime = &now
	return nil
}
