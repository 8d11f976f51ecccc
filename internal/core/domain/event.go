package domain

import (
	"math/bits"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	Address     Address
	Organizer   uuid.UUID
	Title       string
	Description string
	Price       uint64
	Capacity    uint32
	TicketsSold uint32
	StartsAt    time.Time
	EndsAt      time.Time
	IsActive    bool
}

type EventStats struct {
	TicketsSold uint32 `json:"tickets_sold"`
	Capacity    uint32 `json:"capacity"`
	Revenue     uint64 `json:"revenue"`
	IsActive    bool   `json:"is_active"`
}

type NewEventParams struct {
	Title       string
	Description string
	Price       uint64
	Capacity    uint32
	StartsAt    time.Time
	EndsAt      time.Time
}

// NewEvent builds an active event with no sales at its derived address.
// Price and capacity are not bounded; a zero capacity is a permanently
// sold-out event.
func NewEvent(organizer uuid.UUID, p NewEventParams) *Event {
	return &Event{
		Address:     EventAddress(organizer, p.Title),
		Organizer:   organizer,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Capacity:    p.Capacity,
		TicketsSold: 0,
		StartsAt:    p.StartsAt,
		EndsAt:      p.EndsAt,
		IsActive:    true,
	}
}

// CheckSale reports whether one more ticket may be issued. The sold-out
// check runs first. StartsAt/EndsAt do not gate sales.
func (e *Event) CheckSale() error {
	if e.TicketsSold >= e.Capacity {
		return ErrEventSoldOut
	}
	if !e.IsActive {
		return ErrEventInactive
	}
	return nil
}

// Issue mints the next ticket for buyer and advances TicketsSold. Callers
// must have passed CheckSale inside the same transaction.
func (e *Event) Issue(buyer uuid.UUID, now time.Time) *Ticket {
	ticket := &Ticket{
		Address:      TicketAddress(e.Address, buyer),
		Event:        e.Address,
		Buyer:        buyer,
		TicketID:     e.TicketsSold,
		PurchaseTime: now,
		IsUsed:       false,
	}
	e.TicketsSold++
	return ticket
}

// SetCapacity has no floor: lowering capacity under TicketsSold leaves
// existing tickets intact and makes further sales fail as sold out.
func (e *Event) SetCapacity(caller uuid.UUID, capacity uint32) error {
	if caller != e.Organizer {
		return ErrUnauthorized
	}
	e.Capacity = capacity
	return nil
}

func (e *Event) IsOrganizer(caller uuid.UUID) bool {
	return caller == e.Organizer
}

func (e *Event) Stats() (EventStats, error) {
	hi, revenue := bits.Mul64(uint64(e.TicketsSold), e.Price)
	if hi != 0 {
		return EventStats{}, ErrRevenueOverflow
	}
	return EventStats{
		TicketsSold: e.TicketsSold,
		Capacity:    e.Capacity,
		Revenue:     revenue,
		IsActive:    e.IsActive,
	}, nil
}
