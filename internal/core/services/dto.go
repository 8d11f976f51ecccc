package services

import (
	"time"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

type InitializeEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       uint64    `json:"price"`
	Capacity    uint32    `json:"capacity"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

type EventResponse struct {
	Address     string `json:"address"`
	Organizer   string `json:"organizer"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       uint64 `json:"price"`
	Capacity    uint32 `json:"capacity"`
	TicketsSold uint32 `json:"tickets_sold"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	IsActive    bool   `json:"is_active"`
}

type TicketResponse struct {
	Address      string  `json:"address"`
	Event        string  `json:"event"`
	Buyer        string  `json:"buyer"`
	TicketID     uint32  `json:"ticket_id"`
	State        string  `json:"state"`
	PurchaseTime string  `json:"purchase_time"`
	CheckInTime  *string `json:"check_in_time,omitempty"`
	IsUsed       bool    `json:"is_used"`
}

type LocationResponse struct {
	Event        string `json:"event"`
	Location     string `json:"location"`
	InTransition bool   `json:"in_transition"`
}

func newEventResponse(e *domain.Event) *EventResponse {
	return &EventResponse{
		Address:     e.Address.String(),
		Organizer:   e.Organizer.String(),
		Title:       e.Title,
		Description: e.Description,
		Price:       e.Price,
		Capacity:    e.Capacity,
		TicketsSold: e.TicketsSold,
		StartsAt:    e.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:      e.EndsAt.UTC().Format(time.RFC3339),
		IsActive:    e.IsActive,
	}
}

func newTicketResponse(t *domain.Ticket) *TicketResponse {
	resp := &TicketResponse{
		Address:      t.Address.String(),
		Event:        t.Event.String(),
		Buyer:        t.Buyer.String(),
		TicketID:     t.TicketID,
		State:        string(t.State()),
		PurchaseTime: t.PurchaseTime.UTC().Format(time.RFC3339Nano),
		IsUsed:       t.IsUsed,
	}
	if t.CheckInTime != nil {
		checkIn := t.CheckInTime.UTC().Format(time.RFC3339Nano)
		resp.CheckInTime = &checkIn
	}
	return resp
}
