package queue

import (
	"context"
	"time"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

// TicketEventsQueue receives a message per purchase and per check-in.
const TicketEventsQueue = "ticket.events"

type TicketEvent struct {
	Type       string `json:"type"`
	Tier       string `json:"tier"`
	Event      string `json:"event"`
	EventTitle string `json:"event_title,omitempty"`
	Ticket     string `json:"ticket"`
	TicketID   uint32 `json:"ticket_id"`
	Buyer      string `json:"buyer"`
	OccurredAt string `json:"occurred_at"`
}

type publisher interface {
	Publish(ctx context.Context, queue string, msg any) error
}

// Notifier publishes ticket lifecycle events for downstream consumers.
type Notifier struct {
	pub  publisher
	tier domain.Tier
}

func NewNotifier(pub publisher, tier domain.Tier) *Notifier {
	return &Notifier{pub: pub, tier: tier}
}

func (n *Notifier) TicketPurchased(ctx context.Context, event *domain.Event, ticket *domain.Ticket) error {
	return n.pub.Publish(ctx, TicketEventsQueue, TicketEvent{
		Type:       "ticket.purchased",
		Tier:       string(n.tier),
		Event:      event.Address.String(),
		EventTitle: event.Title,
		Ticket:     ticket.Address.String(),
		TicketID:   ticket.TicketID,
		Buyer:      ticket.Buyer.String(),
		OccurredAt: ticket.PurchaseTime.UTC().Format(time.RFC3339Nano),
	})
}

func (n *Notifier) TicketCheckedIn(ctx context.Context, ticket *domain.Ticket) error {
	at := ""
	if ticket.CheckInTime != nil {
		at = ticket.CheckInTime.UTC().Format(time.RFC3339Nano)
	}
	return n.pub.Publish(ctx, TicketEventsQueue, TicketEvent{
		Type:       "ticket.checked_in",
		Tier:       string(n.tier),
		Event:      ticket.Event.String(),
		Ticket:     ticket.Address.String(),
		TicketID:   ticket.TicketID,
		Buyer:      ticket.Buyer.String(),
		OccurredAt: at,
	})
}
