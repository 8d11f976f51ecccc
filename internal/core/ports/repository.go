package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

type EventRepository interface {
	GetEvent(ctx context.Context, addr domain.Address) (*domain.Event, error)
	GetEventForUpdate(ctx context.Context, addr domain.Address) (*domain.Event, error)
	CreateEvent(ctx context.Context, event *domain.Event) error
	UpdateEvent(ctx context.Context, event *domain.Event) error
}

type TicketRepository interface {
	GetTicket(ctx context.Context, addr domain.Address) (*domain.Ticket, error)
	GetTicketForUpdate(ctx context.Context, addr domain.Address) (*domain.Ticket, error)
	CreateTicket(ctx context.Context, ticket *domain.Ticket) error
	UpdateTicket(ctx context.Context, ticket *domain.Ticket) error
}

// LedgerStore is the entity store of one tier. Create* fail with
// domain.ErrAlreadyExists when the address is taken; Get* fail with
// domain.ErrNotFound. WithTx carries the transaction in the context passed
// to fn, and repository calls made with that context join it.
type LedgerStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	EventRepository
	TicketRepository
}

// PaymentGateway moves funds inside the store transaction carried by ctx.
type PaymentGateway interface {
	Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error
}

type AccountLedger interface {
	Credit(ctx context.Context, account uuid.UUID, amount uint64) error
	Balance(ctx context.Context, account uuid.UUID) (uint64, error)
}

// SnapshotStore is used by the tier engine to move an event and its
// tickets between tiers.
type SnapshotStore interface {
	Snapshot(ctx context.Context, addr domain.Address) (*domain.EventSnapshot, error)
	Restore(ctx context.Context, snap *domain.EventSnapshot) error
	// Discard removes the event and its tickets, failing with
	// domain.ErrSnapshotStale if they changed since snap was taken.
	Discard(ctx context.Context, snap *domain.EventSnapshot) error
}
