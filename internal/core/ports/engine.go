package ports

import (
	"context"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

// TierEngine is the fast-tier execution engine. Request* return once the
// request is accepted, not once state has moved; callers poll Location for
// completion. Failures to reach the engine surface as
// domain.ErrEngineUnavailable.
type TierEngine interface {
	RequestDelegate(ctx context.Context, addr domain.Address) error
	RequestCommit(ctx context.Context, addr domain.Address) error
	RequestUndelegate(ctx context.Context, addr domain.Address) error
	RequestCommitAndUndelegate(ctx context.Context, addr domain.Address) error
	Location(ctx context.Context, addr domain.Address) (domain.Location, error)
}

type TicketNotifier interface {
	TicketPurchased(ctx context.Context, event *domain.Event, ticket *domain.Ticket) error
	TicketCheckedIn(ctx context.Context, ticket *domain.Ticket) error
}
