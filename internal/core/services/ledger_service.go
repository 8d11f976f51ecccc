package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/ports"
	"github.com/srgjo27/tiered_ticket/internal/platform/clock"
)

type LedgerConfig struct {
	Tier domain.Tier
	// RequireOrganizerSignatureOnCheckIn restricts check-in to the event
	// organizer. Defaults to true.
	RequireOrganizerSignatureOnCheckIn bool
}

func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		Tier:                               domain.TierBase,
		RequireOrganizerSignatureOnCheckIn: true,
	}
}

// LedgerDeps wires a LedgerService. Payments is nil on the fast tier,
// Engine is nil in a deployment without a fast tier (every event is then
// on BASE), Notifier is optional.
type LedgerDeps struct {
	Store    ports.LedgerStore
	Payments ports.PaymentGateway
	Engine   ports.TierEngine
	Notifier ports.TicketNotifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

// LedgerService runs the event and ticket state machines. The same code
// serves both tiers; cfg.Tier decides which events it may mutate and which
// purchase flavour it offers.
type LedgerService struct {
	cfg      LedgerConfig
	store    ports.LedgerStore
	payments ports.PaymentGateway
	engine   ports.TierEngine
	notifier ports.TicketNotifier
	clock    clock.Clock
	logger   *slog.Logger
}

func NewLedgerService(cfg LedgerConfig, deps LedgerDeps) *LedgerService {
	if deps.Clock == nil {
		deps.Clock = clock.NewSystem()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &LedgerService{
		cfg:      cfg,
		store:    deps.Store,
		payments: deps.Payments,
		engine:   deps.Engine,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		logger:   deps.Logger.With("tier", string(cfg.Tier)),
	}
}

func (s *LedgerService) Tier() domain.Tier {
	return s.cfg.Tier
}

func (s *LedgerService) InitializeEvent(ctx context.Context, organizer uuid.UUID, req InitializeEventRequest) (_ *EventResponse, err error) {
	if organizer == uuid.Nil {
		return nil, fmt.Errorf("%w: organizer is required", domain.ErrInvalidInput)
	}

	event := domain.NewEvent(organizer, domain.NewEventParams{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Capacity:    req.Capacity,
		StartsAt:    req.StartsAt.UTC().Truncate(time.Microsecond),
		EndsAt:      req.EndsAt.UTC().Truncate(time.Microsecond),
	})

	ctx, span := startSpan(ctx, "LedgerService.InitializeEvent", event.Address)
	defer func() { endSpan(span, err) }()

	err = s.store.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureAuthoritative(txCtx, event.Address); err != nil {
			return err
		}
		return s.store.CreateEvent(txCtx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event initialized", "event", event.Address.String(), "title", event.Title)
	return newEventResponse(event), nil
}

// PurchaseTicket settles payment synchronously: the transfer, the ticket
// creation and the sales increment commit together or not at all.
func (s *LedgerService) PurchaseTicket(ctx context.Context, eventAddr domain.Address, buyer, payout uuid.UUID) (_ *TicketResponse, err error) {
	ctx, span := startSpan(ctx, "LedgerService.PurchaseTicket", eventAddr)
	defer func() { endSpan(span, err) }()

	if s.payments == nil {
		return nil, fmt.Errorf("%w: no settlement rail on %s tier", domain.ErrWrongTier, s.cfg.Tier)
	}
	if buyer == uuid.Nil {
		return nil, fmt.Errorf("%w: buyer is required", domain.ErrInvalidInput)
	}

	var event *domain.Event
	var ticket *domain.Ticket
	err = s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.lockEvent(txCtx, eventAddr)
		if err != nil {
			return err
		}
		if err := event.CheckSale(); err != nil {
			return err
		}
		if payout != event.Organizer {
			return fmt.Errorf("%w: payout destination is not the event organizer", domain.ErrPaymentFailed)
		}
		if event.Price > 0 {
			if err := s.payments.Transfer(txCtx, buyer, payout, event.Price); err != nil {
				if errors.Is(err, domain.ErrPaymentFailed) {
					return err
				}
				return fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
			}
		}
		ticket, err = s.issue(txCtx, event, buyer)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket purchased", "event", event.Address.String(), "title", event.Title, "buyer", buyer.String(), "ticket_id", ticket.TicketID)
	s.notifyPurchased(ctx, event, ticket)
	return newTicketResponse(ticket), nil
}

// PurchaseTicketAndCommit issues a ticket on the fast tier without moving
// funds; payment finality is left to the tier's commit path.
func (s *LedgerService) PurchaseTicketAndCommit(ctx context.Context, eventAddr domain.Address, buyer uuid.UUID) (_ *TicketResponse, err error) {
	ctx, span := startSpan(ctx, "LedgerService.PurchaseTicketAndCommit", eventAddr)
	defer func() { endSpan(span, err) }()

	if s.cfg.Tier != domain.TierFast {
		return nil, fmt.Errorf("%w: deferred settlement is fast tier only", domain.ErrWrongTier)
	}
	if buyer == uuid.Nil {
		return nil, fmt.Errorf("%w: buyer is required", domain.ErrInvalidInput)
	}

	var event *domain.Event
	var ticket *domain.Ticket
	err = s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.lockEvent(txCtx, eventAddr)
		if err != nil {
			return err
		}
		if err := event.CheckSale(); err != nil {
			return err
		}
		ticket, err = s.issue(txCtx, event, buyer)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket purchased on fast tier", "event", event.Address.String(), "title", event.Title, "ticket_id", ticket.TicketID)
	s.notifyPurchased(ctx, event, ticket)
	return newTicketResponse(ticket), nil
}

func (s *LedgerService) CheckInTicket(ctx context.Context, ticketAddr domain.Address, caller uuid.UUID) (_ *TicketResponse, err error) {
	ctx, span := startSpan(ctx, "LedgerService.CheckInTicket", ticketAddr)
	defer func() { endSpan(span, err) }()

	var ticket *domain.Ticket
	err = s.store.WithTx(ctx, func(txCtx context.Context) error {
		peek, err := s.store.GetTicket(txCtx, ticketAddr)
		if err != nil {
			return err
		}
		// Lock order is event then ticket, the same as purchase.
		event, err := s.lockEvent(txCtx, peek.Event)
		if err != nil {
			return err
		}
		if s.cfg.RequireOrganizerSignatureOnCheckIn && !event.IsOrganizer(caller) {
			return domain.ErrUnauthorized
		}

		ticket, err = s.store.GetTicketForUpdate(txCtx, ticketAddr)
		if err != nil {
			return err
		}
		if err := ticket.CheckIn(s.clock.Now()); err != nil {
			return err
		}
		return s.store.UpdateTicket(txCtx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket checked in", "ticket_id", ticket.TicketID, "event", ticket.Event.String())
	if s.notifier != nil {
		if err := s.notifier.TicketCheckedIn(ctx, ticket); err != nil {
			s.logger.Warn("check-in notification failed", "ticket", ticket.Address.String(), "error", err)
		}
	}
	return newTicketResponse(ticket), nil
}

func (s *LedgerService) UpdateEventCapacity(ctx context.Context, eventAddr domain.Address, caller uuid.UUID, capacity uint32) (_ *EventResponse, err error) {
	ctx, span := startSpan(ctx, "LedgerService.UpdateEventCapacity", eventAddr)
	defer func() { endSpan(span, err) }()

	var event *domain.Event
	err = s.store.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		event, err = s.lockEvent(txCtx, eventAddr)
		if err != nil {
			return err
		}
		if err := event.SetCapacity(caller, capacity); err != nil {
			return err
		}
		return s.store.UpdateEvent(txCtx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event capacity updated", "event", event.Address.String(), "capacity", capacity)
	return newEventResponse(event), nil
}

// GetEventStats reads whatever copy this tier holds; it does not require
// the tier to be authoritative.
func (s *LedgerService) GetEventStats(ctx context.Context, eventAddr domain.Address) (*domain.EventStats, error) {
	event, err := s.store.GetEvent(ctx, eventAddr)
	if err != nil {
		return nil, err
	}
	stats, err := event.Stats()
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *LedgerService) GetEvent(ctx context.Context, eventAddr domain.Address) (*EventResponse, error) {
	event, err := s.store.GetEvent(ctx, eventAddr)
	if err != nil {
		return nil, err
	}
	return newEventResponse(event), nil
}

func (s *LedgerService) GetTicket(ctx context.Context, ticketAddr domain.Address) (*TicketResponse, error) {
	ticket, err := s.store.GetTicket(ctx, ticketAddr)
	if err != nil {
		return nil, err
	}
	return newTicketResponse(ticket), nil
}

// lockEvent reads the event for update and only then checks where it is
// authoritative. The engine's migration snapshot takes the same lock, so
// a transition cannot slip between the check and the write.
func (s *LedgerService) lockEvent(ctx context.Context, addr domain.Address) (*domain.Event, error) {
	event, err := s.store.GetEventForUpdate(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAuthoritative(ctx, addr); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *LedgerService) ensureAuthoritative(ctx context.Context, addr domain.Address) error {
	loc := domain.LocationBase
	if s.engine != nil {
		var err error
		loc, err = s.engine.Location(ctx, addr)
		if err != nil {
			return err
		}
	}
	if !loc.AuthoritativeOn(s.cfg.Tier) {
		return fmt.Errorf("%w: %s is %s", domain.ErrNotAuthoritative, addr, loc)
	}
	return nil
}

// issue creates the ticket at its derived address before persisting the
// incremented counter; an existing ticket for the buyer aborts the tx.
func (s *LedgerService) issue(ctx context.Context, event *domain.Event, buyer uuid.UUID) (*domain.Ticket, error) {
	ticket := event.Issue(buyer, s.clock.Now())
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *LedgerService) notifyPurchased(ctx context.Context, event *domain.Event, ticket *domain.Ticket) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.TicketPurchased(ctx, event, ticket); err != nil {
		s.logger.Warn("purchase notification failed", "ticket", ticket.Address.String(), "error", err)
	}
}
