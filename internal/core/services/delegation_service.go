package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/ports"
)

// DelegationService forwards tier-transfer requests for an event to the
// engine after checking the caller is its organizer. It never commits
// implicitly: Undelegate discards fast-tier changes made since the last
// Commit.
type DelegationService struct {
	events ports.EventRepository
	engine ports.TierEngine
	logger *slog.Logger
}

func NewDelegationService(events ports.EventRepository, engine ports.TierEngine, logger *slog.Logger) *DelegationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DelegationService{
		events: events,
		engine: engine,
		logger: logger,
	}
}

func (s *DelegationService) Delegate(ctx context.Context, eventAddr domain.Address, caller uuid.UUID) error {
	return s.request(ctx, domain.RequestDelegate, eventAddr, caller)
}

func (s *DelegationService) Commit(ctx context.Context, eventAddr domain.Address, caller uuid.UUID) error {
	return s.request(ctx, domain.RequestCommit, eventAddr, caller)
}

func (s *DelegationService) Undelegate(ctx context.Context, eventAddr domain.Address, caller uuid.UUID) error {
	return s.request(ctx, domain.RequestUndelegate, eventAddr, caller)
}

func (s *DelegationService) CommitAndUndelegate(ctx context.Context, eventAddr domain.Address, caller uuid.UUID) error {
	return s.request(ctx, domain.RequestCommitAndUndelegate, eventAddr, caller)
}

func (s *DelegationService) Location(ctx context.Context, eventAddr domain.Address) (*LocationResponse, error) {
	loc := domain.LocationBase
	if s.engine != nil {
		var err error
		loc, err = s.engine.Location(ctx, eventAddr)
		if err != nil {
			return nil, err
		}
	}
	return &LocationResponse{
		Event:        eventAddr.String(),
		Location:     string(loc),
		InTransition: loc.InTransition(),
	}, nil
}

func (s *DelegationService) request(ctx context.Context, kind domain.RequestKind, eventAddr domain.Address, caller uuid.UUID) (err error) {
	ctx, span := startSpan(ctx, "DelegationService."+string(kind), eventAddr)
	defer func() { endSpan(span, err) }()

	if s.engine == nil {
		return fmt.Errorf("%w: no tier engine configured", domain.ErrEngineUnavailable)
	}

	event, err := s.events.GetEvent(ctx, eventAddr)
	if err != nil {
		return err
	}
	if !event.IsOrganizer(caller) {
		return domain.ErrUnauthorized
	}

	switch kind {
	case domain.RequestDelegate:
		err = s.engine.RequestDelegate(ctx, eventAddr)
	case domain.RequestCommit:
		err = s.engine.RequestCommit(ctx, eventAddr)
	case domain.RequestUndelegate:
		err = s.engine.RequestUndelegate(ctx, eventAddr)
	case domain.RequestCommitAndUndelegate:
		err = s.engine.RequestCommitAndUndelegate(ctx, eventAddr)
	default:
		err = fmt.Errorf("%w: unknown request %q", domain.ErrInvalidInput, kind)
	}
	if err != nil {
		return err
	}

	s.logger.Info("tier request accepted", "kind", string(kind), "event", eventAddr.String(), "title", event.Title)
	return nil
}
