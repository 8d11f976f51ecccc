package sqlstore

import (
	"context"
	"fmt"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

// Snapshot reads the event under its row lock, so any purchase that
// already holds the lock commits before the snapshot is taken.
func (s *Store) Snapshot(ctx context.Context, addr domain.Address) (*domain.EventSnapshot, error) {
	var snap *domain.EventSnapshot
	err := s.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.GetEventForUpdate(ctx, addr)
		if err != nil {
			return err
		}
		tickets, err := s.ticketsByEvent(ctx, addr)
		if err != nil {
			return err
		}
		snap = &domain.EventSnapshot{Event: *event, Tickets: tickets}
		return nil
	})
	return snap, err
}

func (s *Store) Restore(ctx context.Context, snap *domain.EventSnapshot) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		if err := s.upsertEvent(ctx, &snap.Event); err != nil {
			return err
		}
		for i := range snap.Tickets {
			if err := s.upsertTicket(ctx, &snap.Tickets[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Discard(ctx context.Context, snap *domain.EventSnapshot) error {
	addr := snap.Event.Address
	return s.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.Snapshot(ctx, addr)
		if err != nil {
			return err
		}
		if !domain.SameSnapshot(current, snap) {
			return fmt.Errorf("event %s: %w", addr, domain.ErrSnapshotStale)
		}
		if _, err := s.exec(ctx, `DELETE FROM tickets WHERE event_address = ?`, addr.String()); err != nil {
			return fmt.Errorf("failed to delete tickets: %w", err)
		}
		if _, err := s.exec(ctx, `DELETE FROM events WHERE address = ?`, addr.String()); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
}
