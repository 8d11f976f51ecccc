// Package redisstore is the fast-tier LedgerStore. Events and tickets are
// CBOR records under their own keys; each event also keeps the set of its
// ticket addresses so the tier engine can snapshot it.
package redisstore

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/redis/go-redis/v9"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

type Store struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewStore(client redis.UniversalClient, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

func eventKey(addr domain.Address) string {
	return "fast:event:" + addr.String()
}

func eventTicketsKey(addr domain.Address) string {
	return "fast:event:" + addr.String() + ":tickets"
}

func ticketKey(addr domain.Address) string {
	return "fast:ticket:" + addr.String()
}

func (s *Store) GetEvent(ctx context.Context, addr domain.Address) (*domain.Event, error) {
	var event *domain.Event
	err := s.run(ctx, func(t *txn) error {
		var err error
		event, err = s.loadEvent(ctx, t, addr)
		return err
	})
	return event, err
}

// GetEventForUpdate is GetEvent: the read is recorded, and any concurrent
// write to the event aborts this transaction's commit.
func (s *Store) GetEventForUpdate(ctx context.Context, addr domain.Address) (*domain.Event, error) {
	return s.GetEvent(ctx, addr)
}

func (s *Store) CreateEvent(ctx context.Context, event *domain.Event) error {
	return s.run(ctx, func(t *txn) error {
		_, exists, err := t.get(ctx, s.client, eventKey(event.Address))
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("event %s: %w", event.Address, domain.ErrAlreadyExists)
		}
		return s.putEvent(t, event)
	})
}

func (s *Store) UpdateEvent(ctx context.Context, event *domain.Event) error {
	return s.run(ctx, func(t *txn) error {
		if _, err := s.loadEvent(ctx, t, event.Address); err != nil {
			return err
		}
		return s.putEvent(t, event)
	})
}

func (s *Store) GetTicket(ctx context.Context, addr domain.Address) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.run(ctx, func(t *txn) error {
		var err error
		ticket, err = s.loadTicket(ctx, t, addr)
		return err
	})
	return ticket, err
}

func (s *Store) GetTicketForUpdate(ctx context.Context, addr domain.Address) (*domain.Ticket, error) {
	return s.GetTicket(ctx, addr)
}

func (s *Store) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	return s.run(ctx, func(t *txn) error {
		_, exists, err := t.get(ctx, s.client, ticketKey(ticket.Address))
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("ticket %s: %w", ticket.Address, domain.ErrAlreadyExists)
		}
		if err := s.putTicket(t, ticket); err != nil {
			return err
		}
		t.sadd(eventTicketsKey(ticket.Event), ticket.Address.String())
		return nil
	})
}

func (s *Store) UpdateTicket(ctx context.Context, ticket *domain.Ticket) error {
	return s.run(ctx, func(t *txn) error {
		if _, err := s.loadTicket(ctx, t, ticket.Address); err != nil {
			return err
		}
		return s.putTicket(t, ticket)
	})
}

func (s *Store) Snapshot(ctx context.Context, addr domain.Address) (*domain.EventSnapshot, error) {
	var snap *domain.EventSnapshot
	err := s.run(ctx, func(t *txn) error {
		var err error
		snap, err = s.snapshot(ctx, t, addr)
		return err
	})
	return snap, err
}

// Restore replaces whatever this tier holds for the event with snap.
func (s *Store) Restore(ctx context.Context, snap *domain.EventSnapshot) error {
	return s.run(ctx, func(t *txn) error {
		addr := snap.Event.Address
		stale, err := t.members(ctx, s.client, eventTicketsKey(addr))
		if err != nil {
			return err
		}
		for _, member := range stale {
			ticketAddr, err := domain.ParseAddress(member)
			if err != nil {
				return err
			}
			t.del(ticketKey(ticketAddr))
		}
		t.clearSet(eventTicketsKey(addr))

		if err := s.putEvent(t, &snap.Event); err != nil {
			return err
		}
		members := make([]string, 0, len(snap.Tickets))
		for i := range snap.Tickets {
			if err := s.putTicket(t, &snap.Tickets[i]); err != nil {
				return err
			}
			members = append(members, snap.Tickets[i].Address.String())
		}
		if len(members) > 0 {
			t.sadd(eventTicketsKey(addr), members...)
		}
		return nil
	})
}

func (s *Store) Discard(ctx context.Context, snap *domain.EventSnapshot) error {
	return s.run(ctx, func(t *txn) error {
		addr := snap.Event.Address
		current, err := s.snapshot(ctx, t, addr)
		if err != nil {
			return err
		}
		if !domain.SameSnapshot(current, snap) {
			return fmt.Errorf("event %s: %w", addr, domain.ErrSnapshotStale)
		}
		for _, ticket := range current.Tickets {
			t.del(ticketKey(ticket.Address))
		}
		t.clearSet(eventTicketsKey(addr))
		t.del(eventKey(addr))
		return nil
	})
}

func (s *Store) snapshot(ctx context.Context, t *txn, addr domain.Address) (*domain.EventSnapshot, error) {
	event, err := s.loadEvent(ctx, t, addr)
	if err != nil {
		return nil, err
	}
	members, err := t.members(ctx, s.client, eventTicketsKey(addr))
	if err != nil {
		return nil, err
	}

	snap := &domain.EventSnapshot{Event: *event}
	for _, member := range members {
		ticketAddr, err := domain.ParseAddress(member)
		if err != nil {
			return nil, err
		}
		ticket, err := s.loadTicket(ctx, t, ticketAddr)
		if err != nil {
			return nil, err
		}
		snap.Tickets = append(snap.Tickets, *ticket)
	}
	slices.SortFunc(snap.Tickets, func(a, b domain.Ticket) int { return cmp.Compare(a.TicketID, b.TicketID) })
	return snap, nil
}

func (s *Store) loadEvent(ctx context.Context, t *txn, addr domain.Address) (*domain.Event, error) {
	data, exists, err := t.get(ctx, s.client, eventKey(addr))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("event %s: %w", addr, domain.ErrNotFound)
	}
	event, err := decodeEvent(data)
	if err != nil {
		return nil, fmt.Errorf("decode event %s: %w", addr, err)
	}
	return event, nil
}

func (s *Store) loadTicket(ctx context.Context, t *txn, addr domain.Address) (*domain.Ticket, error) {
	data, exists, err := t.get(ctx, s.client, ticketKey(addr))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("ticket %s: %w", addr, domain.ErrNotFound)
	}
	ticket, err := decodeTicket(data)
	if err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", addr, err)
	}
	return ticket, nil
}

func (s *Store) putEvent(t *txn, event *domain.Event) error {
	data, err := encodeEvent(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Address, err)
	}
	t.put(eventKey(event.Address), data)
	return nil
}

func (s *Store) putTicket(t *txn, ticket *domain.Ticket) error {
	data, err := encodeTicket(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket %s: %w", ticket.Address, err)
	}
	t.put(ticketKey(ticket.Address), data)
	return nil
}
