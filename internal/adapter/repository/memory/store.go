// Package memory is a process-local LedgerStore. Transactions hold a single
// store-wide lock and roll back by restoring a copy of the maps, which
// gives the same all-or-nothing behaviour as the SQL store.
//
// It is test-only: service, handler and engine tests use it, and no cmd
// binary wires it.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

type txKey struct{}

type state struct {
	events   map[domain.Address]domain.Event
	tickets  map[domain.Address]domain.Ticket
	balances map[uuid.UUID]uint64
}

func (s state) clone() state {
	return state{
		events:   maps.Clone(s.events),
		tickets:  maps.Clone(s.tickets),
		balances: maps.Clone(s.balances),
	}
}

type Store struct {
	mu sync.Mutex
	st state
}

func NewStore() *Store {
	return &Store{st: state{
		events:   map[domain.Address]domain.Event{},
		tickets:  map[domain.Address]domain.Ticket{},
		balances: map[uuid.UUID]uint64{},
	}}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.st = saved
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// do runs fn under the store lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, fn func() error) error {
	if inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) GetEvent(ctx context.Context, addr domain.Address) (*domain.Event, error) {
	var out *domain.Event
	err := s.do(ctx, func() error {
		event, ok := s.st.events[addr]
		if !ok {
			return fmt.Errorf("event %s: %w", addr, domain.ErrNotFound)
		}
		out = &event
		return nil
	})
	return out, err
}

func (s *Store) GetEventForUpdate(ctx context.Context, addr domain.Address) (*domain.Event, error) {
	return s.GetEvent(ctx, addr)
}

func (s *Store) CreateEvent(ctx context.Context, event *domain.Event) error {
	return s.do(ctx, func() error {
		if _, ok := s.st.events[event.Address]; ok {
			return fmt.Errorf("event %s: %w", event.Address, domain.ErrAlreadyExists)
		}
		s.st.events[event.Address] = *event
		return nil
	})
}

func (s *Store) UpdateEvent(ctx context.Context, event *domain.Event) error {
	return s.do(ctx, func() error {
		if _, ok := s.st.events[event.Address]; !ok {
			return fmt.Errorf("event %s: %w", event.Address, domain.ErrNotFound)
		}
		s.st.events[event.Address] = *event
		return nil
	})
}

func (s *Store) GetTicket(ctx context.Context, addr domain.Address) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := s.do(ctx, func() error {
		ticket, ok := s.st.tickets[addr]
		if !ok {
			return fmt.Errorf("ticket %s: %w", addr, domain.ErrNotFound)
		}
		out = copyTicket(ticket)
		return nil
	})
	return out, err
}

func (s *Store) GetTicketForUpdate(ctx context.Context, addr domain.Address) (*domain.Ticket, error) {
	return s.GetTicket(ctx, addr)
}

func (s *Store) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	return s.do(ctx, func() error {
		if _, ok := s.st.tickets[ticket.Address]; ok {
			return fmt.Errorf("ticket %s: %w", ticket.Address, domain.ErrAlreadyExists)
		}
		s.st.tickets[ticket.Address] = *copyTicket(*ticket)
		return nil
	})
}

func (s *Store) UpdateTicket(ctx context.Context, ticket *domain.Ticket) error {
	return s.do(ctx, func() error {
		if _, ok := s.st.tickets[ticket.Address]; !ok {
			return fmt.Errorf("ticket %s: %w", ticket.Address, domain.ErrNotFound)
		}
		s.st.tickets[ticket.Address] = *copyTicket(*ticket)
		return nil
	})
}

func (s *Store) Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error {
	return s.do(ctx, func() error {
		if s.st.balances[from] < amount {
			return fmt.Errorf("%w: insufficient funds in %s", domain.ErrPaymentFailed, from)
		}
		if _, ok := s.st.balances[to]; !ok {
			return fmt.Errorf("%w: unknown destination %s", domain.ErrPaymentFailed, to)
		}
		if from != to && s.st.balances[to] > math.MaxUint64-amount {
			return fmt.Errorf("%w: destination balance overflow", domain.ErrPaymentFailed)
		}
		s.st.balances[from] -= amount
		s.st.balances[to] += amount
		return nil
	})
}

func (s *Store) Credit(ctx context.Context, account uuid.UUID, amount uint64) error {
	return s.do(ctx, func() error {
		if s.st.balances[account] > math.MaxUint64-amount {
			return fmt.Errorf("%w: balance overflow", domain.ErrInvalidInput)
		}
		s.st.balances[account] += amount
		return nil
	})
}

func (s *Store) Balance(ctx context.Context, account uuid.UUID) (uint64, error) {
	var balance uint64
	err := s.do(ctx, func() error {
		balance = s.st.balances[account]
		return nil
	})
	return balance, err
}

func (s *Store) Snapshot(ctx context.Context, addr domain.Address) (*domain.EventSnapshot, error) {
	var snap *domain.EventSnapshot
	err := s.do(ctx, func() error {
		var err error
		snap, err = s.snapshot(addr)
		return err
	})
	return snap, err
}

func (s *Store) snapshot(addr domain.Address) (*domain.EventSnapshot, error) {
	event, ok := s.st.events[addr]
	if !ok {
		return nil, fmt.Errorf("event %s: %w", addr, domain.ErrNotFound)
	}
	snap := &domain.EventSnapshot{Event: event}
	for _, ticket := range s.st.tickets {
		if ticket.Event == addr {
			snap.Tickets = append(snap.Tickets, *copyTicket(ticket))
		}
	}
	slices.SortFunc(snap.Tickets, func(a, b domain.Ticket) int { return cmp.Compare(a.TicketID, b.TicketID) })
	return snap, nil
}

func (s *Store) Restore(ctx context.Context, snap *domain.EventSnapshot) error {
	return s.do(ctx, func() error {
		s.st.events[snap.Event.Address] = snap.Event
		for _, ticket := range snap.Tickets {
			s.st.tickets[ticket.Address] = *copyTicket(ticket)
		}
		return nil
	})
}

func (s *Store) Discard(ctx context.Context, snap *domain.EventSnapshot) error {
	return s.do(ctx, func() error {
		addr := snap.Event.Address
		current, err := s.snapshot(addr)
		if err != nil {
			return err
		}
		if !domain.SameSnapshot(current, snap) {
			return fmt.Errorf("event %s: %w", addr, domain.ErrSnapshotStale)
		}
		delete(s.st.events, addr)
		for _, ticket := range current.Tickets {
			delete(s.st.tickets, ticket.Address)
		}
		return nil
	})
}

func copyTicket(t domain.Ticket) *domain.Ticket {
	if t.CheckInTime != nil {
		checkIn := *t.CheckInTime
		t.CheckInTime = &checkIn
	}
	return &t
}
