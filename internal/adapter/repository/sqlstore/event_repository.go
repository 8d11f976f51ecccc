package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

const eventColumns = `address, organizer, title, description, price, capacity, tickets_sold, starts_at, ends_at, is_active`

func (s *Store) GetEvent(ctx context.Context, addr domain.Address) (*domain.Event, error) {
	row := s.queryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE address = ?`, addr.String())
	return scanEvent(row, addr)
}

func (s *Store) GetEventForUpdate(ctx context.Context, addr domain.Address) (*domain.Event, error) {
	row := s.queryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE address = ?`+s.dialect.forUpdate, addr.String())
	return scanEvent(row, addr)
}

func (s *Store) CreateEvent(ctx context.Context, event *domain.Event) error {
	_, err := s.exec(ctx, `
	INSERT INTO events (`+eventColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eventArgs(event)...)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return fmt.Errorf("event %s: %w", event.Address, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, event *domain.Event) error {
	result, err := s.exec(ctx, `
	UPDATE events
	SET title = ?,
		description = ?,
		price = ?,
		capacity = ?,
		tickets_sold = ?,
		starts_at = ?,
		ends_at = ?,
		is_active = ?
	WHERE address = ?
	`,
		event.Title,
		event.Description,
		int64(event.Price),
		int64(event.Capacity),
		int64(event.TicketsSold),
		toMicros(event.StartsAt),
		toMicros(event.EndsAt),
		event.IsActive,
		event.Address.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("event %s: %w", event.Address, domain.ErrNotFound)
	}
	return nil
}

// upsertEvent writes a restored event, replacing any stale copy.
func (s *Store) upsertEvent(ctx context.Context, event *domain.Event) error {
	_, err := s.exec(ctx, `
	INSERT INTO events (`+eventColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (address) DO UPDATE
	SET organizer = excluded.organizer,
		title = excluded.title,
		description = excluded.description,
		price = excluded.price,
		capacity = excluded.capacity,
		tickets_sold = excluded.tickets_sold,
		starts_at = excluded.starts_at,
		ends_at = excluded.ends_at,
		is_active = excluded.is_active
	`, eventArgs(event)...)
	if err != nil {
		return fmt.Errorf("failed to restore event %s: %w", event.Address, err)
	}
	return nil
}

// Price is a full uint64 and is stored bit-for-bit in a signed BIGINT.
func eventArgs(event *domain.Event) []any {
	return []any{
		event.Address.String(),
		event.Organizer.String(),
		event.Title,
		event.Description,
		int64(event.Price),
		int64(event.Capacity),
		int64(event.TicketsSold),
		toMicros(event.StartsAt),
		toMicros(event.EndsAt),
		event.IsActive,
	}
}

func scanEvent(row rowScanner, addr domain.Address) (*domain.Event, error) {
	var (
		event                        domain.Event
		address, organizer           string
		price, capacity, ticketsSold int64
		startsAt, endsAt             int64
	)

	err := row.Scan(
		&address,
		&organizer,
		&event.Title,
		&event.Description,
		&price,
		&capacity,
		&ticketsSold,
		&startsAt,
		&endsAt,
		&event.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("event %s: %w", addr, domain.ErrNotFound)
		}
		return nil, err
	}

	if err := parseAddress(address, &event.Address); err != nil {
		return nil, err
	}
	if err := parseUUID(organizer, &event.Organizer); err != nil {
		return nil, err
	}
	event.Price = uint64(price)
	event.Capacity = uint32(capacity)
	event.TicketsSold = uint32(ticketsSold)
	event.StartsAt = fromMicros(startsAt)
	event.EndsAt = fromMicros(endsAt)

	return &event, nil
}
