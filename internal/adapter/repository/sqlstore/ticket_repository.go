package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

const ticketColumns = `address, event_address, buyer, ticket_id, purchase_time, check_in_time, is_used`

func (s *Store) GetTicket(ctx context.Context, addr domain.Address) (*domain.Ticket, error) {
	row := s.queryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE address = ?`, addr.String())
	return scanTicket(row, addr)
}

func (s *Store) GetTicketForUpdate(ctx context.Context, addr domain.Address) (*domain.Ticket, error) {
	row := s.queryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE address = ?`+s.dialect.forUpdate, addr.String())
	return scanTicket(row, addr)
}

func (s *Store) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	_, err := s.exec(ctx, `
	INSERT INTO tickets (`+ticketColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ticketArgs(ticket)...)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return fmt.Errorf("ticket %s: %w", ticket.Address, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return nil
}

func (s *Store) UpdateTicket(ctx context.Context, ticket *domain.Ticket) error {
	result, err := s.exec(ctx, `
	UPDATE tickets
	SET check_in_time = ?,
		is_used = ?
	WHERE address = ?
	`, checkInArg(ticket), ticket.IsUsed, ticket.Address.String())
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("ticket %s: %w", ticket.Address, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ticketsByEvent(ctx context.Context, event domain.Address) ([]domain.Ticket, error) {
	rows, err := s.query(ctx, `
	SELECT `+ticketColumns+`
	FROM tickets
	WHERE event_address = ?
	ORDER BY ticket_id
	`, event.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows, domain.Address{})
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func (s *Store) upsertTicket(ctx context.Context, ticket *domain.Ticket) error {
	_, err := s.exec(ctx, `
	INSERT INTO tickets (`+ticketColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (address) DO UPDATE
	SET check_in_time = excluded.check_in_time,
		is_used = excluded.is_used
	`, ticketArgs(ticket)...)
	if err != nil {
		return fmt.Errorf("failed to restore ticket %s: %w", ticket.Address, err)
	}
	return nil
}

func ticketArgs(ticket *domain.Ticket) []any {
	return []any{
		ticket.Address.String(),
		ticket.Event.String(),
		ticket.Buyer.String(),
		int64(ticket.TicketID),
		toMicros(ticket.PurchaseTime),
		checkInArg(ticket),
		ticket.IsUsed,
	}
}

func checkInArg(ticket *domain.Ticket) sql.NullInt64 {
	if ticket.CheckInTime == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMicros(*ticket.CheckInTime), Valid: true}
}

func scanTicket(row rowScanner, addr domain.Address) (*domain.Ticket, error) {
	var (
		ticket                 domain.Ticket
		address, event, buyer  string
		ticketID, purchaseTime int64
		checkInTime            sql.NullInt64
	)

	err := row.Scan(
		&address,
		&event,
		&buyer,
		&ticketID,
		&purchaseTime,
		&checkInTime,
		&ticket.IsUsed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ticket %s: %w", addr, domain.ErrNotFound)
		}
		return nil, err
	}

	if err := parseAddress(address, &ticket.Address); err != nil {
		return nil, err
	}
	if err := parseAddress(event, &ticket.Event); err != nil {
		return nil, err
	}
	if err := parseUUID(buyer, &ticket.Buyer); err != nil {
		return nil, err
	}
	ticket.TicketID = uint32(ticketID)
	ticket.PurchaseTime = fromMicros(purchaseTime)
	if checkInTime.Valid {
		t := fromMicros(checkInTime.Int64)
		ticket.CheckInTime = &t
	}

	return &ticket, nil
}
