package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

// Balances live in a signed BIGINT, so no single amount or balance may
// exceed math.MaxInt64.

// Transfer debits from and credits to inside the transaction carried by
// ctx, opening one if there is none. Both accounts must exist.
func (s *Store) Transfer(ctx context.Context, from, to uuid.UUID, amount uint64) error {
	if amount > math.MaxInt64 {
		return fmt.Errorf("%w: amount %d out of range", domain.ErrPaymentFailed, amount)
	}

	return s.WithTx(ctx, func(ctx context.Context) error {
		result, err := s.exec(ctx, `
		UPDATE accounts
		SET balance = balance - ?
		WHERE id = ? AND balance >= ?
		`, int64(amount), from.String(), int64(amount))
		if err != nil {
			return fmt.Errorf("failed to debit %s: %w", from, err)
		}
		if err := expectOneRow(result, fmt.Errorf("%w: insufficient funds in %s", domain.ErrPaymentFailed, from)); err != nil {
			return err
		}

		result, err = s.exec(ctx, `
		UPDATE accounts
		SET balance = balance + ?
		WHERE id = ? AND balance <= ?
		`, int64(amount), to.String(), int64(math.MaxInt64-amount))
		if err != nil {
			return fmt.Errorf("failed to credit %s: %w", to, err)
		}
		return expectOneRow(result, fmt.Errorf("%w: cannot credit %s", domain.ErrPaymentFailed, to))
	})
}

// Credit adds amount to account, creating it when absent. Crediting zero
// only opens the account.
func (s *Store) Credit(ctx context.Context, account uuid.UUID, amount uint64) error {
	if amount > math.MaxInt64 {
		return fmt.Errorf("%w: amount %d out of range", domain.ErrInvalidInput, amount)
	}

	return s.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.Balance(ctx, account)
		if err != nil {
			return err
		}
		if current > math.MaxInt64-amount {
			return fmt.Errorf("%w: balance overflow", domain.ErrInvalidInput)
		}

		_, err = s.exec(ctx, `
		INSERT INTO accounts (id, balance)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE
		SET balance = accounts.balance + excluded.balance
		`, account.String(), int64(amount))
		if err != nil {
			return fmt.Errorf("failed to credit %s: %w", account, err)
		}
		return nil
	})
}

// Balance reports zero for an account that was never credited.
func (s *Store) Balance(ctx context.Context, account uuid.UUID) (uint64, error) {
	var balance int64
	err := s.queryRow(ctx, `SELECT balance FROM accounts WHERE id = ?`, account.String()).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return uint64(balance), nil
}

func expectOneRow(result sql.Result, otherwise error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return otherwise
	}
	return nil
}
