package domain

import "errors"

var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrEventSoldOut      = errors.New("event is sold out")
	ErrEventInactive     = errors.New("event is not active")
	ErrTicketAlreadyUsed = errors.New("ticket has already been used")
	ErrUnauthorized      = errors.New("unauthorized organizer")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrNotFound          = errors.New("not found")
	ErrEngineUnavailable = errors.New("tier engine unavailable")

	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrNotAuthoritative      = errors.New("event is not authoritative on this tier")
	ErrWrongTier             = errors.New("operation not available on this tier")
	ErrInvalidTierTransition = errors.New("invalid tier transition")
	ErrRevenueOverflow       = errors.New("revenue overflows uint64")
	ErrSnapshotStale         = errors.New("snapshot is stale")
)
