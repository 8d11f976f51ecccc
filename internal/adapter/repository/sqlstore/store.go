// Package sqlstore is the base-tier LedgerStore on database/sql. It runs on
// postgres in production and on sqlite for development and tests.
package sqlstore

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func parseAddress(s string, dst *domain.Address) error {
	addr, err := domain.ParseAddress(s)
	if err != nil {
		return err
	}
	*dst = addr
	return nil
}

func parseUUID(s string, dst *uuid.UUID) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*dst = id
	return nil
}
