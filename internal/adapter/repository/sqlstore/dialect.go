package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures what differs between the supported databases. Queries
// are written with ? placeholders and rebound per dialect.
type Dialect struct {
	Name string

	forUpdate         string
	numbered          bool
	advisoryLock      bool
	isUniqueViolation func(error) bool
}

func Postgres() Dialect {
	return Dialect{
		Name:         "postgres",
		forUpdate:    " FOR UPDATE",
		numbered:     true,
		advisoryLock: true,
		isUniqueViolation: func(err error) bool {
			var pqErr *pq.Error
			return errors.As(err, &pqErr) && pqErr.Code == "23505"
		},
	}
}

// SQLite has no row locks. The store relies on every transaction taking
// the database write lock at BEGIN (database.NewSQLiteDB opens with
// _txlock=immediate), which serializes transactions across processes.
func SQLite() Dialect {
	return Dialect{
		Name: "sqlite",
		isUniqueViolation: func(err error) bool {
			var sqliteErr *sqlite.Error
			if !errors.As(err, &sqliteErr) {
				return false
			}
			code := sqliteErr.Code()
			return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
		},
	}
}

func DialectFor(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql":
		return Postgres(), nil
	case "sqlite", "sqlite3":
		return SQLite(), nil
	}
	return Dialect{}, errors.New("unsupported database driver: " + name)
}

func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
