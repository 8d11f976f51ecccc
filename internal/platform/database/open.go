package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Open connects to the base-tier database selected by driver.
func Open(ctx context.Context, driver string, pg Config, sqlitePath string, logger *slog.Logger) (*sql.DB, error) {
	switch driver {
	case "postgres":
		return NewPostgresDB(ctx, pg, logger)
	case "sqlite":
		return NewSQLiteDB(ctx, sqlitePath)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}
