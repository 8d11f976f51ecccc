// Command ledgerctl is the operator tool: it issues bearer tokens, runs
// migrations, derives addresses and reports where an event lives.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/srgjo27/tiered_ticket/internal/adapter/engine"
	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/sqlstore"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/platform/auth"
	"github.com/srgjo27/tiered_ticket/internal/platform/config"
	"github.com/srgjo27/tiered_ticket/internal/platform/database"
	"github.com/srgjo27/tiered_ticket/internal/platform/logging"
)

const usage = `usage: ledgerctl <command> [flags]

commands:
  token      issue a bearer token for a principal
  migrate    apply base-tier schema migrations
  address    derive an event or ticket address
  location   show which tier an event is authoritative on
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "token":
		err = runToken(os.Args[2:], os.Stdout)
	case "migrate":
		err = runMigrate(ctx, os.Args[2:])
	case "address":
		err = runAddress(os.Args[2:], os.Stdout)
	case "location":
		err = runLocation(ctx, os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "ledgerctl:", err)
		os.Exit(1)
	}
}

func loadConfig(fs *pflag.FlagSet, args []string) (config.Config, *slog.Logger, error) {
	envFile := fs.String("env-file", ".env", "dotenv file read before the environment")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(*envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.Env, os.Stderr), nil
}

func runToken(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	sub := fs.String("sub", "", "principal UUID; a new one is generated when empty")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	secret := fs.String("secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return errors.New("a signing secret is required (--secret or JWT_SECRET)")
	}

	principal := uuid.New()
	if *sub != "" {
		var err error
		if principal, err = uuid.Parse(*sub); err != nil {
			return fmt.Errorf("--sub: %w", err)
		}
	}

	token, err := auth.NewSigner(*secret).Issue(principal, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "principal: %s\ntoken: %s\n", principal, token)
	return nil
}

func runMigrate(ctx context.Context, args []string) error {
	cfg, logger, err := loadConfig(pflag.NewFlagSet("migrate", pflag.ContinueOnError), args)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.DB.Driver, cfg.DB.Postgres(), cfg.DB.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	dialect, err := sqlstore.DialectFor(cfg.DB.Driver)
	if err != nil {
		return err
	}
	if err := sqlstore.Migrate(ctx, db, dialect); err != nil {
		return err
	}
	logger.Info("migrations applied", "driver", cfg.DB.Driver)
	return nil
}

func runAddress(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("address", pflag.ContinueOnError)
	organizer := fs.String("organizer", "", "organizer UUID (event address)")
	title := fs.String("title", "", "event title (event address)")
	event := fs.String("event", "", "event address (ticket address)")
	buyer := fs.String("buyer", "", "buyer UUID (ticket address)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *organizer != "":
		id, err := uuid.Parse(*organizer)
		if err != nil {
			return fmt.Errorf("--organizer: %w", err)
		}
		fmt.Fprintln(out, domain.EventAddress(id, *title))
	case *event != "" && *buyer != "":
		addr, err := domain.ParseAddress(*event)
		if err != nil {
			return fmt.Errorf("--event: %w", err)
		}
		id, err := uuid.Parse(*buyer)
		if err != nil {
			return fmt.Errorf("--buyer: %w", err)
		}
		fmt.Fprintln(out, domain.TicketAddress(addr, id))
	default:
		return errors.New("pass --organizer and --title, or --event and --buyer")
	}
	return nil
}

func runLocation(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("location", pflag.ContinueOnError)
	event := fs.String("event", "", "event address")
	cfg, logger, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	addr, err := domain.ParseAddress(*event)
	if err != nil {
		return fmt.Errorf("--event: %w", err)
	}

	rdb, err := database.NewRedisClient(ctx, cfg.Redis.Client(), logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	loc, err := engine.NewLocationTracker(rdb).Get(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, loc)
	return nil
}
