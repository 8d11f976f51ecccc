package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/srgjo27/tiered_ticket/internal/adapter/engine"
	"github.com/srgjo27/tiered_ticket/internal/adapter/queue"
	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/redisstore"
	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/sqlstore"
	"github.com/srgjo27/tiered_ticket/internal/platform/config"
	"github.com/srgjo27/tiered_ticket/internal/platform/database"
	"github.com/srgjo27/tiered_ticket/internal/platform/logging"
	"github.com/srgjo27/tiered_ticket/internal/platform/telemetry"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file read before the environment")
	// Requests for one event must be applied in the order they were
	// accepted, so a single in-flight delivery is the default.
	prefetch := pflag.Int("prefetch", 1, "unacknowledged requests held at once")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, os.Stdout).With("component", "tier-engine")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *prefetch, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("tier engine exited", "error", err)
		os.Exit(1)
	}
	logger.Info("tier engine stopped")
}

func run(ctx context.Context, cfg config.Config, prefetch int, logger *slog.Logger) error {
	if cfg.RabbitMQ.URL == "" {
		return errors.New("RABBITMQ_URL is required")
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, "tiered-ticket-engine", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

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

	rdb, err := database.NewRedisClient(ctx, cfg.Redis.Client(), logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	worker := engine.NewWorker(
		sqlstore.NewStore(db, dialect),
		redisstore.NewStore(rdb, logger),
		engine.NewLocationTracker(rdb),
		logger,
	)

	logger.Info("consuming tier requests", "queue", engine.RequestQueue, "prefetch", prefetch)
	return queue.Consume(ctx, cfg.RabbitMQ.URL, engine.RequestQueue, prefetch, worker.HandleMessage, logger)
}
