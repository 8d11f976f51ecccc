package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/srgjo27/tiered_ticket/internal/adapter/engine"
	"github.com/srgjo27/tiered_ticket/internal/adapter/handler"
	"github.com/srgjo27/tiered_ticket/internal/adapter/queue"
	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/redisstore"
	"github.com/srgjo27/tiered_ticket/internal/adapter/repository/sqlstore"
	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/ports"
	"github.com/srgjo27/tiered_ticket/internal/core/services"
	"github.com/srgjo27/tiered_ticket/internal/platform/auth"
	"github.com/srgjo27/tiered_ticket/internal/platform/clock"
	"github.com/srgjo27/tiered_ticket/internal/platform/config"
	"github.com/srgjo27/tiered_ticket/internal/platform/database"
	"github.com/srgjo27/tiered_ticket/internal/platform/logging"
	"github.com/srgjo27/tiered_ticket/internal/platform/telemetry"
)

const devJWTSecret = "dev-insecure-secret"

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file read before the environment")
	tier := pflag.String("tier", "", "tier to serve, base or fast (overrides LEDGER_TIER)")
	port := pflag.String("port", "", "listen port (overrides APP_PORT)")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if *tier != "" {
		cfg.Tier = *tier
	}
	if *port != "" {
		cfg.Port = *port
	}

	logger := logging.New(cfg.Env, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("api exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server exiting")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	tier, err := domain.ParseTier(cfg.Tier)
	if err != nil {
		return err
	}
	logger = logger.With("tier", string(tier))

	shutdownTelemetry, err := telemetry.Setup(ctx, "tiered-ticket-api", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	var (
		tierEngine ports.TierEngine
		notifier   ports.TicketNotifier
		rdb        *redis.Client
	)
	if cfg.RabbitMQ.URL != "" || tier == domain.TierFast {
		rdb, err = database.NewRedisClient(ctx, cfg.Redis.Client(), logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}
	if cfg.RabbitMQ.URL != "" {
		pub, err := queue.Dial(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return err
		}
		defer pub.Close()

		tierEngine = engine.New(engine.NewLocationTracker(rdb), pub, clock.NewSystem(), logger)
		notifier = queue.NewNotifier(pub, tier)
	} else if tier == domain.TierFast {
		return errors.New("the fast tier needs RABBITMQ_URL: without an engine no event is ever delegated to it")
	} else {
		logger.Warn("RABBITMQ_URL not set, running without a tier engine: every event stays on base")
	}

	var (
		store    ports.LedgerStore
		payments ports.PaymentGateway
		accounts *handler.AccountHandler
	)
	switch tier {
	case domain.TierBase:
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

		sqlStore := sqlstore.NewStore(db, dialect)
		store, payments = sqlStore, sqlStore
		accounts = handler.NewAccountHandler(services.NewAccountService(services.AccountConfig{
			AirdropEnabled: cfg.AirdropEnabled,
			AirdropMax:     cfg.AirdropMax,
		}, sqlStore, logger))
	case domain.TierFast:
		store = redisstore.NewStore(rdb, logger)
	}

	ledger := services.NewLedgerService(services.LedgerConfig{
		Tier:                               tier,
		RequireOrganizerSignatureOnCheckIn: cfg.RequireOrganizerSignatureOnCheckIn,
	}, services.LedgerDeps{
		Store:    store,
		Payments: payments,
		Engine:   tierEngine,
		Notifier: notifier,
		Logger:   logger,
	})

	var delegation *handler.DelegationHandler
	if tierEngine != nil {
		delegation = handler.NewDelegationHandler(services.NewDelegationService(store, tierEngine, logger))
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}

	router := handler.NewRouter(handler.Deps{
		Tier:       tier,
		Signer:     auth.NewSigner(secret),
		Ledger:     handler.NewLedgerHandler(ledger),
		Delegation: delegation,
		Accounts:   accounts,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
