package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/platform/auth"
)

// Deps carries what the router mounts. Delegation and Accounts are
// optional: a fast-tier instance has no accounts, and a deployment
// without an engine exposes no tier routes.
type Deps struct {
	Tier       domain.Tier
	Signer     *auth.Signer
	Ledger     *LedgerHandler
	Delegation *DelegationHandler
	Accounts   *AccountHandler
	Logger     *slog.Logger
}

func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(d.Logger)

	e.Use(middleware.Recover())
	e.Use(requestLogger(d.Logger))

	e.GET("/healthz", Health(d.Tier))

	v1 := e.Group("/v1")
	v1.GET("/events/:address", d.Ledger.GetEvent)
	v1.GET("/events/:address/stats", d.Ledger.GetEventStats)
	v1.GET("/tickets/:address", d.Ledger.GetTicket)

	authed := RequirePrincipal(d.Signer)
	v1.POST("/events", d.Ledger.InitializeEvent, authed)
	v1.PATCH("/events/:address/capacity", d.Ledger.UpdateEventCapacity, authed)
	v1.POST("/events/:address/tickets", d.Ledger.PurchaseTicket, authed)
	v1.POST("/events/:address/tickets/fast", d.Ledger.PurchaseTicketAndCommit, authed)
	v1.POST("/tickets/:address/check-in", d.Ledger.CheckInTicket, authed)

	if d.Delegation != nil {
		v1.GET("/events/:address/location", d.Delegation.Location)
		v1.POST("/events/:address/delegate", d.Delegation.Delegate, authed)
		v1.POST("/events/:address/commit", d.Delegation.Commit, authed)
		v1.POST("/events/:address/undelegate", d.Delegation.Undelegate, authed)
		v1.POST("/events/:address/commit-and-undelegate", d.Delegation.CommitAndUndelegate, authed)
	}

	if d.Accounts != nil {
		v1.GET("/accounts/me/balance", d.Accounts.Balance, authed)
		v1.POST("/accounts/me/airdrop", d.Accounts.Airdrop, authed)
	}

	return e
}

func Health(tier domain.Tier) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "tier": string(tier)})
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}
