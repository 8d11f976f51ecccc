package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/srgjo27/tiered_ticket/internal/platform/auth"
)

const principalKey = "principal"

// RequirePrincipal authenticates the bearer token and stores the caller's
// principal in the context. The token's subject stands in for the
// signature of whoever calls.
func RequirePrincipal(signer *auth.Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			principal, err := signer.Parse(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func principalFrom(c echo.Context) uuid.UUID {
	principal, _ := c.Get(principalKey).(uuid.UUID)
	return principal
}
