package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusMisdirectedRequest tells the client to retry on the other tier.
const StatusMisdirectedRequest = http.StatusMisdirectedRequest

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, domain.ErrEventSoldOut):
		return http.StatusConflict, "event_sold_out"
	case errors.Is(err, domain.ErrEventInactive):
		return http.StatusConflict, "event_inactive"
	case errors.Is(err, domain.ErrTicketAlreadyUsed):
		return http.StatusConflict, "ticket_already_used"
	case errors.Is(err, domain.ErrNotAuthoritative):
		return http.StatusConflict, "not_authoritative"
	case errors.Is(err, domain.ErrInvalidTierTransition):
		return http.StatusConflict, "invalid_tier_transition"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, services.ErrAirdropDisabled):
		return http.StatusForbidden, "airdrop_disabled"
	case errors.Is(err, domain.ErrPaymentFailed):
		return http.StatusPaymentRequired, "payment_failed"
	case errors.Is(err, domain.ErrEngineUnavailable):
		return http.StatusServiceUnavailable, "engine_unavailable"
	case errors.Is(err, domain.ErrWrongTier):
		return StatusMisdirectedRequest, "wrong_tier"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_input"
	}
	return http.StatusInternalServerError, "internal_error"
}

// ErrorHandler renders every error as {error, code}. Internal errors are
// logged and their text withheld from the client.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var status int
		var resp errorResponse
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			resp = errorResponse{Error: http.StatusText(status), Code: codeForHTTPStatus(status)}
			if msg, ok := httpErr.Message.(string); ok {
				resp.Error = msg
			}
		} else {
			var code string
			status, code = statusFor(err)
			resp = errorResponse{Error: err.Error(), Code: code}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
			if status == http.StatusInternalServerError {
				resp.Error = "internal server error"
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func codeForHTTPStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return "invalid_request_body"
	}
	return "internal_error"
}
