package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
	"github.com/srgjo27/tiered_ticket/internal/core/services"
)

type DelegationHandler struct {
	svc *services.DelegationService
}

func NewDelegationHandler(svc *services.DelegationService) *DelegationHandler {
	return &DelegationHandler{svc: svc}
}

func (h *DelegationHandler) Delegate(c echo.Context) error {
	return h.accept(c, h.svc.Delegate)
}

func (h *DelegationHandler) Commit(c echo.Context) error {
	return h.accept(c, h.svc.Commit)
}

func (h *DelegationHandler) Undelegate(c echo.Context) error {
	return h.accept(c, h.svc.Undelegate)
}

func (h *DelegationHandler) CommitAndUndelegate(c echo.Context) error {
	return h.accept(c, h.svc.CommitAndUndelegate)
}

func (h *DelegationHandler) Location(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.Location(c.Request().Context(), addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// accept answers 202 with the location the request moved the event to;
// the transfer itself finishes later in the engine.
func (h *DelegationHandler) accept(c echo.Context, request func(context.Context, domain.Address, uuid.UUID) error) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := request(ctx, addr, principalFrom(c)); err != nil {
		return err
	}

	resp, err := h.svc.Location(ctx, addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, resp)
}
