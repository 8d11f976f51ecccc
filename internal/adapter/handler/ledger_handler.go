package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/srgjo27/tiered_ticket/internal/core/services"
)

type LedgerHandler struct {
	svc *services.LedgerService
}

func NewLedgerHandler(svc *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{svc: svc}
}

func (h *LedgerHandler) InitializeEvent(c echo.Context) error {
	var req services.InitializeEventRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.svc.InitializeEvent(c.Request().Context(), principalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *LedgerHandler) GetEvent(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.GetEvent(c.Request().Context(), addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *LedgerHandler) GetEventStats(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}

	stats, err := h.svc.GetEventStats(c.Request().Context(), addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

type updateCapacityRequest struct {
	Capacity uint32 `json:"capacity"`
}

func (h *LedgerHandler) UpdateEventCapacity(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}
	var req updateCapacityRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.svc.UpdateEventCapacity(c.Request().Context(), addr, principalFrom(c), req.Capacity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type purchaseTicketRequest struct {
	PayoutAccount uuid.UUID `json:"payout_account"`
}

func (h *LedgerHandler) PurchaseTicket(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}
	var req purchaseTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.svc.PurchaseTicket(c.Request().Context(), addr, principalFrom(c), req.PayoutAccount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *LedgerHandler) PurchaseTicketAndCommit(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.PurchaseTicketAndCommit(c.Request().Context(), addr, principalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *LedgerHandler) CheckInTicket(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.CheckInTicket(c.Request().Context(), addr, principalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *LedgerHandler) GetTicket(c echo.Context) error {
	addr, err := addressParam(c)
	if err != nil {
		return err
	}

	resp, err := h.svc.GetTicket(c.Request().Context(), addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
