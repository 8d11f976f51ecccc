package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/srgjo27/tiered_ticket/internal/core/services"
)

type AccountHandler struct {
	svc *services.AccountService
}

func NewAccountHandler(svc *services.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) Balance(c echo.Context) error {
	resp, err := h.svc.Balance(c.Request().Context(), principalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type airdropRequest struct {
	Amount uint64 `json:"amount"`
}

func (h *AccountHandler) Airdrop(c echo.Context) error {
	var req airdropRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.svc.Airdrop(c.Request().Context(), principalFrom(c), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
