package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/srgjo27/tiered_ticket/internal/core/domain"
)

func addressParam(c echo.Context) (domain.Address, error) {
	return domain.ParseAddress(c.Param("address"))
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	return nil
}
