package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/premiums/internal/domain/dto"
)

// BackfillPremiums imports the yearly archives into the store.
func (c *Controller) BackfillPremiums(ctx echo.Context) error {
	var req dto.ImportRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.importer.Run(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) Health(ctx echo.Context) error {
	if err := c.db.Ping(ctx.Request().Context()); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
