package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) GetMeta(ctx echo.Context) error {
	meta, err := c.premiums.Meta(ctx.Request().Context())
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, meta)
}

func (c *Controller) LookupRegion(ctx echo.Context) error {
	region, err := c.premiums.LookupRegion(ctx.Request().Context(), ctx.QueryParam("plz"))
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, region)
}
