package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/premiums/internal/domain/dto"
)

func (c *Controller) CreateLead(ctx echo.Context) error {
	var req dto.LeadRequest
	// the leads service validates the body itself
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	resp, err := c.leads.Submit(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, resp)
}
