package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/premiums/internal/domain/dto"
)

func (c *Controller) GetQuote(ctx echo.Context) error {
	var req dto.QuoteRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.premiums.Quote(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) GetCheapest(ctx echo.Context) error {
	var req dto.CheapestRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.premiums.Cheapest(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) ComparePremiums(ctx echo.Context) error {
	var req dto.CompareRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.premiums.Compare(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) GetTimeline(ctx echo.Context) error {
	var req dto.TimelineRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.premiums.Timeline(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) GetInflation(ctx echo.Context) error {
	var req dto.InflationRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.premiums.Inflation(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) CompareYears(ctx echo.Context) error {
	var req dto.CompareYearsRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.premiums.CompareYears(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) GetRanking(ctx echo.Context) error {
	var req dto.RankingRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	resp, err := c.premiums.Ranking(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	cacheable(ctx)
	return ctx.JSON(http.StatusOK, resp)
}

// GetChartImage always answers with an image, a placeholder when the link is bad.
func (c *Controller) GetChartImage(ctx echo.Context) error {
	img := c.premiums.ChartImage(ctx.Request().Context(), ctx.QueryParams())

	ctx.Response().Header().Set(echo.HeaderCacheControl, img.CacheControl)
	return ctx.Blob(http.StatusOK, img.ContentType, img.Body)
}
