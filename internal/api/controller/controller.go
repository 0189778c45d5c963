package controller

import (
	"context"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/service/premiums"
)

type PremiumsService interface {
	Meta(ctx context.Context) (*dto.MetaResponse, error)
	LookupRegion(ctx context.Context, plz string) (*dto.RegionLookupResponse, error)
	Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error)
	Cheapest(ctx context.Context, req dto.CheapestRequest) (*dto.CheapestResponse, error)
	Compare(ctx context.Context, req dto.CompareRequest) (*dto.CompareResponse, error)
	Timeline(ctx context.Context, req dto.TimelineRequest) (*dto.TimelineResponse, error)
	Inflation(ctx context.Context, req dto.InflationRequest) (*dto.InflationResponse, error)
	CompareYears(ctx context.Context, req dto.CompareYearsRequest) (*dto.CompareYearsResponse, error)
	Ranking(ctx context.Context, req dto.RankingRequest) (*dto.RankingResponse, error)
	ChartImage(ctx context.Context, query url.Values) *premiums.Image
}

type LeadsService interface {
	Submit(ctx context.Context, req dto.LeadRequest) (*dto.LeadResponse, error)
}

type ImportService interface {
	Run(ctx context.Context, req dto.ImportRequest) (*dto.ImportResponse, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	premiums PremiumsService
	leads    LeadsService
	importer ImportService
	db       Pinger
}

func NewController(premiums PremiumsService, leads LeadsService, importer ImportService, db Pinger) *Controller {
	return &Controller{premiums: premiums, leads: leads, importer: importer, db: db}
}

// bind fills req from the query string or body and runs the struct validation.
func bind(ctx echo.Context, req interface{}) error {
	if err := ctx.Bind(req); err != nil {
		return err
	}
	return ctx.Validate(req)
}

func cacheable(ctx echo.Context) {
	ctx.Response().Header().Set(echo.HeaderCacheControl, constants.CacheControlPublic)
}
