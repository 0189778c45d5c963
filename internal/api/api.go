package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ougirez/premiums/internal/api/controller"
	"github.com/ougirez/premiums/internal/config"
	"github.com/ougirez/premiums/internal/pkg/logger"
)

type APIService struct {
	router  *echo.Echo
	cfg     *config.Config
	limiter *RateLimiter
}

func (svc *APIService) Serve(addr string) {
	if err := svc.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(context.Background(), err)
	}
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	svc.limiter.Stop()
	return svc.router.Shutdown(ctx)
}

func (svc *APIService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.router.ServeHTTP(w, r)
}

func NewAPIService(cfg *config.Config, cntrl *controller.Controller) (*APIService, error) {
	svc := &APIService{
		router:  echo.New(),
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateWindow),
	}

	svc.router.HideBanner = true
	svc.router.Logger.SetLevel(log.OFF)
	svc.router.JSONSerializer = NewSerializer()
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.HTTPErrorHandler = newHTTPErrorHandler(cfg.HTTP.DocsURL)

	svc.router.Use(svc.RequestIDMiddleware())
	svc.router.Use(middleware.Recover())
	svc.router.Use(svc.RequestLoggerMiddleware())
	svc.router.Use(MetricsMiddleware)
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-API-Key"},
	}))
	svc.router.Use(svc.RateLimitMiddleware)

	svc.router.GET("/healthz", cntrl.Health)
	svc.router.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	svc.router.GET("/charts/img", cntrl.GetChartImage)

	// middleware is attached per route: a group level Use registers catch-all
	// routes that would turn 405 into 404
	key := svc.APIKeyMiddleware
	api := svc.router.Group("/api/v1")

	api.GET("/meta/sources", cntrl.GetMeta, key)
	api.GET("/regions/lookup", cntrl.LookupRegion, key)

	premiums := api.Group("/premiums")
	premiums.GET("/quote", cntrl.GetQuote, key)
	premiums.GET("/cheapest", cntrl.GetCheapest, key)
	premiums.POST("/compare", cntrl.ComparePremiums, key)
	premiums.GET("/timeline", cntrl.GetTimeline, key)
	premiums.GET("/inflation", cntrl.GetInflation, key)
	premiums.GET("/compare-years", cntrl.CompareYears, key)
	premiums.GET("/ranking", cntrl.GetRanking, key)

	api.POST("/leads", cntrl.CreateLead, key)
	api.POST("/admin/import", cntrl.BackfillPremiums, key, svc.AdminMiddleware)

	return svc, nil
}
