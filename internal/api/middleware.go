package api

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ougirez/premiums/internal/metrics"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/logger"
	"github.com/ougirez/premiums/internal/pkg/utils"
)

// RequestIDMiddleware tags the request context so every log line of the request
// carries its id.
func (svc *APIService) RequestIDMiddleware() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(ctx echo.Context, id string) {
			ctx.Set(constants.CtxKeyRequestID, id)
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(logger.With(req.Context(), constants.CtxKeyRequestID, id)))
		},
	})
}

func (svc *APIService) RequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"path", v.URIPath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				logger.Warn(ctx.Request().Context(), "request failed", append(fields, "error", v.Error.Error())...)
				return nil
			}
			logger.Info(ctx.Request().Context(), "request", fields...)
			return nil
		},
	})
}

func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		start := time.Now()
		err := next(ctx)

		status := ctx.Response().Status
		if err != nil {
			status = statusOf(err)
		}
		endpoint := ctx.Path()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordAPIRequest(ctx.Request().Method, endpoint, status, time.Since(start))

		return err
	}
}

func (svc *APIService) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !svc.limiter.Allow(ctx.RealIP()) {
			return constants.ErrRateLimited
		}
		return next(ctx)
	}
}

func (svc *APIService) APIKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		key := ctx.Request().Header.Get(constants.HeaderAPIKey)
		expected := svc.cfg.Auth.APIKey

		if key == "" || expected == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			return constants.ErrUnauthorized
		}

		return next(ctx)
	}
}

// AdminMiddleware accepts the admin token from its cookie or a bearer header.
func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		raw := ""
		if cookie, err := ctx.Cookie(constants.CookieKeyAdminToken); err == nil {
			raw = cookie.Value
		} else if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
			raw = strings.TrimPrefix(auth, "Bearer ")
		}

		claims, err := utils.ParseAdminToken(raw, svc.cfg.Auth.AdminSecret)
		if err != nil {
			return err
		}
		logger.Infof(ctx.Request().Context(), "admin request by %s", claims.Subject)

		return next(ctx)
	}
}
