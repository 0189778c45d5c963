package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/premiums/internal/domain/dto"
	"github.com/ougirez/premiums/internal/metrics"
	"github.com/ougirez/premiums/internal/pkg/constants"
	"github.com/ougirez/premiums/internal/pkg/logger"
)

const defaultDocsURL = "https://github.com/remoprinz/KrankenkassenGPT/blob/main/docs/api/API_DOCUMENTATION.md#"

func newHTTPErrorHandler(docsURL string) echo.HTTPErrorHandler {
	if docsURL == "" {
		docsURL = defaultDocsURL
	}

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ce := codedError(err)
		if ce.Code() >= http.StatusInternalServerError {
			logger.Errorf(c.Request().Context(), "%s %s: %v", c.Request().Method, c.Path(), err)
		}
		metrics.APIErrors.WithLabelValues(ce.ErrorCode()).Inc()

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(ce.Code())
			return
		}

		_ = c.JSON(ce.Code(), dto.ErrorResponse{Error: dto.ErrorBody{
			Code:       ce.ErrorCode(),
			Message:    ce.Message(),
			Suggestion: ce.Suggestion(),
			Docs:       docsURL + strings.ToLower(ce.ErrorCode()),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}})
	}
}

// codedError finds the coded error in the chain. Framework errors are translated and
// anything else is reported as an internal error without its details.
func codedError(err error) *constants.CodedError {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(*constants.CodedError); ok {
			return ce
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return constants.ErrNotFound
		case http.StatusMethodNotAllowed:
			return constants.ErrMethodNotAllowed
		case http.StatusTooManyRequests:
			return constants.ErrRateLimited
		case http.StatusUnauthorized:
			return constants.ErrUnauthorized
		}
		if he.Code >= http.StatusBadRequest && he.Code < http.StatusInternalServerError {
			return constants.ErrInvalidRequest.WithMessage(fmt.Sprint(he.Message))
		}
	}

	return constants.ErrInternal
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return codedError(err).Code()
}
