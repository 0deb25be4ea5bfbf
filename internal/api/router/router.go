package router

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/handlers"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/api/middleware"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Init builds the echo instance, the shared middleware stack, the route groups
// and attaches all handler routes.
func Init(s *api.Server) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(s)

	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestLogger())

	s.Echo = e
	s.Router = &api.Router{
		Root:       e.Group(""),
		Management: e.Group("/-"),

		APIV1Auth:         e.Group("/api/v1/auth"),
		APIV1Secrets:      e.Group("/api/v1/wallets/:walletId/secrets", middleware.SessionToken(s.JWT)),
		APIV1Transactions: e.Group("/api/v1/wallets/:walletId/transactions", middleware.SessionToken(s.JWT)),
		APIV1Wallets:      e.Group("/api/v1/wallets/:walletId", middleware.SessionToken(s.JWT)),
	}

	s.Router.Management.GET("/healthy", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	s.Router.Management.GET("/ready", func(c echo.Context) error {
		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "not ready")
		}
		return c.String(http.StatusOK, "ready")
	})
	s.Router.Management.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{})))

	handlers.AttachAllRoutes(s)
}

// errorHandler renders engine and echo errors as the public error payload.
func errorHandler(s *api.Server) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var payload types.PublicHTTPError

		switch e := err.(type) {
		case *httperrors.HTTPError:
			payload = e.PublicHTTPError
			if s.Config.Echo.HideInternalServerErrorDetails && payload.Status >= 500 {
				payload.Title = "Internal server error."
			}
		case *echo.HTTPError:
			payload = types.PublicHTTPError{
				Type:   types.PublicHTTPErrorTypeGeneric,
				Title:  http.StatusText(e.Code),
				Status: e.Code,
			}
			if msg, ok := e.Message.(string); ok {
				payload.Title = msg
			}
		default:
			payload = types.PublicHTTPError{
				Type:   types.PublicHTTPErrorTypeGeneric,
				Title:  "Internal server error.",
				Status: http.StatusInternalServerError,
			}
			if !s.Config.Echo.HideInternalServerErrorDetails {
				payload.Title = err.Error()
			}
		}

		if jsonErr := c.JSON(payload.Status, payload); jsonErr != nil {
			log.Error().Err(jsonErr).Msg("Failed to write error response")
		}
	}
}
