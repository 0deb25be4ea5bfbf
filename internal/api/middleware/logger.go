package middleware

import (
	"time"

	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RequestLogger attaches a request-scoped zerolog logger to the context and
// logs one line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			l := log.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()

			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), l)))

			err := next(c)

			l.Info().
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
			return err
		}
	}
}
