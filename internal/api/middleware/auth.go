package middleware

import (
	"strings"

	"github.com/SafeMPC/custody-engine/internal/auth"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// SessionToken parses an optional Bearer session token and puts the wallet
// subject on the request context. Invalid tokens are dropped silently; the
// authorization gate decides per action whether authentication is enforced.
func SessionToken(jwtManager *auth.JWTManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			claims, err := jwtManager.Validate(token)
			if err != nil {
				log := util.LogFromContext(c.Request().Context())
				log.Warn().Err(err).Msg("Invalid session token")
				return next(c)
			}

			ctx := util.WithWalletID(c.Request().Context(), claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
