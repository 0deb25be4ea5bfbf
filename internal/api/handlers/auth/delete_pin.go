package auth

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/labstack/echo/v4"
)

// DeletePinRoute 注册移除 PIN 路由
func DeletePinRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.DELETE("/pin", deletePinHandler(s))
}

// deletePinHandler 移除 PIN。属于敏感操作，需要有效会话。
func deletePinHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		if err := s.PinAuth.ClearPin(ctx); err != nil {
			return httperrors.NewFromEngineError(err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
