package auth

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/labstack/echo/v4"
)

// PostLockRoute 注册锁定路由
func PostLockRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.POST("/lock", postLockHandler(s))
}

// postLockHandler 立即失效当前会话
func postLockHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.Gate.ClearSession()
		return c.NoContent(http.StatusNoContent)
	}
}
