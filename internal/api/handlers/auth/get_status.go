package auth

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// GetStatusRoute 注册会话状态路由
func GetStatusRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.GET("/status", getStatusHandler(s))
}

// getStatusHandler 返回会话与认证因子状态
func getStatusHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		pinSet, err := s.PinAuth.IsPinSet(ctx)
		if err != nil {
			return httperrors.NewFromEngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetAuthStatusResponse{
			SessionValid:      s.Gate.IsSessionValid(),
			PinSet:            pinSet,
			BiometricEnrolled: s.Config.Auth.BiometricEnabled,
			TimeoutSec:        int64(s.Gate.SessionTimeout().Seconds()),
		})
	}
}
