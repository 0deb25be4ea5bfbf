package api

import (
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/labstack/echo/v4"
)

// RequireAuthorization 询问授权门；需要重新认证时拒绝请求。
// 策略对所有敏感操作一致，未注册任何认证因子的安装不拦截。
func (s *Server) RequireAuthorization(c echo.Context, action custody.Action) error {
	required, err := s.Gate.IsAuthenticationRequired(c.Request().Context(), action)
	if err != nil {
		return httperrors.NewFromEngineError(err)
	}
	if required {
		return httperrors.ErrAuthRequired
	}
	return nil
}
