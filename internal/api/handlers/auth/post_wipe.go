package auth

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// PostWipeRoute 注册登出/重置路由
func PostWipeRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.POST("/wipe", postWipeHandler(s))
}

// postWipeHandler 登出并抹除：清空全部机密、删除 PIN、销毁主密钥、失效会话。
// 顺序保证失败时不会留下"密钥已销毁但机密还在"的半程状态。
func postWipeHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		if err := s.Vault.DeleteAll(ctx); err != nil {
			return httperrors.NewFromEngineError(err)
		}
		if err := s.PinAuth.ClearPin(ctx); err != nil {
			return httperrors.NewFromEngineError(err)
		}
		if err := s.Custodian.Destroy(ctx); err != nil {
			return httperrors.NewFromEngineError(err)
		}
		s.Gate.ClearSession()

		log.Warn().Msg("Installation wiped")
		return c.NoContent(http.StatusNoContent)
	}
}
