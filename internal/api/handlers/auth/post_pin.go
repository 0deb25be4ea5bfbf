package auth

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// PostPinRoute 注册设置 PIN 路由
func PostPinRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.POST("/pin", postPinHandler(s))
}

// postPinHandler 初次设置 PIN。已有认证因子时需要先通过授权门。
func postPinHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		var body types.PostPinPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if err := s.PinAuth.SetPin(ctx, body.Pin); err != nil {
			log.Warn().Err(err).Msg("Failed to set PIN")
			return httperrors.NewFromEngineError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
