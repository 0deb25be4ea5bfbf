package auth

import (
	"errors"
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/infra/pin"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// PutPinRoute 注册修改 PIN 路由
func PutPinRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.PUT("/pin", putPinHandler(s))
}

// putPinHandler 修改 PIN：校验旧 PIN 后用新 salt 重设
func putPinHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PutPinPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if err := s.PinAuth.ChangePin(ctx, body.CurrentPin, body.NewPin); err != nil {
			if errors.Is(err, pin.ErrPinMismatch) {
				s.Metrics.ObserveAuthAttempt("pin", false)
				return httperrors.NewHTTPError(http.StatusForbidden, types.PublicHTTPErrorTypeInvalidPin, "Current PIN is incorrect.")
			}
			return httperrors.NewFromEngineError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}
