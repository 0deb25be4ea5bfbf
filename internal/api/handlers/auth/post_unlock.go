package auth

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/infra/session"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// PostUnlockRoute 注册解锁路由
func PostUnlockRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Auth.POST("/unlock", postUnlockHandler(s))
}

// postUnlockHandler 用 PIN 或生物识别解锁。成功后记录到授权门并签发会话令牌。
func postUnlockHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostUnlockPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if body.Biometric {
			result, err := s.Gate.AuthenticateBiometric(ctx, "unlock wallet")
			if err != nil {
				return httperrors.NewFromEngineError(err)
			}
			if result != session.BiometricSuccess {
				s.Metrics.ObserveAuthAttempt("biometric", false)
				return httperrors.NewHTTPError(http.StatusForbidden, types.PublicHTTPErrorTypeAuthRequired, "Biometric authentication failed.")
			}
			s.Metrics.ObserveAuthAttempt("biometric", true)
		} else {
			ok, err := s.PinAuth.VerifyPin(ctx, body.Pin)
			if err != nil {
				return httperrors.NewFromEngineError(err)
			}
			if !ok {
				s.Metrics.ObserveAuthAttempt("pin", false)
				return httperrors.NewHTTPError(http.StatusForbidden, types.PublicHTTPErrorTypeInvalidPin, "PIN is incorrect.")
			}
			s.Metrics.ObserveAuthAttempt("pin", true)
			s.Gate.RecordSuccess()
		}

		token, err := s.JWT.Generate(body.WalletID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate session token")
			return httperrors.NewFromEngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.PostUnlockResponse{
			SessionToken: token,
			ExpiresInSec: int64(s.Gate.SessionTimeout().Seconds()),
		})
	}
}
