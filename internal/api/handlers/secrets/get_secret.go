package secrets

import (
	"encoding/base64"
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// GetSecretRoute 注册读取机密路由
func GetSecretRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Secrets.GET("/:kind", getSecretHandler(s))
}

// getSecretHandler 解密返回机密明文。必须通过授权门。
func getSecretHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionViewPrivateKey); err != nil {
			return err
		}

		id := custody.SecretID{
			WalletID: c.Param("walletId"),
			Kind:     custody.SecretKind(c.Param("kind")),
		}
		if !id.Kind.Valid() {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "unknown secret kind")
		}

		plaintext, err := s.Vault.Reveal(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("secret_id", id.String()).Msg("Failed to reveal secret")
			return httperrors.NewFromEngineError(err)
		}
		defer clear(plaintext)
		s.Metrics.SecretAccesses.WithLabelValues("reveal").Inc()

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetSecretResponse{
			WalletID:  id.WalletID,
			Kind:      string(id.Kind),
			Plaintext: base64.StdEncoding.EncodeToString(plaintext),
		})
	}
}
