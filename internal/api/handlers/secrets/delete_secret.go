package secrets

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// DeleteSecretRoute 注册删除机密路由
func DeleteSecretRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Secrets.DELETE("/:kind", deleteSecretHandler(s))
}

// deleteSecretHandler 删除指定机密（钱包删除流程的一部分）
func deleteSecretHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		id := custody.SecretID{
			WalletID: c.Param("walletId"),
			Kind:     custody.SecretKind(c.Param("kind")),
		}
		if !id.Kind.Valid() {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "unknown secret kind")
		}

		if err := s.Vault.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Str("secret_id", id.String()).Msg("Failed to delete secret")
			return httperrors.NewFromEngineError(err)
		}
		s.Metrics.SecretAccesses.WithLabelValues("delete").Inc()

		return c.NoContent(http.StatusNoContent)
	}
}
