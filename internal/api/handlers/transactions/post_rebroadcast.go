package transactions

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// PostRebroadcastRoute 注册重播路由
func PostRebroadcastRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.POST("/:txId/rebroadcast", postRebroadcastHandler(s))
}

// postRebroadcastHandler 瞬时失败后用原签名载荷重播。
// 不重新签名：新 nonce 会产生一笔竞争交易。
func postRebroadcastHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionSend); err != nil {
			return err
		}

		t, err := s.TxEngine.GetTransaction(ctx, c.Param("walletId"), c.Param("txId"))
		if err != nil {
			return httperrors.NewFromEngineError(err)
		}

		result, err := s.TxEngine.Rebroadcast(ctx, t)
		if err != nil {
			log.Warn().Err(err).Str("tx_id", t.ID).Msg("Rebroadcast failed")
			if result != nil {
				return util.ValidateAndReturn(c, http.StatusUnprocessableEntity, toResponse(result))
			}
			return httperrors.NewFromEngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, toResponse(result))
	}
}
