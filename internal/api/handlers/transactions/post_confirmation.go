package transactions

import (
	"context"
	"errors"
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// PostConfirmationRoute 注册等待确认路由
func PostConfirmationRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.POST("/:txId/confirmation", postConfirmationHandler(s))
}

// postConfirmationHandler 轮询已广播交易的回执直到确认、上链失败或等待超时。
// 超时返回 202 和当前记录：交易仍在网络上，状态不变，调用方可再次轮询。
func postConfirmationHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		t, err := s.TxEngine.GetTransaction(ctx, c.Param("walletId"), c.Param("txId"))
		if err != nil {
			return httperrors.NewFromEngineError(err)
		}

		waitCtx, cancel := context.WithTimeout(ctx, s.Config.Chain.ConfirmationWaitTimeout)
		defer cancel()

		result, err := s.TxEngine.AwaitConfirmation(waitCtx, t, s.Config.Chain.ConfirmationPollInterval)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return util.ValidateAndReturn(c, http.StatusAccepted, toResponse(result))
			}
			log.Warn().Err(err).Str("tx_id", t.ID).Msg("Confirmation wait failed")
			if result != nil {
				return util.ValidateAndReturn(c, http.StatusUnprocessableEntity, toResponse(result))
			}
			return httperrors.NewFromEngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, toResponse(result))
	}
}
