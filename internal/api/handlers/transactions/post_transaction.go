package transactions

import (
	"errors"
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/tx"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// PostTransactionRoute 注册发送交易路由
func PostTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.POST("", postTransactionHandler(s))
}

// postTransactionHandler 发送一笔交易，同步返回流水线结果。
// 失败响应携带错误分类，重试决策留给调用方。
func postTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.RequireAuthorization(c, custody.ActionSend); err != nil {
			return err
		}

		walletID := c.Param("walletId")

		var body types.PostSendTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		result, err := s.TxEngine.Send(ctx, tx.SendRequest{
			WalletID:    walletID,
			FromAddress: body.FromAddress,
			ToAddress:   body.ToAddress,
			Amount:      body.AmountBig(),
			FeeLevel:    tx.FeeLevel(body.FeeLevel),
			Note:        body.Note,
		})
		if err != nil {
			if errors.Is(err, tx.ErrCancelledBeforeBroadcast) {
				return httperrors.NewHTTPError(http.StatusRequestTimeout, types.PublicHTTPErrorTypeGeneric, "Send cancelled before broadcast; no transaction was submitted.")
			}
			log.Warn().Err(err).Str("wallet_id", walletID).Msg("Send failed")
			if result != nil {
				// 交易进入终态 Failed：返回完整记录，调用方拿到分类再决定是否重试
				return util.ValidateAndReturn(c, http.StatusUnprocessableEntity, toResponse(result))
			}
			return httperrors.NewFromEngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, toResponse(result))
	}
}

// toResponse 把引擎交易记录转为响应体
func toResponse(t *tx.PendingTransaction) *types.TransactionResponse {
	response := &types.TransactionResponse{
		ID:            t.ID,
		WalletID:      t.WalletID,
		FromAddress:   t.FromAddress,
		ToAddress:     t.ToAddress,
		Amount:        t.Amount.String(),
		FeeLevel:      string(t.FeeLevel),
		Nonce:         t.Nonce,
		TxHash:        t.TxHash,
		State:         string(t.State),
		FailureKind:   string(t.FailureKind),
		FailureDetail: t.FailureDetail,
		Warning:       t.Warning,
		Note:          t.Note,
	}
	if t.Fee != nil {
		response.Fee = t.Fee.String()
	}
	return response
}
