package transactions

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// GetTransactionsRoute 注册交易历史路由
func GetTransactionsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("", getTransactionsHandler(s))
}

// getTransactionsHandler 列出钱包的留档交易，按创建时间倒序
func getTransactionsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		records, err := s.TxEngine.ListTransactions(ctx, c.Param("walletId"))
		if err != nil {
			return httperrors.NewFromEngineError(err)
		}

		responses := make([]*types.TransactionResponse, 0, len(records))
		for _, t := range records {
			responses = append(responses, toResponse(t))
		}
		return util.ValidateAndReturn(c, http.StatusOK, responses)
	}
}
