package transactions

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/labstack/echo/v4"
)

// GetTransactionRoute 注册查询交易路由
func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Transactions.GET("/:txId", getTransactionHandler(s))
}

// getTransactionHandler 读取留档交易
func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		t, err := s.TxEngine.GetTransaction(ctx, c.Param("walletId"), c.Param("txId"))
		if err != nil {
			return httperrors.NewFromEngineError(err)
		}
		return util.ValidateAndReturn(c, http.StatusOK, toResponse(t))
	}
}
