package wallets

import (
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/httperrors"
	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/types"
	"github.com/SafeMPC/custody-engine/internal/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

// GetWalletBalanceRoute 注册余额查询路由
func GetWalletBalanceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Wallets.GET("/balance", getWalletBalanceHandler(s))
}

// getWalletBalanceHandler 查询地址余额（发送前校验用同一数据源）
func getWalletBalanceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if err := s.RequireAuthorization(c, custody.ActionViewWallet); err != nil {
			return err
		}

		address := c.QueryParam("address")
		if !common.IsHexAddress(address) {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "invalid address")
		}

		balance, err := s.ChainClient.GetBalance(ctx, address)
		if err != nil {
			return httperrors.NewFromEngineError(err)
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GetBalanceResponse{
			Address: address,
			Balance: balance.String(),
		})
	}
}
