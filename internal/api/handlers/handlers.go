package handlers

import (
	"github.com/SafeMPC/custody-engine/internal/api"
	"github.com/SafeMPC/custody-engine/internal/api/handlers/auth"
	"github.com/SafeMPC/custody-engine/internal/api/handlers/secrets"
	"github.com/SafeMPC/custody-engine/internal/api/handlers/transactions"
	"github.com/SafeMPC/custody-engine/internal/api/handlers/wallets"
	"github.com/labstack/echo/v4"
)

// AttachAllRoutes attaches all route handlers to the server's router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		auth.GetStatusRoute(s),
		auth.PostPinRoute(s),
		auth.PutPinRoute(s),
		auth.DeletePinRoute(s),
		auth.PostUnlockRoute(s),
		auth.PostLockRoute(s),
		auth.PostWipeRoute(s),
		secrets.PostSecretRoute(s),
		secrets.GetSecretRoute(s),
		secrets.DeleteSecretRoute(s),
		transactions.PostTransactionRoute(s),
		transactions.GetTransactionRoute(s),
		transactions.GetTransactionsRoute(s),
		transactions.PostRebroadcastRoute(s),
		transactions.PostConfirmationRoute(s),
		wallets.GetWalletBalanceRoute(s),
	}
}
