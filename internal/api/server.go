package api

import (
	"context"
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/auth"
	"github.com/SafeMPC/custody-engine/internal/config"
	"github.com/SafeMPC/custody-engine/internal/infra/keychain"
	"github.com/SafeMPC/custody-engine/internal/infra/pin"
	"github.com/SafeMPC/custody-engine/internal/infra/session"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/SafeMPC/custody-engine/internal/infra/vault"
	"github.com/SafeMPC/custody-engine/internal/metrics"
	"github.com/SafeMPC/custody-engine/internal/tx"
	"github.com/SafeMPC/custody-engine/internal/tx/chain"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Router holds the route groups handlers attach to.
type Router struct {
	Routes []*echo.Route

	Root              *echo.Group
	Management        *echo.Group
	APIV1Auth         *echo.Group
	APIV1Secrets      *echo.Group
	APIV1Transactions *echo.Group
	APIV1Wallets      *echo.Group
}

// Server bundles the engine components behind the HTTP collaborator surface.
type Server struct {
	Config config.Server
	Echo   *echo.Echo
	Router *Router

	Metrics     *metrics.Service
	Store       storage.KVStore
	Custodian   *keychain.Custodian
	Vault       *vault.Vault
	PinAuth     *pin.Authenticator
	Gate        *session.Gate
	JWT         *auth.JWTManager
	ChainClient chain.Client
	TxEngine    *tx.Engine
	History     *tx.HistoryStore
}

// NewServer returns a Server with the given config; components are attached by wire.
func NewServer(cfg config.Server) *Server {
	return &Server{
		Config: cfg,
	}
}

// Ready reports whether all components required to serve requests are attached.
func (s *Server) Ready() bool {
	return s.Echo != nil &&
		s.Router != nil &&
		s.Store != nil &&
		s.Custodian != nil &&
		s.Vault != nil &&
		s.PinAuth != nil &&
		s.Gate != nil &&
		s.JWT != nil &&
		s.TxEngine != nil
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not fully initialized")
	}
	return s.Echo.Start(s.Config.Echo.ListenAddress)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Warn().Msg("Shutting down server")
	if s.Echo != nil {
		if err := s.Echo.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "failed to shut down echo server")
		}
	}
	return nil
}
