//go:build wireinject

//go:generate wire

package api

import (
	"github.com/SafeMPC/custody-engine/internal/config"
	"github.com/SafeMPC/custody-engine/internal/metrics"
	"github.com/google/wire"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	metrics.New,
	NewKVStore,
	NewKeychainProvider,
	NewCustodian,
	NewVault,
	NewPinAuthenticator,
	NewGate,
	NewJWTManager,
	NewChainClient,
	NewHistoryStore,
	NewTxEngine,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}
