package api

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"time"

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
	"github.com/SafeMPC/custody-engine/internal/tx/chain/ethereum"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewKVStore 根据配置选择持久化后端
func NewKVStore(cfg config.Server) (storage.KVStore, error) {
	switch cfg.Storage.Backend {
	case "", "memory":
		log.Warn().Msg("Using in-memory storage backend, data will not survive restarts")
		return storage.NewMemoryStore(), nil

	case "redis":
		client, err := NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisStore(client, "custody"), nil

	case "postgres":
		db, err := NewDB(cfg)
		if err != nil {
			return nil, err
		}
		store := storage.NewPostgreSQLStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("failed to migrate storage schema: %w", err)
		}
		return store, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if cfg.Storage.RedisEndpoint == "" {
		return nil, fmt.Errorf("storage RedisEndpoint is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.RedisEndpoint,
		Password: cfg.Storage.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewDB(cfg config.Server) (*sql.DB, error) {
	if cfg.Storage.DatabaseDSN == "" {
		return nil, fmt.Errorf("storage DatabaseDSN is not configured")
	}

	db, err := sql.Open("postgres", cfg.Storage.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewKeychainProvider 创建密钥保管提供者（硬件优先，按配置允许软件回退）
func NewKeychainProvider(cfg config.Server) (keychain.Provider, error) {
	return keychain.NewProvider(keychain.ProviderConfig{
		KeystorePath:          cfg.Keystore.Path,
		Passphrase:            cfg.Keystore.Passphrase,
		AllowSoftwareFallback: cfg.Keystore.AllowSoftwareFallback,
	})
}

func NewCustodian(provider keychain.Provider, store storage.KVStore) *keychain.Custodian {
	return keychain.NewCustodian(provider, store)
}

func NewVault(custodian *keychain.Custodian, store storage.KVStore) *vault.Vault {
	return vault.New(custodian, store)
}

func NewPinAuthenticator(cfg config.Server, store storage.KVStore) *pin.Authenticator {
	return pin.NewAuthenticator(store, pin.Policy{
		MinLength: cfg.Auth.PinMinLength,
		MaxLength: cfg.Auth.PinMaxLength,
	})
}

func NewGate(cfg config.Server, pinAuth *pin.Authenticator) *session.Gate {
	opts := []session.Option{}
	if cfg.Auth.BiometricEnabled {
		opts = append(opts, session.WithBiometric(session.NewTrustedPrompter(true)))
	}
	return session.NewGate(pinAuth, cfg.Auth.SessionTimeout, opts...)
}

func NewJWTManager(cfg config.Server) *auth.JWTManager {
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTDuration)
}

func NewChainClient(cfg config.Server) chain.Client {
	return ethereum.NewClient(cfg.Chain.RPCEndpoint, cfg.Chain.RPCTimeout)
}

func NewHistoryStore(store storage.KVStore) *tx.HistoryStore {
	return tx.NewHistoryStore(store)
}

func NewTxEngine(cfg config.Server, chainClient chain.Client, v *vault.Vault, history *tx.HistoryStore, m *metrics.Service) *tx.Engine {
	return tx.NewEngine(chainClient, v, history, big.NewInt(cfg.Chain.ChainID), m)
}

// newServerWithComponents assembles the server struct. Router initialization
// and route attachment happen afterwards via router.Init.
func newServerWithComponents(
	cfg config.Server,
	m *metrics.Service,
	store storage.KVStore,
	custodian *keychain.Custodian,
	v *vault.Vault,
	pinAuth *pin.Authenticator,
	gate *session.Gate,
	jwtManager *auth.JWTManager,
	chainClient chain.Client,
	history *tx.HistoryStore,
	engine *tx.Engine,
) *Server {
	s := NewServer(cfg)
	s.Metrics = m
	s.Store = store
	s.Custodian = custodian
	s.Vault = v
	s.PinAuth = pinAuth
	s.Gate = gate
	s.JWT = jwtManager
	s.ChainClient = chainClient
	s.History = history
	s.TxEngine = engine

	return s
}
