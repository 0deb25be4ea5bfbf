package config

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EchoServer HTTP 服务配置
type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
}

// AuthServer 认证与会话配置
type AuthServer struct {
	// SessionTimeout 会话有效期。源系统观测到的 5 秒是调试值，
	// 默认取 5 分钟，部署时按需覆盖。
	SessionTimeout   time.Duration
	PinMinLength     int
	PinMaxLength     int
	BiometricEnabled bool
	JWTSecret        string
	JWTIssuer        string
	JWTDuration      time.Duration
}

// KeystoreServer 密钥库配置
type KeystoreServer struct {
	Path                  string
	Passphrase            string
	AllowSoftwareFallback bool
}

// StorageServer 持久化配置
type StorageServer struct {
	// Backend 可选 memory / redis / postgres
	Backend       string
	RedisEndpoint string
	RedisPassword string
	DatabaseDSN   string
}

// ChainServer 链访问配置
type ChainServer struct {
	RPCEndpoint              string
	ChainID                  int64
	RPCTimeout               time.Duration
	ConfirmationPollInterval time.Duration
	ConfirmationWaitTimeout  time.Duration
}

// LoggerServer 日志配置
type LoggerServer struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

// Server 服务总配置
type Server struct {
	Echo     EchoServer
	Auth     AuthServer
	Keystore KeystoreServer
	Storage  StorageServer
	Chain    ChainServer
	Logger   LoggerServer
}

// DefaultServiceConfigFromEnv 从环境变量加载配置，缺省值在代码中
func DefaultServiceConfigFromEnv() Server {
	v := viper.New()
	v.SetEnvPrefix("CUSTODY")
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("HIDE_INTERNAL_ERRORS", true)
	v.SetDefault("AUTH_SESSION_TIMEOUT", 5*time.Minute)
	v.SetDefault("AUTH_PIN_MIN_LENGTH", 4)
	v.SetDefault("AUTH_PIN_MAX_LENGTH", 6)
	v.SetDefault("AUTH_BIOMETRIC_ENABLED", false)
	v.SetDefault("AUTH_JWT_SECRET", "change-me-in-production")
	v.SetDefault("AUTH_JWT_ISSUER", "custody-engine")
	v.SetDefault("AUTH_JWT_DURATION", 15*time.Minute)
	v.SetDefault("KEYSTORE_PATH", "/var/lib/custody/keystore.json")
	v.SetDefault("KEYSTORE_PASSPHRASE", "")
	v.SetDefault("KEYSTORE_ALLOW_SOFTWARE_FALLBACK", false)
	v.SetDefault("STORAGE_BACKEND", "memory")
	v.SetDefault("STORAGE_REDIS_ENDPOINT", "")
	v.SetDefault("STORAGE_REDIS_PASSWORD", "")
	v.SetDefault("STORAGE_DATABASE_DSN", "")
	v.SetDefault("CHAIN_RPC_ENDPOINT", "")
	v.SetDefault("CHAIN_ID", 1)
	v.SetDefault("CHAIN_RPC_TIMEOUT", 30*time.Second)
	v.SetDefault("CHAIN_CONFIRMATION_POLL_INTERVAL", 5*time.Second)
	v.SetDefault("CHAIN_CONFIRMATION_WAIT_TIMEOUT", 90*time.Second)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY_PRINT_CONSOLE", false)

	logLevel, err := zerolog.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	return Server{
		Echo: EchoServer{
			ListenAddress:                  v.GetString("SERVER_ADDRESS"),
			HideInternalServerErrorDetails: v.GetBool("HIDE_INTERNAL_ERRORS"),
		},
		Auth: AuthServer{
			SessionTimeout:   v.GetDuration("AUTH_SESSION_TIMEOUT"),
			PinMinLength:     v.GetInt("AUTH_PIN_MIN_LENGTH"),
			PinMaxLength:     v.GetInt("AUTH_PIN_MAX_LENGTH"),
			BiometricEnabled: v.GetBool("AUTH_BIOMETRIC_ENABLED"),
			JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
			JWTIssuer:        v.GetString("AUTH_JWT_ISSUER"),
			JWTDuration:      v.GetDuration("AUTH_JWT_DURATION"),
		},
		Keystore: KeystoreServer{
			Path:                  v.GetString("KEYSTORE_PATH"),
			Passphrase:            v.GetString("KEYSTORE_PASSPHRASE"),
			AllowSoftwareFallback: v.GetBool("KEYSTORE_ALLOW_SOFTWARE_FALLBACK"),
		},
		Storage: StorageServer{
			Backend:       v.GetString("STORAGE_BACKEND"),
			RedisEndpoint: v.GetString("STORAGE_REDIS_ENDPOINT"),
			RedisPassword: v.GetString("STORAGE_REDIS_PASSWORD"),
			DatabaseDSN:   v.GetString("STORAGE_DATABASE_DSN"),
		},
		Chain: ChainServer{
			RPCEndpoint:              v.GetString("CHAIN_RPC_ENDPOINT"),
			ChainID:                  v.GetInt64("CHAIN_ID"),
			RPCTimeout:               v.GetDuration("CHAIN_RPC_TIMEOUT"),
			ConfirmationPollInterval: v.GetDuration("CHAIN_CONFIRMATION_POLL_INTERVAL"),
			ConfirmationWaitTimeout:  v.GetDuration("CHAIN_CONFIRMATION_WAIT_TIMEOUT"),
		},
		Logger: LoggerServer{
			Level:              logLevel,
			PrettyPrintConsole: v.GetBool("LOG_PRETTY_PRINT_CONSOLE"),
		},
	}
}
