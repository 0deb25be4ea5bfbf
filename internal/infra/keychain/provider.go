package keychain

import (
	"context"

	"github.com/SafeMPC/custody-engine/internal/custody"
)

// Provider 平台安全密钥库抽象。MasterKey 返回不可导出的安装级主密钥，
// 不存在时创建；Destroy 不可逆地销毁主密钥（登出/重置）。
type Provider interface {
	MasterKey(ctx context.Context) ([]byte, error)
	Destroy(ctx context.Context) error
}

// ProviderConfig 密钥库提供者配置
type ProviderConfig struct {
	// KeystorePath 软件密钥库文件路径
	KeystorePath string
	// Passphrase 软件密钥库的保护口令
	Passphrase string
	// AllowSoftwareFallback 显式允许在无硬件密钥库的平台上退化为软件密钥库。
	// 默认不允许：缺少硬件支持必须向调用方报错，而不是静默降级。
	AllowSoftwareFallback bool
}

// NewProvider 按配置选择密钥库提供者。当前服务端部署没有硬件密钥库，
// 因此未显式开启软件回退时直接返回 HardwareUnavailable。
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if !cfg.AllowSoftwareFallback {
		return nil, custody.NewError(custody.ErrKindHardwareUnavailable,
			"no hardware-backed key store on this platform; set AllowSoftwareFallback to opt into a software keystore")
	}
	return NewSoftwareProvider(cfg.KeystorePath, []byte(cfg.Passphrase)), nil
}
