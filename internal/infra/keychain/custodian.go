package keychain

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"io"
	"sync"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const wrappedDataKeyStorageKey = "keychain:data_key"

// KeyHandle 数据密钥的不透明句柄。原始密钥材料不离开 keychain 包，
// 使用方只能通过 Seal/Open 做认证加解密。
type KeyHandle struct {
	aead cipher.AEAD
}

// NewNonce 生成一次性 GCM nonce
func (h *KeyHandle) NewNonce() ([]byte, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}
	return nonce, nil
}

// Seal 认证加密
func (h *KeyHandle) Seal(nonce, plaintext []byte) []byte {
	return h.aead.Seal(nil, nonce, plaintext, nil)
}

// Open 认证解密；nonce 长度不对或认证标签校验失败返回 TamperedOrCorrupt
func (h *KeyHandle) Open(nonce, ciphertext []byte) ([]byte, error) {
	// GCM 对长度不对的 nonce 会直接 panic，必须先挡在前面
	if len(nonce) != h.aead.NonceSize() {
		return nil, custody.NewError(custody.ErrKindTamperedOrCorrupt, "nonce has unexpected length")
	}
	plaintext, err := h.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, custody.WrapError(err, custody.ErrKindTamperedOrCorrupt, "authentication tag check failed")
	}
	return plaintext, nil
}

// Custodian 持有主密钥并管理安装级数据密钥。数据密钥用主密钥 AES-GCM
// 封装后持久化，每次安装只生成一次。
type Custodian struct {
	provider Provider
	store    storage.KVStore

	mu        sync.Mutex
	handle    *KeyHandle
	destroyed bool
}

// NewCustodian 创建密钥托管者
func NewCustodian(provider Provider, store storage.KVStore) *Custodian {
	return &Custodian{
		provider: provider,
		store:    store,
	}
}

// GetOrCreateDataKey 返回数据密钥句柄。首次调用生成并封装落库，之后幂等返回。
func (c *Custodian) GetOrCreateDataKey(ctx context.Context) (*KeyHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, custody.NewError(custody.ErrKindKeyUnavailable, "key custodian has been destroyed")
	}
	if c.handle != nil {
		return c.handle, nil
	}

	wrapped, err := c.store.Get(ctx, wrappedDataKeyStorageKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load wrapped data key")
	}

	var dataKey []byte
	if wrapped == nil {
		dataKey = make([]byte, masterKeyLen)
		if _, err := io.ReadFull(rand.Reader, dataKey); err != nil {
			return nil, errors.Wrap(err, "failed to generate data key")
		}

		wrapped, err = c.wrapLocked(ctx, dataKey)
		if err != nil {
			return nil, err
		}
		if err := c.store.Put(ctx, wrappedDataKeyStorageKey, wrapped); err != nil {
			return nil, errors.Wrap(err, "failed to persist wrapped data key")
		}
		log.Info().Msg("Generated new install data key")
	} else {
		dataKey, err = c.unwrapLocked(ctx, wrapped)
		if err != nil {
			return nil, err
		}
	}
	defer clear(dataKey)

	aead, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}

	c.handle = &KeyHandle{aead: aead}
	return c.handle, nil
}

// Wrap 用主密钥封装一个明文密钥
func (c *Custodian) Wrap(ctx context.Context, plaintextKey []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, custody.NewError(custody.ErrKindKeyUnavailable, "key custodian has been destroyed")
	}
	return c.wrapLocked(ctx, plaintextKey)
}

// Unwrap 解封并返回密钥句柄；主密钥已销毁时返回 KeyUnavailable
func (c *Custodian) Unwrap(ctx context.Context, wrapped []byte) (*KeyHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return nil, custody.NewError(custody.ErrKindKeyUnavailable, "key custodian has been destroyed")
	}

	key, err := c.unwrapLocked(ctx, wrapped)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return &KeyHandle{aead: aead}, nil
}

// Destroy 不可逆销毁：之后旧封装的解封必须失败
func (c *Custodian) Destroy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.provider.Destroy(ctx); err != nil {
		return errors.Wrap(err, "failed to destroy master key")
	}
	if err := c.store.Delete(ctx, wrappedDataKeyStorageKey); err != nil {
		return errors.Wrap(err, "failed to delete wrapped data key")
	}

	c.handle = nil
	c.destroyed = true

	log.Warn().Msg("Key custodian destroyed")
	return nil
}

func (c *Custodian) wrapLocked(ctx context.Context, plaintextKey []byte) ([]byte, error) {
	masterKey, err := c.provider.MasterKey(ctx)
	if err != nil {
		return nil, err
	}
	defer clear(masterKey)

	aead, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate wrap nonce")
	}

	// 封装格式：nonce || ciphertext
	return append(nonce, aead.Seal(nil, nonce, plaintextKey, nil)...), nil
}

func (c *Custodian) unwrapLocked(ctx context.Context, wrapped []byte) ([]byte, error) {
	if len(wrapped) <= nonceLen {
		return nil, custody.NewError(custody.ErrKindTamperedOrCorrupt, "wrapped key blob is too short")
	}

	masterKey, err := c.provider.MasterKey(ctx)
	if err != nil {
		return nil, err
	}
	defer clear(masterKey)

	aead, err := newGCM(masterKey)
	if err != nil {
		return nil, err
	}

	key, err := aead.Open(nil, wrapped[:nonceLen], wrapped[nonceLen:], nil)
	if err != nil {
		return nil, custody.WrapError(err, custody.ErrKindTamperedOrCorrupt, "wrapped key authentication failed")
	}
	return key, nil
}
