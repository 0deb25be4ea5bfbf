package pin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"strings"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/scrypt"
)

const (
	pinRecordStorageKey = "auth:pin"

	// scrypt 参数：PIN 空间小，KDF 成本是暴力破解的主要防线
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32

	saltLen = 32
)

// ErrPinMismatch 提交的 PIN 与存储记录不符
var ErrPinMismatch = errors.New("current pin is incorrect")

// Policy PIN 格式策略
type Policy struct {
	MinLength int
	MaxLength int
}

// DefaultPolicy 默认 4-6 位数字
var DefaultPolicy = Policy{MinLength: 4, MaxLength: 6}

// Authenticator PIN 认证器。只持久化 hash 和 salt，绝不存 PIN 本身。
//
// 记录格式为定宽 hex 的 "hash:salt"：两段都是 hex 编码，冒号不可能出现在
// 编码值内，解析无歧义。
type Authenticator struct {
	store  storage.KVStore
	policy Policy
}

// NewAuthenticator 创建 PIN 认证器
func NewAuthenticator(store storage.KVStore, policy Policy) *Authenticator {
	if policy.MinLength <= 0 {
		policy = DefaultPolicy
	}
	return &Authenticator{
		store:  store,
		policy: policy,
	}
}

// SetPin 生成新随机 salt，计算散列并覆盖旧记录。
// salt 在每次重设时都重新生成，绝不跨记录复用。
func (a *Authenticator) SetPin(ctx context.Context, pin string) error {
	if err := a.validateFormat(pin); err != nil {
		return err
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return errors.Wrap(err, "failed to generate pin salt")
	}

	hash, err := hashPin(pin, salt)
	if err != nil {
		return err
	}

	record := hex.EncodeToString(hash) + ":" + hex.EncodeToString(salt)
	if err := a.store.Put(ctx, pinRecordStorageKey, []byte(record)); err != nil {
		return errors.Wrap(err, "failed to persist pin record")
	}

	log.Info().Msg("PIN set")
	return nil
}

// VerifyPin 校验 PIN。必须用存储记录里的 salt 重新派生，
// 在这里生成新 salt 会让校验永远失败。
func (a *Authenticator) VerifyPin(ctx context.Context, pin string) (bool, error) {
	record, err := a.store.Get(ctx, pinRecordStorageKey)
	if err != nil {
		return false, errors.Wrap(err, "failed to load pin record")
	}
	if record == nil {
		return false, custody.NewError(custody.ErrKindNotFound, "no pin has been set")
	}

	storedHash, storedSalt, err := parseRecord(string(record))
	if err != nil {
		return false, err
	}

	hash, err := hashPin(pin, storedSalt)
	if err != nil {
		return false, err
	}

	ok := subtle.ConstantTimeCompare(hash, storedHash) == 1
	if !ok {
		log.Warn().Msg("PIN verification failed")
	}
	return ok, nil
}

// ChangePin 校验旧 PIN 后用全新 salt 设置新 PIN
func (a *Authenticator) ChangePin(ctx context.Context, oldPin, newPin string) error {
	ok, err := a.VerifyPin(ctx, oldPin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPinMismatch
	}
	return a.SetPin(ctx, newPin)
}

// ClearPin 删除 PIN 记录
func (a *Authenticator) ClearPin(ctx context.Context) error {
	if err := a.store.Delete(ctx, pinRecordStorageKey); err != nil {
		return errors.Wrap(err, "failed to delete pin record")
	}
	log.Info().Msg("PIN cleared")
	return nil
}

// IsPinSet 检查是否已设置 PIN
func (a *Authenticator) IsPinSet(ctx context.Context) (bool, error) {
	record, err := a.store.Get(ctx, pinRecordStorageKey)
	if err != nil {
		return false, errors.Wrap(err, "failed to load pin record")
	}
	return record != nil, nil
}

func (a *Authenticator) validateFormat(pin string) error {
	if len(pin) < a.policy.MinLength || len(pin) > a.policy.MaxLength {
		return custody.NewErrorf(custody.ErrKindInvalidInput,
			"pin must be %d-%d digits", a.policy.MinLength, a.policy.MaxLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return custody.NewError(custody.ErrKindInvalidInput, "pin must contain digits only")
		}
	}
	return nil
}

// hashPin 用显式传入的 salt 派生散列。SetPin 负责生成 salt，
// VerifyPin 只能传存储的 salt。
func hashPin(pin string, salt []byte) ([]byte, error) {
	hash, err := scrypt.Key([]byte(pin), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash pin")
	}
	return hash, nil
}

func parseRecord(record string) (hash, salt []byte, err error) {
	parts := strings.Split(record, ":")
	if len(parts) != 2 {
		return nil, nil, custody.NewError(custody.ErrKindTamperedOrCorrupt, "pin record has unexpected format")
	}
	hash, err = hex.DecodeString(parts[0])
	if err != nil {
		return nil, nil, custody.WrapError(err, custody.ErrKindTamperedOrCorrupt, "pin hash is not valid hex")
	}
	salt, err = hex.DecodeString(parts[1])
	if err != nil {
		return nil, nil, custody.WrapError(err, custody.ErrKindTamperedOrCorrupt, "pin salt is not valid hex")
	}
	return hash, salt, nil
}
