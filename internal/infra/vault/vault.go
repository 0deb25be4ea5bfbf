package vault

import (
	"context"
	"encoding/json"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/keychain"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const secretKeyPrefix = "secret:"

// encryptedSecret 持久化记录。GCM 的认证标签附加在 CipherText 末尾。
type encryptedSecret struct {
	CipherText []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
}

// Vault 机密保管库：助记词、私钥、备份等一律经数据密钥认证加密后落库。
// 每个 (walletID, kind) 只保留一条记录，Store 覆盖旧值。
type Vault struct {
	custodian *keychain.Custodian
	store     storage.KVStore
}

// New 创建保管库
func New(custodian *keychain.Custodian, store storage.KVStore) *Vault {
	return &Vault{
		custodian: custodian,
		store:     store,
	}
}

// Store 用新生成的 IV 认证加密 plaintext 并持久化，覆盖同 id 的旧记录
func (v *Vault) Store(ctx context.Context, id custody.SecretID, plaintext []byte) error {
	if !id.Kind.Valid() {
		return custody.NewErrorf(custody.ErrKindInvalidInput, "unknown secret kind %q", id.Kind)
	}
	if id.WalletID == "" {
		return custody.NewError(custody.ErrKindInvalidInput, "wallet id is required")
	}

	handle, err := v.custodian.GetOrCreateDataKey(ctx)
	if err != nil {
		return err
	}

	iv, err := handle.NewNonce()
	if err != nil {
		return err
	}

	record := encryptedSecret{
		CipherText: handle.Seal(iv, plaintext),
		IV:         iv,
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal encrypted secret")
	}

	if err := v.store.Put(ctx, id.StorageKey(), data); err != nil {
		return errors.Wrap(err, "failed to persist encrypted secret")
	}

	// 审计：只记录访问事实，绝不记录明文
	log.Info().Str("secret_id", id.String()).Msg("Secret stored")
	return nil
}

// Reveal 解密并认证返回明文。调用方用毕应尽快清零返回的切片。
func (v *Vault) Reveal(ctx context.Context, id custody.SecretID) ([]byte, error) {
	data, err := v.store.Get(ctx, id.StorageKey())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load encrypted secret")
	}
	if data == nil {
		return nil, custody.NewErrorf(custody.ErrKindNotFound, "no secret stored for %s", id)
	}

	var record encryptedSecret
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, custody.WrapError(err, custody.ErrKindTamperedOrCorrupt, "stored secret record is not parseable")
	}

	handle, err := v.custodian.GetOrCreateDataKey(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := handle.Open(record.IV, record.CipherText)
	if err != nil {
		return nil, err
	}

	log.Info().Str("secret_id", id.String()).Msg("Secret revealed")
	return plaintext, nil
}

// Delete 删除指定机密
func (v *Vault) Delete(ctx context.Context, id custody.SecretID) error {
	if err := v.store.Delete(ctx, id.StorageKey()); err != nil {
		return errors.Wrap(err, "failed to delete secret")
	}
	log.Info().Str("secret_id", id.String()).Msg("Secret deleted")
	return nil
}

// DeleteAll 清空全部机密（登出/重置）。先逐个删除再复查，
// 只有确认没有残留记录才报告成功。
func (v *Vault) DeleteAll(ctx context.Context) error {
	keys, err := v.store.List(ctx, secretKeyPrefix)
	if err != nil {
		return errors.Wrap(err, "failed to list secrets")
	}
	for _, key := range keys {
		if err := v.store.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "failed to delete secret %s", key)
		}
	}

	remaining, err := v.store.List(ctx, secretKeyPrefix)
	if err != nil {
		return errors.Wrap(err, "failed to verify secret wipe")
	}
	if len(remaining) > 0 {
		return errors.Errorf("secret wipe incomplete: %d records remain", len(remaining))
	}

	log.Warn().Int("count", len(keys)).Msg("All secrets wiped")
	return nil
}

// Has 检查指定机密是否存在（不解密）
func (v *Vault) Has(ctx context.Context, id custody.SecretID) (bool, error) {
	data, err := v.store.Get(ctx, id.StorageKey())
	if err != nil {
		return false, errors.Wrap(err, "failed to check secret presence")
	}
	return data != nil, nil
}
