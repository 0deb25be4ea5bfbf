package vault

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/keychain"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) (*Vault, storage.KVStore) {
	t.Helper()

	provider, err := keychain.NewProvider(keychain.ProviderConfig{
		KeystorePath:          filepath.Join(t.TempDir(), "keystore.json"),
		Passphrase:            "test-passphrase",
		AllowSoftwareFallback: true,
	})
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	return New(keychain.NewCustodian(provider, store), store), store
}

func TestStoreRevealRoundTrip(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := t.Context()

	id := custody.SecretID{WalletID: "w1", Kind: custody.SecretKindMnemonic}
	mnemonic := []byte("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")

	require.NoError(t, v.Store(ctx, id, mnemonic))

	revealed, err := v.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, mnemonic, revealed)

	has, err := v.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStoreOverwritesPreviousRecord(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := t.Context()

	id := custody.SecretID{WalletID: "w1", Kind: custody.SecretKindPrivateKey}

	require.NoError(t, v.Store(ctx, id, []byte("old")))
	require.NoError(t, v.Store(ctx, id, []byte("new")))

	revealed, err := v.Reveal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), revealed)
}

func TestRevealMissingSecret(t *testing.T) {
	v, _ := newTestVault(t)

	_, err := v.Reveal(t.Context(), custody.SecretID{WalletID: "w1", Kind: custody.SecretKindBackup})
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindNotFound))
}

func TestRevealDetectsTampering(t *testing.T) {
	v, store := newTestVault(t)
	ctx := t.Context()

	id := custody.SecretID{WalletID: "w1", Kind: custody.SecretKindMnemonic}
	require.NoError(t, v.Store(ctx, id, []byte("secret words")))

	// 直接篡改落库记录
	data, err := store.Get(ctx, id.StorageKey())
	require.NoError(t, err)
	data[len(data)-10] ^= 0x01
	require.NoError(t, store.Put(ctx, id.StorageKey(), data))

	_, err = v.Reveal(ctx, id)
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindTamperedOrCorrupt))
}

func TestRevealDetectsCorruptIV(t *testing.T) {
	v, store := newTestVault(t)
	ctx := t.Context()

	id := custody.SecretID{WalletID: "w1", Kind: custody.SecretKindPrivateKey}
	require.NoError(t, v.Store(ctx, id, []byte("deadbeef")))

	// 把记录里的 IV 截短：属于损坏，必须分类报错而不是 panic
	data, err := store.Get(ctx, id.StorageKey())
	require.NoError(t, err)

	var record encryptedSecret
	require.NoError(t, json.Unmarshal(data, &record))
	record.IV = record.IV[:4]
	data, err = json.Marshal(&record)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, id.StorageKey(), data))

	_, err = v.Reveal(ctx, id)
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindTamperedOrCorrupt))
}

func TestStoreRejectsInvalidIDs(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := t.Context()

	err := v.Store(ctx, custody.SecretID{WalletID: "w1", Kind: "passport"}, []byte("x"))
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindInvalidInput))

	err = v.Store(ctx, custody.SecretID{Kind: custody.SecretKindMnemonic}, []byte("x"))
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindInvalidInput))
}

func TestDeleteAllWipesEverySecret(t *testing.T) {
	v, _ := newTestVault(t)
	ctx := t.Context()

	require.NoError(t, v.Store(ctx, custody.SecretID{WalletID: "w1", Kind: custody.SecretKindMnemonic}, []byte("a")))
	require.NoError(t, v.Store(ctx, custody.SecretID{WalletID: "w1", Kind: custody.SecretKindPrivateKey}, []byte("b")))
	require.NoError(t, v.Store(ctx, custody.SecretID{WalletID: "w2", Kind: custody.SecretKindBackup}, []byte("c")))

	require.NoError(t, v.DeleteAll(ctx))

	for _, id := range []custody.SecretID{
		{WalletID: "w1", Kind: custody.SecretKindMnemonic},
		{WalletID: "w1", Kind: custody.SecretKindPrivateKey},
		{WalletID: "w2", Kind: custody.SecretKindBackup},
	} {
		has, err := v.Has(ctx, id)
		require.NoError(t, err)
		assert.False(t, has)
	}
}
