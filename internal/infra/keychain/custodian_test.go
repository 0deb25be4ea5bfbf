package keychain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCustodian(t *testing.T) *Custodian {
	t.Helper()

	provider, err := NewProvider(ProviderConfig{
		KeystorePath:          filepath.Join(t.TempDir(), "keystore.json"),
		Passphrase:            "test-passphrase",
		AllowSoftwareFallback: true,
	})
	require.NoError(t, err)

	return NewCustodian(provider, storage.NewMemoryStore())
}

func TestProviderRequiresExplicitFallback(t *testing.T) {
	_, err := NewProvider(ProviderConfig{
		KeystorePath: filepath.Join(t.TempDir(), "keystore.json"),
	})
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindHardwareUnavailable))
}

func TestGetOrCreateDataKeyIdempotent(t *testing.T) {
	c := newTestCustodian(t)
	ctx := t.Context()

	first, err := c.GetOrCreateDataKey(ctx)
	require.NoError(t, err)

	second, err := c.GetOrCreateDataKey(ctx)
	require.NoError(t, err)

	// 同一安装只生成一次数据密钥
	assert.Same(t, first, second)
}

func TestSealOpenRoundTrip(t *testing.T) {
	c := newTestCustodian(t)
	ctx := t.Context()

	handle, err := c.GetOrCreateDataKey(ctx)
	require.NoError(t, err)

	nonce, err := handle.NewNonce()
	require.NoError(t, err)

	ciphertext := handle.Seal(nonce, []byte("mnemonic words"))
	plaintext, err := handle.Open(nonce, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("mnemonic words"), plaintext)
}

func TestOpenDetectsTampering(t *testing.T) {
	c := newTestCustodian(t)
	ctx := t.Context()

	handle, err := c.GetOrCreateDataKey(ctx)
	require.NoError(t, err)

	nonce, err := handle.NewNonce()
	require.NoError(t, err)
	ciphertext := handle.Seal(nonce, []byte("secret"))

	// 翻转一个位，认证必须失败
	ciphertext[0] ^= 0x01
	_, err = handle.Open(nonce, ciphertext)
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindTamperedOrCorrupt))
}

func TestOpenRejectsWrongLengthNonce(t *testing.T) {
	c := newTestCustodian(t)
	ctx := t.Context()

	handle, err := c.GetOrCreateDataKey(ctx)
	require.NoError(t, err)

	nonce, err := handle.NewNonce()
	require.NoError(t, err)
	ciphertext := handle.Seal(nonce, []byte("secret"))

	// 截断 nonce 属于记录损坏，必须报错而不是 panic
	_, err = handle.Open(nonce[:4], ciphertext)
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindTamperedOrCorrupt))
}

func TestMasterKeyRejectsCorruptKeystoreNonce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")

	provider, err := NewProvider(ProviderConfig{
		KeystorePath:          path,
		Passphrase:            "test-passphrase",
		AllowSoftwareFallback: true,
	})
	require.NoError(t, err)

	c := NewCustodian(provider, storage.NewMemoryStore())
	_, err = c.GetOrCreateDataKey(t.Context())
	require.NoError(t, err)

	// 1. 把密钥库文件里的 nonce 截短
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var ks keystoreFile
	require.NoError(t, json.Unmarshal(data, &ks))
	ks.Nonce = ks.Nonce[:4]
	data, err = json.Marshal(&ks)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	// 2. 重新打开必须报 TamperedOrCorrupt
	reopened, err := NewProvider(ProviderConfig{
		KeystorePath:          path,
		Passphrase:            "test-passphrase",
		AllowSoftwareFallback: true,
	})
	require.NoError(t, err)

	_, err = NewCustodian(reopened, storage.NewMemoryStore()).GetOrCreateDataKey(t.Context())
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindTamperedOrCorrupt))
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	c := newTestCustodian(t)
	ctx := t.Context()

	wrapped, err := c.Wrap(ctx, []byte("01234567890123456789012345678901"))
	require.NoError(t, err)

	handle, err := c.Unwrap(ctx, wrapped)
	require.NoError(t, err)
	assert.NotNil(t, handle)

	_, err = c.Unwrap(ctx, wrapped[:8])
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindTamperedOrCorrupt))
}

func TestDestroyInvalidatesCustodian(t *testing.T) {
	c := newTestCustodian(t)
	ctx := t.Context()

	wrapped, err := c.Wrap(ctx, []byte("01234567890123456789012345678901"))
	require.NoError(t, err)

	require.NoError(t, c.Destroy(ctx))

	_, err = c.Unwrap(ctx, wrapped)
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindKeyUnavailable))

	_, err = c.GetOrCreateDataKey(ctx)
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindKeyUnavailable))
}
