package pin

import (
	"strings"
	"testing"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndVerifyPin(t *testing.T) {
	a := NewAuthenticator(storage.NewMemoryStore(), DefaultPolicy)
	ctx := t.Context()

	require.NoError(t, a.SetPin(ctx, "123456"))

	// 连续两次校验正确 PIN 都必须成立：校验只读存储的 salt，不得改写记录
	ok, err := a.VerifyPin(ctx, "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPin(ctx, "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPin(ctx, "654321")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyWithoutPinSet(t *testing.T) {
	a := NewAuthenticator(storage.NewMemoryStore(), DefaultPolicy)

	_, err := a.VerifyPin(t.Context(), "123456")
	require.Error(t, err)
	assert.True(t, custody.IsKind(err, custody.ErrKindNotFound))
}

func TestSetPinGeneratesFreshSalt(t *testing.T) {
	store := storage.NewMemoryStore()
	a := NewAuthenticator(store, DefaultPolicy)
	ctx := t.Context()

	require.NoError(t, a.SetPin(ctx, "123456"))
	first, err := store.Get(ctx, pinRecordStorageKey)
	require.NoError(t, err)

	require.NoError(t, a.SetPin(ctx, "123456"))
	second, err := store.Get(ctx, pinRecordStorageKey)
	require.NoError(t, err)

	// 相同 PIN 重设后 salt 和散列都必须不同
	assert.NotEqual(t, first, second)
	firstSalt := strings.Split(string(first), ":")[1]
	secondSalt := strings.Split(string(second), ":")[1]
	assert.NotEqual(t, firstSalt, secondSalt)

	// 重设后旧记录的 salt 不再使用，校验仍然成立
	ok, err := a.VerifyPin(ctx, "123456")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChangePin(t *testing.T) {
	a := NewAuthenticator(storage.NewMemoryStore(), DefaultPolicy)
	ctx := t.Context()

	require.NoError(t, a.SetPin(ctx, "1234"))

	err := a.ChangePin(ctx, "9999", "5678")
	require.ErrorIs(t, err, ErrPinMismatch)

	require.NoError(t, a.ChangePin(ctx, "1234", "5678"))

	ok, err := a.VerifyPin(ctx, "5678")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPin(ctx, "1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPinFormatPolicy(t *testing.T) {
	a := NewAuthenticator(storage.NewMemoryStore(), Policy{MinLength: 4, MaxLength: 6})
	ctx := t.Context()

	for _, pin := range []string{"123", "1234567", "12ab", ""} {
		err := a.SetPin(ctx, pin)
		require.Error(t, err, "pin %q should be rejected", pin)
		assert.True(t, custody.IsKind(err, custody.ErrKindInvalidInput))
	}
}

func TestClearPin(t *testing.T) {
	a := NewAuthenticator(storage.NewMemoryStore(), DefaultPolicy)
	ctx := t.Context()

	require.NoError(t, a.SetPin(ctx, "1234"))
	require.NoError(t, a.ClearPin(ctx))

	set, err := a.IsPinSet(ctx)
	require.NoError(t, err)
	assert.False(t, set)
}
