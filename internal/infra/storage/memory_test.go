package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	value, err := store.Get(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestMemoryStorePutGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "k1", []byte("v1")))

	value, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)

	// 返回的是副本，修改不得污染存储内容
	value[0] = 'X'
	again, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)

	require.NoError(t, store.Delete(ctx, "k1"))
	gone, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestMemoryStoreListPrefix(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()

	require.NoError(t, store.Put(ctx, "secret:w1:mnemonic", []byte("a")))
	require.NoError(t, store.Put(ctx, "secret:w1:private_key", []byte("b")))
	require.NoError(t, store.Put(ctx, "auth:pin", []byte("c")))

	keys, err := store.List(ctx, "secret:")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.NotContains(t, keys, "auth:pin")

	require.NoError(t, store.Clear(ctx))
	keys, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
