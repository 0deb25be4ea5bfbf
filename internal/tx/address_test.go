package tx

import (
	"strings"
	"testing"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddressCompressedAndUncompressedAgree(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	uncompressed := crypto.FromECDSAPub(&key.PublicKey)
	compressed := crypto.CompressPubkey(&key.PublicKey)

	fromUncompressed, err := DeriveAddress(uncompressed)
	require.NoError(t, err)
	fromCompressed, err := DeriveAddress(compressed)
	require.NoError(t, err)

	assert.Equal(t, fromUncompressed, fromCompressed)

	// 与 go-ethereum 自身的地址推导一致
	expected := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())
	assert.Equal(t, expected, fromUncompressed)
}

func TestDeriveAddressRejectsMalformedKeys(t *testing.T) {
	for _, pubKey := range [][]byte{
		nil,
		{},
		{0x04, 0x01},
		make([]byte, 64),
	} {
		_, err := DeriveAddress(pubKey)
		require.Error(t, err)
		assert.True(t, custody.IsKind(err, custody.ErrKindInvalidInput))
	}
}
