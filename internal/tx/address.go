package tx

import (
	"encoding/hex"
	"fmt"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// DeriveAddress 通过 Keccak256(pubKey[1:]) 从公钥推导账户地址。
// 支持 65 字节未压缩和 33 字节压缩两种编码。
func DeriveAddress(pubKey []byte) (string, error) {
	if len(pubKey) == 0 {
		return "", custody.NewError(custody.ErrKindInvalidInput, "public key is required")
	}

	var uncompressed64 []byte
	switch {
	case len(pubKey) == 65 && pubKey[0] == 0x04:
		uncompressed64 = pubKey[1:]
	case len(pubKey) == 33 && (pubKey[0] == 0x02 || pubKey[0] == 0x03):
		key, err := btcec.ParsePubKey(pubKey)
		if err != nil {
			return "", errors.Wrap(err, "failed to parse compressed secp256k1 pubkey")
		}
		u := key.SerializeUncompressed() // 65 bytes, 0x04 | X | Y
		uncompressed64 = u[1:]
	default:
		return "", custody.NewErrorf(custody.ErrKindInvalidInput, "unsupported public key format: len=%d", len(pubKey))
	}

	hash := crypto.Keccak256(uncompressed64)
	return fmt.Sprintf("0x%s", hex.EncodeToString(hash[12:])), nil
}
