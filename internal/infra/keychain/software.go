package keychain

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt 参数：服务端部署，内存换安全
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32

	masterKeyLen = 32
	saltLen      = 32
	nonceLen     = 12
)

// keystoreFile 软件密钥库磁盘格式
type keystoreFile struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	CipherText []byte `json:"ciphertext"`
}

// SoftwareProvider 软件密钥库：主密钥用 scrypt 派生的口令密钥 AES-GCM 封装后落盘。
// 仅在调用方显式接受软件回退时使用。
type SoftwareProvider struct {
	path       string
	passphrase []byte

	mu        sync.Mutex
	destroyed bool
}

// NewSoftwareProvider 创建软件密钥库提供者
func NewSoftwareProvider(path string, passphrase []byte) *SoftwareProvider {
	return &SoftwareProvider{
		path:       path,
		passphrase: passphrase,
	}
}

// MasterKey 返回主密钥，文件不存在时生成并落盘
func (p *SoftwareProvider) MasterKey(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, custody.NewError(custody.ErrKindKeyUnavailable, "master key has been destroyed")
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return p.createLocked()
		}
		return nil, errors.Wrap(err, "failed to read keystore file")
	}

	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, custody.WrapError(err, custody.ErrKindTamperedOrCorrupt, "keystore file is not parseable")
	}

	kek, err := scrypt.Key(p.passphrase, ks.Salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive keystore KEK")
	}
	defer clear(kek)

	aead, err := newGCM(kek)
	if err != nil {
		return nil, err
	}

	if len(ks.Nonce) != aead.NonceSize() {
		return nil, custody.NewError(custody.ErrKindTamperedOrCorrupt, "keystore nonce has unexpected length")
	}
	masterKey, err := aead.Open(nil, ks.Nonce, ks.CipherText, nil)
	if err != nil {
		return nil, custody.WrapError(err, custody.ErrKindTamperedOrCorrupt, "keystore authentication failed")
	}
	return masterKey, nil
}

// createLocked 生成新主密钥并封装落盘，调用方必须持锁
func (p *SoftwareProvider) createLocked() ([]byte, error) {
	masterKey := make([]byte, masterKeyLen)
	if _, err := io.ReadFull(rand.Reader, masterKey); err != nil {
		return nil, errors.Wrap(err, "failed to generate master key")
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate keystore salt")
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate keystore nonce")
	}

	kek, err := scrypt.Key(p.passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive keystore KEK")
	}
	defer clear(kek)

	aead, err := newGCM(kek)
	if err != nil {
		return nil, err
	}

	ks := keystoreFile{
		Salt:       salt,
		Nonce:      nonce,
		CipherText: aead.Seal(nil, nonce, masterKey, nil),
	}

	data, err := json.Marshal(&ks)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal keystore file")
	}

	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return nil, errors.Wrap(err, "failed to write keystore file")
	}

	log.Info().Str("path", p.path).Msg("Created new software keystore master key")
	return masterKey, nil
}

// Destroy 删除密钥库文件并永久失效该提供者
func (p *SoftwareProvider) Destroy(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove keystore file")
	}
	p.destroyed = true
	clear(p.passphrase)

	log.Warn().Str("path", p.path).Msg("Software keystore master key destroyed")
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}
	return aead, nil
}
