package types

import "github.com/pkg/errors"

// PostSecretPayload 存入机密请求。Plaintext 为 base64 编码的机密内容。
type PostSecretPayload struct {
	Kind      string `json:"kind"`
	Plaintext string `json:"plaintext"`
}

// Validate validates PostSecretPayload
func (m *PostSecretPayload) Validate() error {
	if m.Kind == "" {
		return errors.New("kind is required")
	}
	if m.Plaintext == "" {
		return errors.New("plaintext is required")
	}
	return nil
}

// PostSecretResponse 存入机密响应。导入私钥时回显推导地址。
type PostSecretResponse struct {
	WalletID string `json:"wallet_id"`
	Kind     string `json:"kind"`
	Address  string `json:"address,omitempty"`
}

// GetSecretResponse 机密明文响应
type GetSecretResponse struct {
	WalletID  string `json:"wallet_id"`
	Kind      string `json:"kind"`
	Plaintext string `json:"plaintext"`
}
