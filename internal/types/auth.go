package types

import "github.com/pkg/errors"

// PostPinPayload 设置 PIN 请求
type PostPinPayload struct {
	Pin string `json:"pin"`
}

// Validate validates PostPinPayload
func (m *PostPinPayload) Validate() error {
	if m.Pin == "" {
		return errors.New("pin is required")
	}
	return nil
}

// PutPinPayload 修改 PIN 请求
type PutPinPayload struct {
	CurrentPin string `json:"current_pin"`
	NewPin     string `json:"new_pin"`
}

// Validate validates PutPinPayload
func (m *PutPinPayload) Validate() error {
	if m.CurrentPin == "" || m.NewPin == "" {
		return errors.New("current_pin and new_pin are required")
	}
	return nil
}

// PostUnlockPayload 解锁请求：PIN 或生物识别断言二选一
type PostUnlockPayload struct {
	Pin       string `json:"pin,omitempty"`
	WalletID  string `json:"wallet_id"`
	Biometric bool   `json:"biometric,omitempty"`
}

// Validate validates PostUnlockPayload
func (m *PostUnlockPayload) Validate() error {
	if m.Pin == "" && !m.Biometric {
		return errors.New("either pin or biometric is required")
	}
	return nil
}

// PostUnlockResponse 解锁响应
type PostUnlockResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresInSec int64  `json:"expires_in_sec"`
}

// GetAuthStatusResponse 会话状态响应
type GetAuthStatusResponse struct {
	SessionValid      bool  `json:"session_valid"`
	PinSet            bool  `json:"pin_set"`
	BiometricEnrolled bool  `json:"biometric_enrolled"`
	TimeoutSec        int64 `json:"timeout_sec"`
}
