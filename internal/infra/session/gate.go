package session

import (
	"context"
	"sync"
	"time"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/infra/pin"
	"github.com/rs/zerolog/log"
)

// BiometricResult 生物识别提示结果
type BiometricResult int

const (
	BiometricSuccess BiometricResult = iota
	BiometricFailure
	BiometricCancelled
)

// BiometricPrompter 生物识别协作方。成功结果与 PIN 校验成功同等对待。
type BiometricPrompter interface {
	Prompt(ctx context.Context, reason string) (BiometricResult, error)
	Enrolled(ctx context.Context) bool
}

// Gate 授权门。维护最近一次认证时间和会话超时，决定敏感操作是否需要
// 重新认证。会话状态是进程级单例，所有读写都在锁内完成。
type Gate struct {
	pinAuth   *pin.Authenticator
	biometric BiometricPrompter

	mu         sync.RWMutex
	lastAuthAt time.Time // 零值表示从未认证
	timeout    time.Duration
	now        func() time.Time
}

// Option Gate 构造选项
type Option func(*Gate)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// WithBiometric 注入生物识别协作方
func WithBiometric(prompter BiometricPrompter) Option {
	return func(g *Gate) {
		g.biometric = prompter
	}
}

// NewGate 创建授权门
func NewGate(pinAuth *pin.Authenticator, timeout time.Duration, opts ...Option) *Gate {
	g := &Gate{
		pinAuth: pinAuth,
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RecordSuccess 记录一次成功认证
func (g *Gate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastAuthAt = g.now()
	log.Info().Time("authenticated_at", g.lastAuthAt).Msg("Authentication success recorded")
}

// ClearSession 重置为从未认证
func (g *Gate) ClearSession() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastAuthAt = time.Time{}
	log.Info().Msg("Session cleared")
}

// IsSessionValid 会话有效当且仅当认证过、未超时且时钟未回退。
// 时钟回退（lastAuthAt 在未来）视为无效，绝不视为有效。
func (g *Gate) IsSessionValid() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.isValidLocked()
}

func (g *Gate) isValidLocked() bool {
	if g.lastAuthAt.IsZero() {
		return false
	}
	now := g.now()
	if now.Before(g.lastAuthAt) {
		return false
	}
	return now.Sub(g.lastAuthAt) < g.timeout
}

// IsAuthenticationRequired 判定指定操作是否需要先认证。
// 会话有效或未注册任何认证因子（PIN 未设置且未启用生物识别）时不拦截；
// 否则对所有敏感操作统一要求认证，策略不区分 action。
func (g *Gate) IsAuthenticationRequired(ctx context.Context, action custody.Action) (bool, error) {
	g.mu.RLock()
	valid := g.isValidLocked()
	g.mu.RUnlock()

	if valid {
		return false, nil
	}

	pinSet, err := g.pinAuth.IsPinSet(ctx)
	if err != nil {
		return false, err
	}

	biometricEnrolled := g.biometric != nil && g.biometric.Enrolled(ctx)
	if !pinSet && !biometricEnrolled {
		return false, nil
	}

	log.Debug().Str("action", string(action)).Msg("Authentication required")
	return true, nil
}

// AuthenticateBiometric 发起生物识别提示，成功时等同一次 PIN 成功
func (g *Gate) AuthenticateBiometric(ctx context.Context, reason string) (BiometricResult, error) {
	if g.biometric == nil {
		return BiometricFailure, nil
	}

	result, err := g.biometric.Prompt(ctx, reason)
	if err != nil {
		return BiometricFailure, err
	}
	if result == BiometricSuccess {
		g.RecordSuccess()
	}
	return result, nil
}

// SetSessionTimeout 调整会话超时
func (g *Gate) SetSessionTimeout(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.timeout = d
}

// SessionTimeout 返回当前会话超时
func (g *Gate) SessionTimeout() time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.timeout
}
