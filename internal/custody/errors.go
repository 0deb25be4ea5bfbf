package custody

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类：调用方依赖 Kind 决定是否重试以及如何提示用户
type ErrorKind string

const (
	ErrKindNotFound            ErrorKind = "not_found"
	ErrKindTamperedOrCorrupt   ErrorKind = "tampered_or_corrupt"
	ErrKindKeyUnavailable      ErrorKind = "key_unavailable"
	ErrKindHardwareUnavailable ErrorKind = "hardware_unavailable"
	ErrKindInvalidInput        ErrorKind = "invalid_input"
	ErrKindInsufficientFunds   ErrorKind = "insufficient_funds"
	ErrKindNonceConflict       ErrorKind = "nonce_conflict"
	ErrKindTransient           ErrorKind = "transient"
	ErrKindWrongKeyForAddress  ErrorKind = "wrong_key_for_address"
)

// Retryable 返回该分类是否允许调用方用同一载荷重试。
// 引擎本身从不自动重试，重试决策完全交给调用方。
func (k ErrorKind) Retryable() bool {
	return k == ErrKindTransient
}

// Error 携带分类的自定义错误。Detail 面向用户，cause 保留底层错误链。
type Error struct {
	Kind   ErrorKind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is 支持 errors.Is 按 Kind 匹配
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// NewError 创建指定分类的错误
func NewError(kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// NewErrorf 创建指定分类的错误（格式化 Detail）
func NewErrorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WrapError 在保留底层错误链的同时附加分类
func WrapError(err error, kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, cause: err}
}

// KindOf 提取错误分类；非本包错误返回空串
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind 检查错误是否属于指定分类
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
