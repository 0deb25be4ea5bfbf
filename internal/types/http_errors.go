package types

// PublicHTTPErrorType 对外错误类型标识
type PublicHTTPErrorType string

const (
	PublicHTTPErrorTypeGeneric           PublicHTTPErrorType = "generic"
	PublicHTTPErrorTypeAuthRequired      PublicHTTPErrorType = "auth_required"
	PublicHTTPErrorTypeInvalidPin        PublicHTTPErrorType = "invalid_pin"
	PublicHTTPErrorTypeSecretNotFound    PublicHTTPErrorType = "secret_not_found"
	PublicHTTPErrorTypeTransactionFailed PublicHTTPErrorType = "transaction_failed"
)

// PublicHTTPError 对外错误响应体。Kind 携带引擎错误分类，
// 调用方依赖它做分支，而不是解析 detail 文案。
type PublicHTTPError struct {
	Type   PublicHTTPErrorType `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Kind   string              `json:"kind,omitempty"`
}
