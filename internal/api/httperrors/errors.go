package httperrors

import (
	"fmt"
	"net/http"

	"github.com/SafeMPC/custody-engine/internal/custody"
	"github.com/SafeMPC/custody-engine/internal/types"
)

// HTTPError carries the public error payload returned to callers.
type HTTPError struct {
	types.PublicHTTPError
	Internal error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("HTTPError %d (%s): %s: %v", e.Status, e.Type, e.Title, e.Internal)
	}
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Status, e.Type, e.Title)
}

// NewHTTPError creates a public HTTP error with the given status, type and title.
func NewHTTPError(status int, errorType types.PublicHTTPErrorType, title string) *HTTPError {
	return &HTTPError{
		PublicHTTPError: types.PublicHTTPError{
			Type:   errorType,
			Title:  title,
			Status: status,
		},
	}
}

// NewFromEngineError maps an engine error onto an HTTP response, carrying
// the taxonomy kind so callers can branch without parsing the title.
func NewFromEngineError(err error) *HTTPError {
	kind := custody.KindOf(err)

	status := http.StatusInternalServerError
	errorType := types.PublicHTTPErrorTypeGeneric
	switch kind {
	case custody.ErrKindNotFound:
		status = http.StatusNotFound
		errorType = types.PublicHTTPErrorTypeSecretNotFound
	case custody.ErrKindInvalidInput, custody.ErrKindWrongKeyForAddress:
		status = http.StatusBadRequest
	case custody.ErrKindInsufficientFunds, custody.ErrKindNonceConflict:
		status = http.StatusUnprocessableEntity
		errorType = types.PublicHTTPErrorTypeTransactionFailed
	case custody.ErrKindTransient:
		status = http.StatusBadGateway
		errorType = types.PublicHTTPErrorTypeTransactionFailed
	case custody.ErrKindKeyUnavailable, custody.ErrKindHardwareUnavailable, custody.ErrKindTamperedOrCorrupt:
		status = http.StatusConflict
	}

	httpErr := NewHTTPError(status, errorType, err.Error())
	httpErr.Kind = string(kind)
	httpErr.Internal = err
	return httpErr
}

// ErrAuthRequired is returned when the authorization gate rejects a sensitive action.
var ErrAuthRequired = NewHTTPError(http.StatusUnauthorized, types.PublicHTTPErrorTypeAuthRequired, "Authentication required.")
