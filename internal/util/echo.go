package util

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Validatable payload types may implement their own validation.
type Validatable interface {
	Validate() error
}

// BindAndValidateBody binds the request body and runs payload validation if present.
func BindAndValidateBody(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.Wrap(err, "failed to bind request body").Error())
	}
	if validatable, ok := v.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return nil
}

// ValidateAndReturn writes the response payload with the given status code.
func ValidateAndReturn(c echo.Context, code int, v interface{}) error {
	return c.JSON(code, v)
}
