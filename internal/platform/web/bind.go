// Package web holds request helpers shared by the domain handlers.
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

// Bind decodes the request body into v and runs the registered validator.
func Bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		// echo reports decode failures as 400; anything else, such as the
		// body limit's 413, keeps its status.
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusBadRequest {
			return err
		}
		return apperr.Validation("invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(v)
}

// ParamID parses a positive integer path parameter.
func ParamID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// Message is the body of mutating endpoints that return no entity.
type Message struct {
	Message string `json:"message"`
}
