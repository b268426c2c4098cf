package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

const internalMessage = "internal server error"

// ErrorHandler renders every error as {"error": message, ...fields}. Server
// errors are logged in full and answered with a generic message.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := statusOf(err)
		body, _ := render(err)
		if status >= 500 {
			logger.Error().Err(err).
				Str("request_id", requestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
			body = map[string]interface{}{"error": internalMessage}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}

func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func render(err error) (map[string]interface{}, int) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body := make(map[string]interface{}, len(ae.Fields)+1)
		for k, v := range ae.Fields {
			body[k] = v
		}
		body["error"] = ae.Message
		return body, ae.Kind.HTTPStatus()
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
		return map[string]interface{}{"error": msg}, he.Code
	}
	return map[string]interface{}{"error": internalMessage}, http.StatusInternalServerError
}
