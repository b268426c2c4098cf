package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

// Recovery turns a panicking handler into a 500 answered by ErrorHandler.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				req := c.Request()
				logger.Error().
					Str("request_id", requestID(c)).
					Str("method", req.Method).
					Str("route", c.Path()).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				err = apperr.Internal(fmt.Errorf("panic in %s %s: %v", req.Method, c.Path(), r), "internal server error")
			}()
			return next(c)
		}
	}
}
