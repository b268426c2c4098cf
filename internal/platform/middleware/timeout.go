package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

var errRequestTimeout = echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")

// RequestTimeout puts a deadline on the request context so slow queries are
// cancelled by pgx. The handler runs on the request goroutine; an error
// returned once the deadline has passed is answered with 504.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil && !c.Response().Committed && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errRequestTimeout
			}
			return err
		}
	}
}
