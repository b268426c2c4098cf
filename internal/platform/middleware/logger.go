package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicapi/clinic/internal/platform/auth"
)

// Logger writes one line per request. 5xx is logged at error level with the
// cause, other failures at warn with the message the client saw.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// ErrorHandler has not written the response yet.
			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}

			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = logger.Error().Err(err)
			case err != nil:
				evt = logger.Warn().Str("error", clientMessage(err))
			default:
				evt = logger.Info()
			}

			req := c.Request()
			if id, ok := auth.IdentityFromContext(req.Context()); ok {
				evt = evt.Int64("user_id", id.ID).Str("role", id.Role)
			}

			evt.Str("request_id", requestID(c)).
				Str("method", req.Method).
				Str("route", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

func clientMessage(err error) string {
	body, _ := render(err)
	msg, _ := body["error"].(string)
	return msg
}
