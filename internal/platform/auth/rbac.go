package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

// RequireRole allows the request through only if the caller's role is one of
// roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return ErrTokenRequired
			}
			if !allowed[id.Role] {
				return apperr.Forbidden("required role: %s", strings.Join(roles, " or "))
			}
			return next(c)
		}
	}
}
