package auth

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

type contextKey string

const identityKey contextKey = "identity"

var (
	ErrTokenRequired = apperr.Unauthorized("token is required")
	ErrInvalidToken  = apperr.Forbidden("invalid token")
)

// Identity is the caller resolved from a verified token.
type Identity struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	FullName string `json:"fullname"`
}

type JWTConfig struct {
	Issuer      *TokenIssuer
	Revocations RevocationStore
	Skipper     middleware.Skipper
}

// JWTMiddleware requires "Authorization: Bearer <token>". A missing or
// malformed header is 401; a token that fails verification or has been
// revoked is 403.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return ErrTokenRequired
			}

			claims, err := cfg.Issuer.Parse(tokenStr)
			if err != nil {
				return ErrInvalidToken
			}

			ctx := c.Request().Context()
			if cfg.Revocations != nil && claims.ID != "" {
				revoked, err := cfg.Revocations.IsRevoked(ctx, claims.ID)
				if err != nil {
					return apperr.Internal(err, "check token revocation")
				}
				if revoked {
					return ErrInvalidToken
				}
			}

			ctx = WithIdentity(ctx, claims.Identity())
			ctx = context.WithValue(ctx, claimsKey, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

const claimsKey contextKey = "claims"

// ClaimsFromContext returns the verified claims, used by logout to find the
// token id and expiry.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}
