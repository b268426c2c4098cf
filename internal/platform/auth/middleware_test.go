package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func runMiddleware(t *testing.T, cfg JWTConfig, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/patients")

	var seen echo.Context
	err := JWTMiddleware(cfg)(func(c echo.Context) error {
		seen = c
		return okHandler(c)
	})(c)
	return seen, err
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runMiddleware(t, JWTConfig{Issuer: NewTokenIssuer(testSigningKey, time.Hour)}, "")
	if !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected ErrTokenRequired, got %v", err)
	}
	if apperr.KindOf(err).HTTPStatus() != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", apperr.KindOf(err).HTTPStatus())
	}
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTConfig{Issuer: NewTokenIssuer(testSigningKey, time.Hour)}, tt.header)
			if !errors.Is(err, ErrTokenRequired) {
				t.Errorf("expected ErrTokenRequired, got %v", err)
			}
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, time.Hour)
	token, _, err := issuer.Issue(Identity{ID: 7, Role: "reception", FullName: "Ann Lee"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c, err := runMiddleware(t, JWTConfig{Issuer: issuer}, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("handler was not called")
	}
	id, ok := IdentityFromContext(c.Request().Context())
	if !ok {
		t.Fatal("expected identity in context")
	}
	if id.ID != 7 || id.Role != "reception" || id.FullName != "Ann Lee" {
		t.Errorf("unexpected identity %+v", id)
	}
	if _, ok := ClaimsFromContext(c.Request().Context()); !ok {
		t.Error("expected claims in context")
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := &Claims{
		UserID: 1,
		Role:   "owner",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = runMiddleware(t, JWTConfig{Issuer: NewTokenIssuer(testSigningKey, time.Hour)}, "Bearer "+token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if apperr.KindOf(err).HTTPStatus() != http.StatusForbidden {
		t.Errorf("expected 403, got %d", apperr.KindOf(err).HTTPStatus())
	}
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	token, _, err := NewTokenIssuer([]byte("another-secret"), time.Hour).Issue(Identity{ID: 1, Role: "owner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = runMiddleware(t, JWTConfig{Issuer: NewTokenIssuer(testSigningKey, time.Hour)}, "Bearer "+token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, time.Hour)
	token, exp, err := issuer.Issue(Identity{ID: 1, Role: "owner"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	store := NewMemoryRevocationStore(0)
	defer store.Close()
	_ = store.Revoke(context.Background(), claims.ID, exp)

	_, err = runMiddleware(t, JWTConfig{Issuer: issuer, Revocations: store}, "Bearer "+token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for revoked token, got %v", err)
	}
}

func TestJWTMiddleware_Skipper(t *testing.T) {
	cfg := JWTConfig{
		Issuer:  NewTokenIssuer(testSigningKey, time.Hour),
		Skipper: func(echo.Context) bool { return true },
	}
	c, err := runMiddleware(t, cfg, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Error("expected handler to run when skipped")
	}
}

func TestTokenIssuer_Claims(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(testSigningKey, 10*time.Hour)
	issuer.now = func() time.Time { return now }

	token, exp, err := issuer.Issue(Identity{ID: 3, Role: "orthopedic_dentistry", FullName: "Dr Who"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.Equal(now.Add(10 * time.Hour)) {
		t.Errorf("expected expiry %v, got %v", now.Add(10*time.Hour), exp)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
	if claims.Identity() != (Identity{ID: 3, Role: "orthopedic_dentistry", FullName: "Dr Who"}) {
		t.Errorf("unexpected identity %+v", claims.Identity())
	}
}

func TestTokenIssuer_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{UserID: 1, Role: "owner", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenIssuer(testSigningKey, time.Hour).Parse(token); err == nil {
		t.Error("expected alg=none to be rejected")
	}
}
