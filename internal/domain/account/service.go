package account

import (
	"context"
	"strings"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/auth"
)

var (
	ErrUserNotFound    = apperr.Validation("User not found")
	ErrInvalidPassword = apperr.Validation("Invalid password")
)

// RoleResolver validates the role a new account is given.
type RoleResolver interface {
	Resolve(ctx context.Context, role string) (auth.Visibility, error)
}

type Service struct {
	repo        Repository
	roles       RoleResolver
	issuer      *auth.TokenIssuer
	revocations auth.RevocationStore
	bcryptCost  int
}

// NewService wires the account flows. roles validates the role given at
// registration.
func NewService(repo Repository, roles RoleResolver, issuer *auth.TokenIssuer, revocations auth.RevocationStore, bcryptCost int) *Service {
	return &Service{repo: repo, roles: roles, issuer: issuer, revocations: revocations, bcryptCost: bcryptCost}
}

// Register creates an account. The role must be a fixed role or an existing
// encounter class code.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	role := strings.TrimSpace(in.Role)
	if _, err := s.roles.Resolve(ctx, role); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err, "register user")
	}
	u := &User{
		FullName:     in.FullName,
		Username:     strings.TrimSpace(in.Username),
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Token, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if apperr.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(in.Password, u.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(err, "login")
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	signed, exp, err := s.issuer.Issue(auth.Identity{ID: u.ID, Role: u.Role, FullName: u.FullName})
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	return &Token{AccessToken: signed, ExpiresAt: exp}, nil
}

// Logout revokes the token described by claims until it expires.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return auth.ErrInvalidToken
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal(err, "revoke token")
	}
	return nil
}
