package auth

import (
	"context"
	"errors"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

// ErrInvalidRole is returned for a role that is neither fixed nor a known
// encounter class code.
var ErrInvalidRole = apperr.Validation("Invalid role or encounter class not found.")

// Visibility is the row scope a role may see. The zero value is
// unrestricted.
type Visibility struct {
	code string
}

var Unrestricted = Visibility{}

func RestrictedTo(code string) Visibility { return Visibility{code: code} }

func (v Visibility) Restricted() bool { return v.code != "" }

// Category is the encounter class code the caller is restricted to; empty
// when unrestricted.
func (v Visibility) Category() string { return v.code }

// CategoryLookup checks encounter class codes.
type CategoryLookup interface {
	EncounterClassExists(ctx context.Context, code string) (bool, error)
}

// VisibilityResolver maps a role to its Visibility. Fixed roles see
// everything; any other role must name an encounter class.
type VisibilityResolver struct {
	roles      []string
	fixed      map[string]bool
	categories CategoryLookup
}

func NewVisibilityResolver(fixedRoles []string, categories CategoryLookup) *VisibilityResolver {
	fixed := make(map[string]bool, len(fixedRoles))
	for _, r := range fixedRoles {
		fixed[r] = true
	}
	return &VisibilityResolver{roles: fixedRoles, fixed: fixed, categories: categories}
}

// FixedRoles returns the configured administrative roles.
func (r *VisibilityResolver) FixedRoles() []string {
	return append([]string(nil), r.roles...)
}

func (r *VisibilityResolver) Resolve(ctx context.Context, role string) (Visibility, error) {
	if r.fixed[role] {
		return Unrestricted, nil
	}
	if role == "" {
		return Visibility{}, ErrInvalidRole
	}
	ok, err := r.categories.EncounterClassExists(ctx, role)
	if err != nil {
		return Visibility{}, err
	}
	if !ok {
		return Visibility{}, ErrInvalidRole
	}
	return RestrictedTo(role), nil
}

// IsInvalidRole reports whether err came from Resolve rejecting a role.
func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}
