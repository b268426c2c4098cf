package auth

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeCategories struct {
	codes map[string]bool
	calls int
	err   error
}

func (f *fakeCategories) EncounterClassExists(ctx context.Context, code string) (bool, error) {
	f.calls++
	return f.codes[code], f.err
}

func newResolver(cats *fakeCategories) *VisibilityResolver {
	return NewVisibilityResolver([]string{"super_admin", "owner", "reception"}, cats)
}

func TestResolve_FixedRoleIsUnrestricted(t *testing.T) {
	cats := &fakeCategories{}
	v, err := newResolver(cats).Resolve(context.Background(), "reception")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Restricted() || v != Unrestricted {
		t.Errorf("expected unrestricted visibility, got %+v", v)
	}
	if cats.calls != 0 {
		t.Errorf("fixed roles must not hit the store, got %d calls", cats.calls)
	}
}

func TestResolve_CategoryRoleIsRestricted(t *testing.T) {
	cats := &fakeCategories{codes: map[string]bool{"orthopedic_dentistry": true}}
	v, err := newResolver(cats).Resolve(context.Background(), "orthopedic_dentistry")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Restricted() {
		t.Error("expected restricted visibility")
	}
	if v.Category() != "orthopedic_dentistry" {
		t.Errorf("expected category orthopedic_dentistry, got %q", v.Category())
	}
	if cats.calls != 1 {
		t.Errorf("expected 1 store call, got %d", cats.calls)
	}
}

func TestResolve_UnknownRole(t *testing.T) {
	_, err := newResolver(&fakeCategories{}).Resolve(context.Background(), "not_a_real_role")
	if !IsInvalidRole(err) {
		t.Fatalf("expected invalid role, got %v", err)
	}
	if err.Error() != "Invalid role or encounter class not found." {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestResolve_EmptyRole(t *testing.T) {
	cats := &fakeCategories{}
	_, err := newResolver(cats).Resolve(context.Background(), "")
	if !IsInvalidRole(err) {
		t.Errorf("expected invalid role, got %v", err)
	}
	if cats.calls != 0 {
		t.Errorf("expected no store call, got %d", cats.calls)
	}
}

func TestResolve_StoreError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := newResolver(&fakeCategories{err: boom}).Resolve(context.Background(), "cardiology")
	if !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
	if IsInvalidRole(err) {
		t.Error("store failures are not invalid roles")
	}
}

func TestFixedRoles_PreservesOrder(t *testing.T) {
	want := []string{"super_admin", "owner", "reception"}
	if got := newResolver(&fakeCategories{}).FixedRoles(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
