package valueset

import (
	"context"

	"github.com/clinicapi/clinic/internal/platform/apperr"
)

var (
	ErrClassNotFound = apperr.NotFound("Encounter class not found")
	ErrClassCodeUsed = apperr.Conflict("Encounter class code is in use and cannot be changed")
)

type Service struct {
	repo Repository
}

// NewService returns a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListEncounterClasses(ctx context.Context) ([]EncounterClass, error) {
	return s.repo.ListClasses(ctx)
}

// ListEncounterTypes returns the types under the class with the given code.
func (s *Service) ListEncounterTypes(ctx context.Context, classCode string) ([]EncounterType, error) {
	class, err := s.classByCode(ctx, classCode)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTypes(ctx, class.ID)
}

// EncounterClassExists lets the role resolver check a role against the
// catalog.
func (s *Service) EncounterClassExists(ctx context.Context, code string) (bool, error) {
	_, err := s.repo.GetClassByCode(ctx, code)
	if apperr.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *Service) CreateEncounterClass(ctx context.Context, in ClassInput) (*EncounterClass, error) {
	c := &EncounterClass{Code: in.Code, Display: in.Display}
	if err := s.repo.CreateClass(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateEncounterClass renames a class. The code of a class that users or
// appointments already refer to is frozen.
func (s *Service) UpdateEncounterClass(ctx context.Context, id int, in ClassInput) (*EncounterClass, error) {
	existing, err := s.repo.GetClass(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Code != in.Code {
		inUse, err := s.repo.ClassInUse(ctx, existing.Code)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, ErrClassCodeUsed
		}
	}

	c := &EncounterClass{ID: id, Code: in.Code, Display: in.Display}
	if err := s.repo.UpdateClass(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) CreateEncounterType(ctx context.Context, in TypeInput) (*EncounterType, error) {
	class, err := s.classByCode(ctx, in.ClassCode)
	if err != nil {
		return nil, err
	}
	t := &EncounterType{ClassID: class.ID, Code: in.Code, Display: in.Display, Price: *in.Price}
	if err := s.repo.CreateType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) UpdateEncounterType(ctx context.Context, id int, in TypeUpdate) (*EncounterType, error) {
	if _, err := s.repo.GetClass(ctx, in.ClassID); err != nil {
		return nil, err
	}
	t := &EncounterType{ID: id, ClassID: in.ClassID, Code: in.Code, Display: in.Display, Price: *in.Price}
	if err := s.repo.UpdateType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) classByCode(ctx context.Context, code string) (*EncounterClass, error) {
	class, err := s.repo.GetClassByCode(ctx, code)
	if apperr.IsNotFound(err) {
		return nil, ErrClassNotFound
	}
	return class, err
}
