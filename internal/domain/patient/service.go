package patient

import (
	"context"
	"encoding/json"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/pkg/pagination"
)

var errBirthDate = apperr.Validation("birth_date must be YYYY-MM-DD, DD-MM-YYYY or RFC3339")

type Service struct {
	repo Repository
}

// NewService returns a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f Filter, p pagination.Params) ([]*Patient, int, error) {
	return s.repo.List(ctx, f, p)
}

func (s *Service) Get(ctx context.Context, id int) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Create normalises birth_date and gender before inserting.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if err := checkIdentifier(in.Identifier); err != nil {
		return nil, err
	}
	p := &Patient{
		LastName:    in.LastName,
		FirstName:   in.FirstName,
		MiddleName:  in.MiddleName,
		Identifier:  in.Identifier,
		PhoneNumber: in.PhoneNumber,
		URL:         in.URL,
	}
	g := ParseGender(in.Gender)
	p.Gender = &g

	if in.BirthDate != "" {
		d, err := ParseDate(in.BirthDate)
		if err != nil {
			return nil, errBirthDate
		}
		p.BirthDate = &d
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update changes only the fields present in in.
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) error {
	if err := checkIdentifier(in.Identifier); err != nil {
		return err
	}
	patch := Patch{
		LastName:    in.LastName,
		FirstName:   in.FirstName,
		MiddleName:  in.MiddleName,
		Identifier:  in.Identifier,
		PhoneNumber: in.PhoneNumber,
		URL:         in.URL,
	}
	if in.BirthDate != nil {
		d, err := ParseDate(*in.BirthDate)
		if err != nil {
			return errBirthDate
		}
		patch.BirthDate = &d
	}
	if in.Gender != nil {
		g := ParseGender(*in.Gender)
		patch.Gender = &g
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func checkIdentifier(raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return apperr.Validation("identifier must be valid JSON")
	}
	return nil
}
