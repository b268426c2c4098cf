package prescription

import (
	"bytes"
	"context"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/pkg/pagination"
)

type Service struct {
	repo     Repository
	renderer Renderer
}

// NewService returns a Service that prints with renderer.
func NewService(repo Repository, renderer Renderer) *Service {
	return &Service{repo: repo, renderer: renderer}
}

func (s *Service) List(ctx context.Context, f Filter, p pagination.Params) ([]*Prescription, int, error) {
	return s.repo.List(ctx, f, p)
}

func (s *Service) Get(ctx context.Context, id int) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Prescription, error) {
	p := &Prescription{
		AppointmentID:     in.AppointmentID,
		PrescribingDoctor: in.PrescribingDoctor,
		Medications:       in.Medications,
		Notes:             in.Notes,
	}
	if p.Medications == nil {
		p.Medications = []Medication{}
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the present fields and returns the stored row. An empty
// input writes nothing.
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (*Prescription, error) {
	return s.repo.Update(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// RenderPDF renders the prescription sheet and marks the prescription as
// printed.
func (s *Service) RenderPDF(ctx context.Context, id int) ([]byte, error) {
	d, err := s.repo.PrintDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, d); err != nil {
		return nil, apperr.Internal(err, "render prescription %d", id)
	}

	if !d.PrintedStatus {
		printed := true
		if _, err := s.repo.Update(ctx, id, UpdateInput{PrintedStatus: &printed}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
