package patient

import (
	"context"

	"github.com/clinicapi/clinic/pkg/pagination"
)

type Repository interface {
	List(ctx context.Context, f Filter, p pagination.Params) ([]*Patient, int, error)
	GetByID(ctx context.Context, id int) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	// Update applies patch. An empty patch still fails with NotFound when
	// the row is missing.
	Update(ctx context.Context, id int, patch Patch) error
	Delete(ctx context.Context, id int) error
}
