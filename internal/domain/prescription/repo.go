package prescription

import (
	"context"

	"github.com/clinicapi/clinic/pkg/pagination"
)

type Repository interface {
	List(ctx context.Context, f Filter, p pagination.Params) ([]*Prescription, int, error)
	GetByID(ctx context.Context, id int) (*Prescription, error)
	Create(ctx context.Context, p *Prescription) error
	Update(ctx context.Context, id int, in UpdateInput) (*Prescription, error)
	Delete(ctx context.Context, id int) error
	PrintDetail(ctx context.Context, id int) (*PrintDetail, error)
}
