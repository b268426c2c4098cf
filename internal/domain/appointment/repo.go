package appointment

import (
	"context"

	"github.com/clinicapi/clinic/internal/platform/auth"
	"github.com/clinicapi/clinic/pkg/pagination"
)

type Repository interface {
	// WithTx runs fn in one transaction; repository calls made with the
	// ctx passed to fn join it.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	List(ctx context.Context, f Filter, vis auth.Visibility, p pagination.Params) ([]*Appointment, int, error)
	GetByID(ctx context.Context, id int) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	// LockHistory locks the row until the transaction ends and returns its
	// decoded history.
	LockHistory(ctx context.Context, id int) (History, error)
	Update(ctx context.Context, id int, ch Change) error
	Delete(ctx context.Context, id int) error

	EncounterClassExists(ctx context.Context, code string) (bool, error)
	// MissingEncounterTypes returns the ids in ids that have no encounter type.
	MissingEncounterTypes(ctx context.Context, ids []int) ([]int, error)
	ReplaceEncounterTypes(ctx context.Context, id int, typeIDs []int) error
}
