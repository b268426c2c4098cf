package valueset

import "context"

type Repository interface {
	ListClasses(ctx context.Context) ([]EncounterClass, error)
	GetClass(ctx context.Context, id int) (*EncounterClass, error)
	GetClassByCode(ctx context.Context, code string) (*EncounterClass, error)
	CreateClass(ctx context.Context, c *EncounterClass) error
	UpdateClass(ctx context.Context, c *EncounterClass) error
	// ClassInUse reports whether any user role or appointment refers to code.
	ClassInUse(ctx context.Context, code string) (bool, error)

	ListTypes(ctx context.Context, classID int) ([]EncounterType, error)
	CreateType(ctx context.Context, t *EncounterType) error
	UpdateType(ctx context.Context, t *EncounterType) error
}
