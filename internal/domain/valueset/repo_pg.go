package valueset

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const (
	classCols = `id, code, display`
	typeCols  = `id, class_id, code, display, price`
)

func scanClass(row pgx.Row) (*EncounterClass, error) {
	var c EncounterClass
	err := row.Scan(&c.ID, &c.Code, &c.Display)
	return &c, err
}

func scanType(row pgx.Row) (*EncounterType, error) {
	var t EncounterType
	err := row.Scan(&t.ID, &t.ClassID, &t.Code, &t.Display, &t.Price)
	return &t, err
}

func (r *repoPG) ListClasses(ctx context.Context) ([]EncounterClass, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+classCols+` FROM encounter_classes ORDER BY id`)
	if err != nil {
		return nil, db.MapError(err, "encounter class")
	}
	defer rows.Close()

	items := []EncounterClass{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, db.MapError(err, "encounter class")
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func (r *repoPG) GetClass(ctx context.Context, id int) (*EncounterClass, error) {
	c, err := scanClass(r.conn(ctx).QueryRow(ctx,
		`SELECT `+classCols+` FROM encounter_classes WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "Encounter class")
	}
	return c, nil
}

func (r *repoPG) GetClassByCode(ctx context.Context, code string) (*EncounterClass, error) {
	c, err := scanClass(r.conn(ctx).QueryRow(ctx,
		`SELECT `+classCols+` FROM encounter_classes WHERE code = $1`, code))
	if err != nil {
		return nil, db.MapError(err, "Encounter class")
	}
	return c, nil
}

func (r *repoPG) CreateClass(ctx context.Context, c *EncounterClass) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO encounter_classes (code, display) VALUES ($1, $2) RETURNING id`,
		c.Code, c.Display).Scan(&c.ID)
	return db.MapError(err, "encounter class")
}

func (r *repoPG) UpdateClass(ctx context.Context, c *EncounterClass) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE encounter_classes SET code = $1, display = $2 WHERE id = $3`,
		c.Code, c.Display, c.ID)
	if err != nil {
		return db.MapError(err, "encounter class")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Encounter class not found")
	}
	return nil
}

func (r *repoPG) ClassInUse(ctx context.Context, code string) (bool, error) {
	var inUse bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT
		EXISTS (SELECT 1 FROM users WHERE role = $1) OR
		EXISTS (SELECT 1 FROM appointments WHERE encounter_class = $1)`, code).Scan(&inUse)
	return inUse, db.MapError(err, "encounter class")
}

func (r *repoPG) ListTypes(ctx context.Context, classID int) ([]EncounterType, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+typeCols+` FROM encounter_types WHERE class_id = $1 ORDER BY id`, classID)
	if err != nil {
		return nil, db.MapError(err, "encounter type")
	}
	defer rows.Close()

	items := []EncounterType{}
	for rows.Next() {
		t, err := scanType(rows)
		if err != nil {
			return nil, db.MapError(err, "encounter type")
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func (r *repoPG) CreateType(ctx context.Context, t *EncounterType) error {
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO encounter_types (class_id, code, display, price) VALUES ($1, $2, $3, $4) RETURNING id`,
		t.ClassID, t.Code, t.Display, t.Price).Scan(&t.ID)
	return db.MapError(err, "encounter type")
}

func (r *repoPG) UpdateType(ctx context.Context, t *EncounterType) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE encounter_types SET code = $1, display = $2, price = $3, class_id = $4 WHERE id = $5`,
		t.Code, t.Display, t.Price, t.ClassID, t.ID)
	if err != nil {
		return db.MapError(err, "encounter type")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Encounter type not found")
	}
	return nil
}
