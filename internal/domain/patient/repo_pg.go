package patient

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicapi/clinic/internal/platform/db"
	"github.com/clinicapi/clinic/internal/platform/query"
	"github.com/clinicapi/clinic/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `id, COALESCE(last_name, ''), COALESCE(first_name, ''), middle_name,
	identifier, phone_number, url, birth_date, gender,
	CONCAT_WS(' ', last_name, first_name, middle_name)`

// filterSpecs maps list query keys to columns. gender arrives as its code
// name and is stored as the numeric code.
var filterSpecs = map[string]query.FilterSpec{
	"firstname":  {Column: "first_name", Kind: query.FilterILike},
	"lastname":   {Column: "last_name", Kind: query.FilterILike},
	"middlename": {Column: "middle_name", Kind: query.FilterILike},
	"gender": {Column: "gender", Kind: query.FilterEq, Value: func(s string) interface{} {
		g, _ := LookupGender(s)
		return int16(g)
	}},
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p         Patient
		identity  []byte
		birthDate *time.Time
		gender    *int16
	)
	err := row.Scan(&p.ID, &p.LastName, &p.FirstName, &p.MiddleName,
		&identity, &p.PhoneNumber, &p.URL, &birthDate, &gender, &p.FullName)
	if err != nil {
		return nil, err
	}
	if len(identity) > 0 {
		p.Identifier = identity
	}
	if birthDate != nil {
		p.BirthDate = &Date{*birthDate}
	}
	if gender != nil {
		g := Gender(*gender)
		p.Gender = &g
	}
	return &p, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, p pagination.Params) ([]*Patient, int, error) {
	b := query.New("patients", patientCols).
		Apply(f.Values(), filterSpecs).
		OrderBy("id DESC")

	items, total, err := query.List(ctx, r.conn(ctx), b, p, func(rows pgx.Rows) (*Patient, error) {
		return scanPatient(rows)
	})
	if err != nil {
		return nil, total, db.MapError(err, "patient")
	}
	return items, total, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "Patient")
	}
	return p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	var birthDate *time.Time
	if p.BirthDate != nil {
		birthDate = &p.BirthDate.Time
	}
	var gender *int16
	if p.Gender != nil {
		g := int16(*p.Gender)
		gender = &g
	}
	err := r.conn(ctx).QueryRow(ctx,
		`INSERT INTO patients (last_name, first_name, middle_name, identifier, phone_number, url, birth_date, gender)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.LastName, p.FirstName, p.MiddleName, jsonArg(p.Identifier), p.PhoneNumber, p.URL, birthDate, gender,
	).Scan(&p.ID)
	return db.MapError(err, "patient")
}

func (r *repoPG) Update(ctx context.Context, id int, patch Patch) error {
	u := query.Set("patients")
	if patch.LastName != nil {
		u.Set("last_name", *patch.LastName)
	}
	if patch.FirstName != nil {
		u.Set("first_name", *patch.FirstName)
	}
	if patch.MiddleName != nil {
		u.Set("middle_name", *patch.MiddleName)
	}
	if patch.Identifier != nil {
		u.Set("identifier", jsonArg(patch.Identifier))
	}
	if patch.PhoneNumber != nil {
		u.Set("phone_number", *patch.PhoneNumber)
	}
	if patch.URL != nil {
		u.Set("url", *patch.URL)
	}
	if patch.BirthDate != nil {
		u.Set("birth_date", patch.BirthDate.Time)
	}
	if patch.Gender != nil {
		u.Set("gender", int16(*patch.Gender))
	}

	if u.Empty() {
		var found int
		err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM patients WHERE id = $1`, id).Scan(&found)
		return db.MapError(err, "Patient")
	}

	sql, args := u.SQL("id", id)
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return db.MapError(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "Patient")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "patient")
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows, "Patient")
	}
	return nil
}

// jsonArg sends raw JSON to a jsonb column, with an absent value as NULL.
func jsonArg(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
