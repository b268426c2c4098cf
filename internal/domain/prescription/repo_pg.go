package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/db"
	"github.com/clinicapi/clinic/internal/platform/query"
	"github.com/clinicapi/clinic/pkg/pagination"
)

var ErrNotFound = apperr.NotFound("Prescription not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

var filterSpecs = map[string]query.FilterSpec{
	"appointment_id": {Column: "appointment_id", Kind: query.FilterEq, Value: query.Int},
}

const rxCols = `id, appointment_id, prescribing_doctor, medications, notes, printed_status, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var (
		p    Prescription
		meds []byte
	)
	err := row.Scan(&p.ID, &p.AppointmentID, &p.PrescribingDoctor, &meds, &p.Notes,
		&p.PrintedStatus, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Medications, err = decodeMedications(meds); err != nil {
		return nil, fmt.Errorf("prescription %d: %w", p.ID, err)
	}
	return &p, nil
}

func decodeMedications(raw []byte) ([]Medication, error) {
	meds := []Medication{}
	if len(raw) == 0 || string(raw) == "null" {
		return meds, nil
	}
	if err := json.Unmarshal(raw, &meds); err != nil {
		return nil, fmt.Errorf("decode medications: %w", err)
	}
	return meds, nil
}

func encodeMedications(meds []Medication) (string, error) {
	if meds == nil {
		meds = []Medication{}
	}
	b, err := json.Marshal(meds)
	return string(b), err
}

func (r *repoPG) List(ctx context.Context, f Filter, p pagination.Params) ([]*Prescription, int, error) {
	b := query.New("prescriptions", rxCols).
		Apply(f.Values(), filterSpecs).
		OrderBy("id DESC")
	items, total, err := query.List(ctx, r.conn(ctx), b, p, func(rows pgx.Rows) (*Prescription, error) {
		return scanPrescription(rows)
	})
	if err != nil {
		return nil, total, db.MapError(err, "prescription")
	}
	return items, total, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	meds, err := encodeMedications(p.Medications)
	if err != nil {
		return apperr.Internal(err, "encode medications")
	}
	err = r.conn(ctx).QueryRow(ctx, `INSERT INTO prescriptions
		(appointment_id, prescribing_doctor, medications, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+rxCols,
		p.AppointmentID, p.PrescribingDoctor, meds, p.Notes,
	).Scan(&p.ID, &p.AppointmentID, &p.PrescribingDoctor, new([]byte), &p.Notes,
		&p.PrintedStatus, &p.CreatedAt, &p.UpdatedAt)
	return db.MapError(err, "prescription")
}

func (r *repoPG) Update(ctx context.Context, id int, in UpdateInput) (*Prescription, error) {
	u := query.Set("prescriptions")
	if in.Medications != nil {
		meds, err := encodeMedications(*in.Medications)
		if err != nil {
			return nil, apperr.Internal(err, "encode medications")
		}
		u.Set("medications", meds)
	}
	if in.Notes != nil {
		u.Set("notes", *in.Notes)
	}
	if in.PrintedStatus != nil {
		u.Set("printed_status", *in.PrintedStatus)
	}

	// Nothing to change: leave updated_at alone, but a missing row is still 404.
	if u.Empty() {
		return r.GetByID(ctx, id)
	}

	sql, args := u.SetRaw("updated_at", "NOW()").SQL("id", id)
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx, sql+` RETURNING `+rxCols, args...))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return p, nil
}

func (r *repoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "prescription")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) PrintDetail(ctx context.Context, id int) (*PrintDetail, error) {
	var (
		d    PrintDetail
		meds []byte
	)
	err := r.conn(ctx).QueryRow(ctx, `SELECT
		rx.id, rx.appointment_id, rx.prescribing_doctor, rx.medications, rx.notes,
		rx.printed_status, rx.created_at, rx.updated_at,
		a.status, COALESCE(a.reason_text, ''), COALESCE(ec.display, a.encounter_class, ''),
		CONCAT_WS(' ', p.last_name, p.first_name, p.middle_name), p.birth_date, COALESCE(p.phone_number, '')
		FROM prescriptions rx
		JOIN appointments a ON rx.appointment_id = a.id
		JOIN patients p ON a.patient_id = p.id
		LEFT JOIN encounter_classes ec ON a.encounter_class = ec.code
		WHERE rx.id = $1`, id,
	).Scan(&d.ID, &d.AppointmentID, &d.PrescribingDoctor, &meds, &d.Notes,
		&d.PrintedStatus, &d.CreatedAt, &d.UpdatedAt,
		&d.AppointmentStatus, &d.ReasonText, &d.EncounterClass,
		&d.PatientName, &d.PatientBirthDate, &d.PatientPhone)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if d.Medications, err = decodeMedications(meds); err != nil {
		return nil, apperr.Internal(err, "prescription %d", id)
	}
	return &d, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return db.MapError(err, "prescription")
}
