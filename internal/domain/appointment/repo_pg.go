package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicapi/clinic/internal/platform/apperr"
	"github.com/clinicapi/clinic/internal/platform/auth"
	"github.com/clinicapi/clinic/internal/platform/db"
	"github.com/clinicapi/clinic/internal/platform/query"
	"github.com/clinicapi/clinic/pkg/pagination"
)

var ErrNotFound = apperr.NotFound("Appointment not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

const (
	apptCols = `a.id, a.patient_id, a.encounter_class, a.reason_text, a.status, a.history,
	a.created_by, a.updated_by, a.created_at, a.updated_at`

	classJSON = `CASE WHEN ec.id IS NULL THEN NULL
	ELSE json_build_object('id', ec.id, 'code', ec.code, 'display', ec.display) END`

	listCols = apptCols + `,
	json_build_object(
		'id', p.id,
		'full_name', CONCAT_WS(' ', p.last_name, p.first_name, p.middle_name),
		'identifier', p.identifier,
		'phone_number', p.phone_number,
		'url', p.url
	), ` + classJSON

	detailCols = apptCols + `,
	json_build_object(
		'id', p.id,
		'last_name', p.last_name,
		'first_name', p.first_name,
		'middle_name', p.middle_name,
		'identifier', p.identifier,
		'phone_number', p.phone_number,
		'url', p.url
	), ` + classJSON

	apptFrom = `appointments a
	JOIN patients p ON a.patient_id = p.id
	LEFT JOIN encounter_classes ec ON a.encounter_class = ec.code`
)

var filterSpecs = map[string]query.FilterSpec{
	"patient_id": {Column: "a.patient_id", Kind: query.FilterEq, Value: query.Int},
	"status":     {Column: "a.status", Kind: query.FilterEq},
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a       Appointment
		history []byte
	)
	err := row.Scan(&a.ID, &a.PatientID, &a.EncounterClassCode, &a.ReasonText, &a.Status, &history,
		&a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt,
		&a.Patient, &a.EncounterClass)
	if err != nil {
		return nil, err
	}
	if a.History, err = DecodeHistory(history); err != nil {
		return nil, fmt.Errorf("appointment %d: %w", a.ID, err)
	}
	return &a, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, vis auth.Visibility, p pagination.Params) ([]*Appointment, int, error) {
	b := query.New(apptFrom, listCols).
		Apply(f.Values(), filterSpecs).
		OrderBy("a.id DESC")
	if vis.Restricted() {
		b.Force("a.encounter_class", vis.Category())
	}

	items, total, err := query.List(ctx, r.conn(ctx), b, p, func(rows pgx.Rows) (*Appointment, error) {
		return scanAppointment(rows)
	})
	if err != nil {
		return nil, total, db.MapError(err, "appointment")
	}
	return items, total, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int) (*Appointment, error) {
	q := r.conn(ctx)
	a, err := scanAppointment(q.QueryRow(ctx,
		`SELECT `+detailCols+` FROM `+apptFrom+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}

	if a.EncounterTypes, err = r.encounterTypes(ctx, id); err != nil {
		return nil, err
	}
	if a.Prescriptions, err = r.prescriptions(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repoPG) encounterTypes(ctx context.Context, id int) ([]TypeRef, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT et.id, et.code, et.display, et.price
		FROM encounter_types_patient etp
		JOIN encounter_types et ON etp.encounter_type_id = et.id
		WHERE etp.appointment_id = $1
		ORDER BY et.id`, id)
	if err != nil {
		return nil, db.MapError(err, "encounter type")
	}
	defer rows.Close()

	out := []TypeRef{}
	for rows.Next() {
		var t TypeRef
		if err := rows.Scan(&t.ID, &t.Code, &t.Display, &t.Price); err != nil {
			return nil, db.MapError(err, "encounter type")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repoPG) prescriptions(ctx context.Context, id int) ([]Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, prescribing_doctor, medications, notes,
		printed_status, created_at, updated_at
		FROM prescriptions WHERE appointment_id = $1 ORDER BY id DESC`, id)
	if err != nil {
		return nil, db.MapError(err, "prescription")
	}
	defer rows.Close()

	out := []Prescription{}
	for rows.Next() {
		var (
			p    Prescription
			meds []byte
		)
		if err := rows.Scan(&p.ID, &p.PrescribingDoctor, &meds, &p.Notes,
			&p.PrintedStatus, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, db.MapError(err, "prescription")
		}
		p.Medications = meds
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	history, err := jsonArray(a.History)
	if err != nil {
		return apperr.Internal(err, "encode appointment history")
	}
	err = r.conn(ctx).QueryRow(ctx, `INSERT INTO appointments
		(patient_id, encounter_class, reason_text, status, history, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		a.PatientID, a.EncounterClassCode, a.ReasonText, a.Status, history, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return db.MapError(err, "appointment")
}

func (r *repoPG) LockHistory(ctx context.Context, id int) (History, error) {
	var raw []byte
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT history FROM appointments WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if err != nil {
		return nil, mapNotFound(err)
	}
	h, err := DecodeHistory(raw)
	if err != nil {
		return nil, apperr.Internal(err, "appointment %d has an unreadable history", id)
	}
	return h, nil
}

func (r *repoPG) Update(ctx context.Context, id int, ch Change) error {
	history, err := jsonArray(ch.History)
	if err != nil {
		return apperr.Internal(err, "encode appointment history")
	}

	u := query.Set("appointments").
		Set("status", ch.Status).
		Set("updated_by", ch.UpdatedBy).
		Set("history", history).
		SetRaw("updated_at", "NOW()")
	if ch.ReasonText != nil {
		u.Set("reason_text", *ch.ReasonText)
	}

	sql, args := u.SQL("id", id)
	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return db.MapError(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return db.MapError(err, "appointment")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) EncounterClassExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM encounter_classes WHERE code = $1)`, code).Scan(&exists)
	return exists, db.MapError(err, "encounter class")
}

func (r *repoPG) MissingEncounterTypes(ctx context.Context, ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT id FROM encounter_types WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, db.MapError(err, "encounter type")
	}
	defer rows.Close()

	found := make(map[int]bool, len(ids))
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, db.MapError(err, "encounter type")
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "encounter type")
	}

	var missing []int
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *repoPG) ReplaceEncounterTypes(ctx context.Context, id int, typeIDs []int) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM encounter_types_patient WHERE appointment_id = $1`, id); err != nil {
		return db.MapError(err, "appointment")
	}
	if len(typeIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `INSERT INTO encounter_types_patient (appointment_id, encounter_type_id)
		SELECT $1, unnest($2::int[])`, id, typeIDs)
	return db.MapError(err, "encounter type")
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return db.MapError(err, "appointment")
}

func jsonArray(h History) (string, error) {
	if h == nil {
		h = History{}
	}
	b, err := json.Marshal(h)
	return string(b), err
}
