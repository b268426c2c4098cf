package prescription

import (
	"strconv"
	"time"
)

// Medication is one line of a prescription, stored inside a JSONB array.
type Medication struct {
	Name      string `json:"name" validate:"required"`
	Dosage    string `json:"dosage"`
	Duration  string `json:"duration"`
	Frequency string `json:"frequency"`
}

type Prescription struct {
	ID                int          `json:"id"`
	AppointmentID     int          `json:"appointment_id"`
	PrescribingDoctor *string      `json:"prescribing_doctor"`
	Medications       []Medication `json:"medications"`
	Notes             *string      `json:"notes"`
	PrintedStatus     bool         `json:"printed_status"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

type CreateInput struct {
	AppointmentID     int          `json:"appointment_id" validate:"required"`
	PrescribingDoctor *string      `json:"prescribing_doctor"`
	Medications       []Medication `json:"medications" validate:"dive"`
	Notes             *string      `json:"notes"`
}

// UpdateInput carries only the fields present in the request.
type UpdateInput struct {
	Medications   *[]Medication `json:"medications" validate:"omitempty,dive"`
	Notes         *string       `json:"notes"`
	PrintedStatus *bool         `json:"printed_status"`
}

type Filter struct {
	AppointmentID int
}

func (f Filter) Values() map[string]string {
	if f.AppointmentID == 0 {
		return nil
	}
	return map[string]string{"appointment_id": strconv.Itoa(f.AppointmentID)}
}

// PrintDetail is everything printed on a prescription sheet.
type PrintDetail struct {
	Prescription

	AppointmentStatus string
	ReasonText        string
	EncounterClass    string
	PatientName       string
	PatientBirthDate  *time.Time
	PatientPhone      string
}
