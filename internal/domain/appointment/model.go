package appointment

import (
	"encoding/json"
	"strconv"
	"time"
)

const DefaultStatus = "draft"

// PatientSummary is the patient embedded in appointment responses. Listings
// carry full_name; the detail view carries the name parts.
type PatientSummary struct {
	ID          int             `json:"id"`
	FullName    string          `json:"full_name,omitempty"`
	LastName    string          `json:"last_name,omitempty"`
	FirstName   string          `json:"first_name,omitempty"`
	MiddleName  *string         `json:"middle_name,omitempty"`
	Identifier  json.RawMessage `json:"identifier"`
	PhoneNumber *string         `json:"phone_number"`
	URL         *string         `json:"url"`
}

// ClassRef is the encounter class embedded in appointment responses.
type ClassRef struct {
	ID      int    `json:"id"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// TypeRef is one encounter type linked to an appointment.
type TypeRef struct {
	ID      int     `json:"id"`
	Code    string  `json:"code"`
	Display string  `json:"display"`
	Price   float64 `json:"price"`
}

// Prescription is the read-only view of a prescription in the appointment
// detail.
type Prescription struct {
	ID                int             `json:"id"`
	PrescribingDoctor *string         `json:"prescribing_doctor"`
	Medications       json.RawMessage `json:"medications"`
	Notes             *string         `json:"notes"`
	PrintedStatus     bool            `json:"printed_status"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Appointment is a visit. EncounterTypes and Prescriptions are only
// populated by the detail view.
type Appointment struct {
	ID                 int       `json:"id"`
	PatientID          int       `json:"patient_id"`
	EncounterClassCode *string   `json:"encounter_class_code"`
	ReasonText         *string   `json:"reason_text"`
	Status             string    `json:"status"`
	History            History   `json:"history"`
	CreatedBy          *int64    `json:"created_by"`
	UpdatedBy          *int64    `json:"updated_by"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Patient        *PatientSummary `json:"patient"`
	EncounterClass *ClassRef       `json:"encounter_class"`
	EncounterTypes []TypeRef       `json:"encounter_types,omitempty"`
	Prescriptions  []Prescription  `json:"prescriptions,omitempty"`
}

// CreateInput is the booking body. Status defaults to DefaultStatus and
// duplicate encounter type ids are dropped.
type CreateInput struct {
	PatientID      int     `json:"patient_id" validate:"required"`
	EncounterClass string  `json:"encounter_class" validate:"required"`
	EncounterTypes []int   `json:"encounter_types"`
	ReasonText     *string `json:"reason_text"`
	Status         string  `json:"status"`
}

// UpdateInput replaces the encounter types only when EncounterTypes is
// present in the body.
type UpdateInput struct {
	Status         string  `json:"status"`
	ReasonText     *string `json:"reason_text"`
	EncounterTypes *[]int  `json:"encounter_types"`
}

// StatusInput is the body of PUT /appointments/:id/status.
type StatusInput struct {
	Status string `json:"status"`
}

// Change is a validated update applied under the row lock.
type Change struct {
	Status     string
	ReasonText *string
	UpdatedBy  int64
	History    History
}

// Filter narrows an appointment listing. Zero values mean no filter.
type Filter struct {
	PatientID int
	Status    string
}

// Values returns the filters in query-string form.
func (f Filter) Values() map[string]string {
	v := map[string]string{"status": f.Status}
	if f.PatientID > 0 {
		v["patient_id"] = strconv.Itoa(f.PatientID)
	}
	return v
}
