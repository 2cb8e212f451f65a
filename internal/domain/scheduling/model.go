// Package scheduling manages outpatient clinic appointments. Appointments
// run on a lifecycle of their own: census reporting reads them but never
// mutates them.
package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment types accepted at booking.
const (
	TypeUrgent  = "Urgent"
	TypeRegular = "Regular"
)

// ValidType reports whether t is a recognized appointment type.
func ValidType(t string) bool { return t == TypeUrgent || t == TypeRegular }

// Appointment maps to the clinic_appointments table.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientName     string    `db:"patient_name" json:"patient_name"`
	MRN             string    `db:"mrn" json:"mrn"`
	ClinicSpecialty string    `db:"clinic_specialty" json:"clinic_specialty"`
	AppointmentType string    `db:"appointment_type" json:"appointment_type"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// BookingRequest is the payload for creating an appointment.
type BookingRequest struct {
	PatientName     string `json:"patient_name"`
	MRN             string `json:"mrn"`
	ClinicSpecialty string `json:"clinic_specialty"`
	AppointmentType string `json:"appointment_type"`
}
