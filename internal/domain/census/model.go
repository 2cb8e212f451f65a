// Package census unifies inpatient admissions and consultation requests into
// a single ward census view, filters it by calendar day and specialty, and
// drives the discharge lifecycle transition for both record kinds.
package census

import (
	"time"

	"github.com/google/uuid"
)

// Origin tags a unified record with the table it came from. It is assigned
// once at unification time and is the sole dispatch key for discharge: the
// two record shapes overlap after unification, so content can never be used
// to pick the target table.
type Origin string

const (
	OriginAdmission    Origin = "admission"
	OriginConsultation Origin = "consultation"
)

// Valid reports whether o is one of the two known origins.
func (o Origin) Valid() bool {
	return o == OriginAdmission || o == OriginConsultation
}

// TerminalStatus returns the status a record of this origin carries after
// discharge.
func (o Origin) TerminalStatus() string {
	if o == OriginConsultation {
		return StatusCompleted
	}
	return StatusDischarged
}

// Status values. Admissions move Active -> Discharged, consultations move
// Active -> Completed. No reverse transition exists.
const (
	StatusActive     = "Active"
	StatusDischarged = "Discharged"
	StatusCompleted  = "Completed"
)

// Specialties is the fixed set of ward specialties accepted on intake and
// used for exact-match filtering.
var Specialties = []string{
	"General Internal Medicine",
	"Cardiology",
	"Endocrinology",
	"Gastroenterology",
	"Hematology",
	"Infectious Diseases",
	"Nephrology",
	"Neurology",
	"Pulmonology",
	"Rheumatology",
}

// ValidSpecialty reports whether s is in the fixed specialty set.
func ValidSpecialty(s string) bool {
	for _, sp := range Specialties {
		if sp == s {
			return true
		}
	}
	return false
}

// Admission maps to the patients table. One Active episode per MRN at a
// time; discharged episodes are retained.
type Admission struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	MRN           string     `db:"mrn" json:"mrn"`
	PatientName   string     `db:"patient_name" json:"patient_name"`
	Specialty     string     `db:"specialty" json:"specialty"`
	Status        string     `db:"patient_status" json:"status"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	AdmittedAt    time.Time  `db:"admitted_at" json:"admitted_at"`
	DischargeNote *string    `db:"discharge_note" json:"discharge_note,omitempty"`
	DischargedAt  *time.Time `db:"discharged_at" json:"discharged_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Consultation maps to the consultations table. A consultation shares the
// MRN identifier space with admissions but is a distinct episode of care.
type Consultation struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	MRN                   string     `db:"mrn" json:"mrn"`
	PatientName           string     `db:"patient_name" json:"patient_name"`
	ConsultationSpecialty string     `db:"consultation_specialty" json:"consultation_specialty"`
	Status                string     `db:"status" json:"status"`
	RequestingDepartment  string     `db:"requesting_department" json:"requesting_department"`
	DischargeNote         *string    `db:"discharge_note" json:"discharge_note,omitempty"`
	CompletedAt           *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// UnifiedRecord is the derived census row. It is never persisted: it is
// recomputed from the two source tables on every refresh. For
// consultation-origin rows AdmittedAt holds the consultation's creation
// time, Specialty its consultation specialty, and Diagnosis its requesting
// department.
type UnifiedRecord struct {
	Origin      Origin    `json:"origin"`
	MRN         string    `json:"mrn"`
	PatientName string    `json:"patient_name"`
	Specialty   string    `json:"specialty"`
	Status      string    `json:"status"`
	Diagnosis   string    `json:"diagnosis"`
	AdmittedAt  time.Time `json:"admitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AdmitRequest is the intake payload for a new admission.
type AdmitRequest struct {
	MRN         string `json:"mrn"`
	PatientName string `json:"patient_name"`
	Specialty   string `json:"specialty"`
	Diagnosis   string `json:"diagnosis"`
}

// ConsultationRequest is the intake payload for a new consultation.
type ConsultationRequest struct {
	MRN                   string `json:"mrn"`
	PatientName           string `json:"patient_name"`
	ConsultationSpecialty string `json:"consultation_specialty"`
	RequestingDepartment  string `json:"requesting_department"`
}

// DischargeRequest identifies the selected census row and carries the
// discharge details. Date is "2006-01-02", Time is "15:04"; both are
// combined into the discharge instant in the service's configured location.
type DischargeRequest struct {
	MRN    string `json:"mrn"`
	Origin Origin `json:"origin"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Note   string `json:"note"`
}

// CensusView is the response shape for the filtered census.
type CensusView struct {
	Date      string          `json:"date"`
	Specialty string          `json:"specialty,omitempty"`
	Count     int             `json:"count"`
	Records   []UnifiedRecord `json:"records"`
}
