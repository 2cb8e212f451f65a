package census

import (
	"context"
	"time"
)

// AdmissionRepository is the query contract against the patients table.
// Discharge is the only mutation of an existing row and is typed to this
// table, so a consultation row can never be hit by an admission discharge.
type AdmissionRepository interface {
	Create(ctx context.Context, a *Admission) error
	GetByMRN(ctx context.Context, mrn string) (*Admission, error)
	// ListVisible returns Active admissions plus those discharged within
	// the trailing window before now, ordered by admission time descending.
	ListVisible(ctx context.Context, now time.Time, window time.Duration) ([]*Admission, error)
	ListActive(ctx context.Context) ([]*Admission, error)
	// Discharge moves the Active row for mrn to Discharged, recording the
	// note, the discharge instant and now as the last update time.
	Discharge(ctx context.Context, mrn, note string, dischargedAt, now time.Time) error
}

// ConsultationRepository is the query contract against the consultations
// table. Complete is the consultation counterpart of Discharge.
type ConsultationRepository interface {
	Create(ctx context.Context, cons *Consultation) error
	GetByMRN(ctx context.Context, mrn string) (*Consultation, error)
	// ListAll returns every consultation regardless of status, ordered by
	// creation time descending.
	ListAll(ctx context.Context) ([]*Consultation, error)
	ListActive(ctx context.Context) ([]*Consultation, error)
	// Complete moves the Active row for mrn to Completed.
	Complete(ctx context.Context, mrn, note string, completedAt, now time.Time) error
}
