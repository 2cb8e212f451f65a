package census

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no row matches the requested key.
	ErrNotFound = errors.New("record not found")
	// ErrDischargeInFlight rejects a second discharge submission for a
	// record whose first submission has not completed.
	ErrDischargeInFlight = errors.New("discharge already in flight for this record")
	// ErrDuplicateAdmission rejects an intake for an MRN that already has
	// an Active admission.
	ErrDuplicateAdmission = errors.New("an active admission already exists for this mrn")
)

// FetchError reports a failed source query. Source names which fetch failed:
// admissions, consultations, appointments or reports.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError blocks a request before any store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DischargeError reports a discharge update the store rejected or failed to
// apply. The local census state is left untouched so retry is safe.
type DischargeError struct {
	MRN    string
	Origin Origin
	Err    error
}

func (e *DischargeError) Error() string {
	return fmt.Sprintf("discharge %s record %s: %v", e.Origin, e.MRN, e.Err)
}

func (e *DischargeError) Unwrap() error { return e.Err }

// UnificationError reports a consultation row missing a field the mapper
// depends on. It should never occur while the store schema holds.
type UnificationError struct {
	MRN   string
	Field string
}

func (e *UnificationError) Error() string {
	return fmt.Sprintf("consultation %q missing %s", e.MRN, e.Field)
}
