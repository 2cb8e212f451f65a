package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no appointment matches the given id.
var ErrNotFound = errors.New("appointment not found")

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListAll returns every appointment ordered by creation time descending.
	ListAll(ctx context.Context) ([]*Appointment, error)
	// List returns one page of appointments, newest first, optionally
	// narrowed to a single clinic specialty.
	List(ctx context.Context, specialty string, limit, offset int) ([]*Appointment, int, error)
}
