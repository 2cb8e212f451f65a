package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	appointments AppointmentRepository
}

func NewService(appointments AppointmentRepository) *Service {
	return &Service{appointments: appointments}
}

// Book validates and stores a new appointment. An empty appointment type
// defaults to Regular.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	req.MRN = strings.TrimSpace(req.MRN)
	req.PatientName = strings.TrimSpace(req.PatientName)
	if req.MRN == "" {
		return nil, fmt.Errorf("mrn is required")
	}
	if req.PatientName == "" {
		return nil, fmt.Errorf("patient_name is required")
	}
	if req.ClinicSpecialty == "" {
		return nil, fmt.Errorf("clinic_specialty is required")
	}
	if req.AppointmentType == "" {
		req.AppointmentType = TypeRegular
	}
	if !ValidType(req.AppointmentType) {
		return nil, fmt.Errorf("invalid appointment type: %s", req.AppointmentType)
	}

	a := &Appointment{
		PatientName:     req.PatientName,
		MRN:             req.MRN,
		ClinicSpecialty: req.ClinicSpecialty,
		AppointmentType: req.AppointmentType,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// List returns one page of appointments, newest first.
func (s *Service) List(ctx context.Context, specialty string, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, specialty, limit, offset)
}

// All returns the complete appointment book, newest first. Census reports
// consume this.
func (s *Service) All(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.ListAll(ctx)
}
