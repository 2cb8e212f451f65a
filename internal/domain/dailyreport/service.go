package dailyreport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	reports ReportRepository
}

func NewService(reports ReportRepository) *Service {
	return &Service{reports: reports}
}

// File validates and stores a daily report.
func (s *Service) File(ctx context.Context, req CreateRequest) (*DailyReport, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("invalid patient_id")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}

	rep := &DailyReport{
		PatientID:  patientID,
		ReportDate: date,
		Content:    req.Content,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// ForDate returns the reports filed for exactly the given date.
func (s *Service) ForDate(ctx context.Context, date time.Time) ([]*DailyReport, error) {
	return s.reports.ListByDate(ctx, date)
}
