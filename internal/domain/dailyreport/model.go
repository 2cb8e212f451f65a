// Package dailyreport stores per-patient daily progress notes, keyed by
// calendar date.
package dailyreport

import (
	"time"

	"github.com/google/uuid"
)

// DailyReport maps to the daily_reports table. ReportDate is a calendar
// date; the time-of-day component is always midnight UTC.
type DailyReport struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	ReportDate time.Time `db:"report_date" json:"report_date"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CreateRequest is the payload for filing a daily report.
type CreateRequest struct {
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	Content   string `json:"content"`
}
