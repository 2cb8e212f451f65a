package dailyreport

import (
	"context"
	"time"
)

type ReportRepository interface {
	Create(ctx context.Context, r *DailyReport) error
	// ListByDate returns the reports filed for exactly the given calendar
	// date, newest first.
	ListByDate(ctx context.Context, date time.Time) ([]*DailyReport, error)
}
