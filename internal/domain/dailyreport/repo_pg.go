package dailyreport

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drmas001/wardtrack/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type reportRepoPG struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reportCols = `id, patient_id, report_date, content, created_at, updated_at`

func (r *reportRepoPG) Create(ctx context.Context, rep *DailyReport) error {
	rep.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO daily_reports (id, patient_id, report_date, content)
		VALUES ($1,$2,$3,$4)`,
		rep.ID, rep.PatientID, rep.ReportDate.Format("2006-01-02"), rep.Content,
	)
	return err
}

func (r *reportRepoPG) ListByDate(ctx context.Context, date time.Time) ([]*DailyReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM daily_reports
		WHERE report_date = $1
		ORDER BY created_at DESC`,
		date.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

func collectReports(rows pgx.Rows) ([]*DailyReport, error) {
	var reps []*DailyReport
	for rows.Next() {
		var rep DailyReport
		if err := rows.Scan(&rep.ID, &rep.PatientID, &rep.ReportDate, &rep.Content, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, err
		}
		reps = append(reps, &rep)
	}
	return reps, rows.Err()
}
