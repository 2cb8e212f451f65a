package census

import (
	"context"
	"errors"
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

// uniqueViolation is the Postgres error code raised by the partial unique
// index guarding one Active admission per MRN.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- admissions ---

type admissionRepoPG struct {
	pool *pgxpool.Pool
}

func NewAdmissionRepo(pool *pgxpool.Pool) AdmissionRepository {
	return &admissionRepoPG{pool: pool}
}

func (r *admissionRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const admissionCols = `id, mrn, patient_name, specialty, patient_status, diagnosis,
	admitted_at, discharge_note, discharged_at, created_at, updated_at`

func (r *admissionRepoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	if a.Status == "" {
		a.Status = StatusActive
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, mrn, patient_name, specialty, patient_status, diagnosis, admitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.MRN, a.PatientName, a.Specialty, a.Status, a.Diagnosis, a.AdmittedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateAdmission
	}
	return err
}

func (r *admissionRepoPG) GetByMRN(ctx context.Context, mrn string) (*Admission, error) {
	a, err := scanAdmission(r.conn(ctx).QueryRow(ctx,
		`SELECT `+admissionCols+` FROM patients WHERE mrn = $1 ORDER BY admitted_at DESC LIMIT 1`, mrn))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *admissionRepoPG) ListVisible(ctx context.Context, now time.Time, window time.Duration) ([]*Admission, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+admissionCols+` FROM patients
		WHERE patient_status = $1 OR (patient_status = $2 AND updated_at >= $3)
		ORDER BY admitted_at DESC`,
		StatusActive, StatusDischarged, now.Add(-window),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdmissions(rows)
}

func (r *admissionRepoPG) ListActive(ctx context.Context) ([]*Admission, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+admissionCols+` FROM patients
		WHERE patient_status = $1
		ORDER BY admitted_at DESC`,
		StatusActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAdmissions(rows)
}

func (r *admissionRepoPG) Discharge(ctx context.Context, mrn, note string, dischargedAt, now time.Time) error {
	// Scoped to the Active row: an MRN can carry earlier discharged
	// episodes, which must stay untouched.
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients
		SET patient_status = $2, discharge_note = $3, discharged_at = $4, updated_at = $5
		WHERE mrn = $1 AND patient_status = $6`,
		mrn, StatusDischarged, note, dischargedAt, now, StatusActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(
		&a.ID, &a.MRN, &a.PatientName, &a.Specialty, &a.Status, &a.Diagnosis,
		&a.AdmittedAt, &a.DischargeNote, &a.DischargedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAdmissions(rows pgx.Rows) ([]*Admission, error) {
	var adms []*Admission
	for rows.Next() {
		var a Admission
		err := rows.Scan(
			&a.ID, &a.MRN, &a.PatientName, &a.Specialty, &a.Status, &a.Diagnosis,
			&a.AdmittedAt, &a.DischargeNote, &a.DischargedAt, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		adms = append(adms, &a)
	}
	return adms, rows.Err()
}

// --- consultations ---

type consultationRepoPG struct {
	pool *pgxpool.Pool
}

func NewConsultationRepo(pool *pgxpool.Pool) ConsultationRepository {
	return &consultationRepoPG{pool: pool}
}

func (r *consultationRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const consultationCols = `id, mrn, patient_name, consultation_specialty, status, requesting_department,
	discharge_note, completed_at, created_at, updated_at`

func (r *consultationRepoPG) Create(ctx context.Context, cons *Consultation) error {
	cons.ID = uuid.New()
	if cons.Status == "" {
		cons.Status = StatusActive
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consultations (id, mrn, patient_name, consultation_specialty, status, requesting_department)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		cons.ID, cons.MRN, cons.PatientName, cons.ConsultationSpecialty, cons.Status, cons.RequestingDepartment,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateAdmission
	}
	return err
}

func (r *consultationRepoPG) GetByMRN(ctx context.Context, mrn string) (*Consultation, error) {
	c, err := scanConsultation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consultationCols+` FROM consultations WHERE mrn = $1 ORDER BY created_at DESC LIMIT 1`, mrn))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *consultationRepoPG) ListAll(ctx context.Context) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+consultationCols+` FROM consultations ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsultations(rows)
}

func (r *consultationRepoPG) ListActive(ctx context.Context) ([]*Consultation, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+consultationCols+` FROM consultations
		WHERE status = $1
		ORDER BY created_at DESC`,
		StatusActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectConsultations(rows)
}

func (r *consultationRepoPG) Complete(ctx context.Context, mrn, note string, completedAt, now time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultations
		SET status = $2, discharge_note = $3, completed_at = $4, updated_at = $5
		WHERE mrn = $1 AND status = $6`,
		mrn, StatusCompleted, note, completedAt, now, StatusActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID, &c.MRN, &c.PatientName, &c.ConsultationSpecialty, &c.Status, &c.RequestingDepartment,
		&c.DischargeNote, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectConsultations(rows pgx.Rows) ([]*Consultation, error) {
	var cons []*Consultation
	for rows.Next() {
		var c Consultation
		err := rows.Scan(
			&c.ID, &c.MRN, &c.PatientName, &c.ConsultationSpecialty, &c.Status, &c.RequestingDepartment,
			&c.DischargeNote, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		cons = append(cons, &c)
	}
	return cons, rows.Err()
}
