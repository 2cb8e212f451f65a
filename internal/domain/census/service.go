package census

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MetricsRecorder receives fetch and discharge outcomes. Satisfied by
// telemetry.Metrics; a no-op is used when none is configured.
type MetricsRecorder interface {
	ObserveFetch(source string, err error)
	ObserveDischarge(origin string, err error)
}

// Notifier is told about confirmed discharges. Satisfied by notify.Notifier.
type Notifier interface {
	DischargePosted(ctx context.Context, mrn, origin, status string, dischargedAt time.Time)
}

type nopMetrics struct{}

func (nopMetrics) ObserveFetch(string, error)     {}
func (nopMetrics) ObserveDischarge(string, error) {}

type nopNotifier struct{}

func (nopNotifier) DischargePosted(context.Context, string, string, string, time.Time) {}

// Config carries the service's optional collaborators and tunables. Zero
// values are usable: UTC location, 48 hour window, no metrics, no
// notifications.
type Config struct {
	// Location is the hospital's local calendar for day matching and for
	// combining discharge date and time inputs.
	Location *time.Location
	// DischargeWindow is how long a discharged admission stays visible on
	// the census.
	DischargeWindow time.Duration
	Metrics         MetricsRecorder
	Notifier        Notifier
}

// Service owns the unify -> filter pipeline and the discharge transition.
// The unified snapshot is wholesale-replaced on every refresh, never patched
// in place, and survives failed refreshes so stale-but-present data remains
// available.
type Service struct {
	admissions    AdmissionRepository
	consultations ConsultationRepository
	loc           *time.Location
	window        time.Duration
	metrics       MetricsRecorder
	notifier      Notifier
	now           func() time.Time

	mu       sync.Mutex
	snapshot []UnifiedRecord
	inFlight map[string]bool
}

func NewService(admissions AdmissionRepository, consultations ConsultationRepository, cfg Config) *Service {
	s := &Service{
		admissions:    admissions,
		consultations: consultations,
		loc:           cfg.Location,
		window:        cfg.DischargeWindow,
		metrics:       cfg.Metrics,
		notifier:      cfg.Notifier,
		now:           time.Now,
		inFlight:      make(map[string]bool),
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.window <= 0 {
		s.window = 48 * time.Hour
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	return s
}

// Location returns the service's local calendar.
func (s *Service) Location() *time.Location { return s.loc }

// Refresh fetches both source tables, unifies them and replaces the held
// snapshot. The two fetches run concurrently; both must finish and both
// errors are observed before unification, so a partial set is never unified.
// On failure the previous snapshot is left in place.
func (s *Service) Refresh(ctx context.Context) ([]UnifiedRecord, error) {
	now := s.now()

	var (
		wg      sync.WaitGroup
		adms    []*Admission
		cons    []*Consultation
		admErr  error
		consErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		adms, admErr = s.admissions.ListVisible(ctx, now, s.window)
	}()
	go func() {
		defer wg.Done()
		cons, consErr = s.consultations.ListAll(ctx)
	}()
	wg.Wait()

	s.metrics.ObserveFetch("admissions", admErr)
	s.metrics.ObserveFetch("consultations", consErr)
	if admErr != nil {
		return nil, &FetchError{Source: "admissions", Err: admErr}
	}
	if consErr != nil {
		return nil, &FetchError{Source: "consultations", Err: consErr}
	}

	unified, err := Unify(adms, cons)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = unified
	s.mu.Unlock()

	return copyRecords(unified), nil
}

// Snapshot returns the last successfully refreshed sequence without touching
// the store. After a failed Refresh this still serves the previous data.
func (s *Service) Snapshot() []UnifiedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRecords(s.snapshot)
}

// View refreshes and filters the census for target's calendar day in the
// service location, optionally narrowed to one specialty. A zero target
// means today.
func (s *Service) View(ctx context.Context, target time.Time, specialty string) ([]UnifiedRecord, error) {
	if specialty != "" && !ValidSpecialty(specialty) {
		return nil, &ValidationError{Field: "specialty", Reason: "unknown specialty"}
	}
	if target.IsZero() {
		target = s.now().In(s.loc)
	}

	unified, err := s.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByDateAndSpecialty(unified, target, specialty, s.loc), nil
}

// DischargeCandidates returns the records currently eligible for discharge:
// Active rows from both tables, not scoped to any date. Fetched
// independently of the census view.
func (s *Service) DischargeCandidates(ctx context.Context) ([]UnifiedRecord, error) {
	adms, err := s.admissions.ListActive(ctx)
	if err != nil {
		s.metrics.ObserveFetch("admissions", err)
		return nil, &FetchError{Source: "admissions", Err: err}
	}
	cons, err := s.consultations.ListActive(ctx)
	if err != nil {
		s.metrics.ObserveFetch("consultations", err)
		return nil, &FetchError{Source: "consultations", Err: err}
	}
	return Unify(adms, cons)
}

// Discharge applies the terminal transition for the selected record. The
// origin tag alone picks the target table; the repositories are typed per
// table so a cross-table update cannot be expressed. Local snapshot removal
// happens only after the store confirms the update.
func (s *Service) Discharge(ctx context.Context, req DischargeRequest) error {
	if strings.TrimSpace(req.MRN) == "" {
		return &ValidationError{Field: "mrn", Reason: "required"}
	}
	if !req.Origin.Valid() {
		return &ValidationError{Field: "origin", Reason: "must be admission or consultation"}
	}
	dischargedAt, err := s.dischargeInstant(req.Date, req.Time)
	if err != nil {
		return err
	}

	key := string(req.Origin) + "/" + req.MRN
	s.mu.Lock()
	if s.inFlight[key] {
		s.mu.Unlock()
		return ErrDischargeInFlight
	}
	s.inFlight[key] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	now := s.now().UTC()
	switch req.Origin {
	case OriginAdmission:
		err = s.admissions.Discharge(ctx, req.MRN, req.Note, dischargedAt, now)
	case OriginConsultation:
		err = s.consultations.Complete(ctx, req.MRN, req.Note, dischargedAt, now)
	}
	s.metrics.ObserveDischarge(string(req.Origin), err)
	if err != nil {
		return &DischargeError{MRN: req.MRN, Origin: req.Origin, Err: err}
	}

	s.removeFromSnapshot(req.Origin, req.MRN)
	s.notifier.DischargePosted(ctx, req.MRN, string(req.Origin), req.Origin.TerminalStatus(), dischargedAt)
	return nil
}

// dischargeInstant validates the date and time inputs and combines them into
// one instant in the service location.
func (s *Service) dischargeInstant(date, clock string) (time.Time, error) {
	if date == "" {
		return time.Time{}, &ValidationError{Field: "date", Reason: "required"}
	}
	if clock == "" {
		return time.Time{}, &ValidationError{Field: "time", Reason: "required"}
	}
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "time", Reason: "must be HH:MM"}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, s.loc), nil
}

func (s *Service) removeFromSnapshot(origin Origin, mrn string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.snapshot {
		if r.Origin == origin && r.MRN == mrn && r.Status == StatusActive {
			s.snapshot = append(s.snapshot[:i], s.snapshot[i+1:]...)
			return
		}
	}
}

// AdmitPatient validates and stores a new Active admission.
func (s *Service) AdmitPatient(ctx context.Context, req AdmitRequest) (*Admission, error) {
	if strings.TrimSpace(req.MRN) == "" {
		return nil, &ValidationError{Field: "mrn", Reason: "required"}
	}
	if strings.TrimSpace(req.PatientName) == "" {
		return nil, &ValidationError{Field: "patient_name", Reason: "required"}
	}
	if !ValidSpecialty(req.Specialty) {
		return nil, &ValidationError{Field: "specialty", Reason: "unknown specialty"}
	}

	a := &Admission{
		MRN:         strings.TrimSpace(req.MRN),
		PatientName: strings.TrimSpace(req.PatientName),
		Specialty:   req.Specialty,
		Status:      StatusActive,
		Diagnosis:   strings.TrimSpace(req.Diagnosis),
		AdmittedAt:  s.now().UTC(),
	}
	if err := s.admissions.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateConsultation validates and stores a new Active consultation.
func (s *Service) CreateConsultation(ctx context.Context, req ConsultationRequest) (*Consultation, error) {
	if strings.TrimSpace(req.MRN) == "" {
		return nil, &ValidationError{Field: "mrn", Reason: "required"}
	}
	if strings.TrimSpace(req.PatientName) == "" {
		return nil, &ValidationError{Field: "patient_name", Reason: "required"}
	}
	if !ValidSpecialty(req.ConsultationSpecialty) {
		return nil, &ValidationError{Field: "consultation_specialty", Reason: "unknown specialty"}
	}
	if strings.TrimSpace(req.RequestingDepartment) == "" {
		return nil, &ValidationError{Field: "requesting_department", Reason: "required"}
	}

	c := &Consultation{
		MRN:                   strings.TrimSpace(req.MRN),
		PatientName:           strings.TrimSpace(req.PatientName),
		ConsultationSpecialty: req.ConsultationSpecialty,
		Status:                StatusActive,
		RequestingDepartment:  strings.TrimSpace(req.RequestingDepartment),
	}
	if err := s.consultations.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func copyRecords(in []UnifiedRecord) []UnifiedRecord {
	out := make([]UnifiedRecord, len(in))
	copy(out, in)
	return out
}
