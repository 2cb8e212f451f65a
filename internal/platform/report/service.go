package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/drmas001/wardtrack/internal/domain/census"
	"github.com/drmas001/wardtrack/internal/domain/scheduling"
	"github.com/drmas001/wardtrack/internal/platform/blobstore"
)

// CensusViewer provides the date/specialty-filtered unified census.
// *census.Service satisfies it.
type CensusViewer interface {
	View(ctx context.Context, target time.Time, specialty string) ([]census.UnifiedRecord, error)
	Location() *time.Location
}

// AppointmentLister provides the full appointment book, newest first.
// *scheduling.Service satisfies it.
type AppointmentLister interface {
	All(ctx context.Context) ([]*scheduling.Appointment, error)
}

type Service struct {
	census       CensusViewer
	appointments AppointmentLister
	store        blobstore.Store
	asm          Assembler
	now          func() time.Time
}

func NewService(cv CensusViewer, al AppointmentLister, store blobstore.Store) *Service {
	return &Service{
		census:       cv,
		appointments: al,
		store:        store,
		asm:          Assembler{Location: cv.Location()},
		now:          time.Now,
	}
}

// Build assembles the census document for the target date and optional
// specialty. A zero target means today in the census location.
func (s *Service) Build(ctx context.Context, target time.Time, specialty string) (*Document, error) {
	records, err := s.census.View(ctx, target, specialty)
	if err != nil {
		return nil, err
	}
	appts, err := s.appointments.All(ctx)
	if err != nil {
		return nil, &census.FetchError{Source: "appointments", Err: err}
	}
	if target.IsZero() {
		target = s.now().In(s.census.Location())
	}
	return s.asm.Assemble(records, appts, target, specialty, s.now().UTC()), nil
}

// Archive renders the document and stores it under a date-scoped key.
func (s *Service) Archive(ctx context.Context, target time.Time, specialty, format string) (blobstore.Info, error) {
	doc, err := s.Build(ctx, target, specialty)
	if err != nil {
		return blobstore.Info{}, err
	}
	data, contentType, err := Render(doc, format)
	if err != nil {
		return blobstore.Info{}, err
	}

	meta := map[string]string{"date": doc.Date}
	if doc.Specialty != "" {
		meta["specialty"] = doc.Specialty
	}
	info, err := s.store.Put(ctx, archiveKey(doc, format, s.now().UTC()), bytes.NewReader(data), blobstore.PutOptions{
		ContentType: contentType,
		Metadata:    meta,
	})
	if err != nil {
		return blobstore.Info{}, fmt.Errorf("archive report: %w", err)
	}
	return info, nil
}

// Archived opens a stored rendering by key.
func (s *Service) Archived(ctx context.Context, key string) (blobstore.Info, io.ReadCloser, error) {
	return s.store.Get(ctx, key)
}

// ListArchived lists stored renderings, optionally narrowed to one date.
func (s *Service) ListArchived(ctx context.Context, date string) ([]blobstore.Info, error) {
	prefix := "census/"
	if date != "" {
		prefix += date + "/"
	}
	return s.store.List(ctx, prefix)
}

func archiveKey(doc *Document, format string, now time.Time) string {
	name := now.Format("20060102T150405Z")
	if doc.Specialty != "" {
		name = strings.ToLower(strings.ReplaceAll(doc.Specialty, " ", "-")) + "-" + name
	}
	return fmt.Sprintf("census/%s/%s.%s", doc.Date, name, Extension(format))
}
