// Package report assembles the daily census document: the date/specialty
// filtered unified census plus the full clinic appointment book, paginated
// into fixed-size pages and rendered as JSON, CSV or plain text. Renderings
// can be archived through the blobstore.
package report

import (
	"time"

	"github.com/drmas001/wardtrack/internal/domain/census"
	"github.com/drmas001/wardtrack/internal/domain/scheduling"
)

// DefaultRowsPerPage bounds how many table rows one document page holds.
const DefaultRowsPerPage = 25

var (
	censusColumns      = []string{"MRN", "Patient", "Origin", "Specialty", "Status", "Diagnosis", "Admitted"}
	appointmentColumns = []string{"MRN", "Patient", "Clinic", "Type", "Created"}
)

// Document is a fully assembled census report.
type Document struct {
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Specialty    string    `json:"specialty,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`
	Census       Section   `json:"census"`
	Appointments Section   `json:"appointments"`
}

// Section is one table of the document, split into pages.
type Section struct {
	Title     string   `json:"title"`
	Columns   []string `json:"columns"`
	Pages     []Page   `json:"pages"`
	TotalRows int      `json:"total_rows"`
}

// Page holds one page worth of rows.
type Page struct {
	Number int        `json:"number"`
	Rows   [][]string `json:"rows"`
}

// Assembler builds documents. The zero value paginates at
// DefaultRowsPerPage and prints timestamps in UTC.
type Assembler struct {
	RowsPerPage int
	Location    *time.Location
}

func (a Assembler) perPage() int {
	if a.RowsPerPage > 0 {
		return a.RowsPerPage
	}
	return DefaultRowsPerPage
}

func (a Assembler) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.UTC
}

// Assemble builds the document for the target date and optional specialty.
// records must already be date/specialty filtered; appointments are included
// unfiltered. The date is taken from target as given, not converted, so it
// always matches the day the records were filtered for.
func (a Assembler) Assemble(records []census.UnifiedRecord, appts []*scheduling.Appointment, target time.Time, specialty string, generatedAt time.Time) *Document {
	loc := a.location()

	censusRows := make([][]string, 0, len(records))
	for _, rec := range records {
		censusRows = append(censusRows, []string{
			rec.MRN,
			rec.PatientName,
			string(rec.Origin),
			rec.Specialty,
			rec.Status,
			rec.Diagnosis,
			rec.AdmittedAt.In(loc).Format("2006-01-02 15:04"),
		})
	}

	apptRows := make([][]string, 0, len(appts))
	for _, appt := range appts {
		apptRows = append(apptRows, []string{
			appt.MRN,
			appt.PatientName,
			appt.ClinicSpecialty,
			appt.AppointmentType,
			appt.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		})
	}

	title := "Daily Census Report"
	if specialty != "" {
		title += " - " + specialty
	}

	return &Document{
		Title:       title,
		Date:        target.Format("2006-01-02"),
		Specialty:   specialty,
		GeneratedAt: generatedAt,
		Census: Section{
			Title:     "Inpatient Census",
			Columns:   censusColumns,
			Pages:     paginate(censusRows, a.perPage()),
			TotalRows: len(censusRows),
		},
		Appointments: Section{
			Title:     "Clinic Appointments",
			Columns:   appointmentColumns,
			Pages:     paginate(apptRows, a.perPage()),
			TotalRows: len(apptRows),
		},
	}
}

func paginate(rows [][]string, perPage int) []Page {
	var pages []Page
	for start := 0; start < len(rows); start += perPage {
		end := start + perPage
		if end > len(rows) {
			end = len(rows)
		}
		pages = append(pages, Page{Number: len(pages) + 1, Rows: rows[start:end]})
	}
	return pages
}
