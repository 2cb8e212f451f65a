package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// ValidFormat reports whether format names a supported rendering.
func ValidFormat(format string) bool {
	switch format {
	case "", "json", "csv", "text", "txt":
		return true
	}
	return false
}

// Extension returns the file extension for a render format.
func Extension(format string) string {
	switch format {
	case "csv":
		return "csv"
	case "text", "txt":
		return "txt"
	default:
		return "json"
	}
}

// Render serializes doc in the named format and returns the bytes plus the
// matching content type. An empty format renders JSON.
func Render(doc *Document, format string) ([]byte, string, error) {
	switch format {
	case "", "json":
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return b, "application/json", nil
	case "csv":
		b, err := renderCSV(doc)
		if err != nil {
			return nil, "", err
		}
		return b, "text/csv", nil
	case "text", "txt":
		b, err := renderText(doc)
		if err != nil {
			return nil, "", err
		}
		return b, "text/plain; charset=utf-8", nil
	default:
		return nil, "", fmt.Errorf("unknown report format %q", format)
	}
}

// renderCSV flattens the document: a metadata block, then each section as a
// title row, a header row and its data rows. Page boundaries carry no
// meaning in CSV.
func renderCSV(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	meta := [][]string{
		{doc.Title},
		{"Date", doc.Date},
	}
	if doc.Specialty != "" {
		meta = append(meta, []string{"Specialty", doc.Specialty})
	}
	meta = append(meta, []string{"Generated", doc.GeneratedAt.UTC().Format(time.RFC3339)})
	if err := w.WriteAll(meta); err != nil {
		return nil, err
	}

	for _, sec := range []Section{doc.Census, doc.Appointments} {
		if err := w.Write([]string{""}); err != nil {
			return nil, err
		}
		if err := w.Write([]string{sec.Title}); err != nil {
			return nil, err
		}
		if err := w.Write(sec.Columns); err != nil {
			return nil, err
		}
		for _, page := range sec.Pages {
			if err := w.WriteAll(page.Rows); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func renderText(doc *Document) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, doc.Title)
	fmt.Fprintln(&buf, "Date:", doc.Date)
	if doc.Specialty != "" {
		fmt.Fprintln(&buf, "Specialty:", doc.Specialty)
	}
	fmt.Fprintln(&buf, "Generated:", doc.GeneratedAt.UTC().Format(time.RFC3339))

	for _, sec := range []Section{doc.Census, doc.Appointments} {
		fmt.Fprintf(&buf, "\n%s (%d)\n", sec.Title, sec.TotalRows)
		if sec.TotalRows == 0 {
			fmt.Fprintln(&buf, "  none")
			continue
		}
		for _, page := range sec.Pages {
			fmt.Fprintf(&buf, "\nPage %d of %d\n", page.Number, len(sec.Pages))
			tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(sec.Columns, "\t"))
			for _, row := range page.Rows {
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return nil, err
			}
		}
	}

	return buf.Bytes(), nil
}
