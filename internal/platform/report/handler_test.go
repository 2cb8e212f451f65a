package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/drmas001/wardtrack/internal/domain/census"
	"github.com/drmas001/wardtrack/internal/platform/blobstore"
)

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc := newTestService(
		&stubCensus{records: censusFixture()},
		&stubAppointments{appts: appointmentFixture()},
	)
	return NewHandler(svc), svc, echo.New()
}

func TestHandler_DownloadCensus(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/census?date=2024-03-14&format=csv", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.DownloadCensus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != "attachment; filename=census-2024-03-14.csv" {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Omar Hassan") {
		t.Errorf("rendering missing row content:\n%s", rec.Body.String())
	}
}

func TestHandler_DownloadCensusBadDate(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/census?date=14-03-2024", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.DownloadCensus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected a 400, got %v", err)
	}
}

func TestHandler_DownloadCensusBadFormat(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/census?format=pdf", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.DownloadCensus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected a 400, got %v", err)
	}
}

func TestHandler_DownloadCensusFetchFailure(t *testing.T) {
	svc := newTestService(
		&stubCensus{err: &census.FetchError{Source: "admissions", Err: errors.New("connection refused")}},
		&stubAppointments{},
	)
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/census", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.DownloadCensus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadGateway {
		t.Fatalf("expected a 502, got %v", err)
	}
}

func TestHandler_ArchiveCensus(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/census/archive?date=2024-03-14&format=json", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ArchiveCensus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var info blobstore.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(info.Key, "census/2024-03-14/") {
		t.Errorf("unexpected archive key %q", info.Key)
	}
}

func TestHandler_ArchiveCensusConflict(t *testing.T) {
	h, _, e := newTestHandler()

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/census/archive?date=2024-03-14", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.ArchiveCensus(c)
		switch want {
		case http.StatusCreated:
			if err != nil {
				t.Fatalf("archive %d: unexpected error: %v", i, err)
			}
		case http.StatusConflict:
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusConflict {
				t.Fatalf("archive %d: expected a 409, got %v", i, err)
			}
		}
	}
}

func TestHandler_ListArchive(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/census/archive?date=2024-03-14", nil)
	rec := httptest.NewRecorder()
	if err := h.ArchiveCensus(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/archive?date=2024-03-14", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListArchive(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Count    int              `json:"count"`
		Archives []blobstore.Info `json:"archives"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Count != 1 || len(resp.Archives) != 1 {
		t.Errorf("expected 1 archive, got count=%d len=%d", resp.Count, len(resp.Archives))
	}
}

func TestHandler_GetArchived(t *testing.T) {
	h, svc, e := newTestHandler()

	info, err := svc.Archive(context.Background(), testDay, "", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/archive/"+info.Key, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("*")
	c.SetParamValues(info.Key)

	if err := h.GetArchived(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/plain; charset=utf-8" {
		t.Errorf("expected the stored content type, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Daily Census Report") {
		t.Errorf("streamed body missing document content:\n%s", rec.Body.String())
	}
}

func TestHandler_GetArchivedNotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/archive/census/2024-03-14/missing.json", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("*")
	c.SetParamValues("census/2024-03-14/missing.json")

	err := h.GetArchived(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected a 404, got %v", err)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, e := newTestHandler()
	api := e.Group("/api/v1")

	h.RegisterRoutes(api)

	routes := e.Routes()
	routePaths := make(map[string]bool)
	for _, r := range routes {
		routePaths[r.Method+":"+r.Path] = true
	}

	expected := []string{
		"GET:/api/v1/reports/census",
		"POST:/api/v1/reports/census/archive",
		"GET:/api/v1/reports/archive",
		"GET:/api/v1/reports/archive/*",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
