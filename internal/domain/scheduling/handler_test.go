package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/drmas001/wardtrack/pkg/pagination"
)

func newTestHandler(specialties ...string) (*Handler, *mockAppointmentRepo, *echo.Echo) {
	repo := &mockAppointmentRepo{}
	seedAppointments(repo, specialties...)
	return NewHandler(NewService(repo)), repo, echo.New()
}

func TestHandler_BookAppointment(t *testing.T) {
	h, repo, e := newTestHandler()

	body := `{"patient_name":"Sara Al-Harbi","mrn":"784512","clinic_specialty":"Endocrinology","appointment_type":"Urgent"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.BookAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var a Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("expected an assigned id in the response")
	}
	if a.AppointmentType != TypeUrgent {
		t.Errorf("expected Urgent, got %q", a.AppointmentType)
	}
	if len(repo.appointments) != 1 {
		t.Errorf("expected 1 stored appointment, got %d", len(repo.appointments))
	}
}

func TestHandler_BookAppointmentRejectsBadType(t *testing.T) {
	h, repo, e := newTestHandler()

	body := `{"patient_name":"P","mrn":"1","clinic_specialty":"Cardiology","appointment_type":"STAT"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.BookAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected a 400, got %v", err)
	}
	if len(repo.appointments) != 0 {
		t.Error("rejected booking must not be stored")
	}
}

func TestHandler_GetAppointment(t *testing.T) {
	h, repo, e := newTestHandler("Cardiology")
	want := repo.appointments[0]

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/"+want.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(want.ID.String())

	if err := h.GetAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var a Appointment
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.ID != want.ID {
		t.Errorf("expected appointment %s, got %s", want.ID, a.ID)
	}
}

func TestHandler_GetAppointmentNotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.GetAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected a 404, got %v", err)
	}
}

func TestHandler_GetAppointmentBadID(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.GetAppointment(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected a 400, got %v", err)
	}
}

func TestHandler_ListAppointmentsPaginates(t *testing.T) {
	h, _, e := newTestHandler("A", "B", "C")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?limit=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data    []*Appointment    `json:"data"`
		Total   int               `json:"total"`
		HasMore bool              `json:"has_more"`
		Links   []pagination.Link `json:"links"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 3 || len(resp.Data) != 2 {
		t.Errorf("expected total=3 with a page of 2, got total=%d len=%d", resp.Total, len(resp.Data))
	}
	if !resp.HasMore {
		t.Error("expected has_more")
	}
	if len(resp.Links) < 2 {
		t.Errorf("expected self and next links, got %d", len(resp.Links))
	}
}

func TestHandler_ListAppointmentsBySpecialty(t *testing.T) {
	h, _, e := newTestHandler("Cardiology", "Neurology")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?specialty=Neurology", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data  []*Appointment `json:"data"`
		Total int            `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("expected the single neurology appointment, got total=%d len=%d", resp.Total, len(resp.Data))
	}
	if resp.Data[0].ClinicSpecialty != "Neurology" {
		t.Errorf("unexpected specialty %q", resp.Data[0].ClinicSpecialty)
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
		"GET:/api/v1/appointments",
		"GET:/api/v1/appointments/:id",
		"POST:/api/v1/appointments",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
