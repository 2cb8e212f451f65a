package census

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drmas001/wardtrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "nurse"))
	read.GET("/census", h.GetCensus)
	read.POST("/census/refresh", h.RefreshCensus)
	read.GET("/census/candidates", h.ListDischargeCandidates)

	intake := api.Group("", auth.RequireRole("doctor", "nurse"))
	intake.POST("/admissions", h.CreateAdmission)
	intake.POST("/consultations", h.CreateConsultation)

	// Discharge is a terminal transition, restricted to doctors.
	discharge := api.Group("", auth.RequireRole("doctor"))
	discharge.POST("/census/discharge", h.Discharge)
}

// GetCensus handles GET /census?date=YYYY-MM-DD&specialty=...
func (h *Handler) GetCensus(c echo.Context) error {
	var target time.Time
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		target = d
	}
	specialty := c.QueryParam("specialty")

	records, err := h.svc.View(c.Request().Context(), target, specialty)
	if err != nil {
		return serviceError(err)
	}

	if target.IsZero() {
		target = time.Now().In(h.svc.Location())
	}
	return c.JSON(http.StatusOK, CensusView{
		Date:      target.Format("2006-01-02"),
		Specialty: specialty,
		Count:     len(records),
		Records:   records,
	})
}

// RefreshCensus handles POST /census/refresh, rebuilding the unified
// snapshot and returning it unfiltered.
func (h *Handler) RefreshCensus(c echo.Context) error {
	records, err := h.svc.Refresh(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// ListDischargeCandidates handles GET /census/candidates.
func (h *Handler) ListDischargeCandidates(c echo.Context) error {
	records, err := h.svc.DischargeCandidates(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// Discharge handles POST /census/discharge.
func (h *Handler) Discharge(c echo.Context) error {
	var req DischargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Discharge(c.Request().Context(), req); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"mrn":    req.MRN,
		"origin": string(req.Origin),
		"status": req.Origin.TerminalStatus(),
	})
}

// CreateAdmission handles POST /admissions.
func (h *Handler) CreateAdmission(c echo.Context) error {
	var req AdmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.AdmitPatient(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// CreateConsultation handles POST /consultations.
func (h *Handler) CreateConsultation(c echo.Context) error {
	var req ConsultationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.CreateConsultation(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, cons)
}

// serviceError maps the census error taxonomy onto HTTP statuses. Not-found
// is checked before the discharge wrapper because DischargeError can wrap it.
func serviceError(err error) error {
	var (
		ve *ValidationError
		fe *FetchError
		de *DischargeError
		ue *UnificationError
	)
	switch {
	case errors.Is(err, ErrDischargeInFlight):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrDuplicateAdmission):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &fe):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.As(err, &de):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.As(err, &ue):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
