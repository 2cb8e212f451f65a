package dailyreport

import (
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
	read.GET("/daily-reports", h.ListReports)

	write := api.Group("", auth.RequireRole("doctor", "nurse"))
	write.POST("/daily-reports", h.FileReport)
}

// ListReports handles GET /daily-reports?date=YYYY-MM-DD
func (h *Handler) ListReports(c echo.Context) error {
	raw := c.QueryParam("date")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter required")
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	reports, err := h.svc.ForDate(c.Request().Context(), date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "daily report fetch failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":    raw,
		"count":   len(reports),
		"reports": reports,
	})
}

func (h *Handler) FileReport(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rep, err := h.svc.File(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rep)
}
