package report

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drmas001/wardtrack/internal/domain/census"
	"github.com/drmas001/wardtrack/internal/platform/auth"
	"github.com/drmas001/wardtrack/internal/platform/blobstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reports := api.Group("/reports", auth.RequireRole("admin", "doctor"))
	reports.GET("/census", h.DownloadCensus)
	reports.POST("/census/archive", h.ArchiveCensus)
	reports.GET("/archive", h.ListArchive)
	reports.GET("/archive/*", h.GetArchived)
}

// DownloadCensus handles GET /reports/census?date=YYYY-MM-DD&specialty=&format=
func (h *Handler) DownloadCensus(c echo.Context) error {
	target, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	format := c.QueryParam("format")
	if !ValidFormat(format) {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json, csv or text")
	}

	doc, err := h.svc.Build(c.Request().Context(), target, c.QueryParam("specialty"))
	if err != nil {
		return serviceError(err)
	}
	data, contentType, err := Render(doc, format)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=census-%s.%s", doc.Date, Extension(format)))
	return c.Blob(http.StatusOK, contentType, data)
}

// ArchiveCensus handles POST /reports/census/archive?date=&specialty=&format=
func (h *Handler) ArchiveCensus(c echo.Context) error {
	target, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	format := c.QueryParam("format")
	if !ValidFormat(format) {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json, csv or text")
	}

	info, err := h.svc.Archive(c.Request().Context(), target, c.QueryParam("specialty"), format)
	if err != nil {
		if errors.Is(err, blobstore.ErrExists) {
			return echo.NewHTTPError(http.StatusConflict, "archive key already exists")
		}
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, info)
}

// ListArchive handles GET /reports/archive?date=YYYY-MM-DD
func (h *Handler) ListArchive(c echo.Context) error {
	infos, err := h.svc.ListArchived(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":    len(infos),
		"archives": infos,
	})
}

// GetArchived handles GET /reports/archive/<key> where the key may contain
// slashes.
func (h *Handler) GetArchived(c echo.Context) error {
	key := c.Param("*")
	info, rc, err := h.svc.Archived(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "archive not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, rc)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func serviceError(err error) error {
	var verr *census.ValidationError
	var ferr *census.FetchError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.As(err, &ferr):
		return echo.NewHTTPError(http.StatusBadGateway, ferr.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
