package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/service/availability"
	"nutrisched/backend/internal/service/scheduling"
	"nutrisched/backend/internal/store"
)

// practitionerHeader carries the opaque practitioner identity supplied by
// the identity layer in front of this service. No authentication happens
// here.
const practitionerHeader = "X-Practitioner-ID"

// NewServer wires the echo instance: recovery middleware plus the
// scheduling and availability routes under /api/v1.
func NewServer(sched *scheduling.Service, avail *availability.Service, log *slog.Logger) *echo.Echo {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	api := e.Group("/api/v1")
	NewAppointmentsHandler(sched, log).RegisterRoutes(api)
	NewAvailabilityHandler(avail).RegisterRoutes(api)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return e
}

func practitionerID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(practitionerHeader)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, practitionerHeader+" header is required")
	}
	return id, nil
}

// httpError translates engine error kinds into distinguishable HTTP
// statuses so the presentation layer can render "time unavailable" apart
// from "not found" or "try again".
func httpError(err error) error {
	var schedErr *domain.ScheduleValidationError
	if errors.As(err, &schedErr) {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"message": schedErr.Error(),
			"weekday": schedErr.Weekday,
			"rule":    schedErr.Rule,
		})
	}

	var sVal *scheduling.ValidationError
	var aVal *availability.ValidationError
	if errors.As(err, &sVal) || errors.As(err, &aVal) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var tErr *scheduling.InvalidTransitionError
	if errors.As(err, &tErr) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, tErr.Error())
	}

	if errors.Is(err, store.ErrConflict) {
		return echo.NewHTTPError(http.StatusConflict, "that time is no longer available")
	}
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
