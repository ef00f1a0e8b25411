package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/service/availability"
)

type AvailabilityHandler struct {
	svc *availability.Service
}

func NewAvailabilityHandler(svc *availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

func (h *AvailabilityHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/availability", h.Get)
	api.PUT("/availability", h.Replace)
	api.GET("/availability/viewport", h.Viewport)
	api.GET("/availability/check", h.Check)
}

func (h *AvailabilityHandler) Get(c echo.Context) error {
	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}
	sched, err := h.svc.GetOrCreate(c.Request().Context(), practitioner)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sched)
}

type replaceRequest struct {
	Days []domain.DaySchedule `json:"days"`
}

// Replace requires the complete 7-entry week on every edit; there is no
// single-weekday patch endpoint.
func (h *AvailabilityHandler) Replace(c echo.Context) error {
	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}
	var req replaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Days) != 7 {
		return echo.NewHTTPError(http.StatusBadRequest, "days must contain exactly 7 entries, one per weekday")
	}

	var week domain.WeekSchedule
	copy(week[:], req.Days)

	sched, err := h.svc.Replace(c.Request().Context(), practitioner, week)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sched)
}

func (h *AvailabilityHandler) Viewport(c echo.Context) error {
	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}
	min, max, err := h.svc.WorkingHoursViewport(c.Request().Context(), practitioner)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"min_hour": min, "max_hour": max})
}

func (h *AvailabilityHandler) Check(c echo.Context) error {
	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}

	var weekday int
	if err := echo.QueryParamsBinder(c).MustInt("weekday", &weekday).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "weekday query parameter is required")
	}
	t := c.QueryParam("time")
	if t == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "time query parameter is required")
	}

	ok, err := h.svc.IsSlotAvailable(c.Request().Context(), practitioner, weekday, t)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": ok})
}
