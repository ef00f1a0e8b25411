package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/service/scheduling"
)

const dateLayout = "2006-01-02"

type AppointmentsHandler struct {
	svc *scheduling.Service
	log *slog.Logger
}

func NewAppointmentsHandler(svc *scheduling.Service, log *slog.Logger) *AppointmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.appointments")),
	}
}

func (h *AppointmentsHandler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book)
	api.POST("/appointment-requests", h.Request)
	api.GET("/appointments", h.List)
	api.GET("/appointments/pending", h.ListPending)
	api.GET("/appointments/:id", h.Get)
	api.PATCH("/appointments/:id/status", h.UpdateStatus)
	api.POST("/appointments/:id/approve", h.Approve)
	api.POST("/appointments/:id/reject", h.Reject)
	api.POST("/appointments/:id/cancel", h.Cancel)
	api.PUT("/appointments/:id/schedule", h.Reschedule)
	api.DELETE("/appointments/:id", h.Delete)
}

type bookRequest struct {
	ClientID     string   `json:"client_id"`
	ClientName   string   `json:"client_name"`
	Date         string   `json:"date"`
	Start        string   `json:"start_time"`
	End          string   `json:"end_time"`
	Notes        string   `json:"notes"`
	ServiceID    *string  `json:"service_id"`
	ServiceName  *string  `json:"service_name"`
	ServicePrice *float64 `json:"service_price"`
	RequestedBy  string   `json:"requested_by"`
}

func (r bookRequest) toInput(practitioner string) (scheduling.BookInput, error) {
	in := scheduling.BookInput{
		PractitionerID: practitioner,
		ClientName:     r.ClientName,
		Start:          r.Start,
		End:            r.End,
		Notes:          r.Notes,
		ServiceName:    r.ServiceName,
		ServicePrice:   r.ServicePrice,
	}

	if r.ClientID != "" {
		clientID, err := uuid.Parse(r.ClientID)
		if err != nil {
			return scheduling.BookInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
		in.ClientID = clientID
	}
	if r.Date != "" {
		date, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return scheduling.BookInput{}, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		in.Date = date
	}
	if r.ServiceID != nil {
		serviceID, err := uuid.Parse(*r.ServiceID)
		if err != nil {
			return scheduling.BookInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid service_id")
		}
		in.ServiceID = &serviceID
	}
	return in, nil
}

func (h *AppointmentsHandler) Book(c echo.Context) error {
	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in, err := req.toInput(practitioner)
	if err != nil {
		return err
	}

	appt, err := h.svc.Book(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentsHandler) Request(c echo.Context) error {
	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in, err := req.toInput(practitioner)
	if err != nil {
		return err
	}

	appt, err := h.svc.Request(c.Request().Context(), scheduling.RequestInput{
		BookInput:   in,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentsHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

// List serves the practitioner's calendar. Supported query shapes:
// ?client_id= for a client's history, ?today=true, ?days=N for the upcoming
// window, or an inclusive ?from=&to= date range.
func (h *AppointmentsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if clientParam := c.QueryParam("client_id"); clientParam != "" {
		clientID, err := uuid.Parse(clientParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
		}
		appts, err := h.svc.ListByClient(ctx, clientID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, appts)
	}

	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}

	if c.QueryParam("today") == "true" {
		appts, err := h.svc.Today(ctx, practitioner)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, appts)
	}

	if daysParam := c.QueryParam("days"); daysParam != "" {
		var days int
		if err := echo.QueryParamsBinder(c).Int("days", &days).BindError(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		appts, err := h.svc.Upcoming(ctx, practitioner, days)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, appts)
	}

	var from, to *time.Time
	if fromParam := c.QueryParam("from"); fromParam != "" {
		t, err := time.Parse(dateLayout, fromParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		from = &t
	}
	if toParam := c.QueryParam("to"); toParam != "" {
		t, err := time.Parse(dateLayout, toParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		to = &t
	}

	appts, err := h.svc.List(ctx, practitioner, from, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appts)
}

func (h *AppointmentsHandler) ListPending(c echo.Context) error {
	practitioner, err := practitionerID(c)
	if err != nil {
		return err
	}
	appts, err := h.svc.ListPending(c.Request().Context(), practitioner)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appts)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *AppointmentsHandler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appt, err := h.svc.UpdateStatus(c.Request().Context(), id, status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) Approve(c echo.Context) error {
	return h.transition(c, h.svc.Approve)
}

func (h *AppointmentsHandler) Reject(c echo.Context) error {
	return h.transition(c, h.svc.Reject)
}

func (h *AppointmentsHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *AppointmentsHandler) transition(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (domain.Appointment, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	appt, err := fn(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

type rescheduleRequest struct {
	Date  *string `json:"date"`
	Start *string `json:"start_time"`
	End   *string `json:"end_time"`
	Notes *string `json:"notes"`
}

func (h *AppointmentsHandler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in := scheduling.RescheduleInput{
		Start: req.Start,
		End:   req.End,
		Notes: req.Notes,
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		in.Date = &date
	}

	appt, err := h.svc.Reschedule(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *AppointmentsHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
