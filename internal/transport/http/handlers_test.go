package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/service/availability"
	"nutrisched/backend/internal/service/scheduling"
	"nutrisched/backend/internal/store"
)

type memAppointments struct {
	appts map[uuid.UUID]domain.Appointment
}

func newMemAppointments() *memAppointments {
	return &memAppointments{appts: make(map[uuid.UUID]domain.Appointment)}
}

func (m *memAppointments) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	return m.CreateAppointment(ctx, appt)
}

func (m *memAppointments) CreateAppointment(_ context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
	}
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	m.appts[appt.ID] = appt
	return appt, nil
}

func (m *memAppointments) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return m.GetAppointment(ctx, id)
}

func (m *memAppointments) GetAppointment(_ context.Context, id uuid.UUID) (domain.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return appt, nil
}

func (m *memAppointments) Update(ctx context.Context, id uuid.UUID, patch store.AppointmentPatch) (domain.Appointment, error) {
	return m.UpdateAppointment(ctx, id, patch)
}

func (m *memAppointments) UpdateAppointment(_ context.Context, id uuid.UUID, patch store.AppointmentPatch) (domain.Appointment, error) {
	appt, ok := m.appts[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	if patch.Date != nil {
		appt.Date = domain.DateOnly(*patch.Date)
	}
	if patch.Start != nil {
		appt.Start = *patch.Start
	}
	if patch.End != nil {
		appt.End = *patch.End
	}
	if patch.Notes != nil {
		appt.Notes = *patch.Notes
	}
	if patch.Status != nil {
		appt.Status = *patch.Status
	}
	appt.UpdatedAt = time.Now().UTC()
	m.appts[id] = appt
	return appt, nil
}

func (m *memAppointments) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *memAppointments) ListForPractitioner(_ context.Context, practitionerID string, from, to *time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range m.appts {
		if a.PractitionerID != practitionerID {
			continue
		}
		if from != nil && a.Date.Before(domain.DateOnly(*from)) {
			continue
		}
		if to != nil && a.Date.After(domain.DateOnly(*to)) {
			continue
		}
		out = append(out, a)
	}
	sortByDate(out)
	return out, nil
}

func (m *memAppointments) ListByClient(_ context.Context, clientID uuid.UUID) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range m.appts {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *memAppointments) ListPending(_ context.Context, practitionerID string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range m.appts {
		if a.PractitionerID == practitionerID && a.Status == domain.StatusPending {
			out = append(out, a)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *memAppointments) ListScheduledOnDate(_ context.Context, practitionerID string, date time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range m.appts {
		if a.PractitionerID == practitionerID && domain.SameDate(a.Date, date) && a.Status == domain.StatusScheduled {
			out = append(out, a)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *memAppointments) InPractitionerTx(ctx context.Context, practitionerID string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return fn(ctx, m)
}

func sortByDate(appts []domain.Appointment) {
	sort.Slice(appts, func(i, j int) bool {
		if !appts[i].Date.Equal(appts[j].Date) {
			return appts[i].Date.Before(appts[j].Date)
		}
		return appts[i].Start < appts[j].Start
	})
}

type memSchedules struct {
	byPractitioner map[string]domain.Schedule
}

func newMemSchedules() *memSchedules {
	return &memSchedules{byPractitioner: make(map[string]domain.Schedule)}
}

func (m *memSchedules) Get(_ context.Context, practitionerID string) (domain.Schedule, error) {
	sched, ok := m.byPractitioner[practitionerID]
	if !ok {
		return domain.Schedule{}, store.ErrNotFound
	}
	return sched, nil
}

func (m *memSchedules) Create(_ context.Context, sched domain.Schedule) (domain.Schedule, error) {
	if _, ok := m.byPractitioner[sched.PractitionerID]; ok {
		return domain.Schedule{}, store.ErrConflict
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Schedule{}, err
	}
	sched.ID = id
	m.byPractitioner[sched.PractitionerID] = sched
	return sched, nil
}

func (m *memSchedules) Replace(_ context.Context, practitionerID string, days domain.WeekSchedule) (domain.Schedule, error) {
	sched, ok := m.byPractitioner[practitionerID]
	if !ok {
		return domain.Schedule{}, store.ErrNotFound
	}
	sched.Days = days
	m.byPractitioner[practitionerID] = sched
	return sched, nil
}

type stubLedger struct{}

func (stubLedger) IncomeExistsForAppointment(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func (stubLedger) CreateIncome(_ context.Context, rec domain.IncomeRecord) (domain.IncomeRecord, error) {
	return rec, nil
}

type stubDirectory struct{}

func (stubDirectory) ResolveDisplayName(context.Context, uuid.UUID) (string, error) {
	return "", store.ErrNotFound
}

type stubSettings struct{}

func (stubSettings) ConsultationPrice(context.Context, string) (float64, error) {
	return 0, store.ErrNotFound
}

func newTestServer() *echo.Echo {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := scheduling.NewService(newMemAppointments(), stubLedger{}, stubDirectory{}, stubSettings{}, log)
	avail := availability.NewService(newMemSchedules())
	return NewServer(sched, avail, log)
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(practitionerHeader, "p1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const bookBody = `{"client_id":"00000000-0000-0000-0000-000000000001","client_name":"Maria Souza","date":"2025-03-10","start_time":"09:00","end_time":"09:30"}`

func TestBookEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/appointments", bookBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var appt domain.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.Status != domain.StatusScheduled {
		t.Fatalf("status = %q, want %q", appt.Status, domain.StatusScheduled)
	}
	if appt.ClientName != "Maria Souza" {
		t.Fatalf("client_name = %q", appt.ClientName)
	}
}

func TestBookEndpoint_Conflict(t *testing.T) {
	e := newTestServer()

	if rec := doJSON(t, e, http.MethodPost, "/api/v1/appointments", bookBody); rec.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d", rec.Code)
	}

	overlapping := strings.Replace(bookBody, `"09:00"`, `"09:15"`, 1)
	overlapping = strings.Replace(overlapping, `"09:30"`, `"09:45"`, 1)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/appointments", overlapping)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestBookEndpoint_MissingPractitionerHeader(t *testing.T) {
	e := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(bookBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBookEndpoint_ValidationError(t *testing.T) {
	e := newTestServer()

	inverted := strings.Replace(bookBody, `"start_time":"09:00"`, `"start_time":"10:00"`, 1)
	rec := doJSON(t, e, http.MethodPost, "/api/v1/appointments", inverted)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestRequestAndApproveEndpoints(t *testing.T) {
	e := newTestServer()

	body := strings.TrimSuffix(bookBody, "}") + `,"requested_by":"portal:u9"}`
	rec := doJSON(t, e, http.MethodPost, "/api/v1/appointment-requests", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("request status = %d: %s", rec.Code, rec.Body.String())
	}
	var appt domain.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.Status != domain.StatusPending {
		t.Fatalf("status = %q, want %q", appt.Status, domain.StatusPending)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/appointments/pending", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d", rec.Code)
	}
	var pending []domain.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	rec = doJSON(t, e, http.MethodPost, "/api/v1/appointments/"+appt.ID.String()+"/approve", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", rec.Code, rec.Body.String())
	}

	// Approving again is an illegal transition.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/appointments/"+appt.ID.String()+"/approve", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("second approve status = %d, want 422", rec.Code)
	}
}

func TestStatusEndpoint_UnknownAppointment(t *testing.T) {
	e := newTestServer()

	rec := doJSON(t, e, http.MethodPatch, "/api/v1/appointments/"+uuid.NewString()+"/status", `{"status":"cancelled"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAvailabilityEndpoints(t *testing.T) {
	e := newTestServer()

	rec := doJSON(t, e, http.MethodGet, "/api/v1/availability", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get availability status = %d", rec.Code)
	}
	var sched domain.Schedule
	if err := json.Unmarshal(rec.Body.Bytes(), &sched); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	if !sched.Days[1].Active || sched.Days[0].Active {
		t.Fatalf("expected default Mon-Fri schedule, got %+v", sched.Days)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/availability/viewport", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("viewport status = %d", rec.Code)
	}
	var viewport map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &viewport); err != nil {
		t.Fatalf("decode viewport: %v", err)
	}
	if viewport["min_hour"] != 8 || viewport["max_hour"] != 18 {
		t.Fatalf("viewport = %v, want min 8 max 18", viewport)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/availability/check?weekday=1&time=09:00", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("check status = %d", rec.Code)
	}
	var check map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &check); err != nil {
		t.Fatalf("decode check: %v", err)
	}
	if !check["available"] {
		t.Fatalf("monday 09:00 should be available")
	}
}

func TestReplaceAvailability_InvalidWeek(t *testing.T) {
	e := newTestServer()

	week := domain.DefaultWeekSchedule()
	week[2].Slots = []domain.TimeSlot{
		{ID: "a", Start: "08:00", End: "12:00"},
		{ID: "b", Start: "11:00", End: "15:00"},
	}
	payload, err := json.Marshal(map[string]any{"days": week[:]})
	if err != nil {
		t.Fatalf("marshal week: %v", err)
	}

	rec := doJSON(t, e, http.MethodPut, "/api/v1/availability", string(payload))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "overlapping-slots") {
		t.Fatalf("body should identify the violated rule: %s", rec.Body.String())
	}
}

func TestReplaceAvailability_RequiresSevenDays(t *testing.T) {
	e := newTestServer()

	rec := doJSON(t, e, http.MethodPut, "/api/v1/availability", `{"days":[{"weekday":0,"is_active":false,"slots":[]}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	e := newTestServer()

	rec := doJSON(t, e, http.MethodPost, "/api/v1/appointments", bookBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("book status = %d", rec.Code)
	}
	var appt domain.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/appointments/"+appt.ID.String(), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, e, http.MethodDelete, "/api/v1/appointments/"+appt.ID.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}
