package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/store"
)

// DefaultConsultationPrice is the income amount used when a practitioner has
// not configured their own consultation value.
const DefaultConsultationPrice = 150.0

// Service is the scheduling façade: it validates bookings against the
// calendar, drives the appointment lifecycle and triggers the ledger income
// side effect when an appointment completes.
type Service struct {
	repo      store.AppointmentRepository
	ledger    store.LedgerRepository
	directory store.ClientDirectory
	settings  store.SettingsRepository
	log       *slog.Logger
}

func NewService(repo store.AppointmentRepository, ledger store.LedgerRepository, directory store.ClientDirectory, settings store.SettingsRepository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:      repo,
		ledger:    ledger,
		directory: directory,
		settings:  settings,
		log:       log.With(slog.String("component", "service.scheduling")),
	}
}

type BookInput struct {
	PractitionerID string
	ClientID       uuid.UUID
	ClientName     string
	Date           time.Time
	Start          string
	End            string
	Notes          string
	ServiceID      *uuid.UUID
	ServiceName    *string
	ServicePrice   *float64
}

type RequestInput struct {
	BookInput
	RequestedBy string
}

func (in BookInput) validate() error {
	if in.PractitionerID == "" {
		return validationError("practitioner_id is required")
	}
	if in.ClientID == uuid.Nil {
		return validationError("client_id is required")
	}
	if in.Date.IsZero() {
		return validationError("date is required")
	}
	if !domain.ValidTimeOfDay(in.Start) || !domain.ValidTimeOfDay(in.End) {
		return validationError("start_time and end_time must be zero-padded HH:MM")
	}
	if in.Start >= in.End {
		return validationError("end_time must be after start_time")
	}
	return nil
}

// resolveClientName denormalizes the client display name onto the
// appointment. A caller-supplied name wins; otherwise the directory is
// consulted once, at creation time.
func (s *Service) resolveClientName(ctx context.Context, in BookInput) (string, error) {
	if name := strings.TrimSpace(in.ClientName); name != "" {
		return name, nil
	}
	name, err := s.directory.ResolveDisplayName(ctx, in.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", validationError("client not found")
		}
		return "", fmt.Errorf("resolve client name: %w", err)
	}
	return name, nil
}

func (in BookInput) toAppointment(clientName string, status domain.Status) domain.Appointment {
	return domain.Appointment{
		PractitionerID: in.PractitionerID,
		ClientID:       in.ClientID,
		ClientName:     clientName,
		Date:           domain.DateOnly(in.Date),
		Start:          in.Start,
		End:            in.End,
		Notes:          strings.TrimSpace(in.Notes),
		Status:         status,
		ServiceID:      in.ServiceID,
		ServiceName:    in.ServiceName,
		ServicePrice:   in.ServicePrice,
	}
}

// Book creates a confirmed appointment. The conflict check and the insert
// run inside one per-practitioner transaction, so two concurrent bookings
// for overlapping intervals cannot both pass the check.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	if err := in.validate(); err != nil {
		return domain.Appointment{}, err
	}
	clientName, err := s.resolveClientName(ctx, in)
	if err != nil {
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.repo.InPractitionerTx(ctx, in.PractitionerID, func(ctx context.Context, tx store.CalendarTx) error {
		conflict, err := hasConflict(ctx, tx, in.PractitionerID, in.Date, in.Start, in.End, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return store.ErrConflict
		}

		out, err = tx.CreateAppointment(ctx, in.toAppointment(clientName, domain.StatusScheduled))
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.log.Info("appointment booked",
		slog.String("appointment_id", out.ID.String()),
		slog.String("practitioner_id", out.PractitionerID),
		slog.Time("date", out.Date),
		slog.String("start_time", out.Start),
		slog.String("end_time", out.End),
	)
	return out, nil
}

// Request creates a client-originated pending request. A pending request
// does not occupy its slot, so no conflict check runs here; the slot is
// only claimed when the practitioner approves.
func (s *Service) Request(ctx context.Context, in RequestInput) (domain.Appointment, error) {
	if err := in.validate(); err != nil {
		return domain.Appointment{}, err
	}
	if in.RequestedBy == "" {
		return domain.Appointment{}, validationError("requested_by is required")
	}
	clientName, err := s.resolveClientName(ctx, in.BookInput)
	if err != nil {
		return domain.Appointment{}, err
	}

	appt := in.toAppointment(clientName, domain.StatusPending)
	appt.RequestedBy = in.RequestedBy

	out, err := s.repo.Create(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	s.log.Info("appointment requested",
		slog.String("appointment_id", out.ID.String()),
		slog.String("practitioner_id", out.PractitionerID),
		slog.String("requested_by", out.RequestedBy),
	)
	return out, nil
}

// Approve confirms a pending request. Conflicts are not re-checked at
// approval time; two overlapping requests can both be approved. The
// practitioner sees the overlap on the calendar and resolves it manually.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.UpdateStatus(ctx, id, domain.StatusScheduled)
}

// Reject declines a pending request.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.UpdateStatus(ctx, id, domain.StatusRejected)
}

// Cancel cancels a scheduled appointment, preserving its history.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.UpdateStatus(ctx, id, domain.StatusCancelled)
}

// UpdateStatus applies a lifecycle transition. The guard and the write run
// inside the per-practitioner transaction, so two concurrent transitions
// from the same status cannot both pass. Completing an appointment
// additionally records ledger income, at most once per appointment; a
// ledger failure is logged but never rolls the transition back.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to domain.Status) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}

	var updated domain.Appointment
	var from domain.Status
	err = s.repo.InPractitionerTx(ctx, appt.PractitionerID, func(ctx context.Context, tx store.CalendarTx) error {
		current, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		from = current.Status
		if from == to {
			// Redundant call: keep it idempotent. In particular a second
			// "completed" never re-fires the income side effect.
			updated = current
			return nil
		}
		if !from.CanTransition(to) {
			return &InvalidTransitionError{From: from, To: to}
		}
		updated, err = tx.UpdateAppointment(ctx, id, store.AppointmentPatch{Status: &to})
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	if from == to {
		return updated, nil
	}

	s.log.Info("appointment status changed",
		slog.String("appointment_id", id.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	if to == domain.StatusCompleted && from != domain.StatusCompleted {
		s.recordCompletionIncome(ctx, updated)
	}
	return updated, nil
}

// RescheduleInput carries the fields a reschedule may change; nil fields
// keep their current value.
type RescheduleInput struct {
	Date  *time.Time
	Start *string
	End   *string
	Notes *string
}

// Reschedule moves a scheduled appointment to a new date and/or interval.
// The moved appointment is excluded from its own conflict check, so
// rescheduling to the interval it already occupies succeeds.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if in.Start != nil && !domain.ValidTimeOfDay(*in.Start) {
		return domain.Appointment{}, validationError("start_time must be a zero-padded HH:MM")
	}
	if in.End != nil && !domain.ValidTimeOfDay(*in.End) {
		return domain.Appointment{}, validationError("end_time must be a zero-padded HH:MM")
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.repo.InPractitionerTx(ctx, appt.PractitionerID, func(ctx context.Context, tx store.CalendarTx) error {
		current, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != domain.StatusScheduled {
			// Only a confirmed booking can move. Pending requests carry no
			// slot to move and terminal appointments admit nothing but a
			// hard delete.
			return &InvalidTransitionError{From: current.Status, To: domain.StatusScheduled}
		}

		date, start, end := current.Date, current.Start, current.End
		if in.Date != nil {
			date = domain.DateOnly(*in.Date)
		}
		if in.Start != nil {
			start = *in.Start
		}
		if in.End != nil {
			end = *in.End
		}
		if start >= end {
			return validationError("end_time must be after start_time")
		}

		conflict, err := hasConflict(ctx, tx, current.PractitionerID, date, start, end, id)
		if err != nil {
			return err
		}
		if conflict {
			return store.ErrConflict
		}

		out, err = tx.UpdateAppointment(ctx, id, store.AppointmentPatch{
			Date:  &date,
			Start: &start,
			End:   &end,
			Notes: in.Notes,
		})
		return err
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.log.Info("appointment rescheduled",
		slog.String("appointment_id", id.String()),
		slog.Time("date", out.Date),
		slog.String("start_time", out.Start),
		slog.String("end_time", out.End),
	)
	return out, nil
}

// Delete removes an appointment outright, bypassing the status lifecycle.
// Unlike cancellation it leaves no history behind.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return validationError("appointment_id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("appointment deleted", slog.String("appointment_id", id.String()))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// List returns a practitioner's appointments, optionally bounded by an
// inclusive date range.
func (s *Service) List(ctx context.Context, practitionerID string, from, to *time.Time) ([]domain.Appointment, error) {
	if practitionerID == "" {
		return nil, validationError("practitioner_id is required")
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, validationError("to must not be before from")
	}
	return s.repo.ListForPractitioner(ctx, practitionerID, from, to)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Appointment, error) {
	if clientID == uuid.Nil {
		return nil, validationError("client_id is required")
	}
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) ListPending(ctx context.Context, practitionerID string) ([]domain.Appointment, error) {
	if practitionerID == "" {
		return nil, validationError("practitioner_id is required")
	}
	return s.repo.ListPending(ctx, practitionerID)
}

// Today lists the practitioner's appointments for the current date.
func (s *Service) Today(ctx context.Context, practitionerID string) ([]domain.Appointment, error) {
	today := domain.DateOnly(time.Now())
	return s.List(ctx, practitionerID, &today, &today)
}

// Upcoming lists appointments from today through today+days, inclusive.
func (s *Service) Upcoming(ctx context.Context, practitionerID string, days int) ([]domain.Appointment, error) {
	if days < 0 {
		return nil, validationError("days must not be negative")
	}
	from := domain.DateOnly(time.Now())
	to := from.AddDate(0, 0, days)
	return s.List(ctx, practitionerID, &from, &to)
}

// recordCompletionIncome writes the ledger income entry for a completed
// appointment. Best-effort: every failure path logs and returns, leaving
// the completed status in place. The unique appointment_id key makes a
// missing record reconcilable out-of-band.
func (s *Service) recordCompletionIncome(ctx context.Context, appt domain.Appointment) {
	log := s.log.With(slog.String("appointment_id", appt.ID.String()))

	exists, err := s.ledger.IncomeExistsForAppointment(ctx, appt.ID)
	if err != nil {
		log.Error("income lookup failed; skipping income creation", slog.Any("err", err))
		return
	}
	if exists {
		return
	}

	amount, err := s.settings.ConsultationPrice(ctx, appt.PractitionerID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("consultation price lookup failed; using default", slog.Any("err", err))
		}
		amount = DefaultConsultationPrice
	}

	_, err = s.ledger.CreateIncome(ctx, domain.IncomeRecord{
		PractitionerID: appt.PractitionerID,
		AppointmentID:  appt.ID,
		ClientID:       appt.ClientID,
		ClientName:     appt.ClientName,
		Amount:         amount,
		Description:    fmt.Sprintf("Consultation - %s", appt.ClientName),
		Date:           appt.Date,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// A concurrent completion already wrote the record.
			return
		}
		log.Error("income creation failed; appointment stays completed", slog.Any("err", err))
		return
	}

	log.Info("income recorded for completed appointment", slog.Float64("amount", amount))
}
