package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nutrisched/backend/internal/domain"
)

// CalendarTx is the slice of appointment operations available inside a
// per-practitioner transaction (see AppointmentRepository.InPractitionerTx).
type CalendarTx interface {
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, patch AppointmentPatch) (domain.Appointment, error)

	// ListScheduledOnDate returns the appointments that block new bookings
	// for the practitioner on one calendar date: status "scheduled" only.
	ListScheduledOnDate(ctx context.Context, practitionerID string, date time.Time) ([]domain.Appointment, error)
}
