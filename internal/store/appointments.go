package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nutrisched/backend/internal/domain"
)

// AppointmentPatch is a partial field update. Nil fields are left untouched;
// the repository bumps updated_at on every applied patch.
type AppointmentPatch struct {
	Date   *time.Time
	Start  *string
	End    *string
	Notes  *string
	Status *domain.Status
}

func (p AppointmentPatch) Empty() bool {
	return p.Date == nil && p.Start == nil && p.End == nil && p.Notes == nil && p.Status == nil
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, patch AppointmentPatch) (domain.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListForPractitioner returns appointments ordered by (date, start_time).
	// When from/to are non-nil the range is inclusive on both bounds and
	// compares the calendar date only.
	ListForPractitioner(ctx context.Context, practitionerID string, from, to *time.Time) ([]domain.Appointment, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Appointment, error)
	ListPending(ctx context.Context, practitionerID string) ([]domain.Appointment, error)

	// InPractitionerTx serializes all calendar writes for one practitioner:
	// fn runs inside a transaction holding the practitioner's advisory lock,
	// so a conflict check plus the write it guards form one atomic step.
	InPractitionerTx(ctx context.Context, practitionerID string, fn func(ctx context.Context, tx CalendarTx) error) error
}
