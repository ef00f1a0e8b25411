package store

import (
	"context"

	"nutrisched/backend/internal/domain"
)

// ScheduleRepository persists one availability template per practitioner.
type ScheduleRepository interface {
	// Get returns ErrNotFound when the practitioner has never saved a
	// schedule; callers synthesize the default in that case.
	Get(ctx context.Context, practitionerID string) (domain.Schedule, error)

	// Create persists a new schedule row. Saving twice for one practitioner
	// fails the unique constraint and surfaces ErrConflict.
	Create(ctx context.Context, sched domain.Schedule) (domain.Schedule, error)

	// Replace overwrites the stored week wholesale and bumps updated_at.
	Replace(ctx context.Context, practitionerID string, days domain.WeekSchedule) (domain.Schedule, error)
}
