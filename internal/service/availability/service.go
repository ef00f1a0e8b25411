package availability

import (
	"context"
	"errors"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Service manages the recurring weekly availability template. A practitioner
// who has never configured hours transparently gets the default template, so
// downstream callers never see an absent schedule.
type Service struct {
	repo store.ScheduleRepository
}

func NewService(repo store.ScheduleRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetOrCreate(ctx context.Context, practitionerID string) (domain.Schedule, error) {
	if practitionerID == "" {
		return domain.Schedule{}, validationError("practitioner_id is required")
	}

	sched, err := s.repo.Get(ctx, practitionerID)
	if err == nil {
		return sched, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Schedule{}, err
	}

	created, err := s.repo.Create(ctx, domain.Schedule{
		PractitionerID: practitionerID,
		Days:           domain.DefaultWeekSchedule(),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Lost a creation race; the row that won is the schedule.
			return s.repo.Get(ctx, practitionerID)
		}
		return domain.Schedule{}, err
	}
	return created, nil
}

// Replace swaps the whole 7-day template at once. Partial updates are not
// offered; callers submit every weekday on every edit.
func (s *Service) Replace(ctx context.Context, practitionerID string, week domain.WeekSchedule) (domain.Schedule, error) {
	if practitionerID == "" {
		return domain.Schedule{}, validationError("practitioner_id is required")
	}
	if err := week.Validate(); err != nil {
		return domain.Schedule{}, err
	}

	if _, err := s.GetOrCreate(ctx, practitionerID); err != nil {
		return domain.Schedule{}, err
	}
	return s.repo.Replace(ctx, practitionerID, week)
}

// WorkingHoursViewport returns the hour bounds a calendar UI should render
// for the practitioner's week.
func (s *Service) WorkingHoursViewport(ctx context.Context, practitionerID string) (int, int, error) {
	sched, err := s.GetOrCreate(ctx, practitionerID)
	if err != nil {
		return 0, 0, err
	}
	min, max := sched.Days.MinMaxWorkingHours()
	return min, max, nil
}

// IsSlotAvailable reports whether the time falls inside the practitioner's
// working hours on the given weekday.
func (s *Service) IsSlotAvailable(ctx context.Context, practitionerID string, weekday int, t string) (bool, error) {
	if weekday < 0 || weekday > 6 {
		return false, validationError("weekday must be between 0 and 6")
	}
	if !domain.ValidTimeOfDay(t) {
		return false, validationError("time must be a zero-padded HH:MM")
	}

	sched, err := s.GetOrCreate(ctx, practitionerID)
	if err != nil {
		return false, err
	}
	return sched.Days.IsSlotAvailable(weekday, t), nil
}
