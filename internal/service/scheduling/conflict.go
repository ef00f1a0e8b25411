package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"nutrisched/backend/internal/domain"
)

type scheduledLister interface {
	ListScheduledOnDate(ctx context.Context, practitionerID string, date time.Time) ([]domain.Appointment, error)
}

// hasConflict reports whether [start, end) on the given date overlaps any
// scheduled appointment for the practitioner. Only status "scheduled"
// blocks; a pending request does not yet occupy its slot. excludeID removes
// one appointment from the candidate set so a reschedule never collides
// with itself.
func hasConflict(ctx context.Context, l scheduledLister, practitionerID string, date time.Time, start, end string, excludeID uuid.UUID) (bool, error) {
	existing, err := l.ListScheduledOnDate(ctx, practitionerID, date)
	if err != nil {
		return false, err
	}
	for _, a := range existing {
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if domain.Overlaps(start, end, a.Start, a.End) {
			return true, nil
		}
	}
	return false, nil
}
