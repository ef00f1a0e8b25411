package domain

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Times of day are zero-padded 24h "HH:MM" strings. Both appointment bounds
// and working-hour slots use this representation, so interval comparison is
// plain lexicographic string comparison.

// ValidTimeOfDay reports whether s is a well-formed zero-padded "HH:MM".
// All four clock positions must be digits; signs and spaces never pass,
// keeping the value safe for lexicographic comparison.
func ValidTimeOfDay(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h <= 23 && m <= 59
}

// HourOf returns the hour component of a valid "HH:MM" string.
func HourOf(s string) int {
	h, _ := strconv.Atoi(s[:2])
	return h
}

// Overlaps applies the half-open interval overlap test to two "HH:MM"
// intervals: [aStart, aEnd) and [bStart, bEnd) overlap iff each starts
// before the other ends. Adjacent intervals (one ending exactly when the
// other starts) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && bStart < aEnd
}

type TimeSlot struct {
	ID    string `json:"id"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

type DaySchedule struct {
	Weekday int        `json:"weekday"` // 0=Sunday .. 6=Saturday
	Active  bool       `json:"is_active"`
	Slots   []TimeSlot `json:"slots"`
}

// WeekSchedule is a practitioner's full recurring weekly template: exactly
// one DaySchedule per weekday, indexed by weekday. Callers always replace
// the whole week at once; there is no single-day patch.
type WeekSchedule [7]DaySchedule

// Week-validation rule identifiers, one per invariant a DaySchedule can break.
const (
	RuleEmptyActiveDay   = "empty-slots-on-active-day"
	RuleInvertedSlot     = "inverted-slot"
	RuleOverlappingSlots = "overlapping-slots"
)

// ScheduleValidationError identifies the weekday and the rule a rejected
// WeekSchedule violates.
type ScheduleValidationError struct {
	Weekday int
	Rule    string
	msg     string
}

func (e *ScheduleValidationError) Error() string {
	return e.msg
}

func scheduleError(weekday int, rule, format string, args ...any) error {
	return &ScheduleValidationError{
		Weekday: weekday,
		Rule:    rule,
		msg:     fmt.Sprintf("weekday %d: %s", weekday, fmt.Sprintf(format, args...)),
	}
}

// Validate checks every day of the week: weekday indices must match
// positions, active days need at least one slot, every slot must be a
// well-formed forward interval, and no two slots on one day may overlap.
func (w WeekSchedule) Validate() error {
	for i, day := range w {
		if day.Weekday != i {
			return scheduleError(i, RuleInvertedSlot, "weekday field is %d, want %d", day.Weekday, i)
		}
		if day.Active && len(day.Slots) == 0 {
			return scheduleError(i, RuleEmptyActiveDay, "active day has no slots")
		}
		for _, slot := range day.Slots {
			if !ValidTimeOfDay(slot.Start) || !ValidTimeOfDay(slot.End) {
				return scheduleError(i, RuleInvertedSlot, "slot %q-%q is not a valid HH:MM interval", slot.Start, slot.End)
			}
			if slot.Start >= slot.End {
				return scheduleError(i, RuleInvertedSlot, "slot starts at %s but ends at %s", slot.Start, slot.End)
			}
		}
		for j := range day.Slots {
			for k := j + 1; k < len(day.Slots); k++ {
				a, b := day.Slots[j], day.Slots[k]
				if Overlaps(a.Start, a.End, b.Start, b.End) {
					return scheduleError(i, RuleOverlappingSlots, "slots %s-%s and %s-%s overlap", a.Start, a.End, b.Start, b.End)
				}
			}
		}
	}
	return nil
}

// IsSlotAvailable reports whether t falls inside a working slot on the given
// weekday. Slot membership is half-open: a slot ending at 18:00 does not
// include 18:00 itself.
func (w WeekSchedule) IsSlotAvailable(weekday int, t string) bool {
	if weekday < 0 || weekday > 6 {
		return false
	}
	day := w[weekday]
	if !day.Active {
		return false
	}
	for _, slot := range day.Slots {
		if t >= slot.Start && t < slot.End {
			return true
		}
	}
	return false
}

// MinMaxWorkingHours scans all active slots and returns the earliest start
// hour and the latest end hour, for bounding a calendar viewport. A week
// with no active slots reports the (8, 18) default.
func (w WeekSchedule) MinMaxWorkingHours() (int, int) {
	min, max := -1, -1
	for _, day := range w {
		if !day.Active {
			continue
		}
		for _, slot := range day.Slots {
			startHour := HourOf(slot.Start)
			endHour := HourOf(slot.End)
			if slot.End[3:] != "00" {
				endHour++
			}
			if min == -1 || startHour < min {
				min = startHour
			}
			if endHour > max {
				max = endHour
			}
		}
	}
	if min == -1 {
		return 8, 18
	}
	return min, max
}

// DefaultWeekSchedule is the template synthesized for a practitioner who has
// never configured working hours: Mon-Fri 08:00-18:00, weekend inactive.
func DefaultWeekSchedule() WeekSchedule {
	var w WeekSchedule
	for i := range w {
		w[i] = DaySchedule{Weekday: i, Active: false, Slots: nil}
		if i >= 1 && i <= 5 {
			w[i].Active = true
			w[i].Slots = []TimeSlot{{ID: uuid.NewString(), Start: "08:00", End: "18:00"}}
		}
	}
	return w
}

// Schedule is the persisted availability template for one practitioner.
type Schedule struct {
	bun.BaseModel `bun:"table:practitioner_schedules"`

	ID             uuid.UUID    `bun:"id,pk,type:uuid" json:"id"`
	PractitionerID string       `bun:"practitioner_id,notnull,unique" json:"practitioner_id"`
	Days           WeekSchedule `bun:"days,notnull,type:jsonb" json:"days"`
	CreatedAt      time.Time    `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time    `bun:"updated_at,notnull" json:"updated_at"`
}

func (s *Schedule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}
