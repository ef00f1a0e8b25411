package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	PractitionerID string     `bun:"practitioner_id,notnull" json:"practitioner_id"`
	ClientID       uuid.UUID  `bun:"client_id,notnull,type:uuid" json:"client_id"`
	ClientName     string     `bun:"client_name,notnull" json:"client_name"`
	Date           time.Time  `bun:"date,notnull,type:date" json:"date"`
	Start          string     `bun:"start_time,notnull" json:"start_time"`
	End            string     `bun:"end_time,notnull" json:"end_time"`
	Notes          string     `bun:"notes" json:"notes,omitempty"`
	Status         Status     `bun:"status,notnull" json:"status"`
	RequestedBy    string     `bun:"requested_by" json:"requested_by,omitempty"`
	ServiceID      *uuid.UUID `bun:"service_id,type:uuid" json:"service_id,omitempty"`
	ServiceName    *string    `bun:"service_name" json:"service_name,omitempty"`
	ServicePrice   *float64   `bun:"service_price" json:"service_price,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull" json:"updated_at"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// DateOnly truncates t to a calendar date in UTC. Appointment dates carry no
// time-of-day component; the clock lives in the Start/End strings.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar date (UTC).
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}
