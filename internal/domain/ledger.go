package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IncomeRecord is the ledger entry auto-created when an appointment
// completes. At most one exists per appointment.
type IncomeRecord struct {
	bun.BaseModel `bun:"table:income_records"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	PractitionerID string    `bun:"practitioner_id,notnull" json:"practitioner_id"`
	AppointmentID  uuid.UUID `bun:"appointment_id,notnull,unique,type:uuid" json:"appointment_id"`
	ClientID       uuid.UUID `bun:"client_id,notnull,type:uuid" json:"client_id"`
	ClientName     string    `bun:"client_name,notnull" json:"client_name"`
	Amount         float64   `bun:"amount,notnull" json:"amount"`
	Description    string    `bun:"description,notnull" json:"description"`
	Date           time.Time `bun:"date,notnull,type:date" json:"date"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

func (r *IncomeRecord) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Client is the directory row appointments denormalize their display name
// from at creation time. The name is never re-resolved afterwards.
type Client struct {
	bun.BaseModel `bun:"table:clients"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	PractitionerID string    `bun:"practitioner_id,notnull" json:"practitioner_id"`
	Name           string    `bun:"name,notnull" json:"name"`
	Email          string    `bun:"email" json:"email,omitempty"`
	Phone          string    `bun:"phone" json:"phone,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}

// PractitionerSettings carries per-practitioner billing defaults.
type PractitionerSettings struct {
	bun.BaseModel `bun:"table:practitioner_settings"`

	PractitionerID    string  `bun:"practitioner_id,pk" json:"practitioner_id"`
	ConsultationPrice float64 `bun:"consultation_price,notnull" json:"consultation_price"`
}
