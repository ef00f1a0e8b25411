package store

import (
	"context"

	"github.com/google/uuid"

	"nutrisched/backend/internal/domain"
)

// LedgerRepository is the financial-ledger collaborator contract. The
// scheduling engine only ever asks two things of it: "is there already an
// income record for this appointment" and "create one".
type LedgerRepository interface {
	IncomeExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	CreateIncome(ctx context.Context, rec domain.IncomeRecord) (domain.IncomeRecord, error)
}

// ClientDirectory resolves a client id to a display name, used once to
// denormalize the name onto an appointment at creation time.
type ClientDirectory interface {
	ResolveDisplayName(ctx context.Context, clientID uuid.UUID) (string, error)
}

// SettingsRepository supplies per-practitioner billing defaults. Returns
// ErrNotFound when the practitioner has not configured a consultation price.
type SettingsRepository interface {
	ConsultationPrice(ctx context.Context, practitionerID string) (float64, error)
}
