package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/store"
)

// LedgerRepo backs the financial-ledger collaborator with the same database
// the scheduling tables live in. Income rows are unique per appointment, so
// a racing double-create surfaces as ErrConflict instead of a duplicate.
type LedgerRepo struct {
	db *bun.DB
}

func NewLedgerRepo(db *bun.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) IncomeExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	return r.db.NewSelect().
		Model((*domain.IncomeRecord)(nil)).
		Where("appointment_id = ?", appointmentID).
		Exists(ctx)
}

func (r *LedgerRepo) CreateIncome(ctx context.Context, rec domain.IncomeRecord) (domain.IncomeRecord, error) {
	m := rec
	m.Date = domain.DateOnly(rec.Date)

	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.IncomeRecord{}, store.ErrConflict
		}
		return domain.IncomeRecord{}, err
	}
	return m, nil
}

type SettingsRepo struct {
	db *bun.DB
}

func NewSettingsRepo(db *bun.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) ConsultationPrice(ctx context.Context, practitionerID string) (float64, error) {
	var m domain.PractitionerSettings
	err := r.db.NewSelect().
		Model(&m).
		Where("practitioner_id = ?", practitionerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	return m.ConsultationPrice, nil
}

type ClientRepo struct {
	db *bun.DB
}

func NewClientRepo(db *bun.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) ResolveDisplayName(ctx context.Context, clientID uuid.UUID) (string, error) {
	var m domain.Client
	err := r.db.NewSelect().
		Model(&m).
		Column("name").
		Where("id = ?", clientID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return m.Name, nil
}
