package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/store"
)

type ScheduleRepo struct {
	db *bun.DB
}

func NewScheduleRepo(db *bun.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) Get(ctx context.Context, practitionerID string) (domain.Schedule, error) {
	var m domain.Schedule
	err := r.db.NewSelect().
		Model(&m).
		Where("practitioner_id = ?", practitionerID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Schedule{}, store.ErrNotFound
		}
		return domain.Schedule{}, err
	}
	return m, nil
}

func (r *ScheduleRepo) Create(ctx context.Context, sched domain.Schedule) (domain.Schedule, error) {
	m := sched
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Schedule{}, store.ErrConflict
		}
		return domain.Schedule{}, err
	}
	return m, nil
}

func (r *ScheduleRepo) Replace(ctx context.Context, practitionerID string, days domain.WeekSchedule) (domain.Schedule, error) {
	m, err := r.Get(ctx, practitionerID)
	if err != nil {
		return domain.Schedule{}, err
	}

	m.Days = days
	_, err = r.db.NewUpdate().
		Model(&m).
		Column("days", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Schedule{}, err
	}
	return m, nil
}
