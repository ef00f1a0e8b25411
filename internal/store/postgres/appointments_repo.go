package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"nutrisched/backend/internal/domain"
	"nutrisched/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type calendarTx struct {
	tx bun.IDB
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InPractitionerTx(ctx, appt.PractitionerID, func(ctx context.Context, tx store.CalendarTx) error {
		a, err := tx.CreateAppointment(ctx, appt)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return calendarTx{tx: r.db}.GetAppointment(ctx, id)
}

func (r *AppointmentRepo) Update(ctx context.Context, id uuid.UUID, patch store.AppointmentPatch) (domain.Appointment, error) {
	return calendarTx{tx: r.db}.UpdateAppointment(ctx, id, patch)
}

func (r *AppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepo) ListForPractitioner(ctx context.Context, practitionerID string, from, to *time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().
		Model(&rows).
		Where("practitioner_id = ?", practitionerID)
	if from != nil {
		q = q.Where("date >= ?", domain.DateOnly(*from))
	}
	if to != nil {
		q = q.Where("date <= ?", domain.DateOnly(*to))
	}

	err := q.OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("client_id = ?", clientID).
		OrderExpr("date DESC, start_time DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListPending(ctx context.Context, practitionerID string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Where("practitioner_id = ?", practitionerID).
		Where("status = ?", domain.StatusPending).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) InPractitionerTx(ctx context.Context, practitionerID string, fn func(ctx context.Context, tx store.CalendarTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockPractitionerCalendar(ctx, tx, practitionerID); err != nil {
			return err
		}
		return fn(ctx, calendarTx{tx: tx})
	})
}

// lockPractitionerCalendar serializes calendar writes per practitioner for
// the duration of the transaction, so a conflict check and the write it
// guards cannot interleave with a concurrent booking.
func lockPractitionerCalendar(ctx context.Context, tx bun.Tx, practitionerID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", practitionerID).Exec(ctx)
	return err
}

func (r calendarTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	m.Date = domain.DateOnly(appt.Date)

	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r calendarTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var m domain.Appointment
	err := r.tx.NewSelect().
		Model(&m).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r calendarTx) UpdateAppointment(ctx context.Context, id uuid.UUID, patch store.AppointmentPatch) (domain.Appointment, error) {
	m, err := r.GetAppointment(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if patch.Empty() {
		return m, nil
	}

	cols := []string{"updated_at"}
	if patch.Date != nil {
		m.Date = domain.DateOnly(*patch.Date)
		cols = append(cols, "date")
	}
	if patch.Start != nil {
		m.Start = *patch.Start
		cols = append(cols, "start_time")
	}
	if patch.End != nil {
		m.End = *patch.End
		cols = append(cols, "end_time")
	}
	if patch.Notes != nil {
		m.Notes = *patch.Notes
		cols = append(cols, "notes")
	}
	if patch.Status != nil {
		m.Status = *patch.Status
		cols = append(cols, "status")
	}

	_, err = r.tx.NewUpdate().
		Model(&m).
		Column(cols...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	return m, nil
}

func (r calendarTx) ListScheduledOnDate(ctx context.Context, practitionerID string, date time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.tx.NewSelect().
		Model(&rows).
		Where("practitioner_id = ?", practitionerID).
		Where("date = ?", domain.DateOnly(date)).
		Where("status = ?", domain.StatusScheduled).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
