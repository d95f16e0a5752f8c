package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"barbearia/backend/internal/domain"
	"barbearia/backend/internal/store"
)

// agendaLockKey serializes every agenda write for the shop. The shop has a
// single chair, so one advisory lock is enough; the exclusion constraint on
// appointments is the backstop.
const agendaLockKey = "barbearia:agenda"

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type agendaTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InAgendaTransaction(ctx, func(ctx context.Context, tx store.AgendaTx) error {
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

func (r *AppointmentRepo) ListBetween(ctx context.Context, windowStart, windowEnd time.Time, excludeCanceled bool) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().
		Model(&rows).
		Relation("Service").
		Where("appointment.start_time < ?", windowEnd).
		Where("appointment.end_time > ?", windowStart).
		OrderExpr("appointment.start_time ASC")
	if excludeCanceled {
		q = q.Where("appointment.status != ?", domain.AppointmentStatusCanceled)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListAll(ctx context.Context) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Service").
		OrderExpr("appointment.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InAgendaTransaction(ctx, func(ctx context.Context, tx store.AgendaTx) error {
		a, err := tx.UpdateAppointmentStatus(ctx, id, status)
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

func (r *AppointmentRepo) InAgendaTransaction(ctx context.Context, fn func(ctx context.Context, tx store.AgendaTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockAgenda(ctx, tx); err != nil {
			return err
		}
		return fn(ctx, agendaTx{tx: tx})
	})
}

func lockAgenda(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", agendaLockKey).Exec(ctx)
	return err
}

func (r agendaTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:          appt.ID,
		ClientName:  appt.ClientName,
		ClientPhone: appt.ClientPhone,
		ServiceID:   appt.ServiceID,
		StartTime:   appt.StartTime,
		EndTime:     appt.EndTime,
		Status:      appt.Status,
		CreatedAt:   appt.CreatedAt,
		UpdatedAt:   appt.UpdatedAt,
	}

	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23P01" && pgErr.ConstraintName == "appointments_no_overlap" {
				return domain.Appointment{}, store.ErrConflict
			}
			if pgErr.Code == "23505" {
				var existing domain.Appointment
				selectErr := r.tx.NewSelect().
					Model(&existing).
					Where("id = ?", m.ID).
					Limit(1).
					Scan(ctx)
				if selectErr != nil {
					return domain.Appointment{}, err
				}

				if existing.ClientName != appt.ClientName ||
					existing.ClientPhone != appt.ClientPhone ||
					existing.ServiceID != appt.ServiceID ||
					!existing.StartTime.Equal(appt.StartTime) ||
					!existing.EndTime.Equal(appt.EndTime) {
					return domain.Appointment{}, store.ErrIdempotencyConflict
				}

				return existing, nil
			}
		}
		return domain.Appointment{}, err
	}

	return m, nil
}

func (r agendaTx) ListAppointments(ctx context.Context, windowStart, windowEnd time.Time, excludeCanceled bool) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := r.tx.NewSelect().
		Model(&rows).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC")
	if excludeCanceled {
		q = q.Where("status != ?", domain.AppointmentStatusCanceled)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r agendaTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
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

func (r agendaTx) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	cur, err := r.GetAppointment(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if cur.Status == status {
		return cur, nil
	}
	if !cur.Status.CanTransitionTo(status) {
		return domain.Appointment{}, store.ErrInvalidTransition
	}

	cur.Status = status
	_, err = r.tx.NewUpdate().
		Model(&cur).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, err
	}
	return cur, nil
}
