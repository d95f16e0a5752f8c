package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"barbearia/backend/internal/domain"
)

type AppointmentRepository interface {
	// Create re-checks the appointment's window against the agenda
	// atomically with the insert and returns ErrConflict when it overlaps.
	// The availability computation is advisory and is never trusted here.
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	// ListBetween returns appointments intersecting the half-open window
	// [windowStart, windowEnd), ascending by start time. When
	// excludeCanceled is set, canceled appointments are filtered out so the
	// result can be used directly as the occupied set.
	ListBetween(ctx context.Context, windowStart, windowEnd time.Time, excludeCanceled bool) ([]domain.Appointment, error)
	ListAll(ctx context.Context) ([]domain.Appointment, error)
	// UpdateStatus applies a status transition, validating it against the
	// current row inside the same transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)
}
