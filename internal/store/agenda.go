package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"barbearia/backend/internal/domain"
)

// AgendaTx is the appointment surface available inside a serialized agenda
// transaction.
type AgendaTx interface {
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	ListAppointments(ctx context.Context, windowStart, windowEnd time.Time, excludeCanceled bool) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error)
}
