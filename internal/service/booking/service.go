// Package booking holds the appointment flow: slot availability, booking and
// the admin agenda. All wall-clock reasoning happens in the shop's timezone;
// storage is UTC.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"barbearia/backend/internal/domain"
	"barbearia/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ShopClosedError is returned when the agenda is switched off. It carries the
// message the admin configured for the closed state.
type ShopClosedError struct {
	Message string
}

func (e *ShopClosedError) Error() string {
	if e.Message == "" {
		return "agenda is closed"
	}
	return e.Message
}

type Service struct {
	appointments store.AppointmentRepository
	catalog      store.CatalogRepository
	loc          *time.Location
	now          func() time.Time
}

func NewService(appointments store.AppointmentRepository, catalog store.CatalogRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		appointments: appointments,
		catalog:      catalog,
		loc:          loc,
		now:          time.Now,
	}
}

type AvailabilityResult struct {
	Date      string
	ServiceID uuid.UUID
	Slots     []string
}

// Availability returns the free "HH:MM" start times for a service on a day.
// The result is a snapshot: a returned slot can still lose the race at
// booking time and come back as a conflict.
func (s *Service) Availability(ctx context.Context, dateStr string, serviceID uuid.UUID) (AvailabilityResult, error) {
	date, err := parseDate(dateStr, s.loc)
	if err != nil {
		return AvailabilityResult{}, err
	}
	if serviceID == uuid.Nil {
		return AvailabilityResult{}, validationError("service_id is required")
	}

	cfg, err := s.shopOpen(ctx)
	if err != nil {
		return AvailabilityResult{}, err
	}

	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		return AvailabilityResult{}, err
	}
	if !svc.Active {
		return AvailabilityResult{}, store.ErrNotFound
	}

	occupied, err := s.occupiedOn(ctx, date)
	if err != nil {
		return AvailabilityResult{}, err
	}

	slots, err := domain.ComputeAvailableSlots(domain.AvailabilityInput{
		Date:            date,
		OpeningTime:     cfg.OpeningTime,
		DurationMinutes: svc.DurationMinutes,
		Occupied:        occupied,
		Now:             s.now(),
		Location:        s.loc,
	})
	if err != nil {
		return AvailabilityResult{}, err
	}

	return AvailabilityResult{Date: dateStr, ServiceID: serviceID, Slots: slots}, nil
}

type BookInput struct {
	ClientName     string
	ClientPhone    string
	ServiceID      uuid.UUID
	Date           string
	Time           string
	IdempotencyKey string
}

// Book creates a pending appointment at Date/Time in the shop timezone. The
// slot is not reserved in advance; the store's conflict-checked insert
// decides who wins when two clients race for the same window.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return domain.Appointment{}, validationError("client_name is required")
	}
	phone := strings.TrimSpace(in.ClientPhone)
	if phone == "" {
		return domain.Appointment{}, validationError("client_phone is required")
	}
	if in.ServiceID == uuid.Nil {
		return domain.Appointment{}, validationError("service_id is required")
	}
	date, err := parseDate(in.Date, s.loc)
	if err != nil {
		return domain.Appointment{}, err
	}
	hour, minute, err := domain.ParseClock(in.Time)
	if err != nil {
		return domain.Appointment{}, validationError("time must be HH:MM")
	}

	if _, err := s.shopOpen(ctx); err != nil {
		return domain.Appointment{}, err
	}

	svc, err := s.catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !svc.Active {
		return domain.Appointment{}, store.ErrNotFound
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, s.loc)
	if !start.After(s.now()) {
		return domain.Appointment{}, validationError("time is in the past")
	}

	appt := domain.Appointment{
		ClientName:  name,
		ClientPhone: phone,
		ServiceID:   svc.ID,
		StartTime:   start.UTC(),
		EndTime:     start.Add(svc.Duration()).UTC(),
		Status:      domain.AppointmentStatusPending,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.Appointment{}, validationError("idempotency_key too long")
		}
		appt.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("barbearia:book:"+key))
	}

	return s.appointments.Create(ctx, appt)
}

// UpdateStatus moves an appointment along its lifecycle. Illegal transitions
// come back from the store as ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if !status.Valid() {
		return domain.Appointment{}, validationError(fmt.Sprintf("unknown status %q", status))
	}
	return s.appointments.UpdateStatus(ctx, id, status)
}

// AgendaForDay lists every appointment of a day for the admin view, canceled
// ones included.
func (s *Service) AgendaForDay(ctx context.Context, dateStr string) ([]domain.Appointment, error) {
	date, err := parseDate(dateStr, s.loc)
	if err != nil {
		return nil, err
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	return s.appointments.ListBetween(ctx, dayStart.UTC(), dayEnd.UTC(), false)
}

func (s *Service) AgendaAll(ctx context.Context) ([]domain.Appointment, error) {
	return s.appointments.ListAll(ctx)
}

// shopOpen loads the shop config and fails with ShopClosedError when the
// agenda is switched off. It runs before any slot or service lookup so a
// closed shop never leaks agenda details.
func (s *Service) shopOpen(ctx context.Context) (domain.ShopConfig, error) {
	cfg, err := s.catalog.GetShopConfig(ctx)
	if err != nil {
		return domain.ShopConfig{}, err
	}
	if !cfg.AgendaOpen {
		return domain.ShopConfig{}, &ShopClosedError{Message: cfg.ClosedMessage}
	}
	return cfg, nil
}

// occupiedOn returns the day's blocked windows, canceled appointments
// excluded. The day window is widened by a day on each side so an
// appointment spilling past midnight still blocks its slots.
func (s *Service) occupiedOn(ctx context.Context, date time.Time) ([]domain.OccupiedInterval, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	windowStart := dayStart.AddDate(0, 0, -1)
	windowEnd := dayStart.AddDate(0, 0, 2)

	appts, err := s.appointments.ListBetween(ctx, windowStart.UTC(), windowEnd.UTC(), true)
	if err != nil {
		return nil, err
	}

	occupied := make([]domain.OccupiedInterval, 0, len(appts))
	for _, appt := range appts {
		occupied = append(occupied, domain.OccupiedInterval{
			Start: appt.StartTime,
			End:   appt.EndTime,
		})
	}
	return occupied, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, validationError("date must be YYYY-MM-DD")
	}
	return date, nil
}
