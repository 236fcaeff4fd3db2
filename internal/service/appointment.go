package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/repository"
)

// Working hours: one slot per hour from OpenHour to CloseHour inclusive.
const (
	OpenHour  = 8
	CloseHour = 17
)

// AppointmentService lists providers, computes day availability and books
// appointments. Hours are interpreted in the service's location.
type AppointmentService struct {
	users  repository.UserRepository
	appts  repository.AppointmentRepository
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// AppointmentOption customises an AppointmentService.
type AppointmentOption func(*AppointmentService)

// WithLocation sets the time zone working hours are expressed in.
func WithLocation(loc *time.Location) AppointmentOption {
	return func(s *AppointmentService) { s.loc = loc }
}

// WithNow replaces the clock.
func WithNow(now func() time.Time) AppointmentOption {
	return func(s *AppointmentService) { s.now = now }
}

// NewAppointmentService defaults to time.Local and time.Now; see the options.
func NewAppointmentService(
	users repository.UserRepository,
	appts repository.AppointmentRepository,
	logger *slog.Logger,
	opts ...AppointmentOption,
) *AppointmentService {
	s := &AppointmentService{
		users:  users,
		appts:  appts,
		logger: logger,
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProviders returns every provider except the caller.
func (s *AppointmentService) ListProviders(ctx context.Context, callerID string) ([]model.Provider, error) {
	users, err := s.users.ListProviders(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("service/appointment: listing providers: %w", err)
	}

	providers := make([]model.Provider, 0, len(users))
	for _, u := range users {
		providers = append(providers, model.Provider{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL})
	}
	return providers, nil
}

// DayAvailability returns one slot per working hour of the given day. A slot
// is unavailable when it is booked or already over.
func (s *AppointmentService) DayAvailability(ctx context.Context, providerID string, year, month, day int) ([]model.DayAvailabilitySlot, error) {
	start, err := s.dayStart(year, month, day)
	if err != nil {
		return nil, err
	}
	if _, err := s.provider(ctx, providerID); err != nil {
		return nil, err
	}

	booked, err := s.appts.ListProviderAppointments(ctx, providerID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("service/appointment: listing appointments: %w", err)
	}
	taken := make(map[int]bool, len(booked))
	for _, a := range booked {
		taken[a.Date.In(s.loc).Hour()] = true
	}

	now := s.now()
	slots := make([]model.DayAvailabilitySlot, 0, CloseHour-OpenHour+1)
	for hour := OpenHour; hour <= CloseHour; hour++ {
		at := time.Date(year, time.Month(month), day, hour, 0, 0, 0, s.loc)
		slots = append(slots, model.DayAvailabilitySlot{
			Hour:      hour,
			Available: !taken[hour] && at.After(now),
		})
	}
	return slots, nil
}

// Create books the hour containing date for callerID with providerID.
func (s *AppointmentService) Create(ctx context.Context, callerID, providerID string, date time.Time) (*model.Appointment, error) {
	if providerID == "" {
		return nil, apperror.ValidationFailed("provider_id", "provider_id is required")
	}
	if date.IsZero() {
		return nil, apperror.ValidationFailed("date", "date is required")
	}
	if callerID == providerID {
		return nil, apperror.ValidationFailed("provider_id", "You can't create an appointment with yourself.")
	}

	local := date.In(s.loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, s.loc)

	if !at.After(s.now()) {
		return nil, apperror.ValidationFailed("date", "You can't create an appointment on a past date.")
	}
	if at.Hour() < OpenHour || at.Hour() > CloseHour {
		return nil, apperror.ValidationFailed("date", fmt.Sprintf("You can only create appointments between %02d:00 and %02d:00.", OpenHour, CloseHour))
	}
	if _, err := s.provider(ctx, providerID); err != nil {
		return nil, err
	}

	appt := &model.Appointment{ProviderID: providerID, UserID: callerID, Date: at}
	if err := s.appts.CreateAppointment(ctx, appt); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "This appointment is already booked.", Field: "date"}
		}
		return nil, fmt.Errorf("service/appointment: creating appointment: %w", err)
	}

	s.logger.Info("appointment created",
		slog.String("appointmentID", appt.ID),
		slog.String("providerID", providerID),
		slog.String("userID", callerID),
		slog.Time("date", at),
	)
	return appt, nil
}

func (s *AppointmentService) provider(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("provider", id)
		}
		return nil, fmt.Errorf("service/appointment: fetching provider %s: %w", id, err)
	}
	if !u.IsProvider {
		return nil, apperror.NotFound("provider", id)
	}
	return u, nil
}

func (s *AppointmentService) dayStart(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, apperror.ValidationFailed("month", "month must be between 1 and 12")
	}
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.loc)
	if start.Year() != year || int(start.Month()) != month || start.Day() != day {
		return time.Time{}, apperror.ValidationFailed("day", fmt.Sprintf("%04d-%02d-%02d is not a valid date", year, month, day))
	}
	return start, nil
}
