// Package repository defines the persistence interfaces of the development
// backend. Services depend on these interfaces; internal/repository/sqlite
// implements them.
package repository

import (
	"context"
	"time"

	"github.com/sakif/gobarber/internal/model"
)

// UserRepository stores accounts. Providers are users with IsProvider set.
type UserRepository interface {
	// CreateUser assigns ID and timestamps. A taken email yields apperror.ErrConflict.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateUser saves name, email, avatar and password hash.
	UpdateUser(ctx context.Context, user *model.User) error
	// ListProviders returns every provider except exceptID, ordered by name.
	ListProviders(ctx context.Context, exceptID string) ([]model.User, error)
}

// AppointmentRepository stores bookings.
type AppointmentRepository interface {
	// CreateAppointment assigns ID and CreatedAt. A provider can hold one
	// appointment per instant; a second one yields apperror.ErrConflict.
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
	// ListProviderAppointments returns the provider's appointments in [from, to).
	ListProviderAppointments(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error)
}
