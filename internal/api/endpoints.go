package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/model"
)

// SignUpRequest is the body of POST /users.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest is the body of PUT /profile. The password fields are only
// sent when the user is changing their password.
type ProfileRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	OldPassword          string `json:"old_password,omitempty"`
	Password             string `json:"password,omitempty"`
	PasswordConfirmation string `json:"password_confirmation,omitempty"`
}

type sessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type appointmentRequest struct {
	ProviderID string    `json:"provider_id"`
	Date       time.Time `json:"date"`
}

type profileResponse struct {
	User model.Identity `json:"user"`
}

// CreateSession exchanges credentials for a token (POST /sessions).
// Rejected credentials come back as apperror.ErrAuthentication.
func (c *Client) CreateSession(ctx context.Context, email, password string) (*model.Session, error) {
	var out model.Session
	_, err := c.do(ctx, http.MethodPost, "/sessions", nil, sessionRequest{Email: email, Password: password}, &out)
	if err != nil {
		switch statusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, &apperror.AppError{
				Err:     apperror.ErrAuthentication,
				Message: "invalid email/password combination",
				Status:  statusOf(err),
				Cause:   err,
			}
		}
		return nil, fmt.Errorf("api: creating session: %w", err)
	}
	if out.Token == "" || out.Identity.ID == "" {
		return nil, apperror.Network(http.StatusOK, "session response is missing token or user", nil)
	}
	return &out, nil
}

// CreateUser registers a new account (POST /users).
func (c *Client) CreateUser(ctx context.Context, req SignUpRequest) (*model.Identity, error) {
	var out model.Identity
	if _, err := c.do(ctx, http.MethodPost, "/users", nil, req, &out); err != nil {
		return nil, fmt.Errorf("api: creating user: %w", err)
	}
	return &out, nil
}

// UpdateProfile updates the signed-in user's profile (PUT /profile).
func (c *Client) UpdateProfile(ctx context.Context, req ProfileRequest) (*model.Identity, error) {
	var out profileResponse
	if _, err := c.do(ctx, http.MethodPut, "/profile", nil, req, &out); err != nil {
		return nil, fmt.Errorf("api: updating profile: %w", err)
	}
	return &out.User, nil
}

// ListProviders fetches all providers (GET /providers). Only a 200 response
// counts as a result.
func (c *Client) ListProviders(ctx context.Context) ([]model.Provider, error) {
	var out []model.Provider
	status, err := c.do(ctx, http.MethodGet, "/providers", nil, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("api: listing providers: %w", err)
	}
	if status != http.StatusOK {
		return nil, apperror.Network(status, fmt.Sprintf("listing providers: unexpected status %d", status), nil)
	}
	if out == nil {
		out = []model.Provider{}
	}
	return out, nil
}

// DayAvailability fetches the hourly availability of providerID on the calendar
// day of date (GET /providers/{id}/day-availability). Month is 1-based.
func (c *Client) DayAvailability(ctx context.Context, providerID string, date time.Time) ([]model.DayAvailabilitySlot, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(date.Year()))
	q.Set("month", strconv.Itoa(int(date.Month())))
	q.Set("day", strconv.Itoa(date.Day()))

	var out []model.DayAvailabilitySlot
	path := "/providers/" + url.PathEscape(providerID) + "/day-availability"
	if _, err := c.do(ctx, http.MethodGet, path, q, nil, &out); err != nil {
		return nil, fmt.Errorf("api: fetching availability for provider %s: %w", providerID, err)
	}
	if out == nil {
		out = []model.DayAvailabilitySlot{}
	}
	return out, nil
}

// CreateAppointment books providerID at date (POST /appointments).
func (c *Client) CreateAppointment(ctx context.Context, providerID string, date time.Time) (*model.Appointment, error) {
	var out model.Appointment
	if _, err := c.do(ctx, http.MethodPost, "/appointments", nil,
		appointmentRequest{ProviderID: providerID, Date: date}, &out); err != nil {
		return nil, fmt.Errorf("api: creating appointment: %w", err)
	}
	return &out, nil
}
