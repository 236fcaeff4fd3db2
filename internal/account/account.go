// Package account holds the sign-in, sign-up and profile flows. Each flow
// validates its form, talks to the gateway and tells the navigator where to
// go next.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/gobarber/internal/api"
	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/navigation"
	"github.com/sakif/gobarber/internal/session"
	"github.com/sakif/gobarber/internal/validation"
)

// Service runs the account flows against the session store and navigator.
type Service struct {
	sessions *session.Store
	nav      navigation.Navigator
	logger   *slog.Logger
}

// NewService returns a Service bound to sessions and nav.
func NewService(sessions *session.Store, nav navigation.Navigator, logger *slog.Logger) *Service {
	return &Service{sessions: sessions, nav: nav, logger: logger}
}

// SignIn validates the form and signs in through the session store.
func (s *Service) SignIn(ctx context.Context, form validation.SignInForm) error {
	if err := validation.Validate(form); err != nil {
		return err
	}
	return s.sessions.SignIn(ctx, form.Email, form.Password)
}

// SignUp registers a new user and returns to the previous screen. The user is
// not signed in; they sign in with the new credentials afterwards.
func (s *Service) SignUp(ctx context.Context, form validation.SignUpForm) (*model.Identity, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	user, err := s.sessions.Client().CreateUser(ctx, api.SignUpRequest{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		s.logger.Warn("sign up failed", slog.String("email", form.Email), slog.String("error", err.Error()))
		return nil, fmt.Errorf("account: signing up: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))
	s.nav.GoBack()
	return user, nil
}

// UpdateProfile saves name and email, and the password when OldPassword is
// set. The returned identity replaces the one held by the session store.
func (s *Service) UpdateProfile(ctx context.Context, form validation.ProfileForm) (*model.Identity, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	gw, err := s.sessions.Gateway()
	if err != nil {
		return nil, err
	}

	req := api.ProfileRequest{Name: form.Name, Email: form.Email}
	if form.ChangesPassword() {
		req.OldPassword = form.OldPassword
		req.Password = form.Password
		req.PasswordConfirmation = form.PasswordConfirmation
	}

	user, err := gw.UpdateProfile(ctx, req)
	if err != nil {
		s.logger.Warn("profile update failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("account: updating profile: %w", err)
	}

	if err := s.sessions.UpdateIdentity(ctx, *user); err != nil {
		return nil, fmt.Errorf("account: updating profile: %w", err)
	}

	s.nav.GoBack()
	return user, nil
}

// SignOut ends the session and resets navigation to the sign-in screen.
func (s *Service) SignOut(ctx context.Context) error {
	err := s.sessions.SignOut(ctx)
	s.nav.Reset(navigation.RouteSignIn)
	return err
}

// Feedback is what a screen shows after a failed flow: messages next to
// fields, or a single alert.
type Feedback struct {
	Fields  validation.Errors
	Message string
}

// Explain turns a flow error into Feedback. Nil yields the zero Feedback.
func Explain(err error) Feedback {
	if err == nil {
		return Feedback{}
	}
	if fields := validation.FieldErrors(err); fields != nil {
		return Feedback{Fields: fields}
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Status == http.StatusConflict {
		return Feedback{Message: "This email is already in use."}
	}
	return Feedback{Message: apperror.UserMessage(err)}
}
