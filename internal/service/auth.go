// Package service holds the development backend's business rules. Services
// depend on repository interfaces and know nothing about HTTP.
//
// AuthService (this file) owns everything about accounts:
//
//	AccountHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                      ↘ TokenService (JWT)  ↘ PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Sign in: check email and password, issue the token the client stores
//   - Sign up: validate the form, hash the password, insert the user
//   - Profile: rename, change email, change password behind old_password
//
// ONE ANSWER FOR BAD CREDENTIALS:
// An unknown email and a wrong password both return ErrInvalidCredentials.
// Different messages would tell an attacker which emails have accounts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/auth"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/repository"
	"github.com/sakif/gobarber/internal/validation"
)

// ErrInvalidCredentials is the single answer to a wrong email or password, so
// callers cannot probe which accounts exist.
var ErrInvalidCredentials = apperror.Unauthorized("Incorrect email/password combination.")

// AuthService registers users, signs them in and edits their profile.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository → read/write user records
//   - tokens     *auth.TokenService        → issue the JWT returned by SignIn
//   - passwords  *auth.PasswordService     → bcrypt hash and compare
//   - logger     *slog.Logger              → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService wires an AuthService. server.New calls it once; the same
// *sqlite.DB serves as the UserRepository here and in AppointmentService.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is what a successful sign-in returns. The handler writes it as
// {"token": ..., "user": ...}, the body the client's session store persists.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignIn checks the credentials and issues a token.
//
// Steps:
//  1. Validate the form (same rules as the client's sign-in screen)
//  2. Look the user up by normalised email
//  3. Compare the password with bcrypt
//  4. Issue a JWT whose subject is the user ID
//
// Steps 2 and 3 fail with the same ErrInvalidCredentials (401).
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := validation.Validate(validation.SignInForm{Email: email, Password: password}); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("sign in rejected", slog.String("userID", user.ID))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Register creates a customer account. A taken email yields ErrConflict.
func (s *AuthService) Register(ctx context.Context, form validation.SignUpForm) (*model.User, error) {
	return s.create(ctx, form, false)
}

// RegisterProvider creates a provider account; used for seeding.
//
// WHY NO HTTP ROUTE?
// POST /users only ever creates customers, like the GoBarber API the mobile
// app talks to. Providers come from Server.Seed.
func (s *AuthService) RegisterProvider(ctx context.Context, form validation.SignUpForm) (*model.User, error) {
	return s.create(ctx, form, true)
}

// create is shared by Register and RegisterProvider.
//
// Duplicate emails are detected by the UNIQUE index, not by a lookup first:
// a SELECT-then-INSERT would race two sign-ups with the same address. The
// repository maps the constraint failure to apperror.ErrConflict, which
// becomes a 409 with fields.email.
func (s *AuthService) create(ctx context.Context, form validation.SignUpForm, provider bool) (*model.User, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(form.Name),
		Email:        normalizeEmail(form.Email),
		PasswordHash: hash,
		IsProvider:   provider,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "Email address already used.", Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.Bool("provider", provider))
	return user, nil
}

// UpdateProfile saves name and email and, when OldPassword is given and
// correct, the new password.
//
// PASSWORD RULES:
//   - password without old_password    → 400 on old_password
//   - old_password that does not match → 400 on old_password
//   - old_password without password    → caught by validation (required)
//
// Moving to an email another account holds is a 409, the same as sign-up.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, form validation.ProfileForm) (*model.User, error) {
	if err := validation.Validate(form); err != nil {
		return nil, err
	}
	if form.Password != "" && !form.ChangesPassword() {
		return nil, apperror.ValidationFailed("old_password", "You need to inform the old password to set a new password.")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	if form.ChangesPassword() {
		if err := s.passwords.Verify(user.PasswordHash, form.OldPassword); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return nil, apperror.ValidationFailed("old_password", "Old password does not match.")
			}
			return nil, fmt.Errorf("service/auth: %w", err)
		}
		hash, err := s.passwords.Hash(form.Password)
		if err != nil {
			return nil, fmt.Errorf("service/auth: %w", err)
		}
		user.PasswordHash = hash
	}

	user.Name = strings.TrimSpace(form.Name)
	user.Email = normalizeEmail(form.Email)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{Err: apperror.ErrConflict, Message: "E-mail already in use.", Field: "email"}
		}
		return nil, fmt.Errorf("service/auth: updating user %s: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}

// GetUserByID returns the user or apperror.ErrNotFound.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID must not be empty")
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// normalizeEmail lower-cases and trims. The column is also COLLATE NOCASE;
// normalising here keeps stored values uniform for display.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
