package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/auth"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/service"
	"github.com/sakif/gobarber/internal/validation"
)

// AccountService is the part of service.AuthService the account routes use.
type AccountService interface {
	SignIn(ctx context.Context, email, password string) (*service.AuthResult, error)
	Register(ctx context.Context, form validation.SignUpForm) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, form validation.ProfileForm) (*model.User, error)
}

// AccountHandler serves POST /sessions, POST /users and PUT /profile.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewAccountHandler returns a handler backed by accounts.
func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

type sessionResponse struct {
	Token string         `json:"token"`
	User  model.Identity `json:"user"`
}

type profileResponse struct {
	User model.Identity `json:"user"`
}

// HandleCreateSession signs a user in and returns {token, user}.
func (h *AccountHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body validation.SignInForm
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.accounts.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: res.Token, User: res.User.Identity()})
}

// HandleCreateUser registers a customer and returns their identity.
func (h *AccountHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var body validation.SignUpForm
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user.Identity())
}

// HandleUpdateProfile updates the caller and returns {user}.
func (h *AccountHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("JWT token is missing or invalid"))
		return
	}

	var body validation.ProfileForm
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.accounts.UpdateProfile(r.Context(), userID, body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user.Identity()})
}
