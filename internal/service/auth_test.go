package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/validation"
)

func registerAna(t *testing.T, svc *AuthService) string {
	t.Helper()
	u, err := svc.Register(context.Background(), validation.SignUpForm{
		Name: "Ana", Email: "Ana@Example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return u.ID
}

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	id := registerAna(t, svc)

	stored := repo.users[id]
	if stored.Email != "ana@example.com" {
		t.Errorf("Email = %q, want it lowercased", stored.Email)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", stored.PasswordHash)
	}
	if stored.IsProvider {
		t.Error("Register() created a provider")
	}
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name   string
		form   validation.SignUpForm
		target error
	}{
		{"short password", validation.SignUpForm{Name: "Bruno", Email: "b@example.com", Password: "123"}, apperror.ErrValidation},
		{"missing name", validation.SignUpForm{Email: "b@example.com", Password: "123456"}, apperror.ErrValidation},
		{"duplicate email", validation.SignUpForm{Name: "Ana 2", Email: "ana@example.com", Password: "123456"}, apperror.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, newFakeUserRepo())
			registerAna(t, svc)

			_, err := svc.Register(context.Background(), tt.form)
			if !errors.Is(err, tt.target) {
				t.Fatalf("Register() error = %v, want %v", err, tt.target)
			}
		})
	}
}

// =========================================================================
// SIGN IN
// =========================================================================

func TestSignIn(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	id := registerAna(t, svc)

	res, err := svc.SignIn(context.Background(), "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if res.User.ID != id {
		t.Errorf("User.ID = %q, want %q", res.User.ID, id)
	}

	subject, err := newTestTokens(t).Validate(res.Token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if subject != id {
		t.Errorf("token subject = %q, want %q", subject, id)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	registerAna(t, svc)

	for _, tc := range []struct{ email, password string }{
		{"ana@example.com", "wrong-password"},
		{"nobody@example.com", "secret1"},
	} {
		_, err := svc.SignIn(context.Background(), tc.email, tc.password)
		if !errors.Is(err, ErrInvalidCredentials) || !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("SignIn(%s) error = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}
}

func TestSignIn_RepositoryFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	boom := errors.New("disk on fire")
	repo.getErr = boom

	_, err := svc.SignIn(context.Background(), "ana@example.com", "secret1")
	if !errors.Is(err, boom) {
		t.Fatalf("SignIn() error = %v, want the repository error", err)
	}
}

// =========================================================================
// PROFILE
// =========================================================================

func TestUpdateProfile_NameAndEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	id := registerAna(t, svc)
	oldHash := repo.users[id].PasswordHash

	u, err := svc.UpdateProfile(context.Background(), id, validation.ProfileForm{Name: "Ana Maria", Email: "ana.maria@example.com"})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if u.Name != "Ana Maria" || u.Email != "ana.maria@example.com" {
		t.Errorf("UpdateProfile() = %+v", u)
	}
	if repo.users[id].PasswordHash != oldHash {
		t.Error("password changed without old_password")
	}
}

func TestUpdateProfile_PasswordChange(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)
	id := registerAna(t, svc)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, id, validation.ProfileForm{
		Name: "Ana", Email: "ana@example.com",
		OldPassword: "secret1", Password: "secret2", PasswordConfirmation: "secret2",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}

	if _, err := svc.SignIn(ctx, "ana@example.com", "secret2"); err != nil {
		t.Errorf("SignIn() with the new password error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "ana@example.com", "secret1"); err == nil {
		t.Error("SignIn() with the old password should fail")
	}
}

func TestUpdateProfile_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		form      validation.ProfileForm
		wantField string
		target    error
	}{
		{
			name:      "wrong old password",
			form:      validation.ProfileForm{Name: "Ana", Email: "ana@example.com", OldPassword: "nope", Password: "secret2", PasswordConfirmation: "secret2"},
			wantField: "old_password",
			target:    apperror.ErrValidation,
		},
		{
			name:      "new password without old one",
			form:      validation.ProfileForm{Name: "Ana", Email: "ana@example.com", Password: "secret2", PasswordConfirmation: "secret2"},
			wantField: "old_password",
			target:    apperror.ErrValidation,
		},
		{
			name:      "email of another user",
			form:      validation.ProfileForm{Name: "Ana", Email: "bruno@example.com"},
			wantField: "email",
			target:    apperror.ErrConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, newFakeUserRepo())
			id := registerAna(t, svc)
			if _, err := svc.Register(context.Background(), validation.SignUpForm{Name: "Bruno", Email: "bruno@example.com", Password: "123456"}); err != nil {
				t.Fatalf("Register() error = %v", err)
			}

			_, err := svc.UpdateProfile(context.Background(), id, tt.form)

			if !errors.Is(err, tt.target) {
				t.Fatalf("UpdateProfile() error = %v, want %v", err, tt.target)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Field != tt.wantField {
				t.Errorf("UpdateProfile() field = %v, want %q", appErr, tt.wantField)
			}
		})
	}
}

func TestGetUserByID(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())
	id := registerAna(t, svc)

	if u, err := svc.GetUserByID(context.Background(), id); err != nil || u.ID != id {
		t.Errorf("GetUserByID() = %v, %v", u, err)
	}
	if _, err := svc.GetUserByID(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetUserByID(\"\") error = %v, want ErrValidation", err)
	}
	if _, err := svc.GetUserByID(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
}
