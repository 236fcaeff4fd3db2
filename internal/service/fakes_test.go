package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/auth"
	"github.com/sakif/gobarber/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	nextID int
	// set to a non-nil error to simulate a database failure
	getErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("user", user.Email)
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	for id, u := range f.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return apperror.Conflict("user", user.Email)
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) ListProviders(ctx context.Context, exceptID string) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, u := range f.users {
		if u.IsProvider && u.ID != exceptID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeAppointmentRepo is an in-memory repository.AppointmentRepository.
type fakeAppointmentRepo struct {
	mu    sync.Mutex
	appts []model.Appointment
}

func (f *fakeAppointmentRepo) CreateAppointment(ctx context.Context, appt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.ProviderID == appt.ProviderID && a.Date.Equal(appt.Date) {
			return apperror.Conflict("appointment", appt.Date.String())
		}
	}
	appt.ID = fmt.Sprintf("appt-%d", len(f.appts)+1)
	appt.CreatedAt = time.Now()
	f.appts = append(f.appts, *appt)
	return nil
}

func (f *fakeAppointmentRepo) ListProviderAppointments(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Appointment{}
	for _, a := range f.appts {
		if a.ProviderID == providerID && !a.Date.Before(from) && a.Date.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	return NewAuthService(repo, newTestTokens(t), auth.NewPasswordServiceForTest(), testLogger())
}
