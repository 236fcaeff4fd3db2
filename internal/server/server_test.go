package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gobarber/internal/account"
	"github.com/sakif/gobarber/internal/api"
	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/auth"
	"github.com/sakif/gobarber/internal/config"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/navigation"
	"github.com/sakif/gobarber/internal/scheduling"
	"github.com/sakif/gobarber/internal/service"
	"github.com/sakif/gobarber/internal/session"
	"github.com/sakif/gobarber/internal/storage/sqlite"
	"github.com/sakif/gobarber/internal/validation"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

// 2024-03-01 is a Friday; the backend clock sits at 10:30.
var (
	march1   = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fixedNow = time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)
)

func testConfig() config.Server {
	return config.Server{
		Port:       0,
		DBPath:     ":memory:",
		JWTSecret:  "test-secret-with-enough-bytes",
		TokenTTL:   time.Hour,
		LoginRate:  100,
		LoginBurst: 100,
	}
}

func newTestServer(t *testing.T, cfg config.Server) (*Server, *httptest.Server) {
	t.Helper()

	srv, err := New(cfg, testLogger,
		WithPasswordService(auth.NewPasswordServiceForTest()),
		WithAppointmentOptions(
			service.WithLocation(time.UTC),
			service.WithNow(func() time.Time { return fixedNow }),
		),
	)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

// ===== COMPOSITION =====

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "short"

	_, err := New(cfg, testLogger)
	require.Error(t, err)
}

func TestSeed_IsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	ctx := context.Background()

	require.NoError(t, srv.Seed(ctx))
	require.NoError(t, srv.Seed(ctx))

	providers, err := srv.Appointments.ListProviders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, providers, len(demoProviders))
}

// ===== ROUTES =====

func TestProtectedRoutes_RequireToken(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	for _, path := range []string{"/providers", "/providers/abc/day-availability?year=2024&month=3&day=1"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestSessions_RateLimitedPerClient(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRate = 0.01
	cfg.LoginBurst = 1
	_, ts := newTestServer(t, cfg)

	post := func() int {
		resp, err := http.Post(ts.URL+"/sessions", "application/json",
			strings.NewReader(`{"email":"nobody@example.com","password":"123456"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, err := http.Get(ts.URL + "/providers")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gobarber_http_requests_total{method="GET",route="/providers",status="401"} 1`)
}

// ===== CLIENT AGAINST BACKEND =====

type clientFixture struct {
	sessions *session.Store
	accounts *account.Service
	nav      *navigation.Recorder
}

func newClient(t *testing.T, baseURL string) *clientFixture {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client, err := api.New(baseURL, api.WithTimeout(5*time.Second), api.WithLogger(testLogger))
	require.NoError(t, err)

	sessions := session.New(st, client, testLogger)
	require.NoError(t, sessions.Restore(context.Background()))
	require.Equal(t, session.Unauthenticated, sessions.State())

	nav := navigation.NewRecorder(navigation.RouteSignIn, testLogger)
	return &clientFixture{
		sessions: sessions,
		accounts: account.NewService(sessions, nav, testLogger),
		nav:      nav,
	}
}

func providerID(t *testing.T, providers []model.Provider, name string) string {
	t.Helper()
	for _, p := range providers {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("provider %q not listed", name)
	return ""
}

func TestClient_SignUpSignInAndBook(t *testing.T) {
	srv, ts := newTestServer(t, testConfig())
	ctx := context.Background()
	require.NoError(t, srv.Seed(ctx))

	c := newClient(t, ts.URL)

	_, err := c.accounts.SignUp(ctx, validation.SignUpForm{Name: "Ana", Email: "ana@example.com", Password: "123456"})
	require.NoError(t, err)

	err = c.accounts.SignIn(ctx, validation.SignInForm{Email: "ANA@example.com", Password: "123456"})
	require.NoError(t, err)
	require.Equal(t, session.Authenticated, c.sessions.State())

	gw, err := c.sessions.Gateway()
	require.NoError(t, err)

	providers, err := scheduling.NewDashboard(gw, c.nav).Providers(ctx)
	require.NoError(t, err)
	require.Len(t, providers, len(demoProviders))
	carla := providerID(t, providers, "Carla Barbosa")

	wf := scheduling.New(gw, c.nav, testLogger, scheduling.WithProvider(carla), scheduling.WithDate(march1))
	require.NoError(t, wf.Mount(ctx))

	slots := wf.Slots()
	require.Len(t, slots, service.CloseHour-service.OpenHour+1)
	for _, s := range slots {
		assert.Equal(t, s.Hour > 10, s.Available, "hour %d", s.Hour)
	}

	require.NoError(t, wf.SelectHour(14))
	conf, err := wf.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 1, 14, 0, 0, 0, time.UTC), conf.Date)
	assert.Equal(t, "sexta-feira, dia 01 de março de 2024 às 14:00h", conf.Text())

	again := scheduling.New(gw, c.nav, testLogger, scheduling.WithProvider(carla), scheduling.WithDate(march1))
	require.NoError(t, again.Mount(ctx))
	for _, s := range again.Slots() {
		if s.Hour == 14 {
			assert.False(t, s.Available, "booked hour should be unavailable")
		}
	}

	_, err = gw.CreateAppointment(ctx, carla, conf.Date)
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestClient_UpdateProfileAndSessionSurvivesRestart(t *testing.T) {
	_, ts := newTestServer(t, testConfig())
	ctx := context.Background()

	dir := t.TempDir()
	path := dir + "/storage.db"

	open := func() *session.Store {
		st, err := sqlite.New(path)
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })

		client, err := api.New(ts.URL, api.WithLogger(testLogger))
		require.NoError(t, err)

		s := session.New(st, client, testLogger)
		require.NoError(t, s.Restore(ctx))
		return s
	}

	first := open()
	nav := navigation.NewRecorder(navigation.RouteSignIn, testLogger)
	accounts := account.NewService(first, nav, testLogger)

	_, err := accounts.SignUp(ctx, validation.SignUpForm{Name: "Bruno", Email: "bruno@example.com", Password: "123456"})
	require.NoError(t, err)
	require.NoError(t, accounts.SignIn(ctx, validation.SignInForm{Email: "bruno@example.com", Password: "123456"}))

	updated, err := accounts.UpdateProfile(ctx, validation.ProfileForm{
		Name:                 "Bruno Souza",
		Email:                "bruno@example.com",
		OldPassword:          "123456",
		Password:             "654321",
		PasswordConfirmation: "654321",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bruno Souza", updated.Name)

	second := open()
	require.Equal(t, session.Authenticated, second.State())
	sess, ok := second.Session()
	require.True(t, ok)
	assert.Equal(t, "Bruno Souza", sess.Identity.Name)

	require.NoError(t, account.NewService(second, nav, testLogger).SignOut(ctx))

	third := open()
	assert.Equal(t, session.Unauthenticated, third.State())
	err = account.NewService(third, nav, testLogger).SignIn(ctx, validation.SignInForm{Email: "bruno@example.com", Password: "123456"})
	assert.ErrorIs(t, err, apperror.ErrAuthentication)
}
