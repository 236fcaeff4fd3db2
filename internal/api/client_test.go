package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/model"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:3333/api")
	assert.Error(t, err)

	_, err = New("/relative")
	assert.True(t, errors.Is(err, apperror.ErrConfiguration))
}

func TestCreateSession(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/sessions", r.URL.Path)
			assert.Empty(t, r.Header.Get("Authorization"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ana@example.com", body["email"])
			assert.Equal(t, "secret1", body["password"])

			writeJSON(w, http.StatusOK, map[string]any{
				"token": "tok-1",
				"user":  map[string]string{"id": "u1", "name": "Ana", "email": "ana@example.com", "avatar_url": "http://a/1.png"},
			})
		}))

		s, err := c.CreateSession(context.Background(), "ana@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "tok-1", s.Token)
		assert.Equal(t, model.Identity{ID: "u1", Name: "Ana", Email: "ana@example.com", AvatarURL: "http://a/1.png"}, s.Identity)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "Incorrect email/password combination."})
		}))

		_, err := c.CreateSession(context.Background(), "ana@example.com", "wrong")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrAuthentication))
	})

	t.Run("server error is a network error", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := c.CreateSession(context.Background(), "ana@example.com", "x")
		assert.True(t, errors.Is(err, apperror.ErrNetwork))
		assert.False(t, errors.Is(err, apperror.ErrAuthentication))
	})

	t.Run("missing token", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "u1"}})
		}))

		_, err := c.CreateSession(context.Background(), "ana@example.com", "x")
		assert.True(t, errors.Is(err, apperror.ErrNetwork))
	})
}

func TestWithToken_InjectsBearerPerRequest(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, []model.Provider{})
	}))

	authed := c.WithToken("tok-1")
	other := c.WithToken("tok-2")

	_, err := authed.ListProviders(context.Background())
	require.NoError(t, err)
	_, err = other.ListProviders(context.Background())
	require.NoError(t, err)
	_, err = c.ListProviders(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-2", ""}, seen)
	assert.True(t, authed.Authorized())
	assert.False(t, c.Authorized())
}

func TestListProviders_PreservesOrder(t *testing.T) {
	want := []model.Provider{
		{ID: "p3", Name: "Carla"},
		{ID: "p1", Name: "Bruno"},
		{ID: "p2", Name: "Ana"},
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, want)
	}))

	got, err := c.ListProviders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListProviders_Non200IsError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, []model.Provider{{ID: "p1"}})
	}))

	_, err := c.ListProviders(context.Background())
	assert.True(t, errors.Is(err, apperror.ErrNetwork))
}

func TestDayAvailability_Query(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/providers/p-1/day-availability", r.URL.Path)
		assert.Equal(t, "2024", r.URL.Query().Get("year"))
		assert.Equal(t, "3", r.URL.Query().Get("month"))
		assert.Equal(t, "1", r.URL.Query().Get("day"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"hour":8,"available":true},{"hour":9,"available":false}]`))
	}))

	slots, err := c.DayAvailability(context.Background(), "p-1", time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []model.DayAvailabilitySlot{{Hour: 8, Available: true}, {Hour: 9}}, slots)
}

func TestDayAvailability_EscapesProviderIDOnce(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/providers/a b/c/day-availability", r.URL.Path)
		assert.Equal(t, "/providers/a%20b%2Fc/day-availability", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, []model.DayAvailabilitySlot{})
	}))

	_, err := c.DayAvailability(context.Background(), "a b/c", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
}

func TestCreateAppointment(t *testing.T) {
	date := time.Date(2024, time.March, 1, 14, 0, 0, 0, time.UTC)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProviderID string    `json:"provider_id"`
			Date       time.Time `json:"date"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p-1", body.ProviderID)
		assert.True(t, body.Date.Equal(date))
		writeJSON(w, http.StatusOK, model.Appointment{ID: "a1", ProviderID: body.ProviderID, Date: body.Date})
	}))

	a, err := c.CreateAppointment(context.Background(), "p-1", date)
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
}

func TestValidationErrorResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation_error",
			"message": "email already in use",
			"fields":  map[string]string{"email": "email already in use"},
		})
	}))

	_, err := c.CreateUser(context.Background(), SignUpRequest{Name: "A", Email: "a@b.c", Password: "123456"})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "email", appErr.Field)
}

func TestUpdateProfile_OmitsEmptyPasswordFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasOld := body["old_password"]
		assert.False(t, hasOld)
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]string{"id": "u1", "name": body["name"].(string)}})
	}))

	id, err := c.WithToken("tok").UpdateProfile(context.Background(), ProfileRequest{Name: "Novo", Email: "n@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Novo", id.Name)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.ListProviders(context.Background())
	assert.True(t, errors.Is(err, apperror.ErrNetwork))
}
