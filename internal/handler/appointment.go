package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/auth"
	"github.com/sakif/gobarber/internal/model"
)

// SchedulingService is the part of service.AppointmentService the routes use.
type SchedulingService interface {
	ListProviders(ctx context.Context, callerID string) ([]model.Provider, error)
	DayAvailability(ctx context.Context, providerID string, year, month, day int) ([]model.DayAvailabilitySlot, error)
	Create(ctx context.Context, callerID, providerID string, date time.Time) (*model.Appointment, error)
}

// AppointmentHandler serves the provider and appointment routes. Every route
// requires an authenticated caller.
type AppointmentHandler struct {
	scheduling SchedulingService
	logger     *slog.Logger
}

// NewAppointmentHandler returns a handler backed by scheduling.
func NewAppointmentHandler(scheduling SchedulingService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{scheduling: scheduling, logger: logger}
}

type createAppointmentRequest struct {
	ProviderID string    `json:"provider_id"`
	Date       time.Time `json:"date"`
}

// HandleListProviders returns every provider except the caller.
func (h *AppointmentHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	providers, err := h.scheduling.ListProviders(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, providers)
}

// HandleDayAvailability serves GET /providers/{id}/day-availability?year&month&day.
// month is 1-based.
func (h *AppointmentHandler) HandleDayAvailability(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}

	q := r.URL.Query()
	var parts [3]int
	for i, name := range []string{"year", "month", "day"} {
		v, err := strconv.Atoi(q.Get(name))
		if err != nil {
			writeError(w, h.logger, apperror.ValidationFailed(name, name+" must be an integer"))
			return
		}
		parts[i] = v
	}

	// chi matches on the raw path when the request has one, so the param may
	// still be escaped
	providerID, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("id", "invalid provider id"))
		return
	}

	slots, err := h.scheduling.DayAvailability(r.Context(), providerID, parts[0], parts[1], parts[2])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

// HandleCreateAppointment books {provider_id, date} for the caller.
func (h *AppointmentHandler) HandleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var body createAppointmentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	appt, err := h.scheduling.Create(r.Context(), userID, body.ProviderID, body.Date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (h *AppointmentHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("JWT token is missing or invalid"))
	}
	return userID, ok
}
