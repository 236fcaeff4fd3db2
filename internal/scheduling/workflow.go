// Package scheduling drives appointment creation: pick a provider, pick a
// date, pick an hour, submit.
//
// The Workflow owns the provider list and the day availability of the current
// (provider, date) pair. Availability fetches are sequenced: starting a new
// fetch cancels the one in flight, and a response that arrives after a newer
// request was issued is dropped, so the stored slots always belong to the
// latest pair.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/model"
	"github.com/sakif/gobarber/internal/navigation"
)

// ErrAppointmentCreation is returned by Submit when the backend did not
// create the appointment. The underlying cause is wrapped alongside it.
var ErrAppointmentCreation = errors.New("error creating appointment, please try again")

// Gateway is the part of the API the workflow needs.
type Gateway interface {
	ListProviders(ctx context.Context) ([]model.Provider, error)
	DayAvailability(ctx context.Context, providerID string, date time.Time) ([]model.DayAvailabilitySlot, error)
	CreateAppointment(ctx context.Context, providerID string, date time.Time) (*model.Appointment, error)
}

// Step is where the user is in the flow.
type Step int

const (
	StepSelecting Step = iota
	StepConfirmed
)

func (s Step) String() string {
	if s == StepConfirmed {
		return "confirmed"
	}
	return "selecting"
}

// Workflow is the state behind the create-appointment screen. Methods are safe
// to call from multiple goroutines.
type Workflow struct {
	gw     Gateway
	nav    navigation.Navigator
	logger *slog.Logger

	mu           sync.Mutex
	providers    []model.Provider
	providersErr error

	providerID string
	date       time.Time

	slots           []model.DayAvailabilitySlot
	availabilityErr error
	loading         bool
	seq             uint64
	cancelInFlight  context.CancelFunc

	hour         int
	hourSelected bool
	submitting   bool

	step         Step
	confirmation *Confirmation
}

// Option customises a Workflow.
type Option func(*Workflow)

// WithProvider preselects a provider, as when the screen is opened from the
// dashboard with a provider_id route param.
func WithProvider(id string) Option {
	return func(w *Workflow) { w.providerID = id }
}

// WithDate sets the initial date (default: today).
func WithDate(d time.Time) Option {
	return func(w *Workflow) { w.date = d }
}

// New returns a Workflow in StepSelecting. Nothing is fetched until Mount.
func New(gw Gateway, nav navigation.Navigator, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		gw:     gw,
		nav:    nav,
		logger: logger,
		date:   time.Now(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Mount loads the provider list and, when a provider is preselected, its
// availability for the initial date. Both requests run concurrently and each
// records its own error state; the first error is returned.
func (w *Workflow) Mount(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return w.LoadProviders(ctx) })
	g.Go(func() error { return w.refreshAvailability(ctx) })
	return g.Wait()
}

// LoadProviders (re)fetches the provider list. On failure the previous list
// is kept and the error is exposed through ProvidersErr.
func (w *Workflow) LoadProviders(ctx context.Context) error {
	providers, err := w.gw.ListProviders(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.providersErr = err
		w.logger.Warn("loading providers failed", slog.String("error", err.Error()))
		return fmt.Errorf("scheduling: loading providers: %w", err)
	}
	w.providers = providers
	w.providersErr = nil
	return nil
}

// RetryProviders is LoadProviders under the name screens bind to the retry button.
func (w *Workflow) RetryProviders(ctx context.Context) error {
	return w.LoadProviders(ctx)
}

// SelectProvider switches provider and refetches availability. Selecting the
// current provider again does nothing.
func (w *Workflow) SelectProvider(ctx context.Context, providerID string) error {
	if providerID == "" {
		return apperror.ValidationFailed("provider_id", "provider is required")
	}

	w.mu.Lock()
	if err := w.editable("select provider"); err != nil {
		w.mu.Unlock()
		return err
	}
	if providerID == w.providerID {
		w.mu.Unlock()
		return nil
	}
	w.providerID = providerID
	w.resetPairLocked()
	w.mu.Unlock()

	return w.refreshAvailability(ctx)
}

// SelectDate switches the day and refetches availability. Only the calendar
// day matters; picking another time on the same day does nothing.
func (w *Workflow) SelectDate(ctx context.Context, date time.Time) error {
	if date.IsZero() {
		return apperror.ValidationFailed("date", "date is required")
	}

	w.mu.Lock()
	if err := w.editable("select date"); err != nil {
		w.mu.Unlock()
		return err
	}
	if sameDay(date, w.date) {
		w.mu.Unlock()
		return nil
	}
	w.date = date
	w.resetPairLocked()
	w.mu.Unlock()

	return w.refreshAvailability(ctx)
}

// RetryAvailability refetches availability for the current pair.
func (w *Workflow) RetryAvailability(ctx context.Context) error {
	return w.refreshAvailability(ctx)
}

// resetPairLocked drops everything tied to the previous (provider, date) pair.
func (w *Workflow) resetPairLocked() {
	w.slots = nil
	w.availabilityErr = nil
	w.hour = 0
	w.hourSelected = false
}

func (w *Workflow) refreshAvailability(ctx context.Context) error {
	w.mu.Lock()
	if w.providerID == "" {
		w.mu.Unlock()
		return nil
	}
	if w.cancelInFlight != nil {
		w.cancelInFlight()
	}
	w.seq++
	seq := w.seq
	reqCtx, cancel := context.WithCancel(ctx)
	w.cancelInFlight = cancel
	w.loading = true
	providerID, date := w.providerID, w.date
	w.mu.Unlock()

	slots, err := w.gw.DayAvailability(reqCtx, providerID, date)
	cancel()

	w.mu.Lock()
	defer w.mu.Unlock()

	if seq != w.seq {
		w.logger.Debug("discarding superseded availability",
			slog.String("providerID", providerID),
			slog.String("date", date.Format(time.DateOnly)),
		)
		return nil
	}

	w.cancelInFlight = nil
	w.loading = false
	if err != nil {
		w.slots = nil
		w.availabilityErr = err
		w.logger.Warn("loading availability failed",
			slog.String("providerID", providerID),
			slog.String("date", date.Format(time.DateOnly)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("scheduling: loading availability: %w", err)
	}

	w.slots = append([]model.DayAvailabilitySlot(nil), slots...)
	w.availabilityErr = nil
	return nil
}

// SelectHour picks an hour from the current slots. The hour must be offered
// and available.
func (w *Workflow) SelectHour(hour int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.editable("select hour"); err != nil {
		return err
	}

	for _, s := range w.slots {
		if s.Hour != hour {
			continue
		}
		if !s.Available {
			return apperror.ValidationFailed("hour", fmt.Sprintf("%s is not available", hourLabel(hour)))
		}
		w.hour = hour
		w.hourSelected = true
		return nil
	}
	return apperror.ValidationFailed("hour", fmt.Sprintf("%s is not offered on this day", hourLabel(hour)))
}

// Submit books the selected slot. On success the workflow moves to
// StepConfirmed and asks the navigator for the confirmation screen with the
// booked time in Unix milliseconds. On failure nothing changes and the error
// wraps ErrAppointmentCreation.
//
// While the request is in flight the selection is frozen: a second Submit or
// any Select* call fails with apperror.ErrInvalidState.
func (w *Workflow) Submit(ctx context.Context) (*Confirmation, error) {
	w.mu.Lock()
	if err := w.editable("submit"); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.providerID == "" {
		w.mu.Unlock()
		return nil, apperror.ValidationFailed("provider_id", "select a provider")
	}
	if !w.hourSelected {
		w.mu.Unlock()
		return nil, apperror.ValidationFailed("hour", "select an hour")
	}
	providerID := w.providerID
	at := AppointmentTime(w.date, w.hour)
	w.submitting = true
	w.mu.Unlock()

	appointment, err := w.gw.CreateAppointment(ctx, providerID, at)
	if err != nil {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
		w.logger.Error("creating appointment failed",
			slog.String("providerID", providerID),
			slog.Time("date", at),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrAppointmentCreation, err)
	}

	conf := &Confirmation{Date: at, Appointment: appointment}

	w.mu.Lock()
	w.submitting = false
	w.step = StepConfirmed
	w.confirmation = conf
	w.mu.Unlock()

	w.logger.Info("appointment created",
		slog.String("providerID", providerID),
		slog.Time("date", at),
	)
	if w.nav != nil {
		w.nav.Navigate(navigation.RouteAppointmentCreated, navigation.Params{"date": at.UnixMilli()})
	}
	return conf, nil
}

// editable must be called with w.mu held.
func (w *Workflow) editable(op string) error {
	switch {
	case w.step == StepConfirmed:
		return apperror.InvalidState(w.step.String(), op)
	case w.submitting:
		return apperror.InvalidState("submitting", op)
	}
	return nil
}

// AppointmentTime is date's calendar day at hour:00:00.000 in date's location.
func AppointmentTime(date time.Time, hour int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
