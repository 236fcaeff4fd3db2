package scheduling

import (
	"time"

	"github.com/sakif/gobarber/internal/model"
)

// Providers returns a copy of the loaded provider list.
func (w *Workflow) Providers() []model.Provider {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.Provider(nil), w.providers...)
}

// ProvidersErr is the error of the last provider fetch, nil after a success.
func (w *Workflow) ProvidersErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.providersErr
}

// Slots returns a copy of the availability for the current pair.
func (w *Workflow) Slots() []model.DayAvailabilitySlot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.DayAvailabilitySlot(nil), w.slots...)
}

// AvailabilityErr is the error of the last availability fetch for the current
// pair, nil after a success.
func (w *Workflow) AvailabilityErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.availabilityErr
}

// LoadingAvailability reports whether a fetch for the current pair is in flight.
func (w *Workflow) LoadingAvailability() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Morning returns the slots before noon.
func (w *Workflow) Morning() []Slot {
	m, _ := w.partition()
	return m
}

// Afternoon returns the slots from noon on.
func (w *Workflow) Afternoon() []Slot {
	_, a := w.partition()
	return a
}

func (w *Workflow) partition() ([]Slot, []Slot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	selected := -1
	if w.hourSelected {
		selected = w.hour
	}
	return Partition(w.slots, selected)
}

// Selection returns the current choice. Hour is 0 until one is picked; use
// HourSelected to tell that apart from a real 00:00 pick.
func (w *Workflow) Selection() model.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return model.Selection{ProviderID: w.providerID, Date: w.date, Hour: w.hour}
}

// HourSelected reports whether an hour has been picked for the current pair.
func (w *Workflow) HourSelected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hourSelected
}

// SelectedDate returns the selected day.
func (w *Workflow) SelectedDate() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.date
}

// Step returns the current step.
func (w *Workflow) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Confirmation returns the result of a successful Submit, or nil.
func (w *Workflow) Confirmation() *Confirmation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.confirmation
}
