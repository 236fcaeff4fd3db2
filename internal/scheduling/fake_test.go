package scheduling

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/sakif/gobarber/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// availabilityCall is one DayAvailability request held by a blocking fake.
type availabilityCall struct {
	providerID string
	date       time.Time
	ctx        context.Context
	release    chan struct{}
}

// fakeGateway is an in-memory Gateway. With block set, every DayAvailability
// call is handed to the test on calls and waits until the test closes its
// release channel, so the test decides the order responses arrive in.
type fakeGateway struct {
	mu              sync.Mutex
	providers       []model.Provider
	providersErr    error
	slots           map[string][]model.DayAvailabilitySlot // key: provider|YYYY-MM-DD
	availabilityErr error
	createErr       error
	created         []time.Time
	availabilityN   int

	block bool
	calls chan *availabilityCall

	// when createRelease is set, CreateAppointment signals createStarted and
	// waits for createRelease to be closed
	createStarted chan struct{}
	createRelease chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		slots: make(map[string][]model.DayAvailabilitySlot),
		calls: make(chan *availabilityCall, 16),
	}
}

func slotKey(providerID string, date time.Time) string {
	return providerID + "|" + date.Format(time.DateOnly)
}

func (f *fakeGateway) setSlots(providerID string, date time.Time, slots ...model.DayAvailabilitySlot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[slotKey(providerID, date)] = slots
}

func (f *fakeGateway) ListProviders(ctx context.Context) ([]model.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.providersErr != nil {
		return nil, f.providersErr
	}
	return append([]model.Provider(nil), f.providers...), nil
}

func (f *fakeGateway) DayAvailability(ctx context.Context, providerID string, date time.Time) ([]model.DayAvailabilitySlot, error) {
	f.mu.Lock()
	f.availabilityN++
	block := f.block
	f.mu.Unlock()

	if block {
		c := &availabilityCall{providerID: providerID, date: date, ctx: ctx, release: make(chan struct{})}
		f.calls <- c
		// the response is already "on the wire": cancellation does not stop it
		<-c.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availabilityErr != nil {
		return nil, f.availabilityErr
	}
	return append([]model.DayAvailabilitySlot(nil), f.slots[slotKey(providerID, date)]...), nil
}

func (f *fakeGateway) CreateAppointment(ctx context.Context, providerID string, date time.Time) (*model.Appointment, error) {
	f.mu.Lock()
	started, release := f.createStarted, f.createRelease
	f.mu.Unlock()
	if release != nil {
		started <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, date)
	return &model.Appointment{ID: "appt-1", ProviderID: providerID, Date: date}, nil
}

func (f *fakeGateway) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
