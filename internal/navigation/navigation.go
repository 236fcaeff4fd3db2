// Package navigation is the contract the flows use to move between screens.
// The flows only say where to go; rendering the destination is someone else's job.
package navigation

import (
	"log/slog"
	"sync"
)

// Route names used by the flows.
const (
	RouteSignIn             = "SignIn"
	RouteDashboard          = "Dashboard"
	RouteProfile            = "Profile"
	RouteCreateAppointment  = "CreateAppointment"
	RouteAppointmentCreated = "AppointmentCreated"
)

// Params is the payload attached to a navigation request.
type Params map[string]any

// Navigator receives declarative navigation requests.
type Navigator interface {
	// Reset replaces the whole stack with route.
	Reset(route string)
	// Navigate pushes route with params.
	Navigate(route string, params Params)
	// GoBack pops the current route.
	GoBack()
}

// Request is one recorded navigation call.
type Request struct {
	Action string // "reset", "navigate" or "back"
	Route  string
	Params Params
}

// Recorder is a Navigator that keeps a route stack and a log of requests.
// The CLI uses it to decide what to print next; tests use it to assert on
// where a flow wanted to go.
type Recorder struct {
	mu       sync.Mutex
	stack    []string
	requests []Request
	logger   *slog.Logger
}

var _ Navigator = (*Recorder)(nil)

// NewRecorder returns a Recorder whose stack starts at root.
func NewRecorder(root string, logger *slog.Logger) *Recorder {
	return &Recorder{stack: []string{root}, logger: logger}
}

func (r *Recorder) Reset(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = []string{route}
	r.record(Request{Action: "reset", Route: route})
}

func (r *Recorder) Navigate(route string, params Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stack = append(r.stack, route)
	r.record(Request{Action: "navigate", Route: route, Params: params})
}

// GoBack on a single-entry stack is a no-op apart from being recorded.
func (r *Recorder) GoBack() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
	r.record(Request{Action: "back", Route: r.stack[len(r.stack)-1]})
}

// Current returns the route on top of the stack.
func (r *Recorder) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stack[len(r.stack)-1]
}

// Requests returns a copy of everything recorded so far.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// Last returns the most recent request and false when there is none.
func (r *Recorder) Last() (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return Request{}, false
	}
	return r.requests[len(r.requests)-1], true
}

func (r *Recorder) record(req Request) {
	r.requests = append(r.requests, req)
	if r.logger != nil {
		r.logger.Debug("navigation",
			slog.String("action", req.Action),
			slog.String("route", req.Route),
		)
	}
}
