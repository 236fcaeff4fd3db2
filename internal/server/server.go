// Package server wires the development backend: database, services,
// handlers, middleware and routes. It is the composition root; main only
// loads configuration and calls Start.
//
// DEPENDENCY GRAPH (built in New):
//
//	config.Server
//	  ├─ sqlite.DB ──────────────┬─ AuthService ──────── AccountHandler
//	  ├─ TokenService ───────────┤
//	  ├─ PasswordService ────────┘
//	  │  sqlite.DB ──────────────── AppointmentService ─ AppointmentHandler
//	  ├─ RateLimiter (POST /sessions)
//	  └─ prometheus.Registry ───── metrics.Collector ─── /metrics
//
// Handlers only see small service interfaces, services only see repository
// interfaces, and nothing below this package knows the concrete types.
//
// WHY A Handler() ACCESSOR?
// Tests mount the router on httptest.NewServer and point the real gateway
// client at it. That exercises routing, auth middleware, JSON and SQLite in
// one go, without binding a port or calling Start.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/auth"
	"github.com/sakif/gobarber/internal/config"
	"github.com/sakif/gobarber/internal/handler"
	"github.com/sakif/gobarber/internal/metrics"
	"github.com/sakif/gobarber/internal/middleware"
	sqliteRepo "github.com/sakif/gobarber/internal/repository/sqlite"
	"github.com/sakif/gobarber/internal/service"
	"github.com/sakif/gobarber/internal/validation"
)

// Server owns the database and the router.
//
// RESOURCE MANAGEMENT:
// The database handle and the rate limiter's cleanup goroutine live as long
// as the Server. Close releases both; Start calls it on the way out.
//
// Accounts and Appointments are exported so Seed and tests can reach the
// services without going through HTTP.
type Server struct {
	router  *chi.Mux
	config  config.Server
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter

	Accounts     *service.AuthService
	Appointments *service.AppointmentService
}

// Option customises a Server.
type Option func(*options)

type options struct {
	passwords   *auth.PasswordService
	appointment []service.AppointmentOption
	registry    *prometheus.Registry
}

// WithPasswordService replaces the bcrypt cost; tests use a cheap one.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(o *options) { o.passwords = p }
}

// WithAppointmentOptions forwards options to the appointment service.
func WithAppointmentOptions(opts ...service.AppointmentOption) Option {
	return func(o *options) { o.appointment = append(o.appointment, opts...) }
}

// New opens the database and builds the whole dependency graph.
//
// ORDER:
//  1. TokenService first: a short JWT_SECRET fails before any file is opened
//  2. Database (runs migrations)
//  3. Services over the database
//  4. Routes
//
// Options exist for tests: a cheap bcrypt cost and a fixed clock/location for
// the appointment rules.
func New(cfg config.Server, logger *slog.Logger, opts ...Option) (*Server, error) {
	o := options{passwords: auth.NewPasswordService(), registry: prometheus.NewRegistry()}
	for _, opt := range opts {
		opt(&o)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		limiter: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.LoginRate),
			Burst: cfg.LoginBurst,
		}, logger),
		Accounts:     service.NewAuthService(db, tokens, o.passwords, logger),
		Appointments: service.NewAppointmentService(db, db, logger, o.appointment...),
	}

	s.setupRoutes(tokens, o.registry)
	return s, nil
}

// setupRoutes registers middleware and routes.
//
// ROUTES:
//
//	POST /sessions                          sign in (rate limited per IP)
//	POST /users                             sign up
//	PUT  /profile                           update the caller      (auth)
//	GET  /providers                         providers but caller   (auth)
//	GET  /providers/{id}/day-availability   hours of one day       (auth)
//	POST /appointments                      book                   (auth)
//	GET  /metrics                           Prometheus
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: every log line and error can be traced to one request
//  2. RealIP: the rate limiter keys on the client, not the proxy
//  3. Logger: logs method, path, status and duration
//  4. Metrics: labels by chi route pattern, so /providers/{id}/... stays one series
//  5. Recoverer: innermost, so a panic becomes a 500 the logger and metrics still see
func (s *Server) setupRoutes(tokens *auth.TokenService, registry *prometheus.Registry) {
	collector := metrics.NewCollector(registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(collector))
	s.router.Use(chimiddleware.Recoverer)

	accounts := handler.NewAccountHandler(s.Accounts, s.logger)
	appointments := handler.NewAppointmentHandler(s.Appointments, s.logger)

	// === Public routes ===
	// Only sign-in is rate limited: it is the one route that checks a password.
	s.router.With(s.limiter.Middleware).Post("/sessions", accounts.HandleCreateSession)
	s.router.Post("/users", accounts.HandleCreateUser)

	// === Authenticated routes ===
	// RequireAuth puts the user ID from the bearer token into the context;
	// handlers read it with auth.UserIDFromContext.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Put("/profile", accounts.HandleUpdateProfile)
		r.Get("/providers", appointments.HandleListProviders)
		r.Get("/providers/{id}/day-availability", appointments.HandleDayAvailability)
		r.Post("/appointments", appointments.HandleCreateAppointment)
	})

	s.router.Handle("/metrics", metrics.Handler(registry))
}

// Handler returns the router, for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work and closes the database.
func (s *Server) Close() error {
	s.limiter.Stop()
	return s.db.Close()
}

// demoProviders are created by Seed.
var demoProviders = []validation.SignUpForm{
	{Name: "Carla Barbosa", Email: "carla@gobarber.dev", Password: "123456"},
	{Name: "Diego Fernandes", Email: "diego@gobarber.dev", Password: "123456"},
	{Name: "Rafaela Lima", Email: "rafaela@gobarber.dev", Password: "123456"},
}

// Seed creates the demo providers. Existing accounts are left alone, so it
// can run on every start.
func (s *Server) Seed(ctx context.Context) error {
	for _, form := range demoProviders {
		u, err := s.Accounts.RegisterProvider(ctx, form)
		switch {
		case errors.Is(err, apperror.ErrConflict):
			continue
		case err != nil:
			return fmt.Errorf("seeding provider %s: %w", form.Email, err)
		}
		s.logger.Info("seeded provider", slog.String("userID", u.ID), slog.String("email", u.Email))
	}
	return nil
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully and closes
// the database.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting connections
//  2. Let in-flight requests finish (30s budget)
//  3. Close: stop the limiter's cleanup loop, close SQLite (flushes the WAL)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
