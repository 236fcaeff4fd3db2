package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/gobarber/internal/account"
	"github.com/sakif/gobarber/internal/api"
	"github.com/sakif/gobarber/internal/config"
	"github.com/sakif/gobarber/internal/navigation"
	"github.com/sakif/gobarber/internal/session"
	"github.com/sakif/gobarber/internal/storage/sqlite"
)

// app is everything one command invocation needs. It is built after flags
// are parsed and closed when the command returns.
type app struct {
	cfg      config.Client
	logger   *slog.Logger
	storage  *sqlite.Store
	sessions *session.Store
	nav      *navigation.Recorder
	accounts *account.Service
}

// openApp loads configuration, opens device storage and restores the session.
// A failed restore is logged and leaves the user signed out, the same as an
// empty device.
func openApp(ctx context.Context, configPath string, stderr io.Writer) (*app, error) {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if dir := filepath.Dir(cfg.StoragePath); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
		}
	}

	st, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.APIURL, api.WithTimeout(cfg.Timeout), api.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, err
	}

	sessions := session.New(st, client, logger)
	if err := sessions.Restore(ctx); err != nil {
		logger.Warn("could not restore session", slog.String("error", err.Error()))
	}

	root := navigation.RouteSignIn
	if _, ok := sessions.Session(); ok {
		root = navigation.RouteDashboard
	}
	nav := navigation.NewRecorder(root, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		storage:  st,
		sessions: sessions,
		nav:      nav,
		accounts: account.NewService(sessions, nav, logger),
	}, nil
}

func (a *app) Close() error {
	if last, ok := a.nav.Last(); ok {
		a.logger.Debug("navigation", slog.String("action", last.Action), slog.String("route", last.Route))
	}
	return a.storage.Close()
}

// defaultConfigPath sits next to the default storage file.
func defaultConfigPath() string {
	return filepath.Join(filepath.Dir(config.DefaultStoragePath()), "config.yaml")
}
