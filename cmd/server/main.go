// Package main runs the GoBarber development backend: the HTTP API the
// gobarber client talks to, backed by a local SQLite file.
//
// main stays minimal. It reads configuration, prepares the database
// directory, builds the server and starts it. Everything else lives in
// internal/server and the packages it wires together.
//
// Environment:
//
//	JWT_SECRET       required, at least 16 bytes (openssl rand -hex 32)
//	PORT             default 3333
//	DB_PATH          default data/gobarber.db
//	TOKEN_TTL        default 24h
//	SEED_PROVIDERS   create demo providers on start
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/gobarber/internal/config"
	"github.com/sakif/gobarber/internal/server"
)

func main() {
	// === 1. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// === 2. CONFIGURATION ===
	cfg, err := config.LoadServer()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. DATABASE DIRECTORY ===
	// mkdir -p; a no-op when DB_PATH has no directory part.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.SeedProviders {
		if err := srv.Seed(context.Background()); err != nil {
			logger.Error("seeding providers failed", slog.String("error", err.Error()))
			srv.Close()
			os.Exit(1)
		}
	}

	// Start blocks until SIGINT/SIGTERM and closes the server on return.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
