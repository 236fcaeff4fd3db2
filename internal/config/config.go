// Package config loads settings for the gobarber CLI and the development
// backend.
//
// Client settings resolve in three layers: built-in defaults, then an
// optional YAML file, then GOBARBER_* environment variables. The backend
// reads plain environment variables only.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sakif/gobarber/internal/apperror"
)

const (
	DefaultAPIURL  = "http://localhost:3333"
	DefaultTimeout = 15 * time.Second
)

// Client configures the gobarber CLI.
type Client struct {
	APIURL      string
	StoragePath string
	LogLevel    slog.Level
	Timeout     time.Duration
}

type clientFile struct {
	API struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultStoragePath is where the CLI keeps its session when nothing else is
// configured.
func DefaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gobarber", "storage.db")
	}
	return "gobarber.db"
}

// LoadClient resolves the client configuration. A missing file is not an
// error; an unreadable or malformed one is. Pass "" to skip the file.
func LoadClient(path string) (Client, error) {
	cfg := Client{
		APIURL:      DefaultAPIURL,
		StoragePath: DefaultStoragePath(),
		LogLevel:    slog.LevelWarn,
		Timeout:     DefaultTimeout,
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyFile(raw); err != nil {
				return Client{}, err
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Client{}, apperror.Configuration(fmt.Sprintf("reading config file %s: %v", path, err))
		}
	}

	cfg.APIURL = envOrDefault("GOBARBER_API_URL", cfg.APIURL)
	cfg.StoragePath = envOrDefault("GOBARBER_STORAGE_PATH", cfg.StoragePath)
	if raw := os.Getenv("GOBARBER_LOG_LEVEL"); raw != "" {
		lvl, err := parseLevel(raw)
		if err != nil {
			return Client{}, err
		}
		cfg.LogLevel = lvl
	}
	if raw := os.Getenv("GOBARBER_TIMEOUT"); raw != "" {
		d, err := parseDuration("GOBARBER_TIMEOUT", raw)
		if err != nil {
			return Client{}, err
		}
		cfg.Timeout = d
	}

	if err := cfg.validate(); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

func (c *Client) applyFile(raw []byte) error {
	var f clientFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return apperror.Configuration(fmt.Sprintf("parse config file: %v", err))
	}
	if f.API.URL != "" {
		c.APIURL = f.API.URL
	}
	if f.API.Timeout != "" {
		d, err := parseDuration("api.timeout", f.API.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	if f.Storage.Path != "" {
		c.StoragePath = f.Storage.Path
	}
	if f.Log.Level != "" {
		lvl, err := parseLevel(f.Log.Level)
		if err != nil {
			return err
		}
		c.LogLevel = lvl
	}
	return nil
}

func (c Client) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperror.Configuration(fmt.Sprintf("api url %q must be absolute", c.APIURL))
	}
	if c.StoragePath == "" {
		return apperror.Configuration("storage path is empty")
	}
	if c.Timeout <= 0 {
		return apperror.Configuration("timeout must be positive")
	}
	return nil
}

// Server configures the development backend.
type Server struct {
	Port          int
	DBPath        string
	JWTSecret     string
	TokenTTL      time.Duration
	SeedProviders bool
	// LoginRate is the sustained POST /sessions rate allowed per client IP.
	LoginRate  float64
	LoginBurst int
}

// LoadServer reads the backend configuration from the environment.
func LoadServer() (Server, error) {
	cfg := Server{
		Port:       3333,
		DBPath:     "data/gobarber.db",
		TokenTTL:   24 * time.Hour,
		LoginRate:  1,
		LoginBurst: 5,
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return Server{}, apperror.Configuration(fmt.Sprintf("invalid PORT value %q", raw))
		}
		cfg.Port = port
	}
	cfg.DBPath = envOrDefault("DB_PATH", cfg.DBPath)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		d, err := parseDuration("TOKEN_TTL", raw)
		if err != nil {
			return Server{}, err
		}
		cfg.TokenTTL = d
	}
	cfg.SeedProviders = envBool("SEED_PROVIDERS", cfg.SeedProviders)

	if cfg.JWTSecret == "" {
		return Server{}, apperror.Configuration("JWT_SECRET is required")
	}
	return cfg, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return 0, apperror.Configuration(fmt.Sprintf("invalid log level %q", raw))
	}
	return lvl, nil
}

func parseDuration(name, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return 0, apperror.Configuration(fmt.Sprintf("invalid %s value %q", name, raw))
	}
	return d, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}
