// Package config reads server settings from command-line flags, falling back
// to environment variables and then to defaults. An optional .env file is
// loaded into the environment first.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultAddr       = ":8080"
	defaultSQLitePath = "./data/groupdo.db"
	defaultSessionTTL = 24 * time.Hour
)

// Config holds the server settings.
type Config struct {
	Addr          string
	DBDriver      string
	DatabaseURL   string
	SessionSecret string
	SessionTTL    time.Duration
	AdminUsername string
	SecureCookies bool
	LogLevel      string
	LogFormat     string
	Dev           bool
}

// Load reads envFile (if it exists) into the process environment and then
// parses args. A missing env file is not an error.
func Load(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return Parse(args)
}

// Parse builds a Config from args. Flags win over environment variables.
func Parse(args []string) (Config, error) {
	var cfg Config
	var envErrs []error

	ttl, err := envDuration("SESSION_TTL", defaultSessionTTL)
	envErrs = append(envErrs, err)
	secure, err := envBool("SECURE_COOKIES", false)
	envErrs = append(envErrs, err)
	dev, err := envBool("DEV", false)
	envErrs = append(envErrs, err)
	if err := errors.Join(envErrs...); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("groupdo", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", envOr("ADDR", defaultAddr), "listen address")
	fs.StringVar(&cfg.DBDriver, "db-driver", envOr("DB_DRIVER", DriverSQLite), "database driver (sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "database DSN or SQLite file path")
	fs.StringVar(&cfg.SessionSecret, "session-secret", os.Getenv("SESSION_SECRET"), "session signing key (prefer env)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", ttl, "session lifetime")
	fs.StringVar(&cfg.AdminUsername, "admin-username", envOr("ADMIN_USERNAME", "admin"), "username granted the admin role at registration")
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", secure, "mark session cookies Secure")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", envOr("LOG_FORMAT", "text"), "text or json")
	fs.BoolVar(&cfg.Dev, "dev", dev, "development mode")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = defaultSQLitePath
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required for postgres (use -database-url or DATABASE_URL env)")
		}
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	if cfg.SessionSecret == "" && !cfg.Dev {
		return Config{}, errors.New("SESSION_SECRET required (or run with -dev)")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, errors.New("session TTL must be positive")
	}
	if strings.TrimSpace(cfg.AdminUsername) == "" {
		return Config{}, errors.New("admin username must not be empty")
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return b, nil
}
