package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Log formats accepted in LOG_FORMAT.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port            string
	StoreDriver     string
	DatabaseURL     string
	SQLitePath      string
	CORSOrigins     []string
	LogLevel        slog.Level
	LogFormat       string
	BcryptCost      int
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment and validates it. All
// problems are reported together.
func Load() (Config, error) {
	var result *multierror.Error

	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		StoreDriver: strings.ToLower(fallback(os.Getenv("STORE_DRIVER"), DriverSQLite)),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  fallback(os.Getenv("SQLITE_PATH"), "./data/ledger.db"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogFormat:   strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), LogFormatText)),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(fallback(os.Getenv("LOG_LEVEL"), "info"))); err != nil {
		result = multierror.Append(result, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	cost, err := positiveInt("BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		result = multierror.Append(result, err)
	}
	cfg.BcryptCost = cost

	seconds, err := positiveInt("SHUTDOWN_TIMEOUT_SECONDS", 15)
	if err != nil {
		result = multierror.Append(result, err)
	}
	cfg.ShutdownTimeout = time.Duration(seconds) * time.Second

	if err := cfg.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var result *multierror.Error

	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		result = multierror.Append(result, fmt.Errorf("PORT: %q is not a valid port", c.Port))
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			result = multierror.Append(result, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			result = multierror.Append(result, errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("STORE_DRIVER: unsupported driver %q", c.StoreDriver))
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		result = multierror.Append(result, fmt.Errorf("LOG_FORMAT: must be %q or %q", LogFormatText, LogFormatJSON))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		result = multierror.Append(result, fmt.Errorf("BCRYPT_COST: must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return result.ErrorOrNil()
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func positiveInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("%s: %q is not a positive integer", key, raw)
	}
	return n, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
