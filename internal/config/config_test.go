package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var configKeys = []string{
	"PORT", "STORE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "CORS_ALLOWED_ORIGINS",
	"LOG_LEVEL", "LOG_FORMAT", "BCRYPT_COST", "SHUTDOWN_TIMEOUT_SECONDS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "./data/ledger.db", cfg.SQLitePath)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/ledger")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "http")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("LOG_LEVEL", "loud")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "-1")

	_, err := Load()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	msg := err.Error()
	assert.Contains(t, msg, "LOG_LEVEL")
	assert.Contains(t, msg, "SHUTDOWN_TIMEOUT_SECONDS")
	assert.Contains(t, msg, "PORT")
	assert.Contains(t, msg, "DATABASE_URL is required")
	assert.Contains(t, msg, "LOG_FORMAT")
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{Port: "8080", StoreDriver: "mysql", LogFormat: LogFormatText, BcryptCost: bcrypt.DefaultCost}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported driver "mysql"`)

	cfg.StoreDriver = DriverSQLite
	cfg.SQLitePath = ":memory:"
	assert.NoError(t, cfg.Validate())
}
