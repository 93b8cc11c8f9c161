package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/soaringjerry/npsdesk/internal/db"
	"github.com/soaringjerry/npsdesk/internal/utils"
)

// Config is the process configuration, read from NPS_* environment variables.
type Config struct {
	Addr     string
	Env      string
	LogLevel string

	JWTSecret     string
	TokenTTL      time.Duration
	SecureCookies bool
	CORSOrigin    string

	Storage   db.Options
	LegacyDir string

	ExportInterval time.Duration
	Location       *time.Location

	Commit    string
	BuildTime string
}

// Load reads a .env file when present, then the environment. Set variables
// win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	dataDir := utils.SafeEnv("NPS_DATA_DIR", "./data")
	cfg := &Config{
		Addr:          utils.SafeEnv("NPS_ADDR", ":8080"),
		Env:           strings.ToLower(utils.SafeEnv("NPS_ENV", "production")),
		LogLevel:      utils.SafeEnv("NPS_LOG_LEVEL", "info"),
		JWTSecret:     utils.SafeEnv("NPS_JWT_SECRET", ""),
		TokenTTL:      utils.SafeEnvDuration("NPS_TOKEN_TTL", 24*time.Hour),
		SecureCookies: utils.SafeEnvBool("NPS_SECURE_COOKIES", false),
		CORSOrigin:    utils.SafeEnv("NPS_CORS_ORIGIN", ""),
		Storage: db.Options{
			Driver:        strings.ToLower(utils.SafeEnv("NPS_STORAGE", "file")),
			DataDir:       dataDir,
			SQLitePath:    utils.SafeEnv("NPS_SQLITE_PATH", filepath.Join(dataDir, "nps.db")),
			MigrationsDir: utils.SafeEnv("NPS_MIGRATIONS_DIR", ""),
			PostgresDSN:   utils.SafeEnv("NPS_POSTGRES_DSN", ""),
			RedisAddr:     utils.SafeEnv("NPS_REDIS_ADDR", "localhost:6379"),
			RedisPassword: utils.SafeEnv("NPS_REDIS_PASSWORD", ""),
			RedisDB:       utils.SafeEnvInt("NPS_REDIS_DB", 0),
			RedisPrefix:   utils.SafeEnv("NPS_REDIS_PREFIX", "nps:"),
		},
		LegacyDir:      utils.SafeEnv("NPS_LEGACY_DIR", ""),
		ExportInterval: utils.SafeEnvDuration("NPS_EXPORT_INTERVAL", 2*time.Second),
		Location:       time.UTC,
		Commit:         utils.SafeEnv("NPS_COMMIT", ""),
		BuildTime:      utils.SafeEnv("NPS_BUILD_TIME", ""),
	}
	if tz := utils.SafeEnv("NPS_TIMEZONE", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("NPS_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "file", "sqlite", "sqlite3", "redis":
	case "postgres", "postgresql":
		if c.Storage.PostgresDSN == "" {
			return errors.New("NPS_POSTGRES_DSN is required for the postgres storage")
		}
	default:
		return fmt.Errorf("unknown NPS_STORAGE %q", c.Storage.Driver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("NPS_TOKEN_TTL must be positive")
	}
	if c.ExportInterval < 0 {
		return errors.New("NPS_EXPORT_INTERVAL must not be negative")
	}
	return nil
}

// IsDevelopment reports whether the console log format and dev secret apply.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }
