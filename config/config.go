/*
Package config loads process configuration.

SOURCES (later wins):
  1. Built-in defaults
  2. .env file in the working directory, if present (godotenv)
  3. Environment variables
  4. Command-line flags: --port, --db-driver, --db, --log-level

KEYS:
  PORT                          HTTP port (8080)
  DB_DRIVER                     sqlite3 | pgx (sqlite3)
  DATABASE_URL                  DSN or SQLite path (inventory.db)
  DB_MAX_OPEN_CONNS             pool size, pgx only (25)
  DB_MAX_IDLE_CONNS             idle pool size, pgx only (10)
  DB_CONN_MAX_LIFETIME_SECONDS  connection lifetime, pgx only (300)
  JWT_SECRET                    HS256 key, at least 16 bytes (required)
  TOKEN_TTL_HOURS               access token lifetime (24)
  AUDIT_ACTOR_POLICY            permissive | strict (permissive)
  DEFAULT_SOURCE_LOCATION_ID    fixed sales source; unset uses the flagged location
  STOCK_AFFECTING_STATUSES      statuses restored on sale removal (sold,order_created)
  CORS_ALLOWED_ORIGINS          comma separated (http://localhost:5173)
  LOG_LEVEL                     debug | info | warn | error (info)
  LOG_FORMAT                    json | console (json)
  ADMIN_EMAIL, ADMIN_PASSWORD   bootstrap super_admin, created if absent
  ADMIN_NAME                    bootstrap admin display name
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	Port int

	DBDriver        string
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	AuditActorPolicy        string
	DefaultSourceLocationID int64
	StockAffectingStatuses  []string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration for the given command-line arguments
// (without the program name).
func Load(args []string) (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    intFromEnv("PORT", 8080),
		DBDriver:                stringFromEnv("DB_DRIVER", "sqlite3"),
		DatabaseURL:             stringFromEnv("DATABASE_URL", "inventory.db"),
		MaxOpenConns:            intFromEnv("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:            intFromEnv("DB_MAX_IDLE_CONNS", 10),
		ConnMaxLifetime:         time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second,
		JWTSecret:               os.Getenv("JWT_SECRET"),
		TokenTTL:                time.Duration(intFromEnv("TOKEN_TTL_HOURS", 24)) * time.Hour,
		AuditActorPolicy:        stringFromEnv("AUDIT_ACTOR_POLICY", "permissive"),
		DefaultSourceLocationID: int64(intFromEnv("DEFAULT_SOURCE_LOCATION_ID", 0)),
		StockAffectingStatuses:  listFromEnv("STOCK_AFFECTING_STATUSES", []string{"sold", "order_created"}),
		CORSAllowedOrigins:      listFromEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		LogLevel:                stringFromEnv("LOG_LEVEL", "info"),
		LogFormat:               stringFromEnv("LOG_FORMAT", "json"),
		AdminEmail:              os.Getenv("ADMIN_EMAIL"),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
		AdminName:               os.Getenv("ADMIN_NAME"),
	}

	flags := pflag.NewFlagSet("inventory-engine", pflag.ContinueOnError)
	flags.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flags.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver: sqlite3 or pgx")
	flags.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "database DSN; a file path or \":memory:\" for sqlite3")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 16 characters"))
	}
	if c.DefaultSourceLocationID < 0 {
		errs = append(errs, errors.New("DEFAULT_SOURCE_LOCATION_ID must be positive"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

func stringFromEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func listFromEnv(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
