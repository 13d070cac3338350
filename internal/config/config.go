// Package config loads application settings from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Secret wraps sensitive material so it can never leak through logging or
// formatted error messages. Use Bytes to access the raw value.
type Secret string

func (s Secret) String() string { return "[redacted]" }

func (s Secret) GoString() string { return "[redacted]" }

// Bytes returns the raw secret material.
func (s Secret) Bytes() []byte { return []byte(s) }

// Config holds all runtime settings for the server.
type Config struct {
	Port string
	Env  string

	// DBDriver selects the store backend: "mysql" or "sqlite".
	DBDriver string
	DBDSN    string

	AccessSecret  Secret
	RefreshSecret Secret

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CORSOrigin string
}

// Load reads .env (if present) and builds the configuration. It fails when a
// required variable is missing so a misconfigured server never starts.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getenv("PORT", "3000"),
		Env:             getenv("APP_ENV", "development"),
		DBDriver:        getenv("DB_DRIVER", "mysql"),
		AccessSecret:    Secret(os.Getenv("JWT_ACCESS_SECRET")),
		RefreshSecret:   Secret(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		CORSOrigin:      getenv("FRONTEND_URL", "http://localhost:5173"),
	}

	if len(cfg.AccessSecret) == 0 {
		return nil, fmt.Errorf("missing required environment variable: JWT_ACCESS_SECRET")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("missing required environment variable: JWT_REFRESH_SECRET")
	}

	switch cfg.DBDriver {
	case "mysql":
		cfg.DBDSN = mysqlDSN()
	case "sqlite":
		cfg.DBDSN = getenv("DB_PATH", "todo.db")
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}

	return cfg, nil
}

// mysqlDSN builds the MySQL connection string from the environment.
func mysqlDSN() string {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := getenv("DB_HOST", "127.0.0.1")
	port := getenv("DB_PORT", "3306")
	name := os.Getenv("DB_NAME")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, name)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
