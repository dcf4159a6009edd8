package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Razorpay struct {
		KeySecret string
	}
	Session struct {
		Secret string
	}
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. RAZORPAY_KEY_SECRET and SESSION_SECRET have no defaults on
// purpose: settling payments with a well-known secret is worse than not
// starting.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getenv("APP_PORT", "8080")

	cfg.Postgres.Host = getenv("DB_HOST", "localhost")
	cfg.Postgres.Port = getenv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	if cfg.Postgres.User == "" {
		return nil, fmt.Errorf("config: DB_USER is required")
	}
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	if cfg.Postgres.Password == "" {
		return nil, fmt.Errorf("config: DB_PASSWORD is required")
	}
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	if cfg.Postgres.DBName == "" {
		return nil, fmt.Errorf("config: DB_NAME is required")
	}
	cfg.Postgres.SSLMode = getenv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getenv("DB_MIGRATIONS_PATH", "migrations")

	maxConns, err := getenvInt32("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MaxConns = maxConns

	minConns, err := getenvInt32("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}
	cfg.Postgres.MinConns = minConns
	cfg.Postgres.MaxConnLifetime = time.Hour

	cfg.Razorpay.KeySecret = os.Getenv("RAZORPAY_KEY_SECRET")
	if cfg.Razorpay.KeySecret == "" {
		return nil, fmt.Errorf("config: RAZORPAY_KEY_SECRET is required")
	}

	cfg.Session.Secret = os.Getenv("SESSION_SECRET")
	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("config: SESSION_SECRET is required")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt32(key string, fallback int32) (int32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer: %w", key, err)
	}
	return int32(n), nil
}
