package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration, loaded from the environment with an
// optional .env file for development.
type Config struct {
	ServiceName string
	Env         string
	ListenAddr  string

	PGDSN string

	AuthSecret string
	AuthIssuer string
	AccessTTL  time.Duration

	RateBurst  int
	RatePerSec int

	// Optional superadmin bootstrap for fresh deployments.
	BootstrapEmail    string
	BootstrapPassword string
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:       "communeo-api",
		Env:               getEnv("COMMUNEO_ENV", "development"),
		ListenAddr:        getEnv("COMMUNEO_LISTEN_ADDR", ":8080"),
		PGDSN:             os.Getenv("COMMUNEO_PG_DSN"),
		AuthSecret:        os.Getenv("COMMUNEO_AUTH_SECRET"),
		AuthIssuer:        getEnv("COMMUNEO_AUTH_ISSUER", "communeo"),
		BootstrapEmail:    os.Getenv("COMMUNEO_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("COMMUNEO_BOOTSTRAP_PASSWORD"),
	}

	ttl, err := getDuration("COMMUNEO_ACCESS_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.AccessTTL = ttl

	cfg.RateBurst, err = getInt("COMMUNEO_RATE_BURST", 20)
	if err != nil {
		return nil, err
	}
	cfg.RatePerSec, err = getInt("COMMUNEO_RATE_PER_SEC", 10)
	if err != nil {
		return nil, err
	}

	if cfg.AuthSecret == "" && cfg.Env != "development" {
		return nil, fmt.Errorf("COMMUNEO_AUTH_SECRET is required outside development")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
