// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"agenda.db"`
	SeedLocal   bool   `envconfig:"SEED_LOCAL" default:"false"`

	Timezone string `envconfig:"TIMEZONE" default:"America/Sao_Paulo"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	AdminUser   string `envconfig:"ADMIN_USER" default:"admin"`
	AdminPass   string `envconfig:"ADMIN_PASS"`
	AdminSecret string `envconfig:"ADMIN_SECRET"`

	RateLimit      float64 `envconfig:"RATE_LIMIT" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads a .env file if one exists, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured timezone. Scheduling math (day
// boundaries, the same-day booking buffer) depends on it.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
