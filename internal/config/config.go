package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Port is the HTTP listen port.
	Port int `envconfig:"PORT" default:"4000"`
	// DatabaseDSN is the Postgres connection string.
	DatabaseDSN string `envconfig:"DATABASE_DSN" required:"true"`
	// AllowedOrigins is the list of origins accepted for CORS and
	// websocket upgrades. "*" allows any origin.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// Load reads configuration from the environment, honoring a .env file
// in the working directory when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	return &cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
