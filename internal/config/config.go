// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all server settings. Every field has a default, so an
// empty environment yields a runnable development setup.
type Config struct {
	HTTPPort          int           `env:"HTTP_PORT" env-default:"8080"`
	DBPath            string        `env:"DB_PATH" env-default:"collections.db"`
	ReconcileEnabled  bool          `env:"RECONCILE_ENABLED" env-default:"true"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" env-default:"1h"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"HTTPPort: %d\n"+
			"DBPath: %s\n"+
			"ReconcileEnabled: %t\n"+
			"ReconcileInterval: %s\n",
		c.HTTPPort,
		c.DBPath,
		c.ReconcileEnabled,
		c.ReconcileInterval,
	)
}
