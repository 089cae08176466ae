package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"mailcadence/internal/config/configs"
)

// Config aggregates all configuration sections of the service. Nested
// structs are tagged with envPrefix so their fields are parsed with the given
// prefix; see the configs package for defaults. Use Load to construct it.
type Config struct {
	// Env names the deployment environment (e.g. prod, dev). It is attached
	// to every log record.
	Env string `env:"ENV" envDefault:"prod"`

	HTTP configs.HTTP     `envPrefix:"HTTP_"`
	Log  configs.Logger   `envPrefix:"LOG_"`
	Psql configs.Postgres `envPrefix:"PSQL_"`

	// Redis backs the per-campaign locks. Without a URL the process falls
	// back to in-process locks, which is only safe for a single replica.
	Redis configs.Redis `envPrefix:"REDIS_"`

	Scheduler configs.Scheduler `envPrefix:"SCHEDULER_"`

	// SeedDemo inserts demo prospects on startup.
	SeedDemo bool `env:"SEED_DEMO" envDefault:"false"`
}

// Load reads the given dotenv files, when present, and then parses the
// environment into a Config. Variables already set in the environment win
// over dotenv values.
func Load(dotenv ...string) (Config, error) {
	for _, name := range dotenv {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", name, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
