package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN,required,notEmpty"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// ParseEnv fills target from environment variables using its env tags.
func ParseEnv(target any) error {
	err := env.Parse(target)
	if err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}
