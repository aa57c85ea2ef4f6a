package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/crystalpay/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"API_PORT" envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RulesPath       string        `env:"RULES_PATH"`

	Postgres config.PostgresConfig
}

func readConfig() (*apiConfig, error) {
	cfg := new(apiConfig)

	err := config.ParseEnv(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
