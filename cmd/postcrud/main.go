package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/postcrud/pkg/postcrud"
	"github.com/tendant/postcrud/pkg/postcrud/config"
)

// Env is read from the process environment (and .env when present).
type Env struct {
	HostURL  string `env:"POSTCRUD_HOST_URL" env-default:"http://localhost:8080"`
	APIToken string `env:"POSTCRUD_API_TOKEN"`
	DBSchema string `env:"POSTCRUD_DB_SCHEMA" env-default:"postcrud"`
	LogLevel string `env:"POSTCRUD_LOG_LEVEL" env-default:"warn"`
}

func main() {
	_ = godotenv.Load()

	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read configuration: %v\n", err)
		os.Exit(1)
	}

	a := &app{
		env: env,
		out: os.Stdout,
	}
	a.openHost = a.configuredHost

	if err := a.rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// configuredHost builds the host from flags layered over Env.
func (a *app) configuredHost(ctx context.Context) (postcrud.Host, func() error, error) {
	cfg, err := config.Load(
		config.WithHostURL(a.hostURL),
		config.WithDBSchema(a.env.DBSchema),
		config.WithAPIToken(a.token),
		config.WithLogLevel(a.env.LogLevel),
	)
	if err != nil {
		return nil, nil, err
	}
	a.logger = cfg.NewLogger()
	slog.SetDefault(a.logger)
	return cfg.BuildHost(ctx)
}
