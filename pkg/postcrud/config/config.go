package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/postcrud/pkg/postcrud"
	badgerhost "github.com/tendant/postcrud/pkg/postcrud/host/badger"
	"github.com/tendant/postcrud/pkg/postcrud/host/memory"
	pghost "github.com/tendant/postcrud/pkg/postcrud/host/postgres"
	redishost "github.com/tendant/postcrud/pkg/postcrud/host/redis"
	"github.com/tendant/postcrud/pkg/postcrud/host/remote"
)

// Host types
const (
	HostMemory   = "memory"
	HostPostgres = "postgres"
	HostRedis    = "redis"
	HostBadger   = "badger"
	HostRemote   = "remote"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		HostType:    HostMemory,
		DBSchema:    "postcrud",
		AutoMigrate: true,
		RedisPrefix: "postcrud",
		LogLevel:    "info",
	}
}

// ServerConfig represents configuration for the postcrud server and CLI
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error

	// Host configuration
	HostType    string // memory, postgres, redis, badger, remote
	HostURL     string
	DBSchema    string // Postgres schema holding the posts tables
	AutoMigrate bool   // create the Postgres schema and tables on startup
	RedisPrefix string
	BadgerDir   string // empty keeps badger in memory

	// Auth
	JWTSecret string
	APIToken  string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.HostType {
	case HostMemory, HostBadger:
	case HostPostgres, HostRedis, HostRemote:
		if c.HostURL == "" {
			return fmt.Errorf("host_url is required when using %s", c.HostType)
		}
	default:
		return fmt.Errorf("host_type must be one of memory, postgres, redis, badger, remote; got %q", c.HostType)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// BuildHost creates the configured postcrud.Host. The returned close
// function releases its connections and is never nil.
func (c *ServerConfig) BuildHost(ctx context.Context) (postcrud.Host, func() error, error) {
	noop := func() error { return nil }

	switch c.HostType {
	case HostMemory:
		return memory.New(), noop, nil
	case HostPostgres:
		pool, err := c.buildPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		host := pghost.NewWithPool(pool)
		if c.AutoMigrate {
			if err := c.migrate(ctx, pool, host); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return host, func() error { pool.Close(); return nil }, nil
	case HostRedis:
		host, err := redishost.Dial(ctx, c.HostURL, redishost.WithPrefix(c.RedisPrefix))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return host, host.Close, nil
	case HostBadger:
		host, err := badgerhost.Open(c.BadgerDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger: %w", err)
		}
		return host, host.Close, nil
	case HostRemote:
		host, err := remote.New(c.HostURL, remote.WithToken(c.APIToken))
		if err != nil {
			return nil, nil, err
		}
		return host, noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported host type: %s", c.HostType)
	}
}

func (c *ServerConfig) buildPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.HostURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HOST_URL: %w", err)
	}
	if c.DBSchema != "" {
		searchPath := "SET search_path TO " + pgx.Identifier{c.DBSchema}.Sanitize()
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, searchPath)
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

func (c *ServerConfig) migrate(ctx context.Context, pool *pgxpool.Pool, host *pghost.Host) error {
	if c.DBSchema != "" {
		if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{c.DBSchema}.Sanitize()); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", c.DBSchema, err)
		}
	}
	if err := host.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// NewLogger returns the process logger: JSON in production, text otherwise.
func (c *ServerConfig) NewLogger() *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.Environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
