package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithLogLevel sets the minimum log level
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		if _, err := parseLevel(level); err != nil {
			return err
		}
		c.LogLevel = level
		return nil
	}
}

// WithHostURL selects the host from a URL, using the same detection as
// the HOST_URL environment variable
func WithHostURL(hostURL string) Option {
	return func(c *ServerConfig) error {
		return applyHostURL(hostURL, c)
	}
}

// WithMemoryHost uses the in-memory host
func WithMemoryHost() Option {
	return func(c *ServerConfig) error {
		c.HostType = HostMemory
		c.HostURL = ""
		return nil
	}
}

// WithPostgresHost uses Postgres at databaseURL inside schema
func WithPostgresHost(databaseURL, schema string) Option {
	return func(c *ServerConfig) error {
		if databaseURL == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.HostType = HostPostgres
		c.HostURL = databaseURL
		c.DBSchema = schema
		return nil
	}
}

// WithRedisHost uses Redis at redisURL with the given key prefix
func WithRedisHost(redisURL, prefix string) Option {
	return func(c *ServerConfig) error {
		if redisURL == "" {
			return fmt.Errorf("redis URL is required")
		}
		c.HostType = HostRedis
		c.HostURL = redisURL
		if prefix != "" {
			c.RedisPrefix = prefix
		}
		return nil
	}
}

// WithBadgerHost uses Badger stored in dir, or in memory when dir is empty
func WithBadgerHost(dir string) Option {
	return func(c *ServerConfig) error {
		c.HostType = HostBadger
		c.HostURL = "badger://" + dir
		c.BadgerDir = dir
		return nil
	}
}

// WithRemoteHost uses another postcrud server
func WithRemoteHost(baseURL string) Option {
	return func(c *ServerConfig) error {
		if baseURL == "" {
			return fmt.Errorf("remote base URL is required")
		}
		c.HostType = HostRemote
		c.HostURL = baseURL
		return nil
	}
}

// WithDBSchema sets the Postgres schema
func WithDBSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate toggles schema creation for Postgres
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithJWTSecret enables bearer JWT auth on the API
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithAPIToken sets the static API token
func WithAPIToken(token string) Option {
	return func(c *ServerConfig) error {
		c.APIToken = token
		return nil
	}
}
